/*
Package serialization maps the persisted Flow document to the editor's in-memory
graph and back.

Loading never fails: malformed entries fall back to defaults, entries without a
stored position get a deterministic one per kind, and duplicate ids are re-keyed
instead of dropped. Flows stored without a connections list get their connections
derived from the options.

Dumping merges every node over the unknown fields of the matching entry of the
base document, so data this editor does not understand survives a round trip.
*/
package serialization
