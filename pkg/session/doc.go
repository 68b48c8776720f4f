/*
Package session orchestrates editing sessions over stored flows.

An Editor is single-writer; the Manager serializes every load-edit-save cycle
of the same flow id with a per-flow mutex, and optionally with a distributed
lock so several replicas can serve the same store.
*/
package session
