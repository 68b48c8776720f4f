// Package schema publishes the JSON Schema of the stored flow document.
//
// The schema is reflected from the domain types and then tightened: statuses,
// kinds and option actions get their enums, and only the fields the loader
// cannot default are required. Unknown properties stay allowed because the
// editor preserves them.
//
//	data, err := schema.JSON()
package schema
