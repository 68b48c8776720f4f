/*
Package observability turns editor lifecycle events into metrics and logs.

Both Metrics.Hooks and LogHooks return domain.EditHooks, so they can be combined
with EditHooks.Merge and passed to flows.WithHooks.
*/
package observability
