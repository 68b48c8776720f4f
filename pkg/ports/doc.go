/*
Package ports defines the driven ports (interfaces) used around the flow editor.

The editor itself performs no I/O: hosts persist flows through a FlowStore and
wire it to flows.WithSaveHandler. These interfaces decouple the CLI, HTTP and MCP
surfaces from the storage backends.

# Key Interfaces

  - FlowStore: Persists and loads flow documents by id.
  - DistributedLocker: Serializes edits of the same flow across instances (replicas).
*/
package ports
