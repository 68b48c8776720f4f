/*
Package domain contains the core domain models of the flow editor.

It defines both shapes of a conversational flow: the persisted Flow document (the
interchange format stored by hosts) and the typed Node payloads the editor works with
in memory. The package is kept free of I/O; persistence and presentation live in the
adapters.

# Key Entities

  - Flow: The persisted document (node definitions per kind, start/end markers, connections).
  - Node: An in-memory step with a position and a kind-specific Payload (Menu, Decision, ...).
  - Option: A selectable branch inside a menu or decision node.
  - Connection: A directed, labeled link between nodes carrying a manual EdgeStatus.
  - Finding: One automatic observation produced by the validation rules.
*/
package domain
