package editor

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// Mode is the interaction mode of an editing session.
type Mode string

const (
	// ModeBrowse is the default: nodes can be selected, nothing is being edited.
	ModeBrowse Mode = "browse"
	// ModeEditing means a node form is open for EditingNodeID.
	ModeEditing Mode = "editing"
)

// Session is the explicit selection state of one editor.
type Session struct {
	SelectedNodeID string `json:"selectedNodeId,omitempty"`
	EditingNodeID  string `json:"editingNodeId,omitempty"`
	Mode           Mode   `json:"mode"`
}

// Session returns a copy of the current session state.
func (e *Engine) Session() Session {
	return e.session
}

// Select marks a node as selected. An empty id clears the selection.
// Selection is allowed in read-only mode.
func (e *Engine) Select(id string) error {
	if id != "" && !e.graph.HasNode(id) {
		return fmt.Errorf("select %s: %w", id, domain.ErrNodeNotFound)
	}
	e.session.SelectedNodeID = id
	return nil
}

// BeginEdit opens the node for editing and selects it.
func (e *Engine) BeginEdit(id string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if !e.graph.HasNode(id) {
		return fmt.Errorf("edit %s: %w", id, domain.ErrNodeNotFound)
	}
	e.session = Session{SelectedNodeID: id, EditingNodeID: id, Mode: ModeEditing}
	return nil
}

// EndEdit closes the editing form. The selection is kept.
func (e *Engine) EndEdit() {
	e.session.EditingNodeID = ""
	e.session.Mode = ModeBrowse
}

func (e *Engine) forget(id string) {
	if e.session.SelectedNodeID == id {
		e.session.SelectedNodeID = ""
	}
	if e.session.EditingNodeID == id {
		e.EndEdit()
	}
}
