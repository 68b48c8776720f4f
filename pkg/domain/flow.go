package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlowStatus is the outcome of the last validation run on the whole flow.
type FlowStatus string

const (
	FlowPending   FlowStatus = "pending"
	FlowValidated FlowStatus = "validated"
	FlowError     FlowStatus = "error"
)

// Valid reports whether s is a known flow status.
func (s FlowStatus) Valid() bool {
	return s == FlowPending || s == FlowValidated || s == FlowError
}

// Flow is the persisted conversational flow document.
//
// Connections distinguishes nil (the document carries no connections key, so
// connections are derived from the options) from an empty slice (the document
// explicitly has no connections).
type Flow struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Menus            []MenuDef      `json:"menus"`
	SystemMessages   []MessageDef   `json:"systemMessages"`
	ClientMessages   []MessageDef   `json:"clientMessages"`
	Decisions        []DecisionDef  `json:"decisions"`
	Delays           []DelayDef     `json:"delays"`
	StartNode        *MarkerDef     `json:"startNode,omitempty"`
	EndNodes         []MarkerDef    `json:"endNodes"`
	Connections      []Connection   `json:"connections"`
	ValidationStatus FlowStatus     `json:"validationStatus"`
	CreatedAt        time.Time      `json:"createdAt,omitzero"`
	UpdatedAt        time.Time      `json:"updatedAt,omitzero"`
	Extra            map[string]any `json:"-"`
}

// MenuDef is the stored form of a menu node.
type MenuDef struct {
	ID       string    `json:"id" mapstructure:"id"`
	Title    string    `json:"title" mapstructure:"title"`
	Message  string    `json:"message" mapstructure:"message"`
	Options  []Option  `json:"options" mapstructure:"-"`
	Position *Position `json:"position,omitempty" mapstructure:"position"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// MessageDef is the stored form of system and client message nodes.
type MessageDef struct {
	ID       string    `json:"id" mapstructure:"id"`
	Message  string    `json:"message" mapstructure:"message"`
	Position *Position `json:"position,omitempty" mapstructure:"position"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// DecisionDef is the stored form of a decision node.
type DecisionDef struct {
	ID       string    `json:"id" mapstructure:"id"`
	Question string    `json:"question" mapstructure:"question"`
	Options  []Option  `json:"options" mapstructure:"-"`
	Position *Position `json:"position,omitempty" mapstructure:"position"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// DelayDef is the stored form of a delay node. Duration is in seconds.
type DelayDef struct {
	ID       string    `json:"id" mapstructure:"id"`
	Duration float64   `json:"duration" mapstructure:"duration"`
	Message  string    `json:"message" mapstructure:"message"`
	Position *Position `json:"position,omitempty" mapstructure:"position"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// MarkerDef is the stored form of start and end nodes.
type MarkerDef struct {
	ID       string    `json:"id" mapstructure:"id"`
	Label    string    `json:"label,omitempty" mapstructure:"label"`
	Position *Position `json:"position,omitempty" mapstructure:"position"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// NewFlow returns an empty flow document.
func NewFlow(id, name string) *Flow {
	return &Flow{
		ID:               id,
		Name:             name,
		Menus:            []MenuDef{},
		SystemMessages:   []MessageDef{},
		ClientMessages:   []MessageDef{},
		Decisions:        []DecisionDef{},
		Delays:           []DelayDef{},
		EndNodes:         []MarkerDef{},
		Connections:      []Connection{},
		ValidationStatus: FlowPending,
	}
}

// NodeIDs returns every node id declared by the document, in storage order.
func (f *Flow) NodeIDs() []string {
	var ids []string
	if f.StartNode != nil {
		ids = append(ids, f.StartNode.ID)
	}
	for _, d := range f.Menus {
		ids = append(ids, d.ID)
	}
	for _, d := range f.SystemMessages {
		ids = append(ids, d.ID)
	}
	for _, d := range f.ClientMessages {
		ids = append(ids, d.ID)
	}
	for _, d := range f.Decisions {
		ids = append(ids, d.ID)
	}
	for _, d := range f.Delays {
		ids = append(ids, d.ID)
	}
	for _, d := range f.EndNodes {
		ids = append(ids, d.ID)
	}
	return ids
}

// Clone returns a deep copy by way of the JSON encoding.
func (f *Flow) Clone() (*Flow, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to clone flow %s: %w", f.ID, err)
	}
	var out Flow
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to clone flow %s: %w", f.ID, err)
	}
	return &out, nil
}

// MarshalJSON flattens Extra next to the known fields.
func (f Flow) MarshalJSON() ([]byte, error) {
	type plain Flow
	return marshalWithExtra(plain(f), f.Extra)
}

// UnmarshalJSON decodes leniently: fields of the wrong type fall back to their
// defaults. Only input that is not a JSON object is rejected. Use DecodeFlowMap
// to receive the field-level warnings.
func (f *Flow) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flow document must be a JSON object: %w", err)
	}
	decoded, _ := DecodeFlowMap(raw)
	*f = *decoded
	return nil
}

func (d MenuDef) MarshalJSON() ([]byte, error) {
	type plain MenuDef
	if d.Options == nil {
		d.Options = []Option{}
	}
	return marshalWithExtra(plain(d), d.Extra)
}

func (d MessageDef) MarshalJSON() ([]byte, error) {
	type plain MessageDef
	return marshalWithExtra(plain(d), d.Extra)
}

func (d DecisionDef) MarshalJSON() ([]byte, error) {
	type plain DecisionDef
	if d.Options == nil {
		d.Options = []Option{}
	}
	return marshalWithExtra(plain(d), d.Extra)
}

func (d DelayDef) MarshalJSON() ([]byte, error) {
	type plain DelayDef
	return marshalWithExtra(plain(d), d.Extra)
}

func (d MarkerDef) MarshalJSON() ([]byte, error) {
	type plain MarkerDef
	return marshalWithExtra(plain(d), d.Extra)
}
