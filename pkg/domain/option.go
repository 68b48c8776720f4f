package domain

import (
	"reflect"
	"strings"
)

// OptionAction is the symbolic behavior of an option. It is interpreted by the
// runtime consuming the flow, not by the editor.
type OptionAction string

const (
	ActionMessage OptionAction = "message"
	ActionMenu    OptionAction = "menu"
	ActionPhone   OptionAction = "phone"
	ActionURL     OptionAction = "url"
	ActionEnd     OptionAction = "end"
)

// Valid reports whether a is one of the known actions.
func (a OptionAction) Valid() bool {
	switch a {
	case ActionMessage, ActionMenu, ActionPhone, ActionURL, ActionEnd:
		return true
	}
	return false
}

// HandlePrefix prefixes option ids in connection source handles.
const HandlePrefix = "option-"

// Option is a selectable branch of a menu or decision.
type Option struct {
	ID         string       `json:"id" mapstructure:"id"`
	Text       string       `json:"text" mapstructure:"text"`
	Action     OptionAction `json:"action" mapstructure:"action"`
	NextNodeID string       `json:"nextNodeId,omitempty" mapstructure:"nextNodeId"`
	Response   string       `json:"response,omitempty" mapstructure:"response"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// Handle returns the source handle identifying this option on connections.
func (o Option) Handle() string {
	return HandleFor(o.ID)
}

// HandleFor builds the source handle for an option id.
func HandleFor(optionID string) string {
	return HandlePrefix + optionID
}

// ParseHandle extracts the option id from a source handle.
func ParseHandle(handle string) (string, bool) {
	if !strings.HasPrefix(handle, HandlePrefix) || len(handle) == len(HandlePrefix) {
		return "", false
	}
	return strings.TrimPrefix(handle, HandlePrefix), true
}

// MarshalJSON flattens Extra next to the known fields.
func (o Option) MarshalJSON() ([]byte, error) {
	type plain Option
	return marshalWithExtra(plain(o), o.Extra)
}

// CloneOptions deep-copies an option list, keeping nil as nil.
func CloneOptions(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	c := make([]Option, len(opts))
	for i, o := range opts {
		c[i] = o
		c[i].Extra = CloneExtra(o.Extra)
	}
	return c
}

// OptionsEqual compares two option lists including unknown fields.
func OptionsEqual(a, b []Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// FindOption returns the index of the option with the given id, or -1.
func FindOption(opts []Option, id string) int {
	for i, o := range opts {
		if o.ID == id {
			return i
		}
	}
	return -1
}
