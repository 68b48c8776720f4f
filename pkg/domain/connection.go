package domain

import (
	"fmt"
	"strings"
)

// EdgeStatus is the manual annotation a person assigns to a connection.
// Any status may move to any other; there is no terminal state.
type EdgeStatus string

const (
	EdgePending EdgeStatus = "pending"
	EdgePass    EdgeStatus = "pass"
	EdgeError   EdgeStatus = "error"
	EdgeRetry   EdgeStatus = "retry"
)

// EdgeStatuses lists every status in display order.
var EdgeStatuses = []EdgeStatus{EdgePending, EdgePass, EdgeError, EdgeRetry}

// Valid reports whether s is a known status.
func (s EdgeStatus) Valid() bool {
	switch s {
	case EdgePending, EdgePass, EdgeError, EdgeRetry:
		return true
	}
	return false
}

// ParseEdgeStatus validates a status name.
func ParseEdgeStatus(s string) (EdgeStatus, error) {
	st := EdgeStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

var labelTokens = map[EdgeStatus]string{
	EdgePass:    "✅ PASS - ",
	EdgeError:   "❌ ERROR - ",
	EdgeRetry:   "🔄 RETRY - ",
	EdgePending: "⏳ PENDING - ",
}

// DecorateLabel renders the display label of an edge: the status token followed by
// the plain text. It is presentation only; the status field stays authoritative.
func DecorateLabel(status EdgeStatus, text string) string {
	tok, ok := labelTokens[status]
	if !ok {
		return text
	}
	return tok + text
}

// ParseLabel recognizes a decorated label written by older editors and splits it
// into status and plain text. ok is false for undecorated labels.
func ParseLabel(label string) (status EdgeStatus, text string, ok bool) {
	for _, st := range EdgeStatuses {
		tok := labelTokens[st]
		if strings.HasPrefix(label, tok) {
			return st, strings.TrimPrefix(label, tok), true
		}
		// A decorated empty label loses its trailing space when trimmed by hosts.
		if label == strings.TrimSuffix(tok, " ") {
			return st, "", true
		}
	}
	return "", label, false
}

// Connection is a directed, labeled, annotated link between two nodes.
type Connection struct {
	ID               string     `json:"id" mapstructure:"id"`
	Source           string     `json:"source" mapstructure:"source"`
	Target           string     `json:"target" mapstructure:"target"`
	SourceHandle     string     `json:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
	Label            string     `json:"label,omitempty" mapstructure:"label"`
	ValidationStatus EdgeStatus `json:"validationStatus" mapstructure:"validationStatus"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// OptionID returns the option id encoded in the source handle, if any.
func (c *Connection) OptionID() (string, bool) {
	return ParseHandle(c.SourceHandle)
}

// Touches reports whether the connection starts or ends at nodeID.
func (c *Connection) Touches(nodeID string) bool {
	return c.Source == nodeID || c.Target == nodeID
}

// Clone returns a deep copy.
func (c *Connection) Clone() *Connection {
	cp := *c
	cp.Extra = CloneExtra(c.Extra)
	return &cp
}

// MarshalJSON flattens Extra next to the known fields.
func (c Connection) MarshalJSON() ([]byte, error) {
	type plain Connection
	return marshalWithExtra(plain(c), c.Extra)
}
