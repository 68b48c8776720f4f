package domain

import (
	"fmt"
	"reflect"
)

// NodeKind is the closed set of step types a flow can contain.
type NodeKind string

const (
	// KindStart marks the entry point of the conversation.
	KindStart NodeKind = "start"
	// KindEnd marks a terminal point of the conversation.
	KindEnd NodeKind = "end"
	// KindMenu shows a message with selectable options.
	KindMenu NodeKind = "menu"
	// KindSystemMessage is a message sent by the bot.
	KindSystemMessage NodeKind = "systemMessage"
	// KindClientMessage is a message expected from the customer.
	KindClientMessage NodeKind = "clientMessage"
	// KindDecision asks a question with symbolic answers.
	KindDecision NodeKind = "decision"
	// KindDelay pauses the conversation for a number of seconds.
	KindDelay NodeKind = "delay"
)

// Kinds lists every node kind in the order the document stores them.
var Kinds = []NodeKind{KindStart, KindMenu, KindSystemMessage, KindClientMessage, KindDecision, KindDelay, KindEnd}

// ParseKind validates a kind name.
func ParseKind(s string) (NodeKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// HasOptions reports whether nodes of this kind carry an option list.
func (k NodeKind) HasOptions() bool {
	return k == KindMenu || k == KindDecision
}

// Position is a 2-D layout coordinate. It carries no semantics.
type Position struct {
	X float64 `json:"x" mapstructure:"x" yaml:"x"`
	Y float64 `json:"y" mapstructure:"y" yaml:"y"`
}

// Payload is the kind-specific content of a node.
// The set of implementations is closed: Menu, SystemMessage, ClientMessage,
// Decision, Delay, Start and End.
type Payload interface {
	Kind() NodeKind
	clonePayload() Payload
}

// Menu shows a title and message followed by selectable options.
type Menu struct {
	Title   string
	Message string
	Options []Option
}

// SystemMessage is a plain message sent by the bot.
type SystemMessage struct {
	Message string
}

// ClientMessage is a plain message expected from the customer.
type ClientMessage struct {
	Message string
}

// Decision asks a question and offers symbolic answers.
type Decision struct {
	Question string
	Options  []Option
}

// Delay pauses the conversation. Duration is in seconds.
type Delay struct {
	Duration float64
	Message  string
}

// Start is the entry marker.
type Start struct {
	Label string
}

// End is a terminal marker.
type End struct {
	Label string
}

func (*Menu) Kind() NodeKind          { return KindMenu }
func (*SystemMessage) Kind() NodeKind { return KindSystemMessage }
func (*ClientMessage) Kind() NodeKind { return KindClientMessage }
func (*Decision) Kind() NodeKind      { return KindDecision }
func (*Delay) Kind() NodeKind         { return KindDelay }
func (*Start) Kind() NodeKind         { return KindStart }
func (*End) Kind() NodeKind           { return KindEnd }

func (p *Menu) clonePayload() Payload {
	c := *p
	c.Options = CloneOptions(p.Options)
	return &c
}

func (p *Decision) clonePayload() Payload {
	c := *p
	c.Options = CloneOptions(p.Options)
	return &c
}

func (p *SystemMessage) clonePayload() Payload { c := *p; return &c }
func (p *ClientMessage) clonePayload() Payload { c := *p; return &c }
func (p *Delay) clonePayload() Payload         { c := *p; return &c }
func (p *Start) clonePayload() Payload         { c := *p; return &c }
func (p *End) clonePayload() Payload           { c := *p; return &c }

// IsNilPayload reports whether p is nil or a nil pointer of a payload type.
func IsNilPayload(p Payload) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// ClonePayload returns a deep copy of p. A nil payload yields nil.
func ClonePayload(p Payload) Payload {
	if IsNilPayload(p) {
		return nil
	}
	return p.clonePayload()
}

// DefaultPayload returns the payload a freshly added node of the given kind starts with.
func DefaultPayload(kind NodeKind) (Payload, error) {
	switch kind {
	case KindStart:
		return &Start{Label: "Inicio"}, nil
	case KindEnd:
		return &End{Label: "Fin"}, nil
	case KindMenu:
		return &Menu{Options: []Option{
			{ID: "1", Action: ActionMessage},
			{ID: "2", Action: ActionMessage},
		}}, nil
	case KindSystemMessage:
		return &SystemMessage{}, nil
	case KindClientMessage:
		return &ClientMessage{}, nil
	case KindDecision:
		return &Decision{Options: []Option{
			{ID: "1", Text: "Sí", Action: ActionMessage},
			{ID: "2", Text: "No", Action: ActionMessage},
		}}, nil
	case KindDelay:
		return &Delay{Duration: 5}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// OptionsOf returns the option list of menu and decision payloads, nil otherwise.
func OptionsOf(p Payload) []Option {
	switch v := p.(type) {
	case *Menu:
		return v.Options
	case *Decision:
		return v.Options
	}
	return nil
}

// SetOptions replaces the option list of menu and decision payloads.
// It reports false for kinds without options.
func SetOptions(p Payload, opts []Option) bool {
	switch v := p.(type) {
	case *Menu:
		v.Options = opts
	case *Decision:
		v.Options = opts
	default:
		return false
	}
	return true
}

// Node is one step of the flow as held by the editor.
type Node struct {
	ID       string
	Position Position
	Payload  Payload

	// Extra keeps the stored fields this editor does not understand.
	Extra map[string]any
}

// Kind returns the node's kind, derived from its payload.
func (n *Node) Kind() NodeKind {
	if n.Payload == nil {
		return ""
	}
	return n.Payload.Kind()
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Payload = ClonePayload(n.Payload)
	c.Extra = CloneExtra(n.Extra)
	return &c
}

// CloneExtra copies an unknown-fields map. Nested values are shared; they are
// treated as immutable by every package.
func CloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
