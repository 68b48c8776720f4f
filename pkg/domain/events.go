package domain

import (
	"context"
	"time"
)

// EventType defines the category of an editing event.
type EventType string

const (
	EventNodeAdded         EventType = "node_added"
	EventNodeUpdated       EventType = "node_updated"
	EventNodeRemoved       EventType = "node_removed"
	EventNodeMoved         EventType = "node_moved"
	EventEdgeAdded         EventType = "edge_added"
	EventEdgeRemoved       EventType = "edge_removed"
	EventEdgeReconnected   EventType = "edge_reconnected"
	EventEdgeStatusChanged EventType = "edge_status_changed"
	EventFlowSaved         EventType = "flow_saved"
	EventFlowValidated     EventType = "flow_validated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id"`
}

// NodeEvent reports a structural change to one node.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeKind NodeKind `json:"node_kind"`
}

// EdgeEvent reports a change to one connection.
type EdgeEvent struct {
	EventBase
	EdgeID string     `json:"edge_id"`
	Source string     `json:"source"`
	Target string     `json:"target"`
	Status EdgeStatus `json:"status,omitempty"`
}

// SaveEvent reports a call to the save handler.
type SaveEvent struct {
	EventBase
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ValidateEvent reports a validation run.
type ValidateEvent struct {
	EventBase
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
}

// EditHooks defines callbacks for editor observability. Every field is optional.
type EditHooks struct {
	OnNodeChange func(context.Context, *NodeEvent)
	OnEdgeChange func(context.Context, *EdgeEvent)
	OnSave       func(context.Context, *SaveEvent)
	OnValidate   func(context.Context, *ValidateEvent)
}

// Merge returns hooks that call h first and then other.
func (h EditHooks) Merge(other EditHooks) EditHooks {
	return EditHooks{
		OnNodeChange: chain(h.OnNodeChange, other.OnNodeChange),
		OnEdgeChange: chain(h.OnEdgeChange, other.OnEdgeChange),
		OnSave:       chain(h.OnSave, other.OnSave),
		OnValidate:   chain(h.OnValidate, other.OnValidate),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
