// Package editor implements the interactive mutation API over a flow graph.
//
// Every operation is synchronous and leaves the graph consistent before it
// returns: option destinations and their connections always agree. Invalid
// arguments are reported as errors wrapping the domain sentinels; structural
// problems of the flow itself are left to the validator.
package editor

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// IDGenerator produces fresh node ids.
type IDGenerator func(kind domain.NodeKind) string

// DefaultIDGenerator returns "<kind>-<uuid v7>". Version 7 uuids are time-ordered,
// so ids sort by creation time.
func DefaultIDGenerator(kind domain.NodeKind) string {
	id, err := uuid.NewV7()
	if err != nil {
		return string(kind) + "-" + uuid.NewString()
	}
	return string(kind) + "-" + id.String()
}

// Engine mutates one flow graph. It is single-writer and not safe for
// concurrent use.
type Engine struct {
	graph    *flowgraph.Graph
	session  Session
	readOnly bool
	policy   flowgraph.EndNodePolicy
	newID    IDGenerator
	rng      *rand.Rand
	hooks    domain.EditHooks
	logger   *slog.Logger
	flowID   string
	now      func() time.Time
	revision uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithReadOnly rejects every mutation with domain.ErrReadOnly.
func WithReadOnly(readOnly bool) EngineOption {
	return func(e *Engine) {
		e.readOnly = readOnly
	}
}

// WithEndNodePolicy selects the end node that "end" options connect to.
func WithEndNodePolicy(policy flowgraph.EndNodePolicy) EngineOption {
	return func(e *Engine) {
		if policy != nil {
			e.policy = policy
		}
	}
}

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(gen IDGenerator) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithRandSeed makes the placement of new nodes deterministic.
func WithRandSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.EditHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFlowID tags events and log lines with the id of the edited flow.
func WithFlowID(id string) EngineOption {
	return func(e *Engine) {
		e.flowID = id
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wraps g. A nil graph starts empty.
func NewEngine(g *flowgraph.Graph, opts ...EngineOption) *Engine {
	if g == nil {
		g = flowgraph.New()
	}
	e := &Engine{
		graph:   g,
		policy:  flowgraph.PositionalEndNode,
		newID:   DefaultIDGenerator,
		logger:  logging.NewNop(),
		now:     time.Now,
		session: Session{Mode: ModeBrowse},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(e.now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	e.logger = e.logger.With("flow", e.flowID)
	return e
}

// Graph returns the edited graph. Callers must treat it as read-only and go
// through the engine for changes.
func (e *Engine) Graph() *flowgraph.Graph {
	return e.graph
}

// ReadOnly reports whether mutations are rejected.
func (e *Engine) ReadOnly() bool {
	return e.readOnly
}

// SetReadOnly toggles read-only mode.
func (e *Engine) SetReadOnly(readOnly bool) {
	e.readOnly = readOnly
}

// Revision counts structural changes (nodes, payloads and connections). Moving
// nodes and annotating connections do not change it.
func (e *Engine) Revision() uint64 {
	return e.revision
}

// EndNodePolicy returns the policy used by reconciliation.
func (e *Engine) EndNodePolicy() flowgraph.EndNodePolicy {
	return e.policy
}

func (e *Engine) guard() error {
	if e.readOnly {
		return domain.ErrReadOnly
	}
	return nil
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, FlowID: e.flowID}
}

func (e *Engine) emitNode(t domain.EventType, n *domain.Node) {
	if e.hooks.OnNodeChange == nil {
		return
	}
	e.hooks.OnNodeChange(context.Background(), &domain.NodeEvent{EventBase: e.base(t), NodeID: n.ID, NodeKind: n.Kind()})
}

func (e *Engine) emitEdge(t domain.EventType, c *domain.Connection) {
	if e.hooks.OnEdgeChange == nil {
		return
	}
	e.hooks.OnEdgeChange(context.Background(), &domain.EdgeEvent{
		EventBase: e.base(t), EdgeID: c.ID, Source: c.Source, Target: c.Target, Status: c.ValidationStatus,
	})
}
