package serialization

import (
	"fmt"
	"log/slog"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// Option configures Load.
type Option func(*loader)

// WithLogger reports load warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithEndNodePolicy selects the end node of derived "end" option connections.
func WithEndNodePolicy(policy flowgraph.EndNodePolicy) Option {
	return func(l *loader) {
		if policy != nil {
			l.policy = policy
		}
	}
}

type loader struct {
	logger   *slog.Logger
	policy   flowgraph.EndNodePolicy
	g        *flowgraph.Graph
	warnings []error
}

func (l *loader) warn(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	l.warnings = append(l.warnings, err)
	if l.logger != nil {
		l.logger.Warn("flow load", "err", err)
	}
}

// Load materializes the graph of a flow document. It always returns a usable
// graph; the warnings describe every repair that was applied. A nil flow yields
// an empty graph.
func Load(flow *domain.Flow, opts ...Option) (*flowgraph.Graph, []error) {
	l := &loader{policy: flowgraph.PositionalEndNode, g: flowgraph.New()}
	for _, opt := range opts {
		opt(l)
	}
	if flow == nil {
		return l.g, nil
	}

	if s := flow.StartNode; s != nil {
		l.add(domain.KindStart, 0, s.ID, s.Position, &domain.Start{Label: s.Label}, s.Extra)
	}
	for i := range flow.Menus {
		d := &flow.Menus[i]
		l.add(domain.KindMenu, i, d.ID, d.Position, l.options(d.Payload(), d.ID), d.Extra)
	}
	for i, d := range flow.SystemMessages {
		l.add(domain.KindSystemMessage, i, d.ID, d.Position, &domain.SystemMessage{Message: d.Message}, d.Extra)
	}
	for i, d := range flow.ClientMessages {
		l.add(domain.KindClientMessage, i, d.ID, d.Position, &domain.ClientMessage{Message: d.Message}, d.Extra)
	}
	for i := range flow.Decisions {
		d := &flow.Decisions[i]
		l.add(domain.KindDecision, i, d.ID, d.Position, l.options(d.Payload(), d.ID), d.Extra)
	}
	for i := range flow.Delays {
		d := &flow.Delays[i]
		l.add(domain.KindDelay, i, d.ID, d.Position, d.Payload(), d.Extra)
	}
	for i, d := range flow.EndNodes {
		l.add(domain.KindEnd, i, d.ID, d.Position, &domain.End{Label: d.Label}, d.Extra)
	}

	if flow.Connections != nil {
		l.loadConnections(flow.Connections)
	} else {
		l.deriveConnections()
	}
	return l.g, l.warnings
}

func (l *loader) add(kind domain.NodeKind, i int, id string, pos *domain.Position, p domain.Payload, extra map[string]any) {
	if id == "" {
		id = l.g.UniqueNodeID(fmt.Sprintf("%s-%d", kind, i+1))
		l.warn("%s #%d has no id, assigned %s", kind, i+1, id)
	} else if l.g.HasNode(id) {
		rekeyed := l.g.UniqueNodeID(id)
		l.warn("duplicate node id %s, re-keyed %s node as %s", id, kind, rekeyed)
		id = rekeyed
	}
	n := &domain.Node{
		ID:       id,
		Position: DefaultPosition(kind, i),
		Payload:  p,
		Extra:    domain.CloneExtra(extra),
	}
	if pos != nil {
		n.Position = *pos
	}
	// AddNode only fails on duplicates, which were re-keyed above.
	_ = l.g.AddNode(n)
}

// options normalizes option lists: every option needs an id to be addressable
// through a source handle. Stored ids are reserved before any missing or
// duplicated id is repaired, so existing source handles keep their option.
func (l *loader) options(p domain.Payload, nodeID string) domain.Payload {
	opts := domain.OptionsOf(p)
	taken := make(map[string]bool, len(opts))
	keep := make([]bool, len(opts))
	for i, o := range opts {
		if o.ID != "" && !taken[o.ID] {
			taken[o.ID], keep[i] = true, true
		}
	}
	for i := range opts {
		if keep[i] {
			continue
		}
		old := opts[i].ID
		id := fmt.Sprintf("%d", i+1)
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%d-%d", i+1, n)
		}
		opts[i].ID, taken[id] = id, true
		l.warn("node %s option #%d had id %q, assigned %s", nodeID, i+1, old, id)
	}
	return p
}

func (l *loader) loadConnections(conns []domain.Connection) {
	for i, c := range conns {
		conn := c
		conn.Extra = domain.CloneExtra(c.Extra)

		// Older editors kept the status only inside the label. A stored
		// status field makes the label plain text.
		if !conn.ValidationStatus.Valid() {
			conn.ValidationStatus = domain.EdgePending
			if status, text, decorated := domain.ParseLabel(conn.Label); decorated {
				conn.ValidationStatus, conn.Label = status, text
			}
		}

		if conn.ID == "" {
			base := flowgraph.DefaultEdgeID(conn.Source, conn.Target)
			if conn.SourceHandle != "" {
				base = "e-" + conn.Source + "-" + conn.SourceHandle
			}
			conn.ID = l.g.UniqueEdgeID(base)
			l.warn("connection #%d has no id, assigned %s", i+1, conn.ID)
		} else if _, taken := l.g.Edge(conn.ID); taken {
			id := l.g.UniqueEdgeID(conn.ID)
			l.warn("duplicate connection id %s, re-keyed as %s", conn.ID, id)
			conn.ID = id
		}
		_ = l.g.AddEdge(&conn)
	}
}

// deriveConnections rebuilds the connections of flows stored before they were
// tracked explicitly.
func (l *loader) deriveConnections() {
	starts := l.g.NodeIDsOfKind(domain.KindStart)
	menus := l.g.NodeIDsOfKind(domain.KindMenu)
	if len(starts) > 0 && len(menus) > 0 {
		_ = l.g.AddEdge(&domain.Connection{
			ID:               flowgraph.DefaultEdgeID(starts[0], menus[0]),
			Source:           starts[0],
			Target:           menus[0],
			ValidationStatus: domain.EdgePending,
		})
	}

	ends := l.g.NodeIDsOfKind(domain.KindEnd)
	for _, n := range l.g.Nodes() {
		for _, c := range flowgraph.OptionEdges(n, ends, l.policy) {
			c.ID = l.g.UniqueEdgeID(c.ID)
			_ = l.g.AddEdge(c)
		}
	}
}
