package editor

import (
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// reconcile rebuilds the outgoing connections of n from its options: every
// connection leaving n is dropped and one is created per option destination,
// plus one per "end" option without a destination. Manual statuses on those
// connections are reset to pending.
func (e *Engine) reconcile(n *domain.Node) {
	removed := e.graph.RemoveEdgesFunc(func(c *domain.Connection) bool { return c.Source == n.ID })
	for _, c := range removed {
		e.emitEdge(domain.EventEdgeRemoved, c)
	}

	ends := e.graph.NodeIDsOfKind(domain.KindEnd)
	for _, c := range flowgraph.OptionEdges(n, ends, e.policy) {
		c.ID = e.graph.UniqueEdgeID(c.ID)
		// Ids are unique by construction.
		_ = e.graph.AddEdge(c)
		e.emitEdge(domain.EventEdgeAdded, c)
	}
}
