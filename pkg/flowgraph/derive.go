package flowgraph

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// OptionEdgeID is the deterministic id of the connection leaving an option.
func OptionEdgeID(sourceID, optionID string) string {
	return "e-" + sourceID + "-" + domain.HandleFor(optionID)
}

// DefaultEdgeID is the deterministic id of a handle-less connection.
func DefaultEdgeID(sourceID, targetID string) string {
	return "e-" + sourceID + "-" + targetID
}

// OptionEdges derives the connections implied by the options of n: one per
// option with a destination, and one to an end node (chosen by policy) per
// option with action "end" and no destination. Nodes without options yield nil.
// The returned connections are pending and labeled with the option text.
func OptionEdges(n *domain.Node, endIDs []string, policy EndNodePolicy) []*domain.Connection {
	if policy == nil {
		policy = PositionalEndNode
	}
	var out []*domain.Connection
	for i, o := range domain.OptionsOf(n.Payload) {
		target := o.NextNodeID
		if target == "" && o.Action == domain.ActionEnd {
			target = policy(endIDs, i)
		}
		if target == "" {
			continue
		}
		out = append(out, &domain.Connection{
			ID:               OptionEdgeID(n.ID, o.ID),
			Source:           n.ID,
			Target:           target,
			SourceHandle:     o.Handle(),
			Label:            o.Text,
			ValidationStatus: domain.EdgePending,
		})
	}
	return out
}

// UniqueEdgeID returns base, or base with a numeric suffix when base is taken.
func (g *Graph) UniqueEdgeID(base string) string {
	if _, taken := g.edges[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		id := fmt.Sprintf("%s-%d", base, n)
		if _, taken := g.edges[id]; !taken {
			return id
		}
	}
}

// UniqueNodeID returns base, or base with a "-dup-<n>" suffix when base is taken.
func (g *Graph) UniqueNodeID(base string) string {
	if _, taken := g.nodes[base]; !taken {
		return base
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s-dup-%d", base, n)
		if _, taken := g.nodes[id]; !taken {
			return id
		}
	}
}
