package flowgraph

import "github.com/jPabloBC/ingenit-flows/pkg/domain"

// Reachable returns the set of node ids reachable from root by following
// connections forward. Connections whose target is not a node are skipped.
// The root itself is included when it exists.
func (g *Graph) Reachable(root string) map[string]bool {
	seen := make(map[string]bool)
	if !g.HasNode(root) {
		return seen
	}
	adj := make(map[string][]string, len(g.nodes))
	for _, id := range g.edgeOrder {
		c := g.edges[id]
		adj[c.Source] = append(adj[c.Source], c.Target)
	}
	stack := []string{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || !g.HasNode(id) {
			continue
		}
		seen[id] = true
		stack = append(stack, adj[id]...)
	}
	return seen
}

// Touched returns the ids that appear as source or target of any connection.
func (g *Graph) Touched() map[string]bool {
	out := make(map[string]bool, len(g.nodes))
	for _, c := range g.edges {
		out[c.Source] = true
		out[c.Target] = true
	}
	return out
}

// Isolated returns the nodes no connection touches, in insertion order.
func (g *Graph) Isolated() []*domain.Node {
	touched := g.Touched()
	var out []*domain.Node
	for _, id := range g.nodeOrder {
		if !touched[id] {
			out = append(out, g.nodes[id])
		}
	}
	return out
}
