// Package flowgraph is the in-memory shape of a flow used while editing: nodes by
// id and connections by id, both keeping insertion order so that the persisted
// document is re-emitted in a stable order.
//
// The package holds structure and accessors only. Consistency between options and
// connections is the editor's job; structural checks belong to the validator.
package flowgraph

import (
	"fmt"
	"slices"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// Graph is a mutable set of nodes and connections.
// Pointers returned by accessors are owned by the graph; callers that mutate them
// are responsible for keeping the graph consistent.
// A Graph is not safe for concurrent use.
type Graph struct {
	nodes     map[string]*domain.Node
	nodeOrder []string
	edges     map[string]*domain.Connection
	edgeOrder []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*domain.Node),
		edges: make(map[string]*domain.Connection),
	}
}

// AddNode inserts n. The id must be unique among nodes.
func (g *Graph) AddNode(n *domain.Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("node requires an id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: node %s", domain.ErrDuplicateID, n.ID)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// RemoveNode deletes the node and returns it. Connections are not touched.
func (g *Graph) RemoveNode(id string) (*domain.Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	return n, true
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*domain.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id names a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Kind returns the kind of the node with the given id.
func (g *Graph) Kind(id string) (domain.NodeKind, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return "", false
	}
	return n.Kind(), true
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*domain.Node {
	out := make([]*domain.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (g *Graph) NodesOfKind(kind domain.NodeKind) []*domain.Node {
	var out []*domain.Node
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.Kind() == kind {
			out = append(out, n)
		}
	}
	return out
}

// NodeIDsOfKind returns the ids of the nodes of one kind in insertion order.
func (g *Graph) NodeIDsOfKind(kind domain.NodeKind) []string {
	var out []string
	for _, n := range g.NodesOfKind(kind) {
		out = append(out, n.ID)
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddEdge inserts c. The id must be unique among connections; endpoints are not
// checked so that dangling references in stored flows survive loading.
func (g *Graph) AddEdge(c *domain.Connection) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("connection requires an id")
	}
	if _, exists := g.edges[c.ID]; exists {
		return fmt.Errorf("%w: connection %s", domain.ErrDuplicateID, c.ID)
	}
	g.edges[c.ID] = c
	g.edgeOrder = append(g.edgeOrder, c.ID)
	return nil
}

// RemoveEdge deletes a connection and returns it.
func (g *Graph) RemoveEdge(id string) (*domain.Connection, bool) {
	c, ok := g.edges[id]
	if !ok {
		return nil, false
	}
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(s string) bool { return s == id })
	return c, true
}

// RemoveEdgesFunc deletes every connection for which del returns true and
// returns the removed connections in order.
func (g *Graph) RemoveEdgesFunc(del func(*domain.Connection) bool) []*domain.Connection {
	var removed []*domain.Connection
	kept := g.edgeOrder[:0]
	for _, id := range g.edgeOrder {
		c := g.edges[id]
		if del(c) {
			removed = append(removed, c)
			delete(g.edges, id)
			continue
		}
		kept = append(kept, id)
	}
	g.edgeOrder = kept
	return removed
}

// Edge returns the connection with the given id.
func (g *Graph) Edge(id string) (*domain.Connection, bool) {
	c, ok := g.edges[id]
	return c, ok
}

// Edges returns every connection in insertion order.
func (g *Graph) Edges() []*domain.Connection {
	out := make([]*domain.Connection, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// EdgeCount returns the number of connections.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Outgoing returns the connections whose source is nodeID.
func (g *Graph) Outgoing(nodeID string) []*domain.Connection {
	return g.edgesWhere(func(c *domain.Connection) bool { return c.Source == nodeID })
}

// Incoming returns the connections whose target is nodeID.
func (g *Graph) Incoming(nodeID string) []*domain.Connection {
	return g.edgesWhere(func(c *domain.Connection) bool { return c.Target == nodeID })
}

// OutgoingFromHandle returns the connections leaving nodeID through handle.
func (g *Graph) OutgoingFromHandle(nodeID, handle string) []*domain.Connection {
	return g.edgesWhere(func(c *domain.Connection) bool {
		return c.Source == nodeID && c.SourceHandle == handle
	})
}

func (g *Graph) edgesWhere(match func(*domain.Connection) bool) []*domain.Connection {
	var out []*domain.Connection
	for _, id := range g.edgeOrder {
		if c := g.edges[id]; match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.nodeOrder {
		c.nodes[id] = g.nodes[id].Clone()
	}
	c.nodeOrder = slices.Clone(g.nodeOrder)
	for _, id := range g.edgeOrder {
		c.edges[id] = g.edges[id].Clone()
	}
	c.edgeOrder = slices.Clone(g.edgeOrder)
	return c
}
