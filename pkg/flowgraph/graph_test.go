package flowgraph

import (
	"testing"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddNode(&domain.Node{ID: "s", Payload: &domain.Start{Label: "Inicio"}}))
	require.NoError(t, g.AddNode(&domain.Node{ID: "m", Payload: &domain.Menu{Title: "t", Options: []domain.Option{{ID: "1"}}}}))
	require.NoError(t, g.AddNode(&domain.Node{ID: "e", Payload: &domain.End{Label: "Fin"}}))
	require.NoError(t, g.AddNode(&domain.Node{ID: "lonely", Payload: &domain.SystemMessage{}}))
	require.NoError(t, g.AddEdge(&domain.Connection{ID: "c1", Source: "s", Target: "m"}))
	require.NoError(t, g.AddEdge(&domain.Connection{ID: "c2", Source: "m", Target: "e", SourceHandle: "option-1"}))
	return g
}

func TestGraph_Accessors(t *testing.T) {
	g := sampleGraph(t)

	n, ok := g.Node("m")
	require.True(t, ok)
	assert.Equal(t, domain.KindMenu, n.Kind())

	kind, ok := g.Kind("e")
	assert.True(t, ok)
	assert.Equal(t, domain.KindEnd, kind)
	_, ok = g.Kind("missing")
	assert.False(t, ok)

	out := g.Outgoing("m")
	require.Len(t, out, 1)
	assert.Equal(t, "c2", out[0].ID)
	assert.Len(t, g.Incoming("m"), 1)
	assert.Len(t, g.OutgoingFromHandle("m", "option-1"), 1)
	assert.Empty(t, g.OutgoingFromHandle("m", "option-2"))

	assert.Equal(t, []string{"e"}, g.NodeIDsOfKind(domain.KindEnd))
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraph_DuplicateIDs(t *testing.T) {
	g := sampleGraph(t)
	err := g.AddNode(&domain.Node{ID: "m", Payload: &domain.End{}})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	err = g.AddEdge(&domain.Connection{ID: "c1", Source: "m", Target: "s"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestGraph_RemovePreservesOrder(t *testing.T) {
	g := sampleGraph(t)
	_, ok := g.RemoveNode("m")
	assert.True(t, ok)
	_, ok = g.RemoveNode("m")
	assert.False(t, ok)

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"s", "e", "lonely"}, ids)

	removed := g.RemoveEdgesFunc(func(c *domain.Connection) bool { return c.Touches("m") })
	assert.Len(t, removed, 2)
	assert.Zero(t, g.EdgeCount())
}

func TestGraph_Traversal(t *testing.T) {
	g := sampleGraph(t)
	assert.Equal(t, map[string]bool{"s": true, "m": true, "e": true}, g.Reachable("s"))
	assert.Empty(t, g.Reachable("nope"))

	iso := g.Isolated()
	require.Len(t, iso, 1)
	assert.Equal(t, "lonely", iso[0].ID)
}

func TestGraph_CloneIsDeep(t *testing.T) {
	g := sampleGraph(t)
	c := g.Clone()

	n, _ := c.Node("m")
	n.Payload.(*domain.Menu).Options[0].NextNodeID = "e"
	e, _ := c.Edge("c1")
	e.ValidationStatus = domain.EdgePass

	orig, _ := g.Node("m")
	assert.Empty(t, orig.Payload.(*domain.Menu).Options[0].NextNodeID)
	origEdge, _ := g.Edge("c1")
	assert.Empty(t, origEdge.ValidationStatus)
}
