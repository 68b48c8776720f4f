package graph_test

import (
	"strings"
	"testing"

	"github.com/jPabloBC/ingenit-flows/internal/presentation/graph"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nodes []*domain.Node, edges ...*domain.Connection) *flowgraph.Graph {
	t.Helper()
	g := flowgraph.New()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	for _, c := range edges {
		require.NoError(t, g.AddEdge(c))
	}
	return g
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []*domain.Node
		edges    []*domain.Connection
		overlay  *graph.Overlay
		contains []string
	}{
		{
			name: "Node Shapes",
			nodes: []*domain.Node{
				{ID: "start", Payload: &domain.Start{Label: "Inicio"}},
				{ID: "menu", Payload: &domain.Menu{Title: "Principal"}},
				{ID: "q", Payload: &domain.Decision{Question: "¿Seguro?"}},
				{ID: "wait", Payload: &domain.Delay{Duration: 5}},
				{ID: "in", Payload: &domain.ClientMessage{Message: "hola"}},
				{ID: "end", Payload: &domain.End{Label: "Fin"}},
			},
			contains: []string{
				`start(("Inicio"))`,
				`menu{{"Principal"}}`,
				`q{"¿Seguro?"}`,
				`wait[["⏱️ 5s"]]`,
				`in[/"hola"/]`,
				`end_(["Fin"])`,
			},
		},
		{
			name: "ID Sanitization",
			nodes: []*domain.Node{
				{ID: "menu-1.a", Payload: &domain.SystemMessage{}},
			},
			contains: []string{`menu_1_a["menu-1.a"]`},
		},
		{
			name: "Edge Labels And Status",
			nodes: []*domain.Node{
				{ID: "m", Payload: &domain.Menu{Title: "M"}},
				{ID: "e", Payload: &domain.End{Label: "Fin"}},
			},
			edges: []*domain.Connection{
				{ID: "c1", Source: "m", Target: "e", Label: `say "bye"`, ValidationStatus: domain.EdgePass},
			},
			contains: []string{
				`m -- "✅ PASS - say 'bye'" --> e`,
				"linkStyle 0 stroke:#2e7d32",
			},
		},
		{
			name: "Overlay",
			nodes: []*domain.Node{
				{ID: "m", Payload: &domain.Menu{Title: "M"}},
			},
			overlay: &graph.Overlay{SelectedNode: "m", Highlight: []string{"m", "m", "ghost"}},
			contains: []string{
				"class m selected;",
				"class m failing;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(build(t, tt.nodes, tt.edges...), tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			if tt.overlay != nil && strings.Count(got, "failing;") != 1 {
				t.Errorf("expected a single failing class line, got:\n%v", got)
			}
		})
	}
}
