package serialization

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

const legacyDoc = `{
	"id": "f1",
	"name": "Legacy",
	"startNode": "s",
	"menus": [
		{"id": "m", "title": "Hola", "message": "Elige", "options": [
			{"id": "1", "text": "Info", "action": "message", "nextNodeId": "info"},
			{"id": "2", "text": "Salir", "action": "end"}
		]}
	],
	"systemMessages": [{"id": "info", "message": "Horario 9-18", "channel": "wa"}],
	"endNodes": [{"id": "e1", "label": "Fin"}],
	"tenant": "acme"
}`

func decode(t *testing.T, doc string) *domain.Flow {
	t.Helper()
	f, warnings, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, warnings)
	return f
}

func TestLoad_DerivesLegacyConnections(t *testing.T) {
	g, warnings := Load(decode(t, legacyDoc))
	assert.Empty(t, warnings)

	var got [][3]string
	for _, c := range g.Edges() {
		got = append(got, [3]string{c.Source, c.SourceHandle, c.Target})
		assert.Equal(t, domain.EdgePending, c.ValidationStatus)
	}
	assert.Equal(t, [][3]string{
		{"s", "", "m"},
		{"m", "option-1", "info"},
		{"m", "option-2", "e1"},
	}, got)
}

func TestLoad_ExplicitEmptyConnectionsAreAuthoritative(t *testing.T) {
	f := decode(t, legacyDoc)
	f.Connections = []domain.Connection{}
	g, _ := Load(f)
	assert.Zero(t, g.EdgeCount())
}

func TestLoad_DefaultPositions(t *testing.T) {
	g, _ := Load(decode(t, legacyDoc))

	s, _ := g.Node("s")
	assert.Equal(t, domain.Position{X: 250, Y: 50}, s.Position)
	m, _ := g.Node("m")
	assert.Equal(t, domain.Position{X: 100, Y: 200}, m.Position)
	e, _ := g.Node("e1")
	assert.Equal(t, domain.Position{X: 100, Y: 800}, e.Position)

	assert.Equal(t, domain.Position{X: 600, Y: 650}, DefaultPosition(domain.KindDelay, 2))
}

func TestLoad_DuplicateIDsAreRekeyed(t *testing.T) {
	f := domain.NewFlow("f", "dups")
	f.Menus = []domain.MenuDef{{ID: "x", Title: "a"}}
	f.SystemMessages = []domain.MessageDef{{ID: "x", Message: "b"}, {Message: "no id"}}
	f.Connections = []domain.Connection{
		{ID: "c", Source: "x", Target: "x"},
		{ID: "c", Source: "x", Target: "x"},
	}

	g, warnings := Load(f)
	assert.Len(t, warnings, 3)
	assert.Equal(t, 3, g.Len())
	kind, ok := g.Kind("x-dup-1")
	assert.True(t, ok)
	assert.Equal(t, domain.KindSystemMessage, kind)
	assert.True(t, g.HasNode("systemMessage-2"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestLoad_DecoratedLabels(t *testing.T) {
	f := domain.NewFlow("f", "labels")
	f.Connections = []domain.Connection{
		{ID: "a", Source: "x", Target: "y", Label: "✅ PASS - Ventas"},
		{ID: "b", Source: "x", Target: "y", Label: "❌ ERROR - Soporte", ValidationStatus: domain.EdgeRetry},
		{ID: "c", Source: "x", Target: "y", Label: "Plain"},
	}
	g, _ := Load(f)

	a, _ := g.Edge("a")
	assert.Equal(t, domain.EdgePass, a.ValidationStatus)
	assert.Equal(t, "Ventas", a.Label)

	b, _ := g.Edge("b")
	assert.Equal(t, domain.EdgeRetry, b.ValidationStatus, "stored status wins over the label")
	assert.Equal(t, "❌ ERROR - Soporte", b.Label, "labels next to a stored status are plain text")

	c, _ := g.Edge("c")
	assert.Equal(t, domain.EdgePending, c.ValidationStatus)
}

func TestLoad_OptionRepairKeepsStoredIDs(t *testing.T) {
	f := domain.NewFlow("f", "options")
	f.Menus = []domain.MenuDef{{ID: "m", Title: "T", Message: "M", Options: []domain.Option{
		{Text: "sin id", Action: domain.ActionMessage},
		{ID: "1", Text: "Ventas", Action: domain.ActionMessage, NextNodeID: "sales"},
		{ID: "1", Text: "Repetida", Action: domain.ActionMessage},
	}}}
	f.SystemMessages = []domain.MessageDef{{ID: "sales", Message: "Hola"}}
	f.Connections = []domain.Connection{{ID: "c", Source: "m", Target: "sales", SourceHandle: "option-1"}}

	g, warnings := Load(f)
	assert.Len(t, warnings, 2)

	n, ok := g.Node("m")
	require.True(t, ok)
	opts := domain.OptionsOf(n.Payload)
	require.Len(t, opts, 3)
	assert.Equal(t, "1-2", opts[0].ID)
	assert.Equal(t, "1", opts[1].ID)
	assert.Equal(t, "Ventas", opts[1].Text, "the stored handle still names this option")
	assert.Equal(t, "3", opts[2].ID)
}

func TestLoad_TolerateDanglingReferences(t *testing.T) {
	f := domain.NewFlow("f", "dangling")
	f.Connections = []domain.Connection{{ID: "c", Source: "ghost", Target: "phantom"}}
	g, _ := Load(f)
	_, ok := g.Edge("c")
	assert.True(t, ok)
}

func TestDump_RoundTrip(t *testing.T) {
	orig := decode(t, legacyDoc)
	g, _ := Load(orig)
	e, _ := g.Edge("e-m-option-1")
	e.ValidationStatus = domain.EdgeError

	dumped := Dump(g, orig, now)
	assert.Equal(t, now, dumped.UpdatedAt)
	assert.Equal(t, now, dumped.CreatedAt)
	assert.Equal(t, "acme", dumped.Extra["tenant"])
	assert.Equal(t, "wa", dumped.SystemMessages[0].Extra["channel"])
	require.NotNil(t, dumped.StartNode)
	assert.Equal(t, "s", dumped.StartNode.ID)

	data, err := Encode(dumped)
	require.NoError(t, err)
	reloaded, warnings, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, warnings)

	g2, _ := Load(reloaded)
	assertSameGraph(t, g, g2)
}

func TestDump_KeepsLabelsThatLookDecorated(t *testing.T) {
	g := flowgraph.New()
	require.NoError(t, g.AddEdge(&domain.Connection{
		ID: "a", Source: "x", Target: "y", Label: "✅ PASS - Ventas", ValidationStatus: domain.EdgeError,
	}))

	dumped := Dump(g, nil, now)
	require.Len(t, dumped.Connections, 1)
	assert.Equal(t, "✅ PASS - Ventas", dumped.Connections[0].Label)
	assert.Equal(t, domain.EdgeError, dumped.Connections[0].ValidationStatus)

	g2, _ := Load(dumped)
	a, _ := g2.Edge("a")
	assert.Equal(t, "✅ PASS - Ventas", a.Label)
	assert.Equal(t, domain.EdgeError, a.ValidationStatus)
}

func TestDump_KeepsBaseExtraOfEditedNodes(t *testing.T) {
	orig := decode(t, legacyDoc)
	g, _ := Load(orig)
	n, _ := g.Node("info")
	n.Payload = &domain.SystemMessage{Message: "Nuevo horario"}
	n.Extra = nil

	dumped := Dump(g, orig, now)
	assert.Equal(t, "Nuevo horario", dumped.SystemMessages[0].Message)
	assert.Equal(t, "wa", dumped.SystemMessages[0].Extra["channel"])
}

func TestDump_NilBase(t *testing.T) {
	g := flowgraph.New()
	require.NoError(t, g.AddNode(&domain.Node{ID: "e", Payload: &domain.End{Label: "Fin"}}))
	f := Dump(g, nil, now)
	assert.Nil(t, f.StartNode)
	assert.Len(t, f.EndNodes, 1)
	assert.NotNil(t, f.Connections)
	assert.Equal(t, domain.FlowPending, f.ValidationStatus)
}

func TestFiles_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	orig := decode(t, legacyDoc)
	g, _ := Load(orig)
	dumped := Dump(g, orig, now)

	for _, name := range []string{"flow.json", "flow.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, dumped))

			read, warnings, err := ReadFile(path)
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, dumped.ID, read.ID)
			assert.Equal(t, "acme", read.Extra["tenant"])
			assert.Len(t, read.Connections, len(dumped.Connections))
			assert.True(t, domain.Diff(dumped, read).IsEmpty())
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestDecode_NonObject(t *testing.T) {
	_, _, err := Decode([]byte(`"just a string"`))
	assert.Error(t, err)
	_, _, err = Decode([]byte(`null`))
	assert.Error(t, err)
	_, _, err = DecodeYAML([]byte("- a\n- b\n"))
	assert.Error(t, err)
}

func assertSameGraph(t *testing.T, want, got *flowgraph.Graph) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for _, n := range want.Nodes() {
		other, ok := got.Node(n.ID)
		require.True(t, ok, n.ID)
		assert.Equal(t, n.Position, other.Position, n.ID)
		assert.Equal(t, n.Payload, other.Payload, n.ID)
	}
	require.Equal(t, want.EdgeCount(), got.EdgeCount())
	for _, c := range want.Edges() {
		other, ok := got.Edge(c.ID)
		require.True(t, ok, c.ID)
		assert.Equal(t, c.ValidationStatus, other.ValidationStatus)
		assert.Equal(t, c.Source, other.Source)
		assert.Equal(t, c.Target, other.Target)
		assert.Equal(t, c.SourceHandle, other.SourceHandle)
	}
}

func TestEncodeYAML_KeepsUnknownKeys(t *testing.T) {
	f := domain.NewFlow("f", "y")
	f.Extra = map[string]any{"tenant": "acme"}
	data, err := EncodeYAML(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: f")
	assert.Contains(t, string(data), "tenant: acme")
}
