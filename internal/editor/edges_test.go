package editor

import (
	"testing"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuGraph(t *testing.T) (e *Engine, menu, a, b string) {
	t.Helper()
	e = newTestEngine(t)
	a = mustAdd(t, e, domain.KindSystemMessage, nil)
	b = mustAdd(t, e, domain.KindClientMessage, nil)
	menu = mustAdd(t, e, domain.KindMenu, &domain.Menu{Options: []domain.Option{
		{ID: "1", Text: "Uno", Action: domain.ActionMessage},
		{ID: "2", Text: "Dos", Action: domain.ActionMessage},
	}})
	return e, menu, a, b
}

func optionTarget(t *testing.T, e *Engine, nodeID, optID string) string {
	t.Helper()
	n, ok := e.Graph().Node(nodeID)
	require.True(t, ok)
	opts := domain.OptionsOf(n.Payload)
	i := domain.FindOption(opts, optID)
	require.GreaterOrEqual(t, i, 0)
	return opts[i].NextNodeID
}

func TestConnect_WithHandleSetsOption(t *testing.T) {
	e, menu, a, b := menuGraph(t)

	id, err := e.Connect(menu, a, "option-1")
	require.NoError(t, err)
	assert.Equal(t, "e-"+menu+"-option-1", id)
	assert.Equal(t, a, optionTarget(t, e, menu, "1"))

	c, _ := e.Graph().Edge(id)
	assert.Equal(t, "Uno", c.Label)
	assert.Equal(t, domain.EdgePending, c.ValidationStatus)

	// connecting the same handle again replaces the edge
	_, err = e.Connect(menu, b, "option-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"option-1->" + b}, edgePairs(e, menu))
	assert.Equal(t, b, optionTarget(t, e, menu, "1"))
}

func TestConnect_Errors(t *testing.T) {
	e, menu, a, _ := menuGraph(t)

	_, err := e.Connect("ghost", a, "")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	_, err = e.Connect(menu, "ghost", "")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	_, err = e.Connect(menu, a, "bottom")
	assert.ErrorIs(t, err, domain.ErrInvalidHandle)
	_, err = e.Connect(menu, a, "option-9")
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	_, err = e.Connect(a, menu, "option-1")
	assert.ErrorIs(t, err, domain.ErrOptionNotFound, "message nodes have no options")
	assert.Zero(t, e.Graph().EdgeCount())
}

func TestConnect_WithoutHandle(t *testing.T) {
	e, _, a, b := menuGraph(t)
	first, err := e.Connect(a, b, "")
	require.NoError(t, err)
	second, err := e.Connect(a, b, "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	c, _ := e.Graph().Edge(first)
	assert.Empty(t, c.Label)
}

func TestReconnect(t *testing.T) {
	e, menu, a, b := menuGraph(t)
	id, err := e.Connect(menu, a, "option-1")
	require.NoError(t, err)
	require.NoError(t, e.SetEdgeValidationStatus(id, domain.EdgePass))

	require.NoError(t, e.Reconnect(id, menu, b, "option-2"))
	assert.Empty(t, optionTarget(t, e, menu, "1"))
	assert.Equal(t, b, optionTarget(t, e, menu, "2"))

	c, _ := e.Graph().Edge(id)
	assert.Equal(t, "option-2", c.SourceHandle)
	assert.Equal(t, "Dos", c.Label)
	assert.Equal(t, domain.EdgePass, c.ValidationStatus, "status survives a reconnect")

	require.NoError(t, e.Reconnect(id, a, b, ""))
	assert.Empty(t, optionTarget(t, e, menu, "2"))
	assert.Empty(t, c.Label)

	assert.ErrorIs(t, e.Reconnect("ghost", a, b, ""), domain.ErrEdgeNotFound)
	assert.ErrorIs(t, e.Reconnect(id, a, "ghost", ""), domain.ErrNodeNotFound)
}

func TestDisconnect(t *testing.T) {
	e, menu, a, _ := menuGraph(t)
	id, err := e.Connect(menu, a, "option-2")
	require.NoError(t, err)

	require.NoError(t, e.Disconnect(id))
	assert.Empty(t, optionTarget(t, e, menu, "2"))
	assert.Zero(t, e.Graph().EdgeCount())
	assert.ErrorIs(t, e.Disconnect(id), domain.ErrEdgeNotFound)
}

func TestSetEdgeValidationStatus_AnyToAny(t *testing.T) {
	e, _, a, b := menuGraph(t)
	id, err := e.Connect(a, b, "")
	require.NoError(t, err)

	for _, from := range domain.EdgeStatuses {
		for _, to := range domain.EdgeStatuses {
			require.NoError(t, e.SetEdgeValidationStatus(id, from))
			require.NoError(t, e.SetEdgeValidationStatus(id, to))
			c, _ := e.Graph().Edge(id)
			assert.Equal(t, to, c.ValidationStatus)
		}
	}

	assert.ErrorIs(t, e.SetEdgeValidationStatus(id, "done"), domain.ErrInvalidStatus)
	assert.ErrorIs(t, e.SetEdgeValidationStatus("ghost", domain.EdgePass), domain.ErrEdgeNotFound)
}

func TestDisplayLabel(t *testing.T) {
	c := &domain.Connection{Label: "Ventas", ValidationStatus: domain.EdgeRetry}
	assert.Equal(t, "🔄 RETRY - Ventas", DisplayLabel(c))
}
