package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFlowMap_FullDocument(t *testing.T) {
	doc := `{
		"id": "flow-1",
		"name": "Soporte",
		"menus": [{
			"id": "m1", "title": "Hola", "message": "Elige", "color": "blue",
			"options": [
				{"id": "1", "text": "Ventas", "action": "message", "nextNodeId": "n1", "emoji": "x"},
				{"id": "2", "text": "Salir", "action": "end"}
			]
		}],
		"systemMessages": [{"id": "n1", "message": "Te contactaremos", "position": {"x": 10, "y": 20}}],
		"delays": [{"id": "d1", "duration": "7", "message": "espera"}],
		"startNode": "s1",
		"endNodes": [{"id": "e1", "label": "Fin"}],
		"connections": [],
		"validationStatus": "validated",
		"createdAt": "2024-03-01T10:00:00Z",
		"owner": {"team": "ops"}
	}`
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))

	f, warnings := DecodeFlowMap(raw)
	assert.Empty(t, warnings)

	assert.Equal(t, "flow-1", f.ID)
	require.Len(t, f.Menus, 1)
	assert.Equal(t, "blue", f.Menus[0].Extra["color"])
	require.Len(t, f.Menus[0].Options, 2)
	assert.Equal(t, "n1", f.Menus[0].Options[0].NextNodeID)
	assert.Equal(t, "x", f.Menus[0].Options[0].Extra["emoji"])
	assert.Equal(t, ActionEnd, f.Menus[0].Options[1].Action)

	require.Len(t, f.SystemMessages, 1)
	assert.Equal(t, &Position{X: 10, Y: 20}, f.SystemMessages[0].Position)

	require.Len(t, f.Delays, 1)
	assert.Equal(t, 7.0, f.Delays[0].Duration, "weakly typed duration")

	require.NotNil(t, f.StartNode)
	assert.Equal(t, "s1", f.StartNode.ID)

	assert.NotNil(t, f.Connections, "explicit empty connections are kept as empty")
	assert.Empty(t, f.Connections)

	assert.Equal(t, FlowValidated, f.ValidationStatus)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), f.CreatedAt.UTC())
	assert.Equal(t, map[string]any{"team": "ops"}, f.Extra["owner"])
}

func TestDecodeFlowMap_MissingConnections(t *testing.T) {
	f, warnings := DecodeFlowMap(map[string]any{"id": "x"})
	assert.Empty(t, warnings)
	assert.Nil(t, f.Connections)
	assert.Equal(t, FlowPending, f.ValidationStatus)
}

func TestDecodeFlowMap_MalformedFieldsFallBack(t *testing.T) {
	raw := map[string]any{
		"id": "x",
		"menus": []any{
			map[string]any{"id": "m1", "title": map[string]any{"bad": true}, "message": "ok", "options": "nope"},
			"not an object",
		},
		"decisions": []any{
			map[string]any{"id": "q1", "options": []any{map[string]any{"id": "1", "action": "teleport"}}},
		},
		"connections": []any{
			map[string]any{"id": "c1", "source": "a", "target": "b", "validationStatus": "maybe"},
		},
		"validationStatus": "unknown",
		"startNode":        []any{},
	}

	f, warnings := DecodeFlowMap(raw)
	require.NotEmpty(t, warnings)
	for _, w := range warnings {
		assert.True(t, errors.Is(w, ErrMalformedField), w.Error())
	}

	require.Len(t, f.Menus, 1, "non-object entries are skipped")
	assert.Equal(t, "m1", f.Menus[0].ID)
	assert.Equal(t, "", f.Menus[0].Title)
	assert.Equal(t, "ok", f.Menus[0].Message, "sibling fields survive")
	assert.NotNil(t, f.Menus[0].Options)
	assert.Empty(t, f.Menus[0].Options)

	require.Len(t, f.Decisions, 1)
	assert.Equal(t, ActionMessage, f.Decisions[0].Options[0].Action)

	require.Len(t, f.Connections, 1)
	assert.Equal(t, EdgeStatus(""), f.Connections[0].ValidationStatus)

	assert.Equal(t, FlowPending, f.ValidationStatus)
	assert.Nil(t, f.StartNode)
}

func TestDecodeFlowMap_NumericIDs(t *testing.T) {
	raw := map[string]any{
		"startNode": float64(1700000000000),
		"menus": []any{
			map[string]any{"id": float64(1700000000001), "options": []any{
				map[string]any{"id": float64(1), "nextNodeId": float64(1700000000002)},
			}},
		},
	}
	f, _ := DecodeFlowMap(raw)
	assert.Equal(t, "1700000000000", f.StartNode.ID)
	assert.Equal(t, "1700000000001", f.Menus[0].ID)
	assert.Equal(t, "1", f.Menus[0].Options[0].ID)
	assert.Equal(t, "1700000000002", f.Menus[0].Options[0].NextNodeID)
}

func TestFlow_JSONPreservesUnknownFields(t *testing.T) {
	in := `{"id":"f","name":"n","menus":[{"id":"m","title":"t","message":"m","options":[],"layoutHint":3}],` +
		`"connections":[{"id":"c","source":"m","target":"m","validationStatus":"pass","style":{"w":2}}],"tenant":"acme"}`

	var f Flow
	require.NoError(t, json.Unmarshal([]byte(in), &f))

	out, err := json.Marshal(f)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "acme", got["tenant"])
	menu := got["menus"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(3), menu["layoutHint"])
	conn := got["connections"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"w": float64(2)}, conn["style"])
	assert.Equal(t, "pass", conn["validationStatus"])
}

func TestFlow_UnmarshalRejectsNonObject(t *testing.T) {
	var f Flow
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &f))
}

func TestDecodePayload(t *testing.T) {
	p, warnings := DecodePayload(KindMenu, map[string]any{
		"title": "Hola",
		"options": []any{
			map[string]any{"id": "a", "text": "Uno", "action": "url"},
		},
	})
	assert.Empty(t, warnings)
	menu, ok := p.(*Menu)
	require.True(t, ok)
	assert.Equal(t, "Hola", menu.Title)
	assert.Equal(t, ActionURL, menu.Options[0].Action)

	p, _ = DecodePayload(KindDelay, map[string]any{"duration": 3})
	assert.Equal(t, &Delay{Duration: 3}, p)

	_, warnings = DecodePayload("gizmo", nil)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], ErrUnknownKind)
}
