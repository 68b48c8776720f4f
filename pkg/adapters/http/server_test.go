package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/memory"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/observability"
	"github.com/jPabloBC/ingenit-flows/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	manager := session.NewManager(memory.NewStore())
	srv := NewServer(manager, opts...)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "flowdesk-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestCreateFlow(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "welcome", Name: "Welcome"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[domain.Flow](t, w)
	assert.Equal(t, "welcome", created.ID)
	assert.Equal(t, domain.FlowPending, created.ValidationStatus)

	t.Run("Duplicate", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "welcome", Name: "Again"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing name", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "nameless"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Equal(t, []string{"Name: required"}, resp.Fields)
	})

	t.Run("Malformed body", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/flows", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Generated id", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/flows", CreateFlowRequest{Name: "Anonymous"})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, decodeBody[domain.Flow](t, w).ID)
	})

	w = do(t, h, http.MethodGet, "/flows", nil)
	list := decodeBody[map[string][]string](t, w)
	assert.Contains(t, list["flows"], "welcome")
	assert.Len(t, list["flows"], 2)
}

func TestGetFlow_NotFound(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/flows/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, w).Error, "flow not found")
}

func TestEditingLifecycle(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "f", Name: "F"}).Code)

	w := do(t, h, http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "start", "id": "start-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "start-1", decodeBody[IDResponse](t, w).ID)

	w = do(t, h, http.MethodPost, "/flows/f/nodes", map[string]any{
		"kind": "end", "id": "end-1", "label": "Bye", "position": map[string]float64{"x": 400, "y": 300},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/flows/f/edges", EdgeRequest{Source: "start-1", Target: "end-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	edgeID := decodeBody[IDResponse](t, w).ID
	assert.Equal(t, "e-start-1-end-1", edgeID)

	w = do(t, h, http.MethodPut, "/flows/f/edges/"+edgeID+"/status", StatusRequest{Status: "pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	flow := decodeBody[domain.Flow](t, w)
	require.Len(t, flow.Connections, 1)
	assert.Equal(t, domain.EdgePass, flow.Connections[0].ValidationStatus)
	require.Len(t, flow.EndNodes, 1)
	assert.Equal(t, "Bye", flow.EndNodes[0].Label)

	w = do(t, h, http.MethodPost, "/flows/f/validate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeBody[flows.Report](t, w)
	assert.Equal(t, domain.FlowValidated, report.Status)

	w = do(t, h, http.MethodGet, "/flows/f", nil)
	assert.Equal(t, domain.FlowValidated, decodeBody[domain.Flow](t, w).ValidationStatus)

	w = do(t, h, http.MethodPut, "/flows/f/nodes/end-1/position", domain.Position{X: 10, Y: 20})
	require.Equal(t, http.StatusOK, w.Code)
	flow = decodeBody[domain.Flow](t, w)
	require.NotNil(t, flow.EndNodes[0].Position)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, *flow.EndNodes[0].Position)

	w = do(t, h, http.MethodGet, "/flows/f/mermaid?selected=start-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.Contains(t, w.Body.String(), "start_1")

	w = do(t, h, http.MethodDelete, "/flows/f/edges/"+edgeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[domain.Flow](t, w).Connections)

	w = do(t, h, http.MethodDelete, "/flows/f/nodes/end-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[domain.Flow](t, w).EndNodes)

	w = do(t, h, http.MethodDelete, "/flows/f", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/flows/f", nil).Code)
}

func TestErrorMapping(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "f", Name: "F"}).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "start", "id": "s"}).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown kind", http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "quote"}, http.StatusUnprocessableEntity},
		{"second start", http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "start"}, http.StatusConflict},
		{"duplicate id", http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "end", "id": "s"}, http.StatusConflict},
		{"field not applicable", http.MethodPatch, "/flows/f/nodes/s", map[string]any{"title": "x"}, http.StatusUnprocessableEntity},
		{"unknown node", http.MethodPatch, "/flows/f/nodes/nope", map[string]any{"label": "x"}, http.StatusNotFound},
		{"unknown edge", http.MethodDelete, "/flows/f/edges/nope", nil, http.StatusNotFound},
		{"bad status", http.MethodPut, "/flows/f/edges/nope/status", StatusRequest{Status: "done"}, http.StatusBadRequest},
		{"edge without target", http.MethodPost, "/flows/f/edges", EdgeRequest{Source: "s"}, http.StatusBadRequest},
		{"edge to unknown node", http.MethodPost, "/flows/f/edges", EdgeRequest{Source: "s", Target: "nope"}, http.StatusNotFound},
		{"missing flow", http.MethodPost, "/flows/missing/validate", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestPutFlow_Normalizes(t *testing.T) {
	_, h := newTestServer(t)

	doc := `{
		"name": "Imported",
		"botId": "b-7",
		"startNode": {"id": "s"},
		"menus": [{"id": "m", "title": "Menu", "message": "Pick", "options": [
			{"id": "1", "text": "Bye", "action": "end"}
		]}],
		"endNodes": [{"id": "e"}]
	}`
	w := do(t, h, http.MethodPut, "/flows/imported", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	flow := decodeBody[domain.Flow](t, w)
	assert.Equal(t, "imported", flow.ID)
	assert.Equal(t, "b-7", flow.Extra["botId"])
	require.Len(t, flow.Connections, 1)
	assert.Equal(t, "e", flow.Connections[0].Target)

	t.Run("Mismatched id", func(t *testing.T) {
		w := do(t, h, http.MethodPut, "/flows/imported", `{"id": "other"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReadOnlyEditors(t *testing.T) {
	manager := session.NewManager(
		memory.NewStore(domain.NewFlow("f", "F")),
		session.WithEditorOptions(flows.WithReadOnly(true)),
	)
	h := NewHandler(manager)

	w := do(t, h, http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "end"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, w).Error, "read-only")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics("flowdesk")
	_, h := newTestServer(t, WithMetrics(metrics))

	do(t, h, http.MethodGet, "/flows/missing", nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `flowdesk_http_requests_total{method="GET",route="/flows/{flowID}`)
	assert.Contains(t, body, `status="404"} 1`)
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, WithCORSOrigins("https://editor.example"))

	req := httptest.NewRequest(http.MethodOptions, "/flows", nil)
	req.Header.Set("Origin", "https://editor.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://editor.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("f")
	assert.Equal(t, 1, sm.Subscribers("f"))

	sm.Broadcast("f", &domain.FlowDiff{})
	sm.Broadcast("other", &domain.FlowDiff{NodesAdded: []string{"x"}})
	sm.Broadcast("f", &domain.FlowDiff{NodesAdded: []string{"n"}})

	select {
	case diff := <-ch:
		assert.Equal(t, []string{"n"}, diff.NodesAdded)
	case <-time.After(time.Second):
		t.Fatal("no diff received")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("f"))
	_, open := <-ch
	assert.False(t, open)
}

func TestMatches(t *testing.T) {
	nodes := &domain.FlowDiff{NodesChanged: []string{"n"}}
	assert.True(t, matches(nodes, nil))
	assert.True(t, matches(nodes, []string{"edges", " nodes"}))
	assert.False(t, matches(nodes, []string{"edges", "metadata"}))
	assert.True(t, matches(&domain.FlowDiff{MetadataChanged: true}, []string{"metadata"}))
}

func TestSubscribeEvents(t *testing.T) {
	srv, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flows", CreateFlowRequest{ID: "f", Name: "F"}).Code)

	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/flows/f/events?watch=nodes", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	require.Eventually(t, func() bool { return srv.Streams.Subscribers("f") == 1 }, time.Second, 5*time.Millisecond)

	// Filtered out: only metadata changes.
	srv.Streams.Broadcast("f", &domain.FlowDiff{MetadataChanged: true})
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flows/f/nodes", map[string]any{"kind": "end", "id": "end-1"}).Code)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}
	var diff domain.FlowDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, []string{"end-1"}, diff.NodesAdded)
}
