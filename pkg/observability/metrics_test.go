package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordEditorEvents(t *testing.T) {
	m := observability.NewMetrics("flowdesk")
	ed := flows.New(nil,
		flows.WithHooks(m.Hooks()),
		flows.WithSaveHandler(func(context.Context, *domain.Flow) error { return errors.New("offline") }),
	)

	start, err := ed.AddNode(domain.KindStart, nil)
	require.NoError(t, err)
	end, err := ed.AddNode(domain.KindEnd, nil)
	require.NoError(t, err)
	_, err = ed.Connect(start, end, "")
	require.NoError(t, err)

	_, err = ed.Validate(context.Background())
	require.NoError(t, err)
	_, err = ed.Save(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeChanges.WithLabelValues(string(domain.EventNodeAdded), "start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeChanges.WithLabelValues(string(domain.EventNodeAdded), "end")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgeChanges.WithLabelValues(string(domain.EventEdgeAdded))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("validated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics("flowdesk")
	m.ObserveHTTP("GET", "/flows", 200, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `flowdesk_http_requests_total{method="GET",route="/flows",status="200"} 1`)
}

func TestLogHooks_FailedSave(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	hooks.OnSave(context.Background(), &domain.SaveEvent{EventBase: domain.EventBase{FlowID: "f1"}, Err: errors.New("offline")})
	assert.Contains(t, buf.String(), "flow_save_failed")
	assert.Contains(t, buf.String(), "flow=f1")
}
