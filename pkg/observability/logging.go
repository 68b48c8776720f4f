package observability

import (
	"context"
	"log/slog"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// LogHooks returns editor hooks that log every event at debug level, and failed
// saves at error level.
func LogHooks(logger *slog.Logger) domain.EditHooks {
	return domain.EditHooks{
		OnNodeChange: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, string(e.Type), "flow", e.FlowID, "node_id", e.NodeID, "kind", e.NodeKind)
		},
		OnEdgeChange: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.DebugContext(ctx, string(e.Type),
				"flow", e.FlowID,
				"edge_id", e.EdgeID,
				"source", e.Source,
				"target", e.Target,
				"status", e.Status,
			)
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "flow_save_failed", "flow", e.FlowID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "flow_saved", "flow", e.FlowID, "nodes", e.Nodes, "edges", e.Edges, "duration", e.Duration)
		},
		OnValidate: func(ctx context.Context, e *domain.ValidateEvent) {
			logger.InfoContext(ctx, "flow_validated",
				"flow", e.FlowID,
				"passed", e.Passed,
				"errors", e.Errors,
				"warnings", e.Warnings,
			)
		},
	}
}
