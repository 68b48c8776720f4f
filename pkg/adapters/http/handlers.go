package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/graph"
	"github.com/jPabloBC/ingenit-flows/internal/validator"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
)

// CreateFlowRequest is the body of POST /flows.
type CreateFlowRequest struct {
	ID          string `json:"id" validate:"omitempty,max=128,excludesall=/\\"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// AddNodeRequest is the body of POST /flows/{flowID}/nodes. The payload
// fields are applied on top of the default payload of the kind.
type AddNodeRequest struct {
	Kind     string           `json:"kind" validate:"required"`
	ID       string           `json:"id" validate:"omitempty,max=128"`
	Position *domain.Position `json:"position"`
	flows.NodePatch
}

// EdgeRequest is the body of POST /edges and PUT /edges/{edgeID}.
type EdgeRequest struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
}

// StatusRequest is the body of PUT /edges/{edgeID}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending pass error retry"`
}

// IDResponse reports the id of a created node or connection.
type IDResponse struct {
	ID string `json:"id"`
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"flows": ids})
}

// CreateFlow handles POST /flows.
func (s *Server) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var body CreateFlowRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}

	var created *domain.Flow
	err := s.Manager.WithLock(r.Context(), body.ID, func(ctx context.Context) error {
		_, err := s.Manager.Store().Load(ctx, body.ID)
		if err == nil {
			return fmt.Errorf("%w: flow %s already exists", domain.ErrDuplicateID, body.ID)
		}
		if !errors.Is(err, domain.ErrFlowNotFound) {
			return err
		}
		created = domain.NewFlow(body.ID, body.Name)
		created.Description = body.Description
		return s.Manager.Store().Save(ctx, created)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Broadcast(body.ID, domain.Diff(nil, created))
	writeJSON(w, http.StatusCreated, created)
}

// GetFlow handles GET /flows/{flowID}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.Manager.Load(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

// PutFlow handles PUT /flows/{flowID}. The document is decoded leniently and
// normalized through an editor before it is stored.
func (s *Server) PutFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	doc, warnings, err := serialization.Decode(data)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if doc.ID != "" && doc.ID != flowID {
		s.fail(w, r, fmt.Errorf("%w: body id %q does not match path id %q", errBadRequest, doc.ID, flowID))
		return
	}
	doc.ID = flowID

	var before, saved *domain.Flow
	err = s.Manager.WithLock(r.Context(), flowID, func(ctx context.Context) error {
		before, _ = s.Manager.Store().Load(ctx, flowID)
		saved = flows.New(doc).Flow()
		return s.Manager.Store().Save(ctx, saved)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, warn := range warnings {
		s.logger.WarnContext(r.Context(), "stored flow repaired on load", "flow", flowID, "err", warn)
	}
	s.Streams.Broadcast(flowID, domain.Diff(before, saved))
	writeJSON(w, http.StatusOK, saved)
}

// DeleteFlow handles DELETE /flows/{flowID}.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "flowID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// edit runs fn inside a locked edit session, broadcasts the changes and
// replies with the saved document unless fn already produced a response.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, *flows.Editor) (any, error)) {
	flowID := chi.URLParam(r, "flowID")
	var before *domain.Flow
	var resp any
	saved, err := s.Manager.Edit(r.Context(), flowID, func(ctx context.Context, ed *flows.Editor) error {
		before = ed.Flow()
		var err error
		resp, err = fn(ctx, ed)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Broadcast(flowID, domain.Diff(before, saved))
	if resp == nil {
		resp = saved
	}
	writeJSON(w, status, resp)
}

// AddNode handles POST /flows/{flowID}/nodes.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body AddNodeRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	kind, err := domain.ParseKind(body.Kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.edit(w, r, http.StatusCreated, func(ctx context.Context, ed *flows.Editor) (any, error) {
		var opts []flows.NodeOption
		if body.ID != "" {
			opts = append(opts, flows.WithNodeID(body.ID))
		}
		if body.Position != nil {
			opts = append(opts, flows.AtPosition(*body.Position))
		}
		id, err := ed.AddNode(kind, nil, opts...)
		if err != nil {
			return nil, err
		}
		if !body.NodePatch.IsEmpty() {
			if err := ed.UpdateNode(id, body.NodePatch); err != nil {
				return nil, err
			}
		}
		return IDResponse{ID: id}, nil
	})
}

// UpdateNode handles PATCH /flows/{flowID}/nodes/{nodeID}.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch flows.NodePatch
	if err := s.decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.UpdateNode(nodeID, patch)
	})
}

// RemoveNode handles DELETE /flows/{flowID}/nodes/{nodeID}.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.RemoveNode(nodeID)
	})
}

// MoveNode handles PUT /flows/{flowID}/nodes/{nodeID}/position.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := s.decode(r, &pos); err != nil {
		s.fail(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.MoveNode(nodeID, pos)
	})
}

// Connect handles POST /flows/{flowID}/edges.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body EdgeRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	s.edit(w, r, http.StatusCreated, func(ctx context.Context, ed *flows.Editor) (any, error) {
		id, err := ed.Connect(body.Source, body.Target, body.SourceHandle)
		if err != nil {
			return nil, err
		}
		return IDResponse{ID: id}, nil
	})
}

// Reconnect handles PUT /flows/{flowID}/edges/{edgeID}.
func (s *Server) Reconnect(w http.ResponseWriter, r *http.Request) {
	var body EdgeRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	edgeID := chi.URLParam(r, "edgeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.Reconnect(edgeID, body.Source, body.Target, body.SourceHandle)
	})
}

// Disconnect handles DELETE /flows/{flowID}/edges/{edgeID}.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.Disconnect(edgeID)
	})
}

// SetEdgeStatus handles PUT /flows/{flowID}/edges/{edgeID}/status.
func (s *Server) SetEdgeStatus(w http.ResponseWriter, r *http.Request) {
	var body StatusRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	edgeID := chi.URLParam(r, "edgeID")
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, ed.SetEdgeValidationStatus(edgeID, domain.EdgeStatus(body.Status))
	})
}

// SaveFlow handles POST /flows/{flowID}/save. It rewrites the stored document
// in normalized form.
func (s *Server) SaveFlow(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return nil, nil
	})
}

// ValidateFlow handles POST /flows/{flowID}/validate.
func (s *Server) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, http.StatusOK, func(ctx context.Context, ed *flows.Editor) (any, error) {
		return ed.Validate(ctx)
	})
}

// GetMermaid handles GET /flows/{flowID}/mermaid. Nodes with error findings
// are highlighted; the selected query parameter marks one node.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	ed, err := s.Manager.Open(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	overlay := &graph.Overlay{SelectedNode: r.URL.Query().Get("selected")}
	for _, f := range validator.Validate(ed.Graph()) {
		if f.Level == domain.LevelError && f.NodeID != "" {
			overlay.Highlight = append(overlay.Highlight, f.NodeID)
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(ed.Graph(), overlay))
}
