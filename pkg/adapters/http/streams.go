package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// StreamManager fans flow changes out to the SSE subscribers of each flow.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- *domain.FlowDiff]struct{} // flow id -> channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- *domain.FlowDiff]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for the flow. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(flowID string) (<-chan *domain.FlowDiff, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan *domain.FlowDiff, 10)
	if _, ok := sm.subscribers[flowID]; !ok {
		sm.subscribers[flowID] = make(map[chan<- *domain.FlowDiff]struct{})
	}
	sm.subscribers[flowID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[flowID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, flowID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions for the flow.
func (sm *StreamManager) Subscribers(flowID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[flowID])
}

// Broadcast sends a non-empty diff to every subscriber of the flow. Slow
// subscribers lose the message instead of blocking the writer.
func (sm *StreamManager) Broadcast(flowID string, diff *domain.FlowDiff) {
	if diff == nil || diff.IsEmpty() {
		return
	}
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[flowID] {
		select {
		case ch <- diff:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "flow", flowID)
		}
	}
}

// matches reports whether the diff touches one of the watched sections
// (nodes, edges, metadata). An empty watch list matches everything.
func matches(diff *domain.FlowDiff, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "nodes":
			if len(diff.NodesAdded)+len(diff.NodesRemoved)+len(diff.NodesChanged) > 0 {
				return true
			}
		case "edges":
			if len(diff.EdgesAdded)+len(diff.EdgesRemoved)+len(diff.EdgesChanged) > 0 {
				return true
			}
		case "metadata":
			if diff.MetadataChanged {
				return true
			}
		}
	}
	return false
}

// SubscribeEvents handles GET /flows/{flowID}/events (SSE). The optional
// watch query parameter filters by section, e.g. watch=nodes,edges.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	flowID := chi.URLParam(r, "flowID")
	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	ch, cancel := s.Streams.Subscribe(flowID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "flow", flowID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "flow", flowID)
			return
		case diff, ok := <-ch:
			if !ok {
				return
			}
			if !matches(diff, watch) {
				continue
			}
			data, err := json.Marshal(diff)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
