package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/graph"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// IndexURI is the resource listing every stored flow.
const IndexURI = "flows://index"

// ListResponse is the output of list_flows.
type ListResponse struct {
	Flows []string `json:"flows" jsonschema_description:"Ids of the stored flows in ascending order"`
}

// FlowResponse is the output of get_flow.
type FlowResponse struct {
	Flow *domain.Flow `json:"flow" jsonschema_description:"The stored flow document"`
}

// MermaidResponse is the output of flow_mermaid.
type MermaidResponse struct {
	Diagram string `json:"diagram" jsonschema_description:"Mermaid flowchart of the flow"`
}

// EdgeStatusResponse is the output of set_edge_status.
type EdgeStatusResponse struct {
	EdgeID     string            `json:"edge_id"`
	Status     domain.EdgeStatus `json:"status"`
	FlowStatus domain.FlowStatus `json:"flow_status" jsonschema_description:"Validation status of the whole flow after the change"`
}

// Server exposes a session manager as an MCP server.
type Server struct {
	manager   *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger. It must not write to stdout when serving stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("flowdesk-mcp", strings.TrimSpace(flows.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for embedding in other transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	corsHandler := cors.AllowAll().Handler
	mux := http.NewServeMux()
	mux.Handle("/sse", corsHandler(sseServer.SSEHandler()))
	mux.Handle("/message", corsHandler(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the ids of every stored conversational flow."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleListFlows))

	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get a stored flow document: nodes per kind, start and end markers, connections."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Id of the flow")),
		mcp.WithOutputSchema[FlowResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetFlow))

	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Run the structural checks on a flow and store the resulting validation status."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Id of the flow")),
		mcp.WithOutputSchema[flows.Report](),
	), mcp.NewStructuredToolHandler(s.handleValidateFlow))

	s.mcpServer.AddTool(mcp.NewTool("flow_mermaid",
		mcp.WithDescription("Render a flow as a Mermaid flowchart."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Id of the flow")),
		mcp.WithString("selected", mcp.Description("Node id to highlight (optional)")),
		mcp.WithOutputSchema[MermaidResponse](),
	), mcp.NewStructuredToolHandler(s.handleMermaid))

	s.mcpServer.AddTool(mcp.NewTool("set_edge_status",
		mcp.WithDescription("Annotate a connection with the outcome of a manual test: pending, pass, error or retry."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Id of the flow")),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Id of the connection")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"),
			mcp.Enum(string(domain.EdgePending), string(domain.EdgePass), string(domain.EdgeError), string(domain.EdgeRetry))),
		mcp.WithOutputSchema[EdgeStatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetEdgeStatus))
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return v, nil
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListResponse, error) {
	ids, err := s.manager.List(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ListResponse{Flows: ids}, nil
}

func (s *Server) handleGetFlow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FlowResponse, error) {
	id, err := stringArg(args, "flow_id")
	if err != nil {
		return FlowResponse{}, err
	}
	flow, err := s.manager.Load(ctx, id)
	if err != nil {
		return FlowResponse{}, err
	}
	return FlowResponse{Flow: flow}, nil
}

func (s *Server) handleValidateFlow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (flows.Report, error) {
	id, err := stringArg(args, "flow_id")
	if err != nil {
		return flows.Report{}, err
	}
	report, err := s.manager.Validate(ctx, id)
	if err != nil {
		return flows.Report{}, err
	}
	s.logger.Debug("MCP: flow validated", "flow", id, "status", report.Status)
	return *report, nil
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MermaidResponse, error) {
	id, err := stringArg(args, "flow_id")
	if err != nil {
		return MermaidResponse{}, err
	}
	ed, err := s.manager.Open(ctx, id)
	if err != nil {
		return MermaidResponse{}, err
	}
	selected, _ := args["selected"].(string)
	diagram := graph.GenerateMermaid(ed.Graph(), &graph.Overlay{SelectedNode: selected})
	return MermaidResponse{Diagram: diagram}, nil
}

func (s *Server) handleSetEdgeStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EdgeStatusResponse, error) {
	flowID, err := stringArg(args, "flow_id")
	if err != nil {
		return EdgeStatusResponse{}, err
	}
	edgeID, err := stringArg(args, "edge_id")
	if err != nil {
		return EdgeStatusResponse{}, err
	}
	raw, err := stringArg(args, "status")
	if err != nil {
		return EdgeStatusResponse{}, err
	}
	status, err := domain.ParseEdgeStatus(raw)
	if err != nil {
		return EdgeStatusResponse{}, err
	}

	saved, err := s.manager.Edit(ctx, flowID, func(ctx context.Context, ed *flows.Editor) error {
		return ed.SetEdgeValidationStatus(edgeID, status)
	})
	if err != nil {
		return EdgeStatusResponse{}, err
	}
	return EdgeStatusResponse{EdgeID: edgeID, Status: status, FlowStatus: saved.ValidationStatus}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(IndexURI, "Stored flows",
		mcp.WithResourceDescription("Id and name of every stored flow"),
		mcp.WithMIMEType("application/json"),
	), s.readIndex)
}

// IndexEntry is one element of the flows://index resource.
type IndexEntry struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status domain.FlowStatus `json:"validationStatus"`
}

func (s *Server) readIndex(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.manager.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	entries := make([]IndexEntry, 0, len(ids))
	for _, id := range ids {
		flow, err := s.manager.Load(ctx, id)
		if err != nil {
			// Listed flows can expire or be deleted concurrently.
			s.logger.Warn("MCP: skipping unreadable flow", "flow", id, "err", err)
			continue
		}
		entries = append(entries, IndexEntry{ID: flow.ID, Name: flow.Name, Status: flow.ValidationStatus})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      IndexURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
