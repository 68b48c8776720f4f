package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jPabloBC/ingenit-flows/internal/editor"
	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/internal/validator"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
)

// SaveHandler persists a flattened flow. Its error is returned by Save as is;
// the editor never retries.
type SaveHandler func(ctx context.Context, flow *domain.Flow) error

// ValidateHandler applies host-specific rules on top of the structural ones and
// returns the overall verdict.
type ValidateHandler func(ctx context.Context, flow *domain.Flow) (bool, error)

// NodePatch is a partial payload update for UpdateNode.
type NodePatch = editor.NodePatch

// Session is the selection state of an editor.
type Session = editor.Session

// IDGenerator produces fresh node ids.
type IDGenerator = editor.IDGenerator

// NodeOption configures AddNode.
type NodeOption = editor.NodeOption

// WithNodeID uses a caller-chosen node id.
func WithNodeID(id string) NodeOption { return editor.WithNodeID(id) }

// AtPosition places a new node explicitly.
func AtPosition(p domain.Position) NodeOption { return editor.AtPosition(p) }

// Editor is one editing session over a flow. It is not safe for concurrent
// use; see pkg/session for a manager that serializes access.
type Editor struct {
	engine     *editor.Engine
	base       *domain.Flow
	onSave     SaveHandler
	onValidate ValidateHandler
	hooks      domain.EditHooks
	logger     *slog.Logger
	now        func() time.Time

	engineOpts []editor.EngineOption
	readOnly   bool
	policy     flowgraph.EndNodePolicy

	status       domain.FlowStatus
	statusRev    uint64
	loadWarnings []error
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithSaveHandler registers the callback invoked by Save.
func WithSaveHandler(h SaveHandler) Option {
	return func(e *Editor) {
		e.onSave = h
	}
}

// WithValidateHandler registers the callback invoked by Validate after the
// structural rules.
func WithValidateHandler(h ValidateHandler) Option {
	return func(e *Editor) {
		e.onValidate = h
	}
}

// WithReadOnly rejects every mutation with domain.ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(e *Editor) {
		e.readOnly = readOnly
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.EditHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithEndNodePolicy selects the end node that "end" options connect to.
func WithEndNodePolicy(policy flowgraph.EndNodePolicy) Option {
	return func(e *Editor) {
		e.policy = policy
	}
}

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Editor) {
		e.engineOpts = append(e.engineOpts, editor.WithIDGenerator(gen))
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRandSeed makes the placement of new nodes deterministic.
func WithRandSeed(seed uint64) Option {
	return func(e *Editor) {
		e.engineOpts = append(e.engineOpts, editor.WithRandSeed(seed))
	}
}

// New opens an editor over flow. A nil flow starts a blank one with a fresh id.
// Repairs applied while loading are logged and available from LoadWarnings.
func New(flow *domain.Flow, opts ...Option) *Editor {
	e := &Editor{
		logger: logging.NewNop(),
		now:    time.Now,
		policy: flowgraph.PositionalEndNode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	if flow == nil {
		flow = domain.NewFlow(uuid.NewString(), "")
	} else if cp, err := flow.Clone(); err == nil {
		flow = cp
	} else {
		e.logger.Warn("flow could not be copied, editing over the caller's document", "err", err)
	}
	e.base = flow
	e.logger = e.logger.With("flow", flow.ID)

	g, warnings := serialization.Load(flow,
		serialization.WithLogger(e.logger),
		serialization.WithEndNodePolicy(e.policy),
	)
	e.loadWarnings = warnings

	engineOpts := []editor.EngineOption{
		editor.WithReadOnly(e.readOnly),
		editor.WithEndNodePolicy(e.policy),
		editor.WithHooks(e.hooks),
		editor.WithLogger(e.logger),
		editor.WithFlowID(flow.ID),
		editor.WithClock(e.now),
	}
	e.engine = editor.NewEngine(g, append(engineOpts, e.engineOpts...)...)

	e.status = flow.ValidationStatus
	if !e.status.Valid() {
		e.status = domain.FlowPending
	}
	return e
}

// ID returns the id of the edited flow.
func (e *Editor) ID() string {
	return e.base.ID
}

// LoadWarnings lists the repairs applied when the flow was opened.
func (e *Editor) LoadWarnings() []error {
	return e.loadWarnings
}

// Graph exposes the in-memory graph for read-only inspection.
func (e *Editor) Graph() *flowgraph.Graph {
	return e.engine.Graph()
}

// Node returns the node with the given id.
func (e *Editor) Node(id string) (*domain.Node, bool) {
	return e.engine.Graph().Node(id)
}

// NodeKind returns the kind of the node with the given id.
func (e *Editor) NodeKind(id string) (domain.NodeKind, bool) {
	return e.engine.Graph().Kind(id)
}

// Outgoing returns the connections leaving a node.
func (e *Editor) Outgoing(id string) []*domain.Connection {
	return e.engine.Graph().Outgoing(id)
}

// ReadOnly reports whether mutations are rejected.
func (e *Editor) ReadOnly() bool {
	return e.engine.ReadOnly()
}

// SetReadOnly toggles read-only mode.
func (e *Editor) SetReadOnly(readOnly bool) {
	e.engine.SetReadOnly(readOnly)
}

// Status returns the flow-level validation status. Any structural change after
// the last Validate makes it pending again.
func (e *Editor) Status() domain.FlowStatus {
	if e.engine.Revision() != e.statusRev {
		return domain.FlowPending
	}
	return e.status
}

// AddNode inserts a node and returns its id. A nil payload selects the default
// payload of the kind.
func (e *Editor) AddNode(kind domain.NodeKind, payload domain.Payload, opts ...NodeOption) (string, error) {
	return e.engine.AddNode(kind, payload, opts...)
}

// UpdateNode shallow-merges patch into the node's payload.
func (e *Editor) UpdateNode(id string, patch NodePatch) error {
	return e.engine.UpdateNode(id, patch)
}

// RemoveNode deletes a node together with every reference to it.
func (e *Editor) RemoveNode(id string) error {
	return e.engine.RemoveNode(id)
}

// Connect adds a connection and returns its id.
func (e *Editor) Connect(source, target, handle string) (string, error) {
	return e.engine.Connect(source, target, handle)
}

// Reconnect moves a connection to new endpoints.
func (e *Editor) Reconnect(edgeID, source, target, handle string) error {
	return e.engine.Reconnect(edgeID, source, target, handle)
}

// Disconnect removes a connection.
func (e *Editor) Disconnect(edgeID string) error {
	return e.engine.Disconnect(edgeID)
}

// SetEdgeValidationStatus records the manual annotation of a connection.
func (e *Editor) SetEdgeValidationStatus(edgeID string, status domain.EdgeStatus) error {
	return e.engine.SetEdgeValidationStatus(edgeID, status)
}

// MoveNode updates a node's layout position.
func (e *Editor) MoveNode(id string, p domain.Position) error {
	return e.engine.MoveNode(id, p)
}

// Session returns the current selection state.
func (e *Editor) Session() Session {
	return e.engine.Session()
}

// Select marks a node as selected; an empty id clears the selection.
func (e *Editor) Select(id string) error {
	return e.engine.Select(id)
}

// BeginEdit opens a node for editing.
func (e *Editor) BeginEdit(id string) error {
	return e.engine.BeginEdit(id)
}

// EndEdit closes the editing form.
func (e *Editor) EndEdit() {
	e.engine.EndEdit()
}

// Flow flattens the current state into a new document without saving it.
func (e *Editor) Flow() *domain.Flow {
	f := serialization.Dump(e.engine.Graph(), e.base, e.now().UTC())
	f.ValidationStatus = e.Status()
	return f
}

// Save flattens the current state and hands it to the save handler. The
// returned document is what the handler received. Without a handler Save only
// flattens.
func (e *Editor) Save(ctx context.Context) (*domain.Flow, error) {
	start := e.now()
	flow := e.Flow()

	var err error
	if e.onSave != nil {
		err = e.onSave(ctx, flow)
	}
	if e.hooks.OnSave != nil {
		e.hooks.OnSave(ctx, &domain.SaveEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFlowSaved, FlowID: flow.ID},
			Nodes:     e.engine.Graph().Len(),
			Edges:     e.engine.Graph().EdgeCount(),
			Duration:  e.now().Sub(start),
			Err:       err,
		})
	}
	if err != nil {
		e.logger.Error("flow save failed", "err", err)
		return flow, fmt.Errorf("save flow %s: %w", flow.ID, err)
	}
	e.base = flow
	e.logger.Debug("flow saved", "nodes", e.engine.Graph().Len(), "edges", e.engine.Graph().EdgeCount())
	return flow, nil
}

// Report is the outcome of Validate.
type Report struct {
	Findings []domain.Finding `json:"findings"`
	// External is the verdict of the validate handler, nil without one.
	External *bool             `json:"external,omitempty"`
	Status   domain.FlowStatus `json:"status"`
}

// Passed reports whether the flow ended up validated.
func (r *Report) Passed() bool {
	return r.Status == domain.FlowValidated
}

// Validate runs the structural rules and then the validate handler. The flow
// becomes validated when there is no error finding and the handler did not
// return false, and error otherwise. A handler error is returned and leaves the
// status untouched.
func (e *Editor) Validate(ctx context.Context) (*Report, error) {
	start := e.now()
	report := &Report{Findings: validator.Validate(e.engine.Graph())}
	passed := !domain.HasErrors(report.Findings)

	if e.onValidate != nil {
		verdict, err := e.onValidate(ctx, e.Flow())
		if err != nil {
			report.Status = e.Status()
			return report, fmt.Errorf("validate flow %s: %w", e.base.ID, err)
		}
		report.External = &verdict
		passed = passed && verdict
	}

	e.status = domain.FlowError
	if passed {
		e.status = domain.FlowValidated
	}
	e.statusRev = e.engine.Revision()
	report.Status = e.status

	if e.hooks.OnValidate != nil {
		counts := domain.CountLevels(report.Findings)
		e.hooks.OnValidate(ctx, &domain.ValidateEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFlowValidated, FlowID: e.base.ID},
			Errors:    counts[domain.LevelError],
			Warnings:  counts[domain.LevelWarning],
			Passed:    passed,
			Duration:  e.now().Sub(start),
		})
	}
	return report, nil
}
