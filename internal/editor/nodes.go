package editor

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// NodeOption configures AddNode.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	id       string
	position *domain.Position
}

// WithNodeID uses a caller-chosen id instead of a generated one.
func WithNodeID(id string) NodeOption {
	return func(c *nodeConfig) {
		c.id = id
	}
}

// AtPosition places the node instead of picking a free random position.
func AtPosition(p domain.Position) NodeOption {
	return func(c *nodeConfig) {
		c.position = &p
	}
}

// AddNode inserts a node of the given kind and returns its id. A nil payload,
// typed or not, selects the default payload of the kind. Options with a
// destination are connected right away.
func (e *Engine) AddNode(kind domain.NodeKind, payload domain.Payload, opts ...NodeOption) (string, error) {
	if err := e.guard(); err != nil {
		return "", err
	}
	if _, err := domain.ParseKind(string(kind)); err != nil {
		return "", err
	}
	if kind == domain.KindStart && len(e.graph.NodesOfKind(domain.KindStart)) > 0 {
		return "", domain.ErrDuplicateStart
	}

	cfg := &nodeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if payload != nil && payload.Kind() != kind {
		return "", fmt.Errorf("%w: %s payload for %s node", domain.ErrKindMismatch, payload.Kind(), kind)
	}
	if domain.IsNilPayload(payload) {
		def, err := domain.DefaultPayload(kind)
		if err != nil {
			return "", err
		}
		payload = def
	} else {
		payload = domain.ClonePayload(payload)
	}

	id := cfg.id
	if id == "" {
		id = e.newID(kind)
	}
	if e.graph.HasNode(id) {
		return "", fmt.Errorf("%w: node %s", domain.ErrDuplicateID, id)
	}

	if kind.HasOptions() {
		normalized, err := normalizeOptions(domain.OptionsOf(payload))
		if err != nil {
			return "", err
		}
		if err := e.checkDestinations(id, normalized, nil); err != nil {
			return "", err
		}
		domain.SetOptions(payload, normalized)
	}

	n := &domain.Node{ID: id, Payload: payload}
	if cfg.position != nil {
		n.Position = *cfg.position
	} else {
		n.Position = e.freePosition()
	}
	if err := e.graph.AddNode(n); err != nil {
		return "", err
	}
	e.revision++
	e.emitNode(domain.EventNodeAdded, n)
	if kind.HasOptions() {
		e.reconcile(n)
	}
	e.logger.Debug("node added", "node", id, "kind", kind)
	return id, nil
}

// UpdateNode shallow-merges patch into the node's payload. When the option list
// of a menu or decision changes, the node's outgoing connections are rebuilt
// from its options.
func (e *Engine) UpdateNode(id string, patch NodePatch) error {
	if err := e.guard(); err != nil {
		return err
	}
	n, ok := e.graph.Node(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, domain.ErrNodeNotFound)
	}
	if patch.IsEmpty() {
		return nil
	}

	updated, err := patch.apply(n.Payload)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	optionsChanged := patch.Options != nil && !domain.OptionsEqual(domain.OptionsOf(n.Payload), domain.OptionsOf(updated))
	if optionsChanged {
		if err := e.checkDestinations(id, domain.OptionsOf(updated), domain.OptionsOf(n.Payload)); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}

	n.Payload = updated
	e.revision++
	e.emitNode(domain.EventNodeUpdated, n)
	if optionsChanged {
		e.reconcile(n)
	}
	return nil
}

// RemoveNode deletes the node, every connection touching it, and the
// destination of every option pointing at it. Removing the start node or an end
// node leaves the flow without one until the caller adds a replacement.
func (e *Engine) RemoveNode(id string) error {
	if err := e.guard(); err != nil {
		return err
	}
	n, ok := e.graph.RemoveNode(id)
	if !ok {
		return fmt.Errorf("remove %s: %w", id, domain.ErrNodeNotFound)
	}
	removed := e.graph.RemoveEdgesFunc(func(c *domain.Connection) bool { return c.Touches(id) })

	for _, other := range e.graph.Nodes() {
		opts := domain.OptionsOf(other.Payload)
		for i := range opts {
			if opts[i].NextNodeID == id {
				opts[i].NextNodeID = ""
			}
		}
	}

	e.forget(id)
	e.revision++
	e.emitNode(domain.EventNodeRemoved, n)
	for _, c := range removed {
		e.emitEdge(domain.EventEdgeRemoved, c)
	}
	e.logger.Debug("node removed", "node", id, "edges", len(removed))
	return nil
}

// MoveNode updates the layout position only.
func (e *Engine) MoveNode(id string, p domain.Position) error {
	if err := e.guard(); err != nil {
		return err
	}
	n, ok := e.graph.Node(id)
	if !ok {
		return fmt.Errorf("move %s: %w", id, domain.ErrNodeNotFound)
	}
	n.Position = p
	e.emitNode(domain.EventNodeMoved, n)
	return nil
}

// checkDestinations rejects options pointing at nodes that do not exist. self
// is the id of the node owning the options, which may not be in the graph yet.
// Destinations an option already had in prev are not checked again: dangling
// references loaded from a stored flow stay editable and are left to the
// validator.
func (e *Engine) checkDestinations(self string, opts, prev []domain.Option) error {
	kept := make(map[string]string, len(prev))
	for _, o := range prev {
		kept[o.ID] = o.NextNodeID
	}
	for _, o := range opts {
		if dest, ok := kept[o.ID]; ok && dest == o.NextNodeID {
			continue
		}
		if o.NextNodeID != "" && o.NextNodeID != self && !e.graph.HasNode(o.NextNodeID) {
			return fmt.Errorf("option %s destination %s: %w", o.ID, o.NextNodeID, domain.ErrNodeNotFound)
		}
	}
	return nil
}
