package editor

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// Connect adds a pending connection from source to target and returns its id.
// A non-empty handle ("option-<id>") ties the connection to an option of the
// source: the option's destination becomes target and any other connection
// leaving the same option is replaced.
func (e *Engine) Connect(source, target, handle string) (string, error) {
	if err := e.guard(); err != nil {
		return "", err
	}
	if err := e.checkEndpoints(source, target); err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}

	c := &domain.Connection{
		Source:           source,
		Target:           target,
		ValidationStatus: domain.EdgePending,
	}
	if handle == "" {
		c.ID = e.graph.UniqueEdgeID(flowgraph.DefaultEdgeID(source, target))
	} else {
		opt, err := e.option(source, handle)
		if err != nil {
			return "", fmt.Errorf("connect: %w", err)
		}
		e.dropHandle(source, handle, "")
		opt.NextNodeID = target
		c.SourceHandle = handle
		c.Label = opt.Text
		c.ID = e.graph.UniqueEdgeID(flowgraph.OptionEdgeID(source, opt.ID))
	}

	if err := e.graph.AddEdge(c); err != nil {
		return "", err
	}
	e.revision++
	e.emitEdge(domain.EventEdgeAdded, c)
	return c.ID, nil
}

// Reconnect moves an existing connection to new endpoints, keeping its id and
// status. Option destinations on both the old and the new handle follow.
func (e *Engine) Reconnect(edgeID, source, target, handle string) error {
	if err := e.guard(); err != nil {
		return err
	}
	c, ok := e.graph.Edge(edgeID)
	if !ok {
		return fmt.Errorf("reconnect %s: %w", edgeID, domain.ErrEdgeNotFound)
	}
	if err := e.checkEndpoints(source, target); err != nil {
		return fmt.Errorf("reconnect %s: %w", edgeID, err)
	}
	var opt *domain.Option
	if handle != "" {
		o, err := e.option(source, handle)
		if err != nil {
			return fmt.Errorf("reconnect %s: %w", edgeID, err)
		}
		opt = o
	}

	e.releaseOption(c)
	if opt != nil {
		e.dropHandle(source, handle, edgeID)
		opt.NextNodeID = target
		c.Label = opt.Text
	} else if c.SourceHandle != "" {
		c.Label = ""
	}
	c.Source, c.Target, c.SourceHandle = source, target, handle

	e.revision++
	e.emitEdge(domain.EventEdgeReconnected, c)
	return nil
}

// Disconnect removes a connection and clears the destination of the option it
// belonged to.
func (e *Engine) Disconnect(edgeID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	c, ok := e.graph.RemoveEdge(edgeID)
	if !ok {
		return fmt.Errorf("disconnect %s: %w", edgeID, domain.ErrEdgeNotFound)
	}
	e.releaseOption(c)
	e.revision++
	e.emitEdge(domain.EventEdgeRemoved, c)
	return nil
}

// SetEdgeValidationStatus records the manual annotation of a connection. Every
// status may follow every other. Nodes are not affected.
func (e *Engine) SetEdgeValidationStatus(edgeID string, status domain.EdgeStatus) error {
	if err := e.guard(); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	c, ok := e.graph.Edge(edgeID)
	if !ok {
		return fmt.Errorf("set status %s: %w", edgeID, domain.ErrEdgeNotFound)
	}
	c.ValidationStatus = status
	e.emitEdge(domain.EventEdgeStatusChanged, c)
	return nil
}

// DisplayLabel returns the label of a connection decorated with its status.
func DisplayLabel(c *domain.Connection) string {
	return domain.DecorateLabel(c.ValidationStatus, c.Label)
}

func (e *Engine) checkEndpoints(source, target string) error {
	if !e.graph.HasNode(source) {
		return fmt.Errorf("source %s: %w", source, domain.ErrNodeNotFound)
	}
	if !e.graph.HasNode(target) {
		return fmt.Errorf("target %s: %w", target, domain.ErrNodeNotFound)
	}
	return nil
}

// option resolves a source handle to the option it names. The returned pointer
// aliases the option inside the node payload.
func (e *Engine) option(nodeID, handle string) (*domain.Option, error) {
	optID, ok := domain.ParseHandle(handle)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidHandle, handle)
	}
	n, _ := e.graph.Node(nodeID)
	opts := domain.OptionsOf(n.Payload)
	i := domain.FindOption(opts, optID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s on node %s", domain.ErrOptionNotFound, optID, nodeID)
	}
	return &opts[i], nil
}

// dropHandle removes the connections leaving source through handle, except keep.
func (e *Engine) dropHandle(source, handle, keep string) {
	removed := e.graph.RemoveEdgesFunc(func(c *domain.Connection) bool {
		return c.ID != keep && c.Source == source && c.SourceHandle == handle
	})
	for _, c := range removed {
		e.emitEdge(domain.EventEdgeRemoved, c)
	}
}

// releaseOption clears the destination of the option c leaves from, when it
// still points at c's target.
func (e *Engine) releaseOption(c *domain.Connection) {
	optID, ok := c.OptionID()
	if !ok {
		return
	}
	n, ok := e.graph.Node(c.Source)
	if !ok {
		return
	}
	opts := domain.OptionsOf(n.Payload)
	if i := domain.FindOption(opts, optID); i >= 0 && opts[i].NextNodeID == c.Target {
		opts[i].NextNodeID = ""
	}
}
