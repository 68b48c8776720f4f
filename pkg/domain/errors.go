package domain

import "errors"

// ErrNodeNotFound is returned when an operation references a node id that is not in the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned when an operation references an unknown connection id.
var ErrEdgeNotFound = errors.New("connection not found")

// ErrOptionNotFound is returned when a source handle names an option the node does not have.
var ErrOptionNotFound = errors.New("option not found")

// ErrReadOnly is returned by every mutation while the editor is in read-only mode.
var ErrReadOnly = errors.New("editor is read-only")

// ErrDuplicateID is returned when a node or connection id is already taken.
var ErrDuplicateID = errors.New("duplicate id")

// ErrDuplicateStart is returned when adding a start node to a graph that already has one.
var ErrDuplicateStart = errors.New("flow already has a start node")

// ErrKindMismatch is returned when a payload does not belong to the requested node kind.
var ErrKindMismatch = errors.New("payload does not match node kind")

// ErrUnknownKind is returned for node kinds outside the closed set.
var ErrUnknownKind = errors.New("unknown node kind")

// ErrInvalidStatus is returned for connection statuses outside pending|pass|error|retry.
var ErrInvalidStatus = errors.New("invalid validation status")

// ErrInvalidHandle is returned when a source handle is not of the form "option-<id>".
var ErrInvalidHandle = errors.New("invalid source handle")

// ErrFieldNotApplicable is returned when a patch sets a field the node kind does not have.
var ErrFieldNotApplicable = errors.New("field not applicable to node kind")

// ErrFlowNotFound is returned when a flow id cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrMalformedField marks a stored field that could not be decoded and fell back to its default.
var ErrMalformedField = errors.New("malformed field")

// ErrInvalidOption is returned when an option list has duplicate ids or unknown actions.
var ErrInvalidOption = errors.New("invalid option")
