package flowgraph

import "fmt"

// EndNodePolicy picks the end node an option with action "end" and no explicit
// destination connects to. endIDs are the end nodes in declaration order and
// optionIndex is the position of the option inside its node. It returns "" when
// no end node is available.
type EndNodePolicy func(endIDs []string, optionIndex int) string

// PositionalEndNode pairs the i-th option with the i-th end node and falls back
// to the first end node.
func PositionalEndNode(endIDs []string, optionIndex int) string {
	if len(endIDs) == 0 {
		return ""
	}
	if optionIndex >= 0 && optionIndex < len(endIDs) {
		return endIDs[optionIndex]
	}
	return endIDs[0]
}

// FirstEndNode always picks the first declared end node.
func FirstEndNode(endIDs []string, _ int) string {
	if len(endIDs) == 0 {
		return ""
	}
	return endIDs[0]
}

// Policy names accepted by ParseEndNodePolicy.
const (
	PolicyPositional = "positional"
	PolicyFirst      = "first"
)

// ParseEndNodePolicy maps a configuration name to a policy. The empty name
// selects PositionalEndNode.
func ParseEndNodePolicy(name string) (EndNodePolicy, error) {
	switch name {
	case "", PolicyPositional:
		return PositionalEndNode, nil
	case PolicyFirst:
		return FirstEndNode, nil
	default:
		return nil, fmt.Errorf("unknown end node policy %q", name)
	}
}
