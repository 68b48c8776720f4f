package dsl

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node. Setters that do
// not apply to the node kind make Build fail.
type NodeBuilder struct {
	id       string
	payload  domain.Payload
	position *domain.Position
	next     []string
	builder  *Builder
}

func (n *NodeBuilder) misuse(field string) *NodeBuilder {
	n.builder.errs = append(n.builder.errs, fmt.Errorf("%s on %s node %s: %w", field, n.payload.Kind(), n.id, domain.ErrFieldNotApplicable))
	return n
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.position = &domain.Position{X: x, Y: y}
	return n
}

// Label sets the label of start and end nodes.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	switch p := n.payload.(type) {
	case *domain.Start:
		p.Label = label
	case *domain.End:
		p.Label = label
	default:
		return n.misuse("label")
	}
	return n
}

// Title sets the title of a menu.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	p, ok := n.payload.(*domain.Menu)
	if !ok {
		return n.misuse("title")
	}
	p.Title = title
	return n
}

// Message sets the text of menus, messages and delays.
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	switch p := n.payload.(type) {
	case *domain.Menu:
		p.Message = text
	case *domain.SystemMessage:
		p.Message = text
	case *domain.ClientMessage:
		p.Message = text
	case *domain.Delay:
		p.Message = text
	default:
		return n.misuse("message")
	}
	return n
}

// Question sets the question of a decision.
func (n *NodeBuilder) Question(text string) *NodeBuilder {
	p, ok := n.payload.(*domain.Decision)
	if !ok {
		return n.misuse("question")
	}
	p.Question = text
	return n
}

func (n *NodeBuilder) option(o domain.Option) *NodeBuilder {
	opts := domain.OptionsOf(n.payload)
	if opts == nil {
		return n.misuse("options")
	}
	domain.SetOptions(n.payload, append(opts, o))
	return n
}

// Option appends a message option without destination.
func (n *NodeBuilder) Option(text string) *NodeBuilder {
	return n.option(domain.Option{Text: text, Action: domain.ActionMessage})
}

// OptionTo appends an option leading to target.
func (n *NodeBuilder) OptionTo(text, target string) *NodeBuilder {
	return n.option(domain.Option{Text: text, Action: domain.ActionMessage, NextNodeID: target})
}

// OptionEnd appends an option that ends the conversation. It is wired to an
// end node by the editor's end node policy.
func (n *NodeBuilder) OptionEnd(text string) *NodeBuilder {
	return n.option(domain.Option{Text: text, Action: domain.ActionEnd})
}

// OptionWith appends a fully specified option.
func (n *NodeBuilder) OptionWith(o domain.Option) *NodeBuilder {
	return n.option(o)
}

// Go adds a plain connection from this node to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.next = append(n.next, target)
	return n
}
