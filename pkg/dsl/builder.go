package dsl

import (
	"errors"
	"fmt"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// Builder manages the flow construction. Nodes are created in declaration order.
type Builder struct {
	id, name    string
	description string
	nodes       map[string]*NodeBuilder
	order       []string
	errs        []error
}

// New creates a new flow builder.
func New(id, name string) *Builder {
	return &Builder{
		id:    id,
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Describe sets the flow description.
func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

func (b *Builder) add(id string, payload domain.Payload) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		if nb.payload.Kind() != payload.Kind() {
			b.errs = append(b.errs, fmt.Errorf("node %s declared as %s and %s: %w", id, nb.payload.Kind(), payload.Kind(), domain.ErrKindMismatch))
		}
		return nb
	}
	nb := &NodeBuilder{id: id, payload: payload, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start declares the start node.
func (b *Builder) Start(id string) *NodeBuilder {
	return b.add(id, &domain.Start{Label: "Inicio"})
}

// End declares an end node.
func (b *Builder) End(id string) *NodeBuilder {
	return b.add(id, &domain.End{Label: "Fin"})
}

// Menu declares a menu node without options.
func (b *Builder) Menu(id string) *NodeBuilder {
	return b.add(id, &domain.Menu{Options: []domain.Option{}})
}

// Decision declares a decision node without options.
func (b *Builder) Decision(id string) *NodeBuilder {
	return b.add(id, &domain.Decision{Options: []domain.Option{}})
}

// System declares a message sent by the bot.
func (b *Builder) System(id string) *NodeBuilder {
	return b.add(id, &domain.SystemMessage{})
}

// Client declares a message expected from the customer.
func (b *Builder) Client(id string) *NodeBuilder {
	return b.add(id, &domain.ClientMessage{})
}

// Delay declares a pause of the given number of seconds.
func (b *Builder) Delay(id string, seconds float64) *NodeBuilder {
	return b.add(id, &domain.Delay{Duration: seconds})
}

// Build creates the flow through an editor configured with opts. Nodes are
// added first, then their options, so options may point at nodes declared
// later. The explicit connections are added last.
func (b *Builder) Build(opts ...flows.Option) (*domain.Flow, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	base := domain.NewFlow(b.id, b.name)
	base.Description = b.description
	ed := flows.New(base, opts...)

	var errs []error
	for _, id := range b.order {
		nb := b.nodes[id]
		payload := domain.ClonePayload(nb.payload)
		domain.SetOptions(payload, []domain.Option{})

		nodeOpts := []flows.NodeOption{flows.WithNodeID(id)}
		if nb.position != nil {
			nodeOpts = append(nodeOpts, flows.AtPosition(*nb.position))
		}
		if _, err := ed.AddNode(payload.Kind(), payload, nodeOpts...); err != nil {
			errs = append(errs, fmt.Errorf("add %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, id := range b.order {
		options := domain.CloneOptions(domain.OptionsOf(b.nodes[id].payload))
		if len(options) == 0 {
			continue
		}
		if err := ed.UpdateNode(id, flows.NodePatch{Options: &options}); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range b.order {
		for _, target := range b.nodes[id].next {
			if _, err := ed.Connect(id, target, ""); err != nil {
				errs = append(errs, fmt.Errorf("connect %s to %s: %w", id, target, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ed.Flow(), nil
}
