package serialization

import (
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// Dump flattens the graph into a flow document.
//
// Flow-level metadata and unknown top-level keys are copied from base. Every node
// is written over the unknown fields of the base entry with the same id, so
// fields this editor does not expose are kept. updatedAt is set to now, and
// createdAt too when base has none. base may be nil.
func Dump(g *flowgraph.Graph, base *domain.Flow, now time.Time) *domain.Flow {
	if base == nil {
		base = &domain.Flow{}
	}
	out := domain.NewFlow(base.ID, base.Name)
	out.Description = base.Description
	out.Extra = domain.CloneExtra(base.Extra)
	if base.ValidationStatus.Valid() {
		out.ValidationStatus = base.ValidationStatus
	}
	out.CreatedAt = base.CreatedAt
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	baseExtra := indexExtra(base)
	extra := func(n *domain.Node) map[string]any {
		return mergeExtra(baseExtra[n.ID], n.Extra)
	}

	for _, n := range g.Nodes() {
		pos := n.Position
		switch p := n.Payload.(type) {
		case *domain.Start:
			if out.StartNode != nil {
				// The document has a single start slot; the editor never creates a second one.
				continue
			}
			out.StartNode = &domain.MarkerDef{ID: n.ID, Label: p.Label, Position: &pos, Extra: extra(n)}
		case *domain.End:
			out.EndNodes = append(out.EndNodes, domain.MarkerDef{ID: n.ID, Label: p.Label, Position: &pos, Extra: extra(n)})
		case *domain.Menu:
			out.Menus = append(out.Menus, domain.MenuDef{
				ID: n.ID, Title: p.Title, Message: p.Message,
				Options: optionsOrEmpty(p.Options), Position: &pos, Extra: extra(n),
			})
		case *domain.SystemMessage:
			out.SystemMessages = append(out.SystemMessages, domain.MessageDef{ID: n.ID, Message: p.Message, Position: &pos, Extra: extra(n)})
		case *domain.ClientMessage:
			out.ClientMessages = append(out.ClientMessages, domain.MessageDef{ID: n.ID, Message: p.Message, Position: &pos, Extra: extra(n)})
		case *domain.Decision:
			out.Decisions = append(out.Decisions, domain.DecisionDef{
				ID: n.ID, Question: p.Question,
				Options: optionsOrEmpty(p.Options), Position: &pos, Extra: extra(n),
			})
		case *domain.Delay:
			out.Delays = append(out.Delays, domain.DelayDef{ID: n.ID, Duration: p.Duration, Message: p.Message, Position: &pos, Extra: extra(n)})
		}
	}

	for _, c := range g.Edges() {
		conn := *c.Clone()
		if !conn.ValidationStatus.Valid() {
			conn.ValidationStatus = domain.EdgePending
		}
		out.Connections = append(out.Connections, conn)
	}
	return out
}

func optionsOrEmpty(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return domain.CloneOptions(opts)
}

func indexExtra(f *domain.Flow) map[string]map[string]any {
	idx := make(map[string]map[string]any)
	put := func(id string, extra map[string]any) {
		if id != "" && len(extra) > 0 {
			if _, ok := idx[id]; !ok {
				idx[id] = extra
			}
		}
	}
	if f.StartNode != nil {
		put(f.StartNode.ID, f.StartNode.Extra)
	}
	for _, d := range f.Menus {
		put(d.ID, d.Extra)
	}
	for _, d := range f.SystemMessages {
		put(d.ID, d.Extra)
	}
	for _, d := range f.ClientMessages {
		put(d.ID, d.Extra)
	}
	for _, d := range f.Decisions {
		put(d.ID, d.Extra)
	}
	for _, d := range f.Delays {
		put(d.ID, d.Extra)
	}
	for _, d := range f.EndNodes {
		put(d.ID, d.Extra)
	}
	return idx
}

// mergeExtra overlays the node's own unknown fields on those of the base entry.
func mergeExtra(base, own map[string]any) map[string]any {
	if len(base) == 0 {
		return domain.CloneExtra(own)
	}
	out := domain.CloneExtra(base)
	for k, v := range own {
		out[k] = v
	}
	return out
}
