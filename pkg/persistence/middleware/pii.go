package middleware

import (
	"context"
	"regexp"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.FlowStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks unknown fields whose key
// matches one of the patterns before the flow reaches the store. Flow-level,
// node-level and option-level fields are covered, nested maps included.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.FlowStore) ports.FlowStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, flow *domain.Flow) error {
	// Work on a copy; the editor keeps using the original.
	cloned, err := flow.Clone()
	if err != nil {
		return err
	}

	mask := func(extra map[string]any) { maskMap(extra, m.patterns) }
	mask(cloned.Extra)
	if cloned.StartNode != nil {
		mask(cloned.StartNode.Extra)
	}
	for i := range cloned.Menus {
		mask(cloned.Menus[i].Extra)
		for j := range cloned.Menus[i].Options {
			mask(cloned.Menus[i].Options[j].Extra)
		}
	}
	for i := range cloned.Decisions {
		mask(cloned.Decisions[i].Extra)
		for j := range cloned.Decisions[i].Options {
			mask(cloned.Decisions[i].Options[j].Extra)
		}
	}
	for i := range cloned.SystemMessages {
		mask(cloned.SystemMessages[i].Extra)
	}
	for i := range cloned.ClientMessages {
		mask(cloned.ClientMessages[i].Extra)
	}
	for i := range cloned.Delays {
		mask(cloned.Delays[i].Extra)
	}
	for i := range cloned.EndNodes {
		mask(cloned.EndNodes[i].Extra)
	}
	for i := range cloned.Connections {
		mask(cloned.Connections[i].Extra)
	}

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Flow, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap masks in place. Nested maps come from a fresh decode, so they are
// not shared with the caller.
func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
