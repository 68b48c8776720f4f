package editor

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// NodePatch is a partial payload update. Nil fields are left untouched; a
// field that the node kind does not have is rejected.
type NodePatch struct {
	Title    *string          `json:"title,omitempty"`
	Message  *string          `json:"message,omitempty"`
	Question *string          `json:"question,omitempty"`
	Label    *string          `json:"label,omitempty"`
	Duration *float64         `json:"duration,omitempty"`
	Options  *[]domain.Option `json:"options,omitempty"`
}

var patchable = map[domain.NodeKind][]string{
	domain.KindMenu:          {"title", "message", "options"},
	domain.KindDecision:      {"question", "options"},
	domain.KindSystemMessage: {"message"},
	domain.KindClientMessage: {"message"},
	domain.KindDelay:         {"duration", "message"},
	domain.KindStart:         {"label"},
	domain.KindEnd:           {"label"},
}

// fields lists the names of the fields the patch sets.
func (p NodePatch) fields() []string {
	var out []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"title", p.Title != nil},
		{"message", p.Message != nil},
		{"question", p.Question != nil},
		{"label", p.Label != nil},
		{"duration", p.Duration != nil},
		{"options", p.Options != nil},
	} {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// IsEmpty reports whether the patch sets nothing.
func (p NodePatch) IsEmpty() bool {
	return len(p.fields()) == 0
}

// apply merges the patch into a copy of payload and returns it.
func (p NodePatch) apply(payload domain.Payload) (domain.Payload, error) {
	kind := payload.Kind()
	for _, f := range p.fields() {
		if !slices.Contains(patchable[kind], f) {
			return nil, fmt.Errorf("%w: %s on %s", domain.ErrFieldNotApplicable, f, kind)
		}
	}

	out := domain.ClonePayload(payload)
	switch v := out.(type) {
	case *domain.Menu:
		setString(&v.Title, p.Title)
		setString(&v.Message, p.Message)
	case *domain.Decision:
		setString(&v.Question, p.Question)
	case *domain.SystemMessage:
		setString(&v.Message, p.Message)
	case *domain.ClientMessage:
		setString(&v.Message, p.Message)
	case *domain.Delay:
		setString(&v.Message, p.Message)
		if p.Duration != nil {
			v.Duration = *p.Duration
		}
	case *domain.Start:
		setString(&v.Label, p.Label)
	case *domain.End:
		setString(&v.Label, p.Label)
	}

	if p.Options != nil {
		opts, err := normalizeOptions(*p.Options)
		if err != nil {
			return nil, err
		}
		domain.SetOptions(out, opts)
	}
	return out, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// normalizeOptions returns a copy where every option has a unique id and a
// known action. Missing ids get the next free number; a missing action is
// "message".
func normalizeOptions(in []domain.Option) ([]domain.Option, error) {
	out := domain.CloneOptions(in)
	if out == nil {
		return []domain.Option{}, nil
	}
	seen := make(map[string]bool, len(out))
	for _, o := range out {
		if o.ID == "" {
			continue
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("%w: duplicate option id %q", domain.ErrInvalidOption, o.ID)
		}
		seen[o.ID] = true
	}
	next := 1
	for i := range out {
		if out[i].ID == "" {
			for seen[strconv.Itoa(next)] {
				next++
			}
			out[i].ID = strconv.Itoa(next)
			seen[out[i].ID] = true
		}
		switch {
		case out[i].Action == "":
			out[i].Action = domain.ActionMessage
		case !out[i].Action.Valid():
			return nil, fmt.Errorf("%w: unknown action %q on option %s", domain.ErrInvalidOption, out[i].Action, out[i].ID)
		}
	}
	return out, nil
}
