package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// required lists the properties each definition must carry.
var required = map[string][]string{
	"Flow":        {"id", "name"},
	"MenuDef":     {"id"},
	"MessageDef":  {"id"},
	"DecisionDef": {"id"},
	"DelayDef":    {"id"},
	"MarkerDef":   {"id"},
	"Connection":  {"id", "source", "target"},
}

func enum[T ~string](values ...T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// enums constrains string properties: definition -> property -> values.
var enums = map[string]map[string][]any{
	"Flow": {
		"validationStatus": enum(domain.FlowPending, domain.FlowValidated, domain.FlowError),
	},
	"Connection": {
		"validationStatus": enum(domain.EdgeStatuses...),
	},
	"Option": {
		"action": enum(domain.ActionMessage, domain.ActionMenu, domain.ActionPhone, domain.ActionURL, domain.ActionEnd),
	},
}

var descriptions = map[string]map[string]string{
	"Flow": {
		"connections": "Directed links between nodes. When absent, connections are derived from the option destinations.",
		"endNodes":    "Terminal markers. Options with action end and no destination connect to one of them.",
	},
	"Connection": {
		"sourceHandle":     "option-<id> when the connection leaves a specific option.",
		"validationStatus": "Manual test annotation. Any status may move to any other.",
	},
	"DelayDef": {
		"duration": "Pause in seconds; validation requires at least 1.",
	},
}

// Document reflects the flow document schema.
func Document() (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&domain.Flow{})
	s.Title = "Conversational flow"
	s.Description = "A stored conversational flow: node definitions per kind, start and end markers, and connections."

	for name, props := range required {
		def, ok := s.Definitions[name]
		if !ok {
			return nil, fmt.Errorf("schema definition %s not reflected", name)
		}
		def.Required = props
	}
	for name, props := range enums {
		for prop, values := range props {
			p, err := property(s, name, prop)
			if err != nil {
				return nil, err
			}
			p.Enum = values
		}
	}
	for name, props := range descriptions {
		for prop, text := range props {
			p, err := property(s, name, prop)
			if err != nil {
				return nil, err
			}
			p.Description = text
		}
	}
	return s, nil
}

func property(s *jsonschema.Schema, def, prop string) (*jsonschema.Schema, error) {
	d, ok := s.Definitions[def]
	if !ok || d.Properties == nil {
		return nil, fmt.Errorf("schema definition %s not reflected", def)
	}
	p, ok := d.Properties.Get(prop)
	if !ok {
		return nil, fmt.Errorf("schema property %s.%s not reflected", def, prop)
	}
	return p, nil
}

// JSON returns the indented schema document.
func JSON() ([]byte, error) {
	s, err := Document()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}
