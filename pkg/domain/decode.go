package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DecodeFlowMap builds a Flow from a generic document (as produced by decoding JSON
// or YAML into map[string]any). It never fails: every field that cannot be decoded
// falls back to its default and is reported in the returned warnings, each wrapping
// ErrMalformedField.
func DecodeFlowMap(raw map[string]any) (*Flow, []error) {
	d := &decoder{}
	f := NewFlow("", "")
	f.Connections = nil

	var header struct {
		ID               string    `mapstructure:"id"`
		Name             string    `mapstructure:"name"`
		Description      string    `mapstructure:"description"`
		ValidationStatus string    `mapstructure:"validationStatus"`
		CreatedAt        time.Time `mapstructure:"createdAt"`
		UpdatedAt        time.Time `mapstructure:"updatedAt"`
	}
	scalars := make(map[string]any, 6)
	for _, k := range []string{KeyID, KeyName, KeyDescription, KeyValidationStatus, KeyCreatedAt, KeyUpdatedAt} {
		if v, ok := raw[k]; ok && v != nil {
			scalars[k] = v
		}
	}
	d.decode("", scalars, &header)
	f.ID, f.Name, f.Description = header.ID, header.Name, header.Description
	f.CreatedAt, f.UpdatedAt = header.CreatedAt, header.UpdatedAt
	switch st := FlowStatus(header.ValidationStatus); {
	case st.Valid():
		f.ValidationStatus = st
	case st == "":
	default:
		d.warn(KeyValidationStatus, "unknown status %q, using %q", st, FlowPending)
	}

	for i, m := range d.objects(raw, KeyMenus) {
		path := fmt.Sprintf("%s[%d]", KeyMenus, i)
		var def MenuDef
		d.decode(path, without(m, KeyOptions), &def)
		def.Options = d.options(path, m[KeyOptions])
		f.Menus = append(f.Menus, def)
	}
	for i, m := range d.objects(raw, KeySystemMessages) {
		var def MessageDef
		d.decode(fmt.Sprintf("%s[%d]", KeySystemMessages, i), m, &def)
		f.SystemMessages = append(f.SystemMessages, def)
	}
	for i, m := range d.objects(raw, KeyClientMessages) {
		var def MessageDef
		d.decode(fmt.Sprintf("%s[%d]", KeyClientMessages, i), m, &def)
		f.ClientMessages = append(f.ClientMessages, def)
	}
	for i, m := range d.objects(raw, KeyDecisions) {
		path := fmt.Sprintf("%s[%d]", KeyDecisions, i)
		var def DecisionDef
		d.decode(path, without(m, KeyOptions), &def)
		def.Options = d.options(path, m[KeyOptions])
		f.Decisions = append(f.Decisions, def)
	}
	for i, m := range d.objects(raw, KeyDelays) {
		var def DelayDef
		d.decode(fmt.Sprintf("%s[%d]", KeyDelays, i), m, &def)
		f.Delays = append(f.Delays, def)
	}
	for i, m := range d.objects(raw, KeyEndNodes) {
		var def MarkerDef
		d.decode(fmt.Sprintf("%s[%d]", KeyEndNodes, i), m, &def)
		f.EndNodes = append(f.EndNodes, def)
	}
	f.StartNode = d.marker(KeyStartNode, raw[KeyStartNode])

	if v, ok := raw[KeyConnections]; ok && v != nil {
		if _, isList := v.([]any); isList {
			f.Connections = []Connection{}
		}
		for i, m := range d.objects(raw, KeyConnections) {
			path := fmt.Sprintf("%s[%d]", KeyConnections, i)
			var c Connection
			d.decode(path, m, &c)
			if c.ValidationStatus != "" && !c.ValidationStatus.Valid() {
				d.warn(path+"."+KeyValidationStatus, "unknown status %q", c.ValidationStatus)
				c.ValidationStatus = ""
			}
			f.Connections = append(f.Connections, c)
		}
	}

	for k, v := range raw {
		if _, known := flowKeys[k]; known {
			continue
		}
		if f.Extra == nil {
			f.Extra = make(map[string]any)
		}
		f.Extra[k] = v
	}
	return f, d.warnings
}

// DecodePayload builds a typed payload of the given kind from a generic object,
// with the same fallback rules as DecodeFlowMap. Keys that the kind does not
// define are ignored.
func DecodePayload(kind NodeKind, raw map[string]any) (Payload, []error) {
	d := &decoder{}
	var p Payload
	switch kind {
	case KindMenu:
		var def MenuDef
		d.decode("", without(raw, KeyOptions), &def)
		def.Options = d.options("", raw[KeyOptions])
		p = def.Payload()
	case KindSystemMessage:
		var def MessageDef
		d.decode("", raw, &def)
		p = &SystemMessage{Message: def.Message}
	case KindClientMessage:
		var def MessageDef
		d.decode("", raw, &def)
		p = &ClientMessage{Message: def.Message}
	case KindDecision:
		var def DecisionDef
		d.decode("", without(raw, KeyOptions), &def)
		def.Options = d.options("", raw[KeyOptions])
		p = def.Payload()
	case KindDelay:
		var def DelayDef
		d.decode("", raw, &def)
		p = def.Payload()
	case KindStart:
		var def MarkerDef
		d.decode("", raw, &def)
		p = &Start{Label: def.Label}
	case KindEnd:
		var def MarkerDef
		d.decode("", raw, &def)
		p = &End{Label: def.Label}
	default:
		return nil, []error{fmt.Errorf("%w: %q", ErrUnknownKind, kind)}
	}
	return p, d.warnings
}

// Payload converts the stored menu into its editor payload.
func (d *MenuDef) Payload() *Menu {
	return &Menu{Title: d.Title, Message: d.Message, Options: nonNilOptions(CloneOptions(d.Options))}
}

// Payload converts the stored decision into its editor payload.
func (d *DecisionDef) Payload() *Decision {
	return &Decision{Question: d.Question, Options: nonNilOptions(CloneOptions(d.Options))}
}

// Payload converts the stored delay into its editor payload.
func (d *DelayDef) Payload() *Delay {
	return &Delay{Duration: d.Duration, Message: d.Message}
}

func nonNilOptions(opts []Option) []Option {
	if opts == nil {
		return []Option{}
	}
	return opts
}

type decoder struct {
	warnings []error
}

func (d *decoder) warn(path, format string, args ...any) {
	if path == "" {
		path = "."
	}
	d.warnings = append(d.warnings, fmt.Errorf("%w: %s: %s", ErrMalformedField, path, fmt.Sprintf(format, args...)))
}

// decode runs mapstructure with weak typing. Fields that decode successfully are
// kept even when siblings fail.
func (d *decoder) decode(path string, input map[string]any, out any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:           out,
	})
	if err != nil {
		d.warn(path, "%v", err)
		return
	}
	if err := dec.Decode(input); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			for _, msg := range merr.Errors {
				d.warn(path, "%s", msg)
			}
			return
		}
		d.warn(path, "%v", err)
	}
}

func (d *decoder) objects(raw map[string]any, key string) []map[string]any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		d.warn(key, "expected a list, got %T", v)
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			d.warn(fmt.Sprintf("%s[%d]", key, i), "expected an object, got %T", el)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (d *decoder) options(path string, v any) []Option {
	opts := []Option{}
	if v == nil {
		return opts
	}
	prefix := KeyOptions
	if path != "" {
		prefix = path + "." + KeyOptions
	}
	list, ok := v.([]any)
	if !ok {
		d.warn(prefix, "expected a list, got %T", v)
		return opts
	}
	for i, el := range list {
		elPath := fmt.Sprintf("%s[%d]", prefix, i)
		m, ok := el.(map[string]any)
		if !ok {
			d.warn(elPath, "expected an object, got %T", el)
			continue
		}
		var o Option
		d.decode(elPath, m, &o)
		if !o.Action.Valid() {
			if o.Action != "" {
				d.warn(elPath+".action", "unknown action %q, using %q", o.Action, ActionMessage)
			}
			o.Action = ActionMessage
		}
		opts = append(opts, o)
	}
	return opts
}

// marker accepts both the object form and the bare id string of older documents.
func (d *decoder) marker(path string, v any) *MarkerDef {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return &MarkerDef{ID: val}
	case float64:
		return &MarkerDef{ID: strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return &MarkerDef{ID: strconv.Itoa(val)}
	case map[string]any:
		var def MarkerDef
		d.decode(path, val, &def)
		return &def
	default:
		d.warn(path, "expected an object or id, got %T", v)
		return nil
	}
}

func without(m map[string]any, key string) map[string]any {
	if _, ok := m[key]; !ok {
		return m
	}
	out := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
