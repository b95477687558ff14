package fields

import (
	"github.com/rendis/intake/pkg/schema"
)

// selectType validates choosing k of n declared options. Min/Max bound the
// selected count (0 <= min <= max, checked at definition load). A field
// with Max <= 1 normalizes to the single option id; otherwise to the list
// of selected ids in declaration order.
type selectType struct{}

func (t *selectType) Name() string { return "select" }

func (t *selectType) Validate(raw any, spec *schema.FieldDefinition) (any, error) {
	var selected []string
	switch v := raw.(type) {
	case string:
		selected = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fieldErr(spec, "option ids must be strings, got %T", item)
			}
			selected = append(selected, s)
		}
	case []string:
		selected = v
	default:
		return nil, fieldErr(spec, "expected an option id or list of option ids, got %T", raw)
	}

	declared := make(map[string]int, len(spec.Options))
	for i, opt := range spec.Options {
		declared[opt.ID] = i
	}

	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if _, ok := declared[id]; !ok {
			return nil, fieldErr(spec, "unknown option %q", id)
		}
		if seen[id] {
			return nil, fieldErr(spec, "option %q selected twice", id)
		}
		seen[id] = true
	}

	if len(selected) < spec.Min {
		return nil, fieldErr(spec, "choose at least %d", spec.Min)
	}
	if len(selected) > t.max(spec) {
		return nil, fieldErr(spec, "choose at most %d", t.max(spec))
	}

	if t.max(spec) <= 1 {
		if len(selected) == 0 {
			return nil, nil
		}
		return selected[0], nil
	}

	// Normalize multi-select to declaration order so identical choices
	// always produce identical context values.
	out := make([]any, 0, len(selected))
	for _, opt := range spec.Options {
		if seen[opt.ID] {
			out = append(out, opt.ID)
		}
	}
	return out, nil
}

// max treats an unset Max as 1 (single choice), matching the document
// default.
func (t *selectType) max(spec *schema.FieldDefinition) int {
	if spec.Max == 0 {
		return 1
	}
	return spec.Max
}

func (t *selectType) Describe(spec *schema.FieldDefinition) map[string]any {
	ids := make([]any, len(spec.Options))
	labels := make([]any, len(spec.Options))
	var defaults []any
	for i, opt := range spec.Options {
		ids[i] = opt.ID
		label := opt.Label
		if label == "" {
			label = opt.ID
		}
		labels[i] = label
		if opt.Default {
			defaults = append(defaults, opt.ID)
		}
	}

	if t.max(spec) > 1 {
		desc := map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string", "enum": ids},
			"minItems":    spec.Min,
			"maxItems":    t.max(spec),
			"uniqueItems": true,
			"x-labels":    labels,
		}
		if len(defaults) > 0 {
			desc["default"] = defaults
		}
		return desc
	}

	desc := map[string]any{
		"type":     "string",
		"enum":     ids,
		"x-labels": labels,
	}
	if len(defaults) > 0 {
		desc["default"] = defaults[0]
	}
	return desc
}
