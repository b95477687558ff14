package fields

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rendis/intake/pkg/schema"
)

// textType validates free-form string input. Min/Max bound the rune length
// when set; Format "email" enforces address syntax.
type textType struct{}

func (t *textType) Name() string { return "text" }

func (t *textType) Validate(raw any, spec *schema.FieldDefinition) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(spec, "expected text, got %T", raw)
	}
	s = strings.TrimSpace(s)

	if s == "" && !spec.Optional {
		return nil, fieldErr(spec, "a value is required")
	}

	n := utf8.RuneCountInString(s)
	if spec.Min > 0 && n < spec.Min {
		return nil, fieldErr(spec, "must be at least %d characters", spec.Min)
	}
	if spec.Max > 0 && n > spec.Max {
		return nil, fieldErr(spec, "must be at most %d characters", spec.Max)
	}

	switch spec.Format {
	case "":
	case "email":
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return nil, fieldErr(spec, "not a valid email address")
		}
	default:
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "unknown text format %q", spec.Format).
			WithField(spec.Path)
	}

	return s, nil
}

func (t *textType) Describe(spec *schema.FieldDefinition) map[string]any {
	desc := map[string]any{"type": "string"}
	if spec.Min > 0 {
		desc["minLength"] = spec.Min
	}
	if spec.Max > 0 {
		desc["maxLength"] = spec.Max
	}
	if spec.Format != "" {
		desc["format"] = spec.Format
	}
	if spec.Default != nil {
		desc["default"] = spec.Default
	}
	return desc
}
