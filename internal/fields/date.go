package fields

import (
	"time"

	"github.com/rendis/intake/pkg/schema"
)

const dateLayout = "2006-01-02"

// dateType validates calendar dates in YYYY-MM-DD form. The normalized
// value is the canonical YYYY-MM-DD string, so dates stay comparable with
// string ordering in expressions.
type dateType struct{}

func (t *dateType) Name() string { return "date" }

func (t *dateType) Validate(raw any, spec *schema.FieldDefinition) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(spec, "expected a YYYY-MM-DD date, got %T", raw)
	}
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fieldErr(spec, "%q is not a valid YYYY-MM-DD date", s)
	}
	return parsed.Format(dateLayout), nil
}

func (t *dateType) Describe(spec *schema.FieldDefinition) map[string]any {
	desc := map[string]any{"type": "string", "format": "date"}
	if spec.Default != nil {
		desc["default"] = spec.Default
	}
	return desc
}
