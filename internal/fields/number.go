package fields

import (
	"github.com/rendis/intake/pkg/schema"
)

// numberType validates numeric input. Min/Max are value bounds when set.
// Normalized values are float64, matching the expression language's single
// number type.
type numberType struct{}

func (t *numberType) Name() string { return "number" }

func (t *numberType) Validate(raw any, spec *schema.FieldDefinition) (any, error) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return nil, fieldErr(spec, "expected a number, got %T", raw)
	}

	if spec.Min != 0 || spec.Max != 0 {
		if n < float64(spec.Min) {
			return nil, fieldErr(spec, "must be at least %d", spec.Min)
		}
		if spec.Max != 0 && n > float64(spec.Max) {
			return nil, fieldErr(spec, "must be at most %d", spec.Max)
		}
	}

	return n, nil
}

func (t *numberType) Describe(spec *schema.FieldDefinition) map[string]any {
	desc := map[string]any{"type": "number"}
	if spec.Min != 0 {
		desc["minimum"] = spec.Min
	}
	if spec.Max != 0 {
		desc["maximum"] = spec.Max
	}
	if spec.Default != nil {
		desc["default"] = spec.Default
	}
	return desc
}
