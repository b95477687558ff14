package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/intake/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// interviewSchemaJSON is the JSON Schema for interview definition documents.
// Embedded as a constant to avoid filesystem dependencies.
const interviewSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://intake.dev/schemas/interview.json",
  "type": "object",
  "required": ["id", "questions"],
  "properties": {
    "id": { "type": "string", "minLength": 1 },
    "seeds": {
      "type": "array",
      "items": { "$ref": "#/$defs/path" }
    },
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/question" }
    },
    "steps": {
      "type": "array",
      "items": { "$ref": "#/$defs/step" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "path": {
      "type": "string",
      "pattern": "^[A-Za-z_][A-Za-z0-9_]*(\\.[A-Za-z_][A-Za-z0-9_]*)*$"
    },
    "when": {
      "oneOf": [
        { "type": "string", "minLength": 1 },
        { "type": "array", "items": { "type": "string", "minLength": 1 } }
      ]
    },
    "question": {
      "type": "object",
      "required": ["id", "fields"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "title": { "type": "string" },
        "description": { "type": "string" },
        "when": { "$ref": "#/$defs/when" },
        "fields": {
          "type": "array",
          "minItems": 1,
          "items": { "$ref": "#/$defs/field" }
        }
      },
      "additionalProperties": false
    },
    "field": {
      "type": "object",
      "required": ["path", "type"],
      "properties": {
        "path": { "$ref": "#/$defs/path" },
        "type": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "min": { "type": "integer", "minimum": 0 },
        "max": { "type": "integer", "minimum": 0 },
        "format": { "type": "string" },
        "options": {
          "type": "array",
          "minItems": 1,
          "items": { "$ref": "#/$defs/option" }
        },
        "default": {},
        "optional": { "type": "boolean" }
      },
      "additionalProperties": false
    },
    "option": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "default": { "type": "boolean" }
      },
      "additionalProperties": false
    },
    "step": {
      "type": "object",
      "properties": {
        "set": { "$ref": "#/$defs/path" },
        "value": { "type": "string", "minLength": 1 },
        "ensure": {
          "type": "array",
          "minItems": 1,
          "items": { "type": "string", "minLength": 1 }
        },
        "when": { "$ref": "#/$defs/when" }
      },
      "additionalProperties": false
    }
  }
}`

// docValidator validates raw definition documents against the embedded
// JSON Schema. Safe for concurrent use after construction.
type docValidator struct {
	compiled *jsonschema.Schema
}

func newDocValidator() (*docValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(interviewSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal interview schema: %w", err)
	}
	if err := c.AddResource("https://intake.dev/schemas/interview.json", doc); err != nil {
		return nil, fmt.Errorf("add interview schema resource: %w", err)
	}

	compiled, err := c.Compile("https://intake.dev/schemas/interview.json")
	if err != nil {
		return nil, fmt.Errorf("compile interview schema: %w", err)
	}
	return &docValidator{compiled: compiled}, nil
}

// validate runs the structural pass over a decoded document and maps schema
// violations to ValidationIssues.
func (v *docValidator) validate(doc any) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	jsonDoc, err := toJSONValue(doc)
	if err != nil {
		result.AddError("/", schema.ErrCodeDefinition, "document is not JSON-representable: "+err.Error())
		return result
	}

	if err := v.compiled.Validate(jsonDoc); err != nil {
		for loc, msg := range collectViolations(err) {
			result.AddError(loc, schema.ErrCodeDefinition, msg)
		}
	}
	return result
}

// toJSONValue round-trips a Go value through JSON encoding so numbers
// become json.Number, which the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// collectViolations walks a ValidationError tree and returns leaf messages
// keyed by instance location.
func collectViolations(err error) map[string]string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return map[string]string{"/": err.Error()}
	}

	out := make(map[string]string)
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := "/"
			if len(e.InstanceLocation) > 0 {
				loc = "/" + strings.Join(e.InstanceLocation, "/")
			}
			out[loc] = e.Error()
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return out
}
