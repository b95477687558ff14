package loader

import (
	"fmt"

	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/pkg/schema"
)

// validateSemantic performs the checks JSON Schema cannot express:
// global id/path uniqueness, known field types, cardinality bounds, and
// step operation discrimination.
func validateSemantic(def *schema.InterviewDefinition, types *fields.Registry) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	questionIDs := make(map[string]bool, len(def.Questions))
	fieldPaths := make(map[string]string) // path -> question id

	for qi, q := range def.Questions {
		qPath := fmt.Sprintf("questions[%d]", qi)

		if questionIDs[q.ID] {
			result.AddError(qPath+".id", schema.ErrCodeDefinition,
				fmt.Sprintf("duplicate question id %q", q.ID))
		}
		questionIDs[q.ID] = true

		for fi := range q.Fields {
			f := &q.Fields[fi]
			fPath := fmt.Sprintf("%s.fields[%d]", qPath, fi)

			if owner, dup := fieldPaths[f.Path]; dup {
				result.AddError(fPath+".path", schema.ErrCodeDefinition,
					fmt.Sprintf("field path %q already declared by question %q", f.Path, owner))
			}
			fieldPaths[f.Path] = q.ID

			validateFieldSemantic(f, fPath, types, result)
		}
	}

	for si := range def.Steps {
		validateStepSemantic(&def.Steps[si], fmt.Sprintf("steps[%d]", si), result)
	}

	return result
}

func validateFieldSemantic(f *schema.FieldDefinition, path string, types *fields.Registry, result *schema.ValidationResult) {
	if !types.Has(f.Type) {
		result.AddError(path+".type", schema.ErrCodeDefinition,
			fmt.Sprintf("unknown field type %q", f.Type))
		return
	}

	if f.Max > 0 && f.Min > f.Max {
		result.AddError(path+".min", schema.ErrCodeDefinition,
			fmt.Sprintf("min (%d) exceeds max (%d)", f.Min, f.Max))
	}

	if f.Type == "select" {
		if len(f.Options) == 0 {
			result.AddError(path+".options", schema.ErrCodeDefinition,
				"select field declares no options")
			return
		}
		// An unset max means a single choice; a larger min makes the field
		// unsatisfiable.
		if f.Max == 0 && f.Min > 1 {
			result.AddError(path+".min", schema.ErrCodeDefinition,
				fmt.Sprintf("min (%d) exceeds max (unset max means a single choice)", f.Min))
		}
		if f.Min > len(f.Options) {
			result.AddError(path+".min", schema.ErrCodeDefinition,
				fmt.Sprintf("min (%d) exceeds option count (%d)", f.Min, len(f.Options)))
		}
		optIDs := make(map[string]bool, len(f.Options))
		for oi, opt := range f.Options {
			if optIDs[opt.ID] {
				result.AddError(fmt.Sprintf("%s.options[%d].id", path, oi), schema.ErrCodeDefinition,
					fmt.Sprintf("duplicate option id %q", opt.ID))
			}
			optIDs[opt.ID] = true
		}
	} else if len(f.Options) > 0 {
		result.AddError(path+".options", schema.ErrCodeDefinition,
			fmt.Sprintf("options are only valid on select fields, not %q", f.Type))
	}
}

func validateStepSemantic(s *schema.StepDefinition, path string, result *schema.ValidationResult) {
	switch {
	case s.IsSet() && s.IsEnsure():
		result.AddError(path, schema.ErrCodeDefinition,
			"step declares both set and ensure; exactly one operation is required")
	case !s.IsSet() && !s.IsEnsure():
		result.AddError(path, schema.ErrCodeDefinition,
			"step declares neither set nor ensure")
	case s.IsSet() && s.Value == "":
		result.AddError(path+".value", schema.ErrCodeDefinition,
			"set step requires a value expression")
	case s.IsEnsure() && s.Value != "":
		result.AddError(path+".value", schema.ErrCodeDefinition,
			"value is only valid on set steps")
	}
}
