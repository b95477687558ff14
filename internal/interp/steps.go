package interp

import (
	"strings"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/loader"
	"github.com/rendis/intake/pkg/schema"
)

// Unmet reports an ensure step whose references were falsy or missing.
type Unmet struct {
	StepIndex int
	Refs      []loader.EnsureRef
}

// Sources returns the unmet references' source texts.
func (u *Unmet) Sources() []string {
	out := make([]string, len(u.Refs))
	for i, ref := range u.Refs {
		out[i] = ref.Source
	}
	return out
}

// Touches reports whether any unmet reference reads one of the given
// context paths. Overlap counts in both directions: a reference to a
// parent map of a field path reads that field, and a reference below a
// field path reads part of its value.
func (u *Unmet) Touches(paths map[string]bool) bool {
	for _, ref := range u.Refs {
		for _, v := range expressions.Variables(ref.Node) {
			for p := range paths {
				if v == p || strings.HasPrefix(p, v+".") || strings.HasPrefix(v, p+".") {
					return true
				}
			}
		}
	}
	return false
}

// ApplySteps runs the step list strictly in definition order, mutating ctx
// in place (callers own a private copy). A falsy guard skips the step.
// On an unmet ensure, interpretation halts at that step and the unmet
// reference set is returned; later steps are not executed.
//
// Steps have no side effects beyond ctx, so repeated application over an
// identical history is idempotent; accumulate-style set expressions are
// expected to guard against duplicates themselves
// (e.g. "x + [v] if v not in x else x").
func ApplySteps(steps []*loader.Step, ctx map[string]any) (*Unmet, error) {
	for _, step := range steps {
		applicable, err := expressions.EvaluateAll(step.Guards, ctx)
		if err != nil {
			return nil, stepErr(err, step.Index)
		}
		if !applicable {
			continue
		}

		if step.IsSet() {
			v, err := step.Value.Eval(ctx)
			if err != nil {
				return nil, stepErr(err, step.Index)
			}
			if expressions.IsUndefined(v) {
				v = nil
			}
			if err := SetPath(ctx, step.Target, v); err != nil {
				return nil, stepErr(err, step.Index)
			}
			continue
		}

		var unmet []loader.EnsureRef
		for _, ref := range step.Ensure {
			v, err := ref.Node.Eval(ctx)
			if err != nil {
				return nil, stepErr(err, step.Index)
			}
			if !expressions.Truthy(v) {
				unmet = append(unmet, ref)
			}
		}
		if len(unmet) > 0 {
			return &Unmet{StepIndex: step.Index, Refs: unmet}, nil
		}
	}
	return nil, nil
}

func stepErr(err error, index int) error {
	if ie, ok := err.(*schema.InterviewError); ok {
		if ie.Details == nil {
			ie.Details = map[string]any{}
		}
		ie.Details["step_index"] = index
		return ie
	}
	return err
}
