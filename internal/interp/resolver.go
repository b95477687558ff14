package interp

import (
	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/internal/loader"
	"github.com/rendis/intake/pkg/schema"
)

// Phase is the interview lifecycle state recomputed on every request.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseAwaiting   Phase = "awaiting_answer"
	PhaseCompleted  Phase = "completed"
	// PhaseRejected is terminal and only ever produced at the token
	// boundary on integrity failures; the resolver itself never emits it.
	PhaseRejected Phase = "rejected"
)

// Outcome is the result of one full replay.
type Outcome struct {
	Phase      Phase
	QuestionID string
	Question   *schema.QuestionDescriptor

	// Unmet lists the falsy/missing ensure references when the question is
	// re-presented by a failed checkpoint.
	Unmet []string

	// FieldErrors are validation failures for the presented question's
	// submitted values.
	FieldErrors []schema.FieldIssue

	// Context is the final answer document; set only when completed.
	Context map[string]any

	// Effective is the history actually consumed by the replay: one record
	// per answered, applicable question, in consumption order. Answers to
	// skipped or re-presented questions are discarded. This is what the
	// refreshed state token must carry.
	Effective schema.AnswerHistory
}

// Resolver replays an answer history against a compiled definition.
type Resolver struct {
	types *fields.Registry
}

// NewResolver creates a Resolver using the given field type registry.
func NewResolver(types *fields.Registry) *Resolver {
	return &Resolver{types: types}
}

// Resolve recomputes the interview state from scratch: it seeds a fresh
// context, walks questions in definition order evaluating guards against
// the context built so far, merges validated answers, and re-applies the
// step list after every merge. The first applicable unanswered question is
// the authoritative resumption point. Identical inputs always produce an
// identical outcome.
func (r *Resolver) Resolve(def *loader.Definition, history schema.AnswerHistory, seed map[string]any) (*Outcome, error) {
	ctx := DeepCopy(seed)
	effective := schema.AnswerHistory{}

	// Pre-steps seed derived values. An unmet ensure here only halts step
	// processing; the question walk below decides what to ask.
	if _, err := ApplySteps(def.Steps, ctx); err != nil {
		return nil, err
	}

	for _, q := range def.Questions {
		applicable, err := expressions.EvaluateAll(q.Guards, ctx)
		if err != nil {
			return nil, questionErr(err, q.ID)
		}
		if !applicable {
			continue
		}

		rec := history.Lookup(q.ID)
		if rec == nil {
			return r.awaiting(q, ctx, effective, nil, nil)
		}

		normalized, issues := r.validateAnswer(q, rec.Values)
		if len(issues) > 0 {
			return r.awaiting(q, ctx, effective, nil, issues)
		}
		for path, v := range normalized {
			if err := SetPath(ctx, path, v); err != nil {
				return nil, questionErr(err, q.ID)
			}
		}

		unmet, err := ApplySteps(def.Steps, ctx)
		if err != nil {
			return nil, questionErr(err, q.ID)
		}
		if unmet != nil && unmet.Touches(fieldPaths(q)) {
			// A checkpoint this question should satisfy failed with its
			// answer merged: re-present the same question, never a later
			// one. An unmet checkpoint over paths collected further down
			// the walk is not a failure yet.
			return r.awaiting(q, ctx, effective, unmet, nil)
		}

		effective = effective.Append(schema.AnswerRecord{Question: q.ID, Values: rec.Values})
	}

	// No applicable unanswered question remains. Trailing steps already ran
	// after the last merge, but an interview with no answerable questions
	// still needs its checkpoint verdict.
	unmet, err := ApplySteps(def.Steps, ctx)
	if err != nil {
		return nil, err
	}
	if unmet != nil {
		if q := r.questionForRefs(def, unmet, ctx); q != nil {
			return r.awaiting(q, ctx, effective, unmet, nil)
		}
		return nil, schema.NewErrorf(schema.ErrCodeUnmet,
			"requirements unmet at completion and no question collects them").
			WithDetails(map[string]any{"refs": unmet.Sources(), "step_index": unmet.StepIndex})
	}

	return &Outcome{
		Phase:     PhaseCompleted,
		Context:   ctx,
		Effective: effective,
	}, nil
}

// validateAnswer normalizes every field of a question. All issues are
// collected so the caller can re-prompt once.
func (r *Resolver) validateAnswer(q *loader.Question, values map[string]any) (map[string]any, []schema.FieldIssue) {
	normalized := make(map[string]any, len(q.Fields))
	var issues []schema.FieldIssue

	for _, f := range q.Fields {
		raw, present := values[f.Path]
		if !present {
			raw = nil
		}
		v, err := r.types.Validate(raw, f)
		if err != nil {
			msg := err.Error()
			if ie, ok := err.(*schema.InterviewError); ok {
				msg = ie.Message
			}
			issues = append(issues, schema.FieldIssue{Path: f.Path, Message: msg})
			continue
		}
		if v != nil {
			normalized[f.Path] = v
		}
	}
	return normalized, issues
}

// awaiting builds the next-question outcome with the descriptor rendered
// against the current context.
func (r *Resolver) awaiting(q *loader.Question, ctx map[string]any, effective schema.AnswerHistory, unmet *Unmet, issues []schema.FieldIssue) (*Outcome, error) {
	desc, err := r.describe(q, ctx)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Phase:       PhaseAwaiting,
		QuestionID:  q.ID,
		Question:    desc,
		FieldErrors: issues,
		Effective:   effective,
	}
	if unmet != nil {
		out.Unmet = unmet.Sources()
	}
	return out, nil
}

// describe renders the question's templated text and assembles its object
// schema: one property per field path, non-optional fields required.
func (r *Resolver) describe(q *loader.Question, ctx map[string]any) (*schema.QuestionDescriptor, error) {
	desc := &schema.QuestionDescriptor{ID: q.ID}

	var err error
	if q.Title != nil {
		if desc.Title, err = q.Title.Render(ctx); err != nil {
			return nil, questionErr(err, q.ID)
		}
	}
	if q.Description != nil {
		if desc.Description, err = q.Description.Render(ctx); err != nil {
			return nil, questionErr(err, q.ID)
		}
	}

	properties := make(map[string]any, len(q.Fields))
	var required []string
	for _, f := range q.Fields {
		fieldSchema, err := r.types.Describe(f)
		if err != nil {
			return nil, questionErr(err, q.ID)
		}
		properties[f.Path] = fieldSchema
		if !f.Optional {
			required = append(required, f.Path)
		}
	}

	desc.Schema = map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		desc.Schema["required"] = required
	}
	return desc, nil
}

// questionForRefs finds the first applicable question collecting any of
// the unmet reference paths, so a trailing checkpoint can point back at
// the question that should satisfy it.
func (r *Resolver) questionForRefs(def *loader.Definition, unmet *Unmet, ctx map[string]any) *loader.Question {
	for _, q := range def.Questions {
		applicable, err := expressions.EvaluateAll(q.Guards, ctx)
		if err != nil || !applicable {
			continue
		}
		if unmet.Touches(fieldPaths(q)) {
			return q
		}
	}
	return nil
}

func fieldPaths(q *loader.Question) map[string]bool {
	paths := make(map[string]bool, len(q.Fields))
	for _, f := range q.Fields {
		paths[f.Path] = true
	}
	return paths
}

func questionErr(err error, questionID string) error {
	if ie, ok := err.(*schema.InterviewError); ok && ie.QuestionID == "" {
		return ie.WithQuestion(questionID)
	}
	return err
}
