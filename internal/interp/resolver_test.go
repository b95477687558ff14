package interp

import (
	"testing"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/internal/loader"
	"github.com/rendis/intake/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registrationDoc is the reference definition used across resolver tests:
// name -> email -> registration level -> code of conduct, with a derived
// display name and an accumulate-only options list.
const registrationDoc = `
id: registration
seeds: [registration]
questions:
  - id: name
    title: Your name
    fields:
      - path: first_name
        type: text
        label: First name
      - path: last_name
        type: text
        label: Last name
  - id: email
    title: "Hi {{ first_name }}, how can we reach you?"
    fields:
      - path: email
        type: text
        format: email
  - id: level
    title: Registration level
    fields:
      - path: level
        type: select
        min: 1
        max: 1
        options:
          - id: basic
            label: Basic
          - id: sponsor
            label: Sponsor
  - id: vip_perks
    title: VIP perks
    when: '"vip" in (registration.options | default([]))'
    fields:
      - path: vip_meal
        type: text
  - id: code_of_conduct
    title: Code of conduct
    when: level is defined
    fields:
      - path: code_of_conduct
        type: select
        min: 1
        max: 1
        options:
          - id: accept
            label: I accept
steps:
  - set: display_name
    value: first_name
    when: first_name is defined
  - set: registration.options
    value: (registration.options | default([])) + [level] if level not in (registration.options | default([])) else registration.options
    when: level is defined
  - ensure: [code_of_conduct]
    when: level is defined
`

func compileDef(t *testing.T, doc string) *loader.Definition {
	t.Helper()
	l, err := loader.New(expressions.New(), fields.Builtin())
	require.NoError(t, err)
	def, err := l.Parse([]byte(doc))
	require.NoError(t, err)
	return def
}

func newResolver() *Resolver {
	return NewResolver(fields.Builtin())
}

func answers(pairs ...schema.AnswerRecord) schema.AnswerHistory {
	return schema.AnswerHistory(pairs)
}

var fullHistory = answers(
	schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
	schema.AnswerRecord{Question: "email", Values: map[string]any{"email": "ada@example.com"}},
	schema.AnswerRecord{Question: "level", Values: map[string]any{"level": "basic"}},
	schema.AnswerRecord{Question: "code_of_conduct", Values: map[string]any{"code_of_conduct": "accept"}},
)

// --- Walkthrough ---

func TestResolve_FirstQuestion(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	out, err := r.Resolve(def, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "name", out.QuestionID)
	require.NotNil(t, out.Question)
	assert.Equal(t, "Your name", out.Question.Title)

	props := out.Question.Schema["properties"].(map[string]any)
	assert.Contains(t, props, "first_name")
	assert.Contains(t, props, "last_name")
	assert.Equal(t, []string{"first_name", "last_name"}, out.Question.Schema["required"])
}

func TestResolve_TemplatedTitle(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	out, err := r.Resolve(def, fullHistory[:1], nil)
	require.NoError(t, err)
	assert.Equal(t, "email", out.QuestionID)
	assert.Equal(t, "Hi Ada, how can we reach you?", out.Question.Title)
}

// Scenario: completing name -> email -> level -> code of conduct yields
// the final registration context.
func TestResolve_Completion(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	out, err := r.Resolve(def, fullHistory, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, out.Phase)
	require.NotNil(t, out.Context)

	reg := out.Context["registration"].(map[string]any)
	assert.Equal(t, []any{"basic"}, reg["options"])
	assert.Equal(t, "Ada", out.Context["display_name"])
	assert.Equal(t, "Ada", out.Context["first_name"])
	assert.Equal(t, "ada@example.com", out.Context["email"])
	assert.Len(t, out.Effective, 4)
}

// Scenario: an upgrade run with pre-existing options accumulates without
// duplicating, and resubmission is a no-op.
func TestResolve_UpgradeAccumulates(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()
	seed := map[string]any{
		"registration": map[string]any{"options": []any{"basic"}},
	}

	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
		schema.AnswerRecord{Question: "email", Values: map[string]any{"email": "ada@example.com"}},
		schema.AnswerRecord{Question: "level", Values: map[string]any{"level": "sponsor"}},
		schema.AnswerRecord{Question: "code_of_conduct", Values: map[string]any{"code_of_conduct": "accept"}},
	)

	out, err := r.Resolve(def, history, seed)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, out.Phase)
	reg := out.Context["registration"].(map[string]any)
	assert.Equal(t, []any{"basic", "sponsor"}, reg["options"])

	// Resubmitting the same choice leaves the context unchanged.
	again, err := r.Resolve(def, history.Append(history[2]), seed)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, again.Phase)
	assert.Equal(t, []any{"basic", "sponsor"}, again.Context["registration"].(map[string]any)["options"])
}

// --- Determinism and purity ---

func TestResolve_Deterministic(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	first, err := r.Resolve(def, fullHistory, nil)
	require.NoError(t, err)
	second, err := r.Resolve(def, fullHistory, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_SeedNotMutated(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()
	seed := map[string]any{
		"registration": map[string]any{"options": []any{"basic"}},
	}

	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
		schema.AnswerRecord{Question: "email", Values: map[string]any{"email": "ada@example.com"}},
		schema.AnswerRecord{Question: "level", Values: map[string]any{"level": "sponsor"}},
	)

	_, err := r.Resolve(def, history, seed)
	require.NoError(t, err)
	assert.Equal(t, []any{"basic"}, seed["registration"].(map[string]any)["options"])
}

// --- Guard skipping ---

func TestResolve_GuardedQuestionSkipped(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	// vip_perks guards on "vip" membership; it is never presented and its
	// field is never required for completion.
	out, err := r.Resolve(def, fullHistory, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, out.Phase)
	_, ok := out.Context["vip_meal"]
	assert.False(t, ok)
}

func TestResolve_AnswerToSkippedQuestionDiscarded(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	history := fullHistory.Append(schema.AnswerRecord{
		Question: "vip_perks",
		Values:   map[string]any{"vip_meal": "vegan"},
	})

	out, err := r.Resolve(def, history, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, out.Phase)
	_, ok := out.Context["vip_meal"]
	assert.False(t, ok)
	assert.Len(t, out.Effective, 4)
}

// --- Field validation ---

func TestResolve_FieldErrorRepresentsQuestion(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
		schema.AnswerRecord{Question: "email", Values: map[string]any{"email": "not-an-email"}},
	)

	out, err := r.Resolve(def, history, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "email", out.QuestionID)
	require.Len(t, out.FieldErrors, 1)
	assert.Equal(t, "email", out.FieldErrors[0].Path)

	// The bad answer is not part of the effective history.
	assert.Len(t, out.Effective, 1)
	assert.Equal(t, "name", out.Effective[0].Question)
}

func TestResolve_CardinalityViolation(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
		schema.AnswerRecord{Question: "email", Values: map[string]any{"email": "ada@example.com"}},
		schema.AnswerRecord{Question: "level", Values: map[string]any{"level": []any{"basic", "sponsor"}}},
	)

	out, err := r.Resolve(def, history, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "level", out.QuestionID)
	require.NotEmpty(t, out.FieldErrors)
}

// --- Ensure checkpoints ---

func TestResolve_EnsureRepresentsOriginatingQuestion(t *testing.T) {
	doc := `
id: consent
questions:
  - id: name
    fields:
      - path: first_name
        type: text
  - id: consent
    fields:
      - path: agreed
        type: select
        min: 0
        max: 1
        options:
          - id: "yes"
steps:
  - ensure: [agreed]
`
	def := compileDef(t, doc)
	r := newResolver()

	// Submitting no selection passes validation (min 0) but fails the
	// checkpoint: the consent question is re-presented, never a later one.
	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada"}},
		schema.AnswerRecord{Question: "consent", Values: map[string]any{"agreed": []any{}}},
	)

	out, err := r.Resolve(def, history, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "consent", out.QuestionID)
	assert.Equal(t, []string{"agreed"}, out.Unmet)
	assert.Len(t, out.Effective, 1)
}

func TestResolve_EnsureParentPathRepresentsChildQuestion(t *testing.T) {
	doc := `
id: contact
questions:
  - id: name
    fields:
      - path: first_name
        type: text
  - id: contact
    fields:
      - path: contact.email
        type: text
        optional: true
steps:
  - ensure: [contact]
`
	def := compileDef(t, doc)
	r := newResolver()

	// The checkpoint watches the parent map while the question writes a
	// nested path under it. Skipping the optional field leaves the parent
	// undefined, and the question owning the nested path is re-presented.
	history := answers(
		schema.AnswerRecord{Question: "name", Values: map[string]any{"first_name": "Ada"}},
		schema.AnswerRecord{Question: "contact", Values: map[string]any{}},
	)

	out, err := r.Resolve(def, history, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "contact", out.QuestionID)
	assert.Equal(t, []string{"contact"}, out.Unmet)
}

func TestResolve_EnsureOverFutureQuestionDoesNotBounce(t *testing.T) {
	def := compileDef(t, registrationDoc)
	r := newResolver()

	// After answering level, the code_of_conduct checkpoint is unmet but
	// belongs to a question further down the walk.
	out, err := r.Resolve(def, fullHistory[:3], nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaiting, out.Phase)
	assert.Equal(t, "code_of_conduct", out.QuestionID)
	assert.Empty(t, out.Unmet)
}

// --- Errors ---

func TestResolve_EvalErrorSurfaces(t *testing.T) {
	doc := `
id: broken
questions:
  - id: q
    when: first_name + 1
    fields:
      - path: first_name
        type: text
`
	def := compileDef(t, doc)
	r := newResolver()

	_, err := r.Resolve(def, nil, map[string]any{"first_name": "Ada"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeEval, schema.CodeOf(err))
	assert.Equal(t, "q", err.(*schema.InterviewError).QuestionID)
}
