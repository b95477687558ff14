package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- Errors ---

func TestInterviewError_Formatting(t *testing.T) {
	base := NewError(ErrCodeEval, "division by zero")
	assert.Equal(t, "[EVAL_ERROR] division by zero", base.Error())

	withQ := NewError(ErrCodeEval, "division by zero").WithQuestion("level")
	assert.Equal(t, "[EVAL_ERROR] question level: division by zero", withQ.Error())

	withF := NewError(ErrCodeField, "choose at most 1").
		WithQuestion("level").
		WithField("level")
	assert.Equal(t, "[FIELD_ERROR] field level: choose at most 1", withF.Error())
}

func TestInterviewError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrCodeDefinition, "load failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(NewError(ErrCodeNotFound, "x")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

// --- History ---

func TestAnswerHistory_LookupLastWins(t *testing.T) {
	h := AnswerHistory{
		{Question: "level", Values: map[string]any{"level": "basic"}},
		{Question: "name", Values: map[string]any{"first_name": "Ada"}},
		{Question: "level", Values: map[string]any{"level": "sponsor"}},
	}

	rec := h.Lookup("level")
	require.NotNil(t, rec)
	assert.Equal(t, "sponsor", rec.Values["level"])
	assert.Nil(t, h.Lookup("absent"))
}

func TestAnswerHistory_AppendDoesNotMutate(t *testing.T) {
	h := AnswerHistory{{Question: "a"}}
	h2 := h.Append(AnswerRecord{Question: "b"})

	assert.Len(t, h, 1)
	require.Len(t, h2, 2)
	assert.Equal(t, "b", h2[1].Question)
}

// --- WhenClause ---

func TestWhenClause_YAML(t *testing.T) {
	var single struct {
		When WhenClause `yaml:"when"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`when: x > 1`), &single))
	assert.Equal(t, WhenClause{"x > 1"}, single.When)

	var many struct {
		When WhenClause `yaml:"when"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("when:\n  - x > 1\n  - y"), &many))
	assert.Equal(t, WhenClause{"x > 1", "y"}, many.When)

	var bad struct {
		When WhenClause `yaml:"when"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("when:\n  k: v"), &bad))
}

func TestWhenClause_JSON(t *testing.T) {
	var w WhenClause
	require.NoError(t, json.Unmarshal([]byte(`"x"`), &w))
	assert.Equal(t, WhenClause{"x"}, w)

	require.NoError(t, json.Unmarshal([]byte(`["x","y"]`), &w))
	assert.Equal(t, WhenClause{"x", "y"}, w)

	out, err := json.Marshal(WhenClause{"x"})
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(out))
}

// --- ValidationResult ---

func TestValidationResult(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
	assert.NoError(t, r.ToError())

	r.AddWarning("questions[0].when", "UNDECLARED_PATH", "path never assigned")
	assert.True(t, r.Valid())

	r.AddError("questions[1].id", ErrCodeDefinition, "duplicate question id")
	assert.False(t, r.Valid())

	err := r.ToError()
	require.Error(t, err)
	ie := err.(*InterviewError)
	assert.Equal(t, ErrCodeDefinition, ie.Code)
	assert.Equal(t, 1, ie.Details["error_count"])
	assert.Equal(t, 1, ie.Details["warning_count"])

	other := &ValidationResult{}
	other.AddError("steps[0]", ErrCodeDefinition, "neither set nor ensure")
	r.Merge(other)
	assert.Len(t, r.Errors, 2)
}
