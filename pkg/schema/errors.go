package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeDefinition = "DEFINITION_ERROR"
	ErrCodeSyntax     = "SYNTAX_ERROR"
	ErrCodeEval       = "EVAL_ERROR"
	ErrCodeField      = "FIELD_ERROR"
	ErrCodeUnmet      = "UNMET_REQUIREMENT"
	ErrCodeIntegrity  = "INTEGRITY_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeConflict   = "CONFLICT"
)

// InterviewError is the structured error type for all engine operations.
type InterviewError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	QuestionID string         `json:"question_id,omitempty"`
	FieldPath  string         `json:"field_path,omitempty"`
	Cause      error          `json:"-"`
}

func (e *InterviewError) Error() string {
	switch {
	case e.FieldPath != "":
		return fmt.Sprintf("[%s] field %s: %s", e.Code, e.FieldPath, e.Message)
	case e.QuestionID != "":
		return fmt.Sprintf("[%s] question %s: %s", e.Code, e.QuestionID, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

func (e *InterviewError) Unwrap() error {
	return e.Cause
}

// NewError creates a new InterviewError.
func NewError(code, message string) *InterviewError {
	return &InterviewError{Code: code, Message: message}
}

// NewErrorf creates a new InterviewError with a formatted message.
func NewErrorf(code, format string, args ...any) *InterviewError {
	return &InterviewError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithQuestion attaches a question ID to the error.
func (e *InterviewError) WithQuestion(id string) *InterviewError {
	e.QuestionID = id
	return e
}

// WithField attaches the offending field path.
func (e *InterviewError) WithField(path string) *InterviewError {
	e.FieldPath = path
	return e
}

// WithCause attaches an underlying cause.
func (e *InterviewError) WithCause(err error) *InterviewError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *InterviewError) WithDetails(details map[string]any) *InterviewError {
	e.Details = details
	return e
}

// CodeOf returns the error code if err is an *InterviewError, "" otherwise.
func CodeOf(err error) string {
	if ie, ok := err.(*InterviewError); ok {
		return ie.Code
	}
	return ""
}
