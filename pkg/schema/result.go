package schema

// QuestionDescriptor is the presentation form of a question: templated text
// rendered against the current context plus a JSON-Schema-shaped object
// schema describing the expected field values.
type QuestionDescriptor struct {
	ID          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
}

// FieldIssue is a field-scoped validation failure, detailed enough for the
// caller to re-prompt.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// StepResult is the engine response for one round trip: either the next
// question to present or the completed final context, always paired with a
// refreshed state token.
type StepResult struct {
	State       string              `json:"state"`
	Completed   bool                `json:"completed"`
	Question    *QuestionDescriptor `json:"question,omitempty"`
	Unmet       []string            `json:"unmet,omitempty"`
	FieldErrors []FieldIssue        `json:"field_errors,omitempty"`
	Result      map[string]any      `json:"result,omitempty"`
}
