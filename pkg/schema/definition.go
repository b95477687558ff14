package schema

import (
	"encoding/json"
	"fmt"
)

// InterviewDefinition is the authored interview document. Documents are
// written in YAML (or JSON) and loaded once at startup; after compilation
// the definition is shared read-only across all requests.
type InterviewDefinition struct {
	ID        string               `json:"id" yaml:"id"`
	Questions []QuestionDefinition `json:"questions" yaml:"questions"`
	Steps     []StepDefinition     `json:"steps,omitempty" yaml:"steps,omitempty"`

	// Seeds lists context path prefixes the caller is expected to provide
	// when starting the interview (e.g. "registration"). Used only by the
	// load-time lint; evaluation treats unknown paths as undefined either way.
	Seeds []string `json:"seeds,omitempty" yaml:"seeds,omitempty"`
}

// QuestionDefinition is one presentable unit of the interview.
// Title and Description may contain {{ expr }} placeholders rendered
// against the context at presentation time.
type QuestionDefinition struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
	When        WhenClause        `json:"when,omitempty" yaml:"when,omitempty"`
}

// FieldDefinition is a single typed datum collected by a question.
// Path is the dotted context path the normalized value is stored under;
// paths are globally unique across the definition.
type FieldDefinition struct {
	Path     string             `json:"path" yaml:"path"`
	Type     string             `json:"type" yaml:"type"`
	Label    string             `json:"label,omitempty" yaml:"label,omitempty"`
	Min      int                `json:"min,omitempty" yaml:"min,omitempty"`
	Max      int                `json:"max,omitempty" yaml:"max,omitempty"`
	Format   string             `json:"format,omitempty" yaml:"format,omitempty"`
	Options  []OptionDefinition `json:"options,omitempty" yaml:"options,omitempty"`
	Default  any                `json:"default,omitempty" yaml:"default,omitempty"`
	Optional bool               `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// OptionDefinition is one selectable choice of a select field.
type OptionDefinition struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// StepDefinition is a non-interactive context transformation. Exactly one
// of Set or Ensure must be present; the operation is discriminated by
// which key appears in the document.
type StepDefinition struct {
	Set    string     `json:"set,omitempty" yaml:"set,omitempty"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
	Ensure []string   `json:"ensure,omitempty" yaml:"ensure,omitempty"`
	When   WhenClause `json:"when,omitempty" yaml:"when,omitempty"`
}

// IsSet reports whether the step is a set operation.
func (s *StepDefinition) IsSet() bool { return s.Set != "" }

// IsEnsure reports whether the step is an ensure checkpoint.
func (s *StepDefinition) IsEnsure() bool { return len(s.Ensure) > 0 }

// WhenClause is an optional guard: a single expression string or a list of
// expression strings combined with an implicit AND. An empty clause always
// applies.
type WhenClause []string

// UnmarshalYAML accepts either a scalar string or a sequence of strings.
func (w *WhenClause) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*w = WhenClause{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err == nil {
		*w = WhenClause(many)
		return nil
	}
	return fmt.Errorf("when: expected string or list of strings")
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (w *WhenClause) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*w = WhenClause{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*w = WhenClause(many)
		return nil
	}
	return fmt.Errorf("when: expected string or list of strings")
}

// MarshalJSON emits a single string when the clause has one expression.
func (w WhenClause) MarshalJSON() ([]byte, error) {
	if len(w) == 1 {
		return json.Marshal(w[0])
	}
	return json.Marshal([]string(w))
}
