package loader

import (
	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/pkg/schema"
)

// Definition is a compiled interview: the source document plus every
// expression and template parsed into immutable ASTs. Built once at load
// time and shared read-only across requests.
type Definition struct {
	ID        string
	Source    *schema.InterviewDefinition
	Questions []*Question
	Steps     []*Step

	// Warnings from the load pipeline (e.g. the undeclared-path lint).
	Warnings []schema.ValidationIssue
}

// Question is a compiled question.
type Question struct {
	ID          string
	Title       *expressions.Template
	Description *expressions.Template
	Guards      []expressions.Node
	Fields      []*schema.FieldDefinition
}

// Step is a compiled set or ensure operation.
type Step struct {
	Index  int
	Target string           // set target path; "" for ensure steps
	Value  expressions.Node // set value expression
	Ensure []EnsureRef
	Guards []expressions.Node
}

// IsSet reports whether the step writes a value.
func (s *Step) IsSet() bool { return s.Target != "" }

// EnsureRef is one required reference of an ensure step: the source text
// (reported when unmet) and its compiled expression.
type EnsureRef struct {
	Source string
	Node   expressions.Node
}
