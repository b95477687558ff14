package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := New(expressions.New(), fields.Builtin())
	require.NoError(t, err)
	return l
}

func issuesOf(t *testing.T, err error) []schema.ValidationIssue {
	t.Helper()
	require.Error(t, err)
	ie, ok := err.(*schema.InterviewError)
	require.True(t, ok, "expected *schema.InterviewError, got %T", err)
	require.Equal(t, schema.ErrCodeDefinition, ie.Code)
	issues, ok := ie.Details["errors"].([]schema.ValidationIssue)
	require.True(t, ok, "error carries no issue list: %v", ie.Details)
	return issues
}

func hasIssue(issues []schema.ValidationIssue, path string) bool {
	for _, issue := range issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}

const validDoc = `
id: survey
seeds: [event]
questions:
  - id: name
    title: "Welcome to {{ event.title }}"
    fields:
      - path: attendee.name
        type: text
        min: 1
  - id: diet
    when: attendee.name is defined
    fields:
      - path: diet
        type: select
        options:
          - id: omnivore
          - id: vegetarian
steps:
  - set: greeting
    value: '"Hello " + attendee.name'
    when: attendee.name is defined
`

// --- Parse pipeline ---

func TestParse_Valid(t *testing.T) {
	l := newLoader(t)

	def, err := l.Parse([]byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "survey", def.ID)
	require.Len(t, def.Questions, 2)
	assert.NotNil(t, def.Questions[0].Title)
	assert.Len(t, def.Questions[1].Guards, 1)
	require.Len(t, def.Steps, 1)
	assert.True(t, def.Steps[0].IsSet())
	assert.Equal(t, "greeting", def.Steps[0].Target)
	assert.Empty(t, def.Warnings)
}

func TestParse_NotYAML(t *testing.T) {
	l := newLoader(t)

	_, err := l.Parse([]byte("{{{"))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeDefinition, schema.CodeOf(err))
}

func TestParse_StructuralRejections(t *testing.T) {
	cases := map[string]string{
		"missing id": `
questions:
  - id: q
    fields: [{path: x, type: text}]
`,
		"no questions": `
id: empty
questions: []
`,
		"field without type": `
id: bad
questions:
  - id: q
    fields: [{path: x}]
`,
		"path with spaces": `
id: bad
questions:
  - id: q
    fields: [{path: "not a path", type: text}]
`,
		"unknown top-level key": `
id: bad
surprise: true
questions:
  - id: q
    fields: [{path: x, type: text}]
`,
	}

	l := newLoader(t)
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.Parse([]byte(doc))
			require.Error(t, err)
			assert.Equal(t, schema.ErrCodeDefinition, schema.CodeOf(err))
		})
	}
}

func TestParse_SemanticErrors(t *testing.T) {
	doc := `
id: bad
questions:
  - id: q
    fields:
      - path: x
        type: text
        min: 5
        max: 2
  - id: q
    fields:
      - path: x
        type: mystery
      - path: s
        type: select
        options: [{id: a}, {id: a}]
steps:
  - set: y
    value: "1"
    ensure: [x]
  - when: x
`
	l := newLoader(t)
	_, err := l.Parse([]byte(doc))
	issues := issuesOf(t, err)

	assert.True(t, hasIssue(issues, "questions[0].fields[0].min"), "min>max")
	assert.True(t, hasIssue(issues, "questions[1].id"), "duplicate question id")
	assert.True(t, hasIssue(issues, "questions[1].fields[0].path"), "duplicate field path")
	assert.True(t, hasIssue(issues, "questions[1].fields[0].type"), "unknown type")
	assert.True(t, hasIssue(issues, "questions[1].fields[1].options[1].id"), "duplicate option id")
	assert.True(t, hasIssue(issues, "steps[0]"), "set and ensure together")
	assert.True(t, hasIssue(issues, "steps[1]"), "neither set nor ensure")
}

func TestParse_SelectMinWithoutMaxRejected(t *testing.T) {
	// An unset max means a single choice; min 2 would reject every
	// possible submission, so loading must refuse the definition.
	doc := `
id: bad
questions:
  - id: q
    fields:
      - path: choice
        type: select
        min: 2
        options: [{id: a}, {id: b}, {id: c}]
`
	l := newLoader(t)
	_, err := l.Parse([]byte(doc))
	issues := issuesOf(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "questions[0].fields[0].min", issues[0].Path)
}

func TestParse_SyntaxErrorsLocated(t *testing.T) {
	doc := `
id: bad
questions:
  - id: q
    when: "x =="
    fields:
      - path: x
        type: text
steps:
  - set: y
    value: "x |"
`
	l := newLoader(t)
	_, err := l.Parse([]byte(doc))
	issues := issuesOf(t, err)

	require.Len(t, issues, 2)
	assert.Equal(t, "questions[0].when", issues[0].Path)
	assert.Equal(t, schema.ErrCodeSyntax, issues[0].Code)
	assert.Equal(t, "steps[0].value", issues[1].Path)
}

// --- Undeclared path lint ---

func TestParse_UndeclaredPathWarning(t *testing.T) {
	doc := `
id: survey
questions:
  - id: q
    when: missing_flag
    fields:
      - path: x
        type: text
`
	l := newLoader(t)
	def, err := l.Parse([]byte(doc))
	require.NoError(t, err)

	require.Len(t, def.Warnings, 1)
	assert.Equal(t, "UNDECLARED_PATH", def.Warnings[0].Code)
	assert.Equal(t, "questions[0].when", def.Warnings[0].Path)
	assert.Contains(t, def.Warnings[0].Message, "missing_flag")
}

func TestParse_SeedPrefixSuppressesWarning(t *testing.T) {
	doc := `
id: survey
seeds: [event]
questions:
  - id: q
    when: event.kind == "conference"
    fields:
      - path: x
        type: text
`
	l := newLoader(t)
	def, err := l.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, def.Warnings)
}

func TestParse_ParentOfDeclaredLeafAllowed(t *testing.T) {
	doc := `
id: survey
questions:
  - id: q
    fields:
      - path: contact.email
        type: text
steps:
  - set: has_contact
    value: contact is defined
`
	l := newLoader(t)
	def, err := l.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, def.Warnings)
}

// --- Files and directories ---

func TestLoadFile_MissingFile(t *testing.T) {
	l := newLoader(t)
	_, err := l.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeDefinition, schema.CodeOf(err))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	}
	write("a.yaml", validDoc)
	write("b.yaml", `
id: other
questions:
  - id: q
    fields: [{path: x, type: text}]
`)
	write("notes.txt", "ignored")

	l := newLoader(t)
	defs, err := l.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "other", defs[0].ID)
	assert.Equal(t, "survey", defs[1].ID)
}

func TestLoadDir_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(validDoc), 0o644))

	l := newLoader(t)
	_, err := l.LoadDir(dir)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeConflict, schema.CodeOf(err))
}

func TestLoadDir_FailsOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("id: 7"), 0o644))

	l := newLoader(t)
	_, err := l.LoadDir(dir)
	require.Error(t, err)
	ie := err.(*schema.InterviewError)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), ie.Details["file"])
}

// --- Registry ---

func TestRegistry(t *testing.T) {
	l := newLoader(t)
	def, err := l.Parse([]byte(validDoc))
	require.NoError(t, err)

	reg := NewRegistry([]*Definition{def})
	got, ok := reg.Get("survey")
	require.True(t, ok)
	assert.Same(t, def, got)

	_, ok = reg.Get("absent")
	assert.False(t, ok)
	assert.Equal(t, []string{"survey"}, reg.IDs())

	other, err := l.Parse([]byte(`
id: other
questions:
  - id: q
    fields: [{path: x, type: text}]
`))
	require.NoError(t, err)

	reg.Replace([]*Definition{def, other})
	assert.Equal(t, []string{"other", "survey"}, reg.IDs())
}
