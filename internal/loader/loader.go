// Package loader parses interview definition documents, validates them,
// and compiles their expressions into immutable ASTs. Malformed documents
// are rejected before any traffic is served.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Loader runs the definition load pipeline: structural (JSON Schema),
// semantic, expression compilation, and the undeclared-path lint.
type Loader struct {
	engine    *expressions.Engine
	types     *fields.Registry
	validator *docValidator
}

// New creates a Loader sharing the given expression engine and field type
// registry.
func New(engine *expressions.Engine, types *fields.Registry) (*Loader, error) {
	validator, err := newDocValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{engine: engine, types: types, validator: validator}, nil
}

// Parse loads one definition document (YAML or JSON; YAML is a superset).
// On any error-severity issue it returns a DEFINITION_ERROR carrying every
// issue; warnings are attached to the returned Definition.
func (l *Loader) Parse(data []byte) (*Definition, error) {
	// Decode twice: once untyped for the structural pass, once typed.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "document is not valid YAML/JSON: %s", err.Error()).
			WithCause(err)
	}

	result := l.validator.validate(raw)
	if !result.Valid() {
		return nil, result.ToError()
	}

	var def schema.InterviewDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "document does not decode: %s", err.Error()).
			WithCause(err)
	}

	result.Merge(validateSemantic(&def, l.types))
	if !result.Valid() {
		return nil, result.ToError()
	}

	compiled, compileResult := l.compile(&def)
	result.Merge(compileResult)
	if !result.Valid() {
		return nil, result.ToError()
	}

	result.Merge(lintPaths(compiled, &def))
	compiled.Warnings = result.Warnings
	return compiled, nil
}

// LoadFile parses a single definition file.
func (l *Loader) LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "read %s: %s", path, err.Error()).WithCause(err)
	}
	def, perr := l.Parse(data)
	if perr != nil {
		if ie, ok := perr.(*schema.InterviewError); ok {
			if ie.Details == nil {
				ie.Details = map[string]any{}
			}
			ie.Details["file"] = path
		}
		return nil, perr
	}
	return def, nil
}

// LoadDir parses every *.yaml, *.yml and *.json file in dir. Duplicate
// interview ids across files are a conflict. Files are loaded in name
// order so failures are deterministic.
func (l *Loader) LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "read definitions dir %s: %s", dir, err.Error()).
			WithCause(err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]*Definition, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		def, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[def.ID]; dup {
			return nil, schema.NewErrorf(schema.ErrCodeConflict,
				"interview id %q defined in both %s and %s", def.ID, prev, name)
		}
		seen[def.ID] = name
		defs = append(defs, def)
	}
	return defs, nil
}

// compile parses every expression and template in the definition.
func (l *Loader) compile(def *schema.InterviewDefinition) (*Definition, *schema.ValidationResult) {
	result := &schema.ValidationResult{}
	out := &Definition{ID: def.ID, Source: def}

	for qi := range def.Questions {
		q := &def.Questions[qi]
		qPath := fmt.Sprintf("questions[%d]", qi)

		cq := &Question{ID: q.ID}
		cq.Title = l.compileTemplate(q.Title, qPath+".title", result)
		cq.Description = l.compileTemplate(q.Description, qPath+".description", result)
		cq.Guards = l.compileGuards(q.When, qPath+".when", result)
		for fi := range q.Fields {
			cq.Fields = append(cq.Fields, &q.Fields[fi])
		}
		out.Questions = append(out.Questions, cq)
	}

	for si := range def.Steps {
		s := &def.Steps[si]
		sPath := fmt.Sprintf("steps[%d]", si)

		cs := &Step{Index: si, Target: s.Set}
		cs.Guards = l.compileGuards(s.When, sPath+".when", result)
		if s.IsSet() {
			cs.Value = l.compileExpr(s.Value, sPath+".value", result)
		}
		for ri, ref := range s.Ensure {
			node := l.compileExpr(ref, fmt.Sprintf("%s.ensure[%d]", sPath, ri), result)
			cs.Ensure = append(cs.Ensure, EnsureRef{Source: ref, Node: node})
		}
		out.Steps = append(out.Steps, cs)
	}

	return out, result
}

func (l *Loader) compileExpr(src, docPath string, result *schema.ValidationResult) expressions.Node {
	node, err := l.engine.Compile(src)
	if err != nil {
		result.AddError(docPath, schema.ErrCodeSyntax, err.Error())
		return nil
	}
	return node
}

func (l *Loader) compileGuards(when schema.WhenClause, docPath string, result *schema.ValidationResult) []expressions.Node {
	var guards []expressions.Node
	for i, src := range when {
		path := docPath
		if len(when) > 1 {
			path = fmt.Sprintf("%s[%d]", docPath, i)
		}
		if node := l.compileExpr(src, path, result); node != nil {
			guards = append(guards, node)
		}
	}
	return guards
}

func (l *Loader) compileTemplate(src, docPath string, result *schema.ValidationResult) *expressions.Template {
	if src == "" {
		return nil
	}
	tpl, err := expressions.ParseTemplate(src, l.engine)
	if err != nil {
		result.AddError(docPath, schema.ErrCodeSyntax, err.Error())
		return nil
	}
	return tpl
}
