package loader

import (
	"fmt"
	"strings"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/pkg/schema"
)

// lintPaths is the load-time strict check behind the undefined-is-falsy
// evaluation policy: every variable path referenced by a guard, value,
// ensure reference, or template must trace to a declared field path, a set
// target, or a documented seed prefix. Violations are warnings — silently
// falsy typos are an authoring hazard, not a serving failure.
func lintPaths(def *Definition, src *schema.InterviewDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	var declared []string
	for _, q := range def.Questions {
		for _, f := range q.Fields {
			declared = append(declared, f.Path)
		}
	}
	for _, s := range def.Steps {
		if s.IsSet() {
			declared = append(declared, s.Target)
		}
	}
	seeds := src.Seeds

	check := func(docPath string, node expressions.Node) {
		for _, v := range expressions.Variables(node) {
			if !pathDeclared(v, declared, seeds) {
				result.AddWarning(docPath, "UNDECLARED_PATH",
					fmt.Sprintf("path %q is never assigned by a field, step, or seed; it will always evaluate as undefined", v))
			}
		}
	}
	checkTemplate := func(docPath string, tpl *expressions.Template) {
		if tpl == nil {
			return
		}
		for _, v := range tpl.Variables() {
			if !pathDeclared(v, declared, seeds) {
				result.AddWarning(docPath, "UNDECLARED_PATH",
					fmt.Sprintf("path %q is never assigned by a field, step, or seed; it will always render empty", v))
			}
		}
	}

	for qi, q := range def.Questions {
		qPath := fmt.Sprintf("questions[%d]", qi)
		checkTemplate(qPath+".title", q.Title)
		checkTemplate(qPath+".description", q.Description)
		for _, g := range q.Guards {
			check(qPath+".when", g)
		}
	}
	for si, s := range def.Steps {
		sPath := fmt.Sprintf("steps[%d]", si)
		for _, g := range s.Guards {
			check(sPath+".when", g)
		}
		if s.Value != nil {
			check(sPath+".value", s.Value)
		}
		for ri, ref := range s.Ensure {
			check(fmt.Sprintf("%s.ensure[%d]", sPath, ri), ref.Node)
		}
	}

	return result
}

// pathDeclared reports whether a referenced path overlaps a declared path
// in either direction (reading a parent map of a declared leaf, or a child
// of a declared subtree), or falls under a seed prefix.
func pathDeclared(ref string, declared, seeds []string) bool {
	for _, d := range declared {
		if ref == d || strings.HasPrefix(ref, d+".") || strings.HasPrefix(d, ref+".") {
			return true
		}
	}
	for _, s := range seeds {
		if ref == s || strings.HasPrefix(ref, s+".") {
			return true
		}
	}
	return false
}
