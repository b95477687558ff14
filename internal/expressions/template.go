package expressions

import (
	"strings"

	"github.com/rendis/intake/pkg/schema"
)

// Template is a compiled text template with {{ expr }} placeholders, used
// for question titles and descriptions. Rendering is display-only; it can
// never affect control flow.
type Template struct {
	src      string
	segments []segment
}

type segment struct {
	literal string
	expr    Node // nil for literal segments
}

// ParseTemplate scans for {{ ... }} placeholders and compiles each inner
// expression through the engine. Unclosed or nested placeholders are
// syntax errors.
func ParseTemplate(src string, e *Engine) (*Template, error) {
	t := &Template{src: src}
	i := 0
	for i < len(src) {
		idx := strings.Index(src[i:], "{{")
		if idx == -1 {
			t.segments = append(t.segments, segment{literal: src[i:]})
			break
		}
		if idx > 0 {
			t.segments = append(t.segments, segment{literal: src[i : i+idx]})
		}
		start := i + idx + 2
		end := strings.Index(src[start:], "}}")
		if end == -1 {
			return nil, schema.NewError(schema.ErrCodeSyntax, "unclosed {{ placeholder").
				WithDetails(map[string]any{"template": src})
		}
		end += start

		inner := strings.TrimSpace(src[start:end])
		if inner == "" {
			return nil, schema.NewError(schema.ErrCodeSyntax, "empty {{ }} placeholder").
				WithDetails(map[string]any{"template": src})
		}
		if strings.Contains(inner, "{{") {
			return nil, schema.NewError(schema.ErrCodeSyntax, "nested {{ }} placeholder").
				WithDetails(map[string]any{"template": src})
		}

		node, err := e.Compile(inner)
		if err != nil {
			return nil, err
		}
		t.segments = append(t.segments, segment{expr: node})
		i = end + 2
	}
	return t, nil
}

// Render evaluates every placeholder against the context and joins the
// result. Evaluation errors surface; they are authoring bugs, not blanks.
func (t *Template) Render(env map[string]any) (string, error) {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.expr == nil {
			sb.WriteString(seg.literal)
			continue
		}
		v, err := seg.expr.Eval(env)
		if err != nil {
			if ie, ok := err.(*schema.InterviewError); ok && ie.Details == nil {
				return "", ie.WithDetails(map[string]any{"template": t.src})
			}
			return "", err
		}
		sb.WriteString(Stringify(v))
	}
	return sb.String(), nil
}

// Variables returns the distinct variable paths referenced by the
// template's placeholders.
func (t *Template) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range t.segments {
		if seg.expr == nil {
			continue
		}
		for _, p := range Variables(seg.expr) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
