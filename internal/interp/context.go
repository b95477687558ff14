// Package interp executes interview steps and resolves the next question
// by replaying the answer history from scratch on every request. The engine
// is a pure function of (definition, history, seed); it holds no state
// between invocations.
package interp

import (
	"strings"

	"github.com/rendis/intake/pkg/schema"
)

// GetPath reads a dotted path from a context. The second return is false
// when any segment is missing or a non-map intermediate is hit.
func GetPath(ctx map[string]any, path string) (any, bool) {
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath writes a value at a dotted path, creating intermediate maps as
// needed. Writing through an existing non-map value is an evaluation error.
func SetPath(ctx map[string]any, path string, value any) error {
	segs := strings.Split(path, ".")
	cur := ctx
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			created := make(map[string]any)
			cur[seg] = created
			cur = created
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return schema.NewErrorf(schema.ErrCodeEval,
				"cannot set %q: %q holds a non-map value", path, seg)
		}
		cur = m
	}
	cur[segs[len(segs)-1]] = value
	return nil
}

// DeepCopy clones a context so replay never aliases caller-held data.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return deepCopyMap(m)
}

func deepCopyMap(m map[string]any) map[string]any {
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		// Primitives are value types.
		return v
	}
}
