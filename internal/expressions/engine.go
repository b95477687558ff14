package expressions

import (
	"sync"

	"github.com/rendis/intake/pkg/schema"
)

// Engine compiles and evaluates interview expressions.
// Thread-safe: compiled ASTs are cached by source text and shared across
// goroutines (ASTs are immutable after parse).
type Engine struct {
	mu    sync.RWMutex
	cache map[string]Node
}

// New creates an Engine with an empty compile cache.
func New() *Engine {
	return &Engine{cache: make(map[string]Node)}
}

// Compile parses an expression, reusing a cached AST when available.
func (e *Engine) Compile(src string) (Node, error) {
	if src == "" {
		return nil, schema.NewError(schema.ErrCodeSyntax, "empty expression")
	}

	e.mu.RLock()
	if node, ok := e.cache[src]; ok {
		e.mu.RUnlock()
		return node, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if node, ok := e.cache[src]; ok {
		return node, nil
	}

	node, err := Parse(src)
	if err != nil {
		return nil, err
	}

	e.cache[src] = node
	return node, nil
}

// Evaluate compiles (or retrieves from cache) an expression and evaluates
// it against the given context. Evaluation errors carry the source
// expression in their details.
func (e *Engine) Evaluate(src string, env map[string]any) (any, error) {
	node, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	out, err := node.Eval(env)
	if err != nil {
		if ie, ok := err.(*schema.InterviewError); ok && ie.Details == nil {
			return nil, ie.WithDetails(map[string]any{"expression": src})
		}
		return nil, err
	}
	return out, nil
}

// EvaluateAll evaluates a conjunction of compiled guard expressions.
// An empty slice is vacuously true; evaluation stops at the first falsy
// result.
func EvaluateAll(guards []Node, env map[string]any) (bool, error) {
	for _, g := range guards {
		v, err := g.Eval(env)
		if err != nil {
			return false, err
		}
		if !Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}
