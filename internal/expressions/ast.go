package expressions

import (
	"strings"

	"github.com/rendis/intake/pkg/schema"
)

// Node is a compiled expression. Nodes are built once per definition and
// never mutated; evaluation is structural recursion bounded by parse depth.
type Node interface {
	// Eval evaluates the node against a context. The context is never
	// modified.
	Eval(env map[string]any) (any, error)
}

// --- literals ---

type literalNode struct {
	value any
}

func (n *literalNode) Eval(map[string]any) (any, error) {
	return n.value, nil
}

type listNode struct {
	elems []Node
}

func (n *listNode) Eval(env map[string]any) (any, error) {
	out := make([]any, len(n.elems))
	for i, el := range n.elems {
		v, err := el.Eval(env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// --- variable path access ---

type pathNode struct {
	segments []string
}

func (n *pathNode) Eval(env map[string]any) (any, error) {
	var cur any = env
	for _, seg := range n.segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return Undefined, nil
		}
		cur, ok = m[seg]
		if !ok {
			return Undefined, nil
		}
	}
	return normalizeValue(cur), nil
}

func (n *pathNode) String() string {
	return strings.Join(n.segments, ".")
}

// --- unary operators ---

type notNode struct {
	operand Node
}

func (n *notNode) Eval(env map[string]any) (any, error) {
	v, err := n.operand.Eval(env)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

type negNode struct {
	operand Node
}

func (n *negNode) Eval(env map[string]any) (any, error) {
	v, err := n.operand.Eval(env)
	if err != nil {
		return nil, err
	}
	num, ok := numeric(v)
	if !ok {
		return nil, evalErrorf("cannot negate %s", typeName(v))
	}
	return -num, nil
}

// --- binary operators ---

type binaryNode struct {
	op    string
	left  Node
	right Node
}

func (n *binaryNode) Eval(env map[string]any) (any, error) {
	// Boolean operators short-circuit and return the deciding operand.
	if n.op == "and" || n.op == "or" {
		left, err := n.left.Eval(env)
		if err != nil {
			return nil, err
		}
		if n.op == "and" && !Truthy(left) {
			return left, nil
		}
		if n.op == "or" && Truthy(left) {
			return left, nil
		}
		return n.right.Eval(env)
	}

	left, err := n.left.Eval(env)
	if err != nil {
		return nil, err
	}
	right, err := n.right.Eval(env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(left, right), nil
	case "!=":
		return !equal(left, right), nil
	case "+":
		return evalAdd(left, right)
	case "-", "*", "/":
		return evalArithmetic(n.op, left, right)
	case "<", "<=", ">", ">=":
		return evalCompare(n.op, left, right)
	case "in", "not in":
		ok, err := evalMembership(left, right)
		if err != nil {
			return nil, err
		}
		if n.op == "not in" {
			ok = !ok
		}
		return ok, nil
	}
	return nil, evalErrorf("unknown operator %q", n.op)
}

func evalAdd(left, right any) (any, error) {
	if ln, ok := numeric(left); ok {
		if rn, ok := numeric(right); ok {
			return ln + rn, nil
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return ls + rs, nil
		}
	}
	if ll, ok := left.([]any); ok {
		if rl, ok := right.([]any); ok {
			out := make([]any, 0, len(ll)+len(rl))
			out = append(out, ll...)
			return append(out, rl...), nil
		}
	}
	return nil, evalErrorf("cannot add %s and %s", typeName(left), typeName(right))
}

func evalArithmetic(op string, left, right any) (any, error) {
	ln, lok := numeric(left)
	rn, rok := numeric(right)
	if !lok || !rok {
		return nil, evalErrorf("operator %q requires numbers, got %s and %s",
			op, typeName(left), typeName(right))
	}
	switch op {
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	default:
		if rn == 0 {
			return nil, evalErrorf("division by zero")
		}
		return ln / rn, nil
	}
}

func evalCompare(op string, left, right any) (any, error) {
	if ln, ok := numeric(left); ok {
		if rn, ok := numeric(right); ok {
			return compareOrdered(op, ln, rn), nil
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return compareOrdered(op, ls, rs), nil
		}
	}
	return nil, evalErrorf("cannot compare %s with %s", typeName(left), typeName(right))
}

func compareOrdered[T interface{ ~float64 | ~string }](op string, a, b T) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

// evalMembership implements "in". The right operand must be a list or a
// string (substring test); anything else is a malformed membership test.
func evalMembership(left, right any) (bool, error) {
	if IsUndefined(left) {
		return false, evalErrorf("membership test on undefined value")
	}
	switch r := right.(type) {
	case []any:
		for _, item := range r {
			if equal(left, item) {
				return true, nil
			}
		}
		return false, nil
	case string:
		ls, ok := left.(string)
		if !ok {
			return false, evalErrorf("substring test requires a string, got %s", typeName(left))
		}
		return strings.Contains(r, ls), nil
	default:
		return false, evalErrorf("membership test requires a list or string, got %s", typeName(right))
	}
}

// --- conditional ---

// condNode is "value if cond else alt".
type condNode struct {
	value Node
	cond  Node
	alt   Node
}

func (n *condNode) Eval(env map[string]any) (any, error) {
	c, err := n.cond.Eval(env)
	if err != nil {
		return nil, err
	}
	if Truthy(c) {
		return n.value.Eval(env)
	}
	return n.alt.Eval(env)
}

// --- defined test ---

// definedNode is "path is defined" / "path is not defined".
type definedNode struct {
	path   *pathNode
	negate bool
}

func (n *definedNode) Eval(env map[string]any) (any, error) {
	v, err := n.path.Eval(env)
	if err != nil {
		return nil, err
	}
	defined := !IsUndefined(v)
	if n.negate {
		defined = !defined
	}
	return defined, nil
}

// --- filter application ---

type filterNode struct {
	recv Node
	name string
	fn   FilterFunc
	args []Node
}

func (n *filterNode) Eval(env map[string]any) (any, error) {
	recv, err := n.recv.Eval(env)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := a.Eval(env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	out, err := n.fn(recv, args)
	if err != nil {
		if ie, ok := err.(*schema.InterviewError); ok {
			return nil, ie
		}
		return nil, evalErrorf("filter %q: %s", n.name, err.Error())
	}
	return out, nil
}

// Variables returns the distinct dotted variable paths referenced by the
// node, in first-reference order. Used by the load-time lint.
func Variables(n Node) []string {
	seen := make(map[string]bool)
	var out []string
	walkVariables(n, func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	})
	return out
}

func walkVariables(n Node, visit func(string)) {
	switch node := n.(type) {
	case *pathNode:
		visit(node.String())
	case *listNode:
		for _, el := range node.elems {
			walkVariables(el, visit)
		}
	case *notNode:
		walkVariables(node.operand, visit)
	case *negNode:
		walkVariables(node.operand, visit)
	case *binaryNode:
		walkVariables(node.left, visit)
		walkVariables(node.right, visit)
	case *condNode:
		walkVariables(node.value, visit)
		walkVariables(node.cond, visit)
		walkVariables(node.alt, visit)
	case *definedNode:
		walkVariables(node.path, visit)
	case *filterNode:
		walkVariables(node.recv, visit)
		for _, a := range node.args {
			walkVariables(a, visit)
		}
	}
}

func evalErrorf(format string, args ...any) *schema.InterviewError {
	return schema.NewErrorf(schema.ErrCodeEval, format, args...)
}
