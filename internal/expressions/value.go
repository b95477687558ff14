package expressions

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// undefinedValue is the result of reading a context path that does not
// exist. It is falsy, equal only to itself and null, and detectable with
// "is defined". Arithmetic and membership tests on it are evaluation errors.
type undefinedValue struct{}

// Undefined is the sentinel returned for absent context paths.
var Undefined = undefinedValue{}

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// Truthy implements the language truthiness rules: null, undefined, false,
// empty string, zero, and empty list/map are falsy; everything else truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil, undefinedValue:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		if n, ok := numeric(v); ok {
			return n != 0
		}
		return true
	}
}

// numeric converts any Go numeric type to float64. The language has a
// single number type; integers from YAML documents and JSON payloads are
// folded into it here.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// equal implements ==: undefined and null are mutually equal, numbers
// compare by value regardless of Go type, everything else compares deeply.
func equal(a, b any) bool {
	aNull := a == nil || IsUndefined(a)
	bNull := b == nil || IsUndefined(b)
	if aNull || bNull {
		return aNull && bNull
	}
	if an, ok := numeric(a); ok {
		bn, ok := numeric(b)
		return ok && an == bn
	}
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

// normalizeValue recursively folds numeric types to float64 so deep
// comparison is insensitive to the decoding source (YAML vs JSON).
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		if _, isBool := v.(bool); isBool {
			return v
		}
		if n, ok := numeric(v); ok {
			return n
		}
		return v
	}
}

// Stringify renders a value for template output. Undefined and null render
// empty; lists render comma-separated.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil, undefinedValue:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ", ")
	default:
		if n, ok := numeric(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}

// typeName names a value's language-level type for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case undefinedValue:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	default:
		if _, ok := numeric(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}
