package expressions

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilterFunc is a pure transformation applied with the | operator. Filters
// never touch the context and never perform I/O; display-oriented filters
// (date_fmt) must not be used in guards.
type FilterFunc func(recv any, args []any) (any, error)

// filters is the fixed registry. It is populated at init and immutable
// afterwards; unknown filter names are rejected at parse time.
var filters = map[string]FilterFunc{
	"default":  filterDefault,
	"lower":    filterLower,
	"upper":    filterUpper,
	"title":    filterTitle,
	"trim":     filterTrim,
	"join":     filterJoin,
	"length":   filterLength,
	"first":    filterFirst,
	"last":     filterLast,
	"date_fmt": filterDateFmt,
}

// Filter looks up a registered filter by name.
func Filter(name string) (FilterFunc, bool) {
	fn, ok := filters[name]
	return fn, ok
}

// filterDefault substitutes the fallback when the receiver is undefined or
// null. Non-null falsy values (empty string, 0, false) pass through.
func filterDefault(recv any, args []any) (any, error) {
	if len(args) != 1 {
		return nil, evalErrorf("default expects 1 argument, got %d", len(args))
	}
	if recv == nil || IsUndefined(recv) {
		return args[0], nil
	}
	return recv, nil
}

func stringRecv(name string, recv any) (string, error) {
	s, ok := recv.(string)
	if !ok {
		return "", evalErrorf("%s expects a string, got %s", name, typeName(recv))
	}
	return s, nil
}

func filterLower(recv any, args []any) (any, error) {
	s, err := stringRecv("lower", recv)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func filterUpper(recv any, args []any) (any, error) {
	s, err := stringRecv("upper", recv)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func filterTitle(recv any, args []any) (any, error) {
	s, err := stringRecv("title", recv)
	if err != nil {
		return nil, err
	}
	return cases.Title(language.Und).String(s), nil
}

func filterTrim(recv any, args []any) (any, error) {
	s, err := stringRecv("trim", recv)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

func filterJoin(recv any, args []any) (any, error) {
	list, ok := recv.([]any)
	if !ok {
		return nil, evalErrorf("join expects a list, got %s", typeName(recv))
	}
	sep := ", "
	if len(args) > 0 {
		s, ok := args[0].(string)
		if !ok {
			return nil, evalErrorf("join separator must be a string")
		}
		sep = s
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = Stringify(item)
	}
	return strings.Join(parts, sep), nil
}

func filterLength(recv any, args []any) (any, error) {
	switch v := recv.(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	case []any:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	default:
		return nil, evalErrorf("length expects a string, list or map, got %s", typeName(recv))
	}
}

func filterFirst(recv any, args []any) (any, error) {
	list, ok := recv.([]any)
	if !ok {
		return nil, evalErrorf("first expects a list, got %s", typeName(recv))
	}
	if len(list) == 0 {
		return Undefined, nil
	}
	return list[0], nil
}

func filterLast(recv any, args []any) (any, error) {
	list, ok := recv.([]any)
	if !ok {
		return nil, evalErrorf("last expects a list, got %s", typeName(recv))
	}
	if len(list) == 0 {
		return Undefined, nil
	}
	return list[len(list)-1], nil
}

// filterDateFmt reformats a YYYY-MM-DD date for display. Display only:
// the output is locale-free text, not a value to branch on.
func filterDateFmt(recv any, args []any) (any, error) {
	s, err := stringRecv("date_fmt", recv)
	if err != nil {
		return nil, err
	}
	layout := "January 2, 2006"
	if len(args) > 0 {
		l, ok := args[0].(string)
		if !ok {
			return nil, evalErrorf("date_fmt layout must be a string")
		}
		layout = l
	}
	t, perr := time.Parse("2006-01-02", s)
	if perr != nil {
		return nil, evalErrorf("date_fmt: %q is not a YYYY-MM-DD date", s)
	}
	return t.Format(layout), nil
}
