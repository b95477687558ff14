package expressions

import (
	"strconv"
	"strings"

	"github.com/rendis/intake/pkg/schema"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// reserved words of the language; everything else is a variable path segment.
var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "true": true, "false": true,
	"null": true, "defined": true,
}

// twoCharOps are matched before single-character operators.
var twoCharOps = []string{"==", "!=", "<=", ">="}

const singleCharOps = "+-*/<>()[],.|"

// lex tokenizes an expression. Errors carry the byte offset of the
// offending character.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		if c >= '0' && c <= '9' {
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
			if i < len(src) && src[i] == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9' {
				i++
				for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
					i++
				}
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, syntaxError(src, start, "invalid number %q", src[start:i])
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: n, pos: start})
			continue
		}

		if c == '"' || c == '\'' {
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = next
			continue
		}

		if isIdentStart(c) {
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
			continue
		}

		matched := false
		for _, op := range twoCharOps {
			if strings.HasPrefix(src[i:], op) {
				toks = append(toks, token{kind: tokOp, text: op, pos: i})
				i += 2
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if strings.IndexByte(singleCharOps, c) >= 0 {
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
			continue
		}

		return nil, syntaxError(src, i, "unexpected character %q", string(c))
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// lexString scans a quoted string starting at src[start] and returns the
// unescaped value and the index past the closing quote.
func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		if c == quote {
			return sb.String(), i + 1, nil
		}
		if c == '\\' {
			if i+1 >= len(src) {
				break
			}
			i++
			switch src[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(src[i])
			default:
				return "", 0, syntaxError(src, i, "invalid escape \\%s", string(src[i]))
			}
			i++
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, syntaxError(src, start, "unterminated string")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func syntaxError(src string, pos int, format string, args ...any) *schema.InterviewError {
	return schema.NewErrorf(schema.ErrCodeSyntax, format, args...).
		WithDetails(map[string]any{"expression": src, "position": pos})
}
