package interpreter

import (
	"errors"
	"strings"
	"unicode"

	"stepviz/pkg/parser"
)

var (
	errMissingAssign = errors.New("expected `name = value`")
	errBadName       = errors.New("not a valid variable name")
)

// ParseInputs reads pre-seeded variables, one `name = expression` per line.
// Blank lines and `#` comments are skipped. Each expression is evaluated without
// instrumentation and may refer to the inputs defined above it.
func ParseInputs(text string) (map[string]Value, error) {
	sandbox := New(nil)
	sandbox.sandbox = true

	vars := make(map[string]Value)
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, expr, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &InputParseError{Line: n + 1, Err: errMissingAssign}
		}
		name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
		if !isIdentifier(name) {
			return nil, &InputParseError{Line: n + 1, Name: name, Err: errBadName}
		}

		parsed, err := parser.ParseExpression(expr)
		if err != nil {
			return nil, &InputParseError{Line: n + 1, Name: name, Err: err}
		}
		v, err := sandbox.Evaluate(parsed)
		if err != nil {
			return nil, &InputParseError{Line: n + 1, Name: name, Err: err}
		}

		sandbox.Define(name, v)
		vars[name] = v
	}
	return vars, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for idx, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (idx == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
