package interpreter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"stepviz/pkg/ast"
)

// str converts a value the way print shows it
func (i *Interpreter) str(v Value) string {
	return toString(v, false, nil)
}

// repr converts a value the way it appears inside a container
func (i *Interpreter) repr(v Value) string {
	return toString(v, true, nil)
}

// String renders v the way print shows it
func (v Value) String() string {
	return toString(v, false, nil)
}

// toString renders v; seen guards against containers that hold themselves
func toString(v Value, quote bool, seen map[any]bool) string {
	switch v.Kind {
	case KindNone:
		return "None"
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return ast.FormatFloat(v.F64)
	case KindString:
		if quote {
			return ast.QuoteString(v.Str)
		}
		return v.Str
	case KindList:
		if seen[v.List] {
			return "[...]"
		}
		seen = mark(seen, v.List)
		parts := make([]string, len(v.List.Items))
		for idx, item := range v.List.Items {
			parts[idx] = toString(item, true, seen)
		}
		delete(seen, v.List)
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		if seen[v.Map] {
			return "{...}"
		}
		seen = mark(seen, v.Map)
		parts := make([]string, 0, v.Map.Len())
		v.Map.Each(func(k, val Value) bool {
			parts = append(parts, toString(k, true, seen)+": "+toString(val, true, seen))
			return true
		})
		delete(seen, v.Map)
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		if v.Func.Self != nil {
			return fmt.Sprintf("<bound method %s.%s>", v.Func.Self.Class.Name, v.Func.Name)
		}
		return fmt.Sprintf("<function %s>", v.Func.Name)
	case KindClass:
		return fmt.Sprintf("<class '%s'>", v.Class.Name)
	case KindObject:
		return fmt.Sprintf("<%s object>", v.Object.Class.Name)
	case KindBuiltin:
		if v.Builtin.Self != nil {
			return fmt.Sprintf("<built-in method %s of %s object>", v.Builtin.Name, v.Builtin.Self.TypeName())
		}
		return fmt.Sprintf("<built-in function %s>", v.Builtin.Name)
	}
	return "<unknown>"
}

func mark(seen map[any]bool, ref any) map[any]bool {
	if seen == nil {
		seen = make(map[any]bool)
	}
	seen[ref] = true
	return seen
}

// formatSpec is a parsed `[[fill]align][sign][0][width][,][.precision][type]`
type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	width     int
	grouping  bool
	precision int // -1 when absent
	verb      byte
}

func parseFormatSpec(spec string) (formatSpec, bool) {
	fs := formatSpec{fill: ' ', precision: -1}
	s := spec

	isAlign := func(c byte) bool { return c == '<' || c == '>' || c == '^' || c == '=' }
	if r, size := utf8.DecodeRuneInString(s); size > 0 && size < len(s) && isAlign(s[size]) {
		fs.fill, fs.align = r, s[size]
		s = s[size+1:]
	} else if len(s) > 0 && isAlign(s[0]) {
		fs.align = s[0]
		s = s[1:]
	}

	if len(s) > 0 && (s[0] == '+' || s[0] == '-' || s[0] == ' ') {
		fs.sign = s[0]
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '0' {
		if fs.align == 0 {
			fs.fill, fs.align = '0', '='
		}
		s = s[1:]
	}

	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n > 0 {
		fs.width, _ = strconv.Atoi(s[:n])
		s = s[n:]
	}
	if len(s) > 0 && (s[0] == ',' || s[0] == '_') {
		fs.grouping = true
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '.' {
		n = 1
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 1 {
			return fs, false
		}
		fs.precision, _ = strconv.Atoi(s[1:n])
		s = s[n:]
	}
	if len(s) > 1 {
		return fs, false
	}
	if len(s) == 1 {
		fs.verb = s[0]
	}
	return fs, true
}

// format applies an f-string format spec to v
func (i *Interpreter) format(v Value, spec string) (string, error) {
	if spec == "" {
		return i.str(v), nil
	}
	fs, ok := parseFormatSpec(spec)
	if !ok {
		return "", i.errorf(TypeMismatch, "Invalid format specifier '%s' for object of type '%s'", spec, v.TypeName())
	}

	verb := fs.verb
	if verb == 0 {
		switch {
		case v.Kind == KindFloat && fs.precision >= 0:
			verb = 'g'
		case v.Kind == KindFloat:
			verb = 'r'
		case v.Kind == KindInt || v.Kind == KindBool:
			verb = 'd'
		default:
			verb = 's'
		}
	}

	var body string
	numeric := true
	switch verb {
	case 's':
		if v.IsNumber() && fs.verb == 's' {
			return "", i.errorf(TypeMismatch, "Unknown format code 's' for object of type '%s'", v.TypeName())
		}
		numeric = false
		body = i.str(v)
		if fs.precision >= 0 && utf8.RuneCountInString(body) > fs.precision {
			body = string([]rune(body)[:fs.precision])
		}
	case 'd', 'x', 'X', 'b', 'o':
		if v.Kind != KindInt && v.Kind != KindBool {
			return "", i.errorf(TypeMismatch, "Unknown format code '%c' for object of type '%s'", verb, v.TypeName())
		}
		n, _ := v.AsInt64()
		base := map[byte]int{'d': 10, 'x': 16, 'X': 16, 'b': 2, 'o': 8}[verb]
		body = strconv.FormatInt(n, base)
		if verb == 'X' {
			body = strings.ToUpper(body)
		}
	case 'f', 'F', 'e', 'E', 'g', 'G', '%', 'r':
		if !v.IsNumber() {
			return "", i.errorf(TypeMismatch, "Unknown format code '%c' for object of type '%s'", verb, v.TypeName())
		}
		f, _ := v.AsFloat64()
		prec := fs.precision
		if prec < 0 && verb != 'r' {
			prec = 6
		}
		switch verb {
		case '%':
			body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
		case 'r':
			body = ast.FormatFloat(f)
		case 'g', 'G':
			if prec == 0 {
				prec = 1
			}
			body = strconv.FormatFloat(f, verb, prec, 64)
		case 'F':
			body = strconv.FormatFloat(f, 'f', prec, 64)
		default:
			body = strconv.FormatFloat(f, verb, prec, 64)
		}
	default:
		return "", i.errorf(TypeMismatch, "Unknown format code '%c' for object of type '%s'", verb, v.TypeName())
	}

	sign := ""
	if numeric {
		if strings.HasPrefix(body, "-") {
			sign, body = "-", body[1:]
		} else if fs.sign == '+' || fs.sign == ' ' {
			sign = string(fs.sign)
		}
		if fs.grouping {
			body = group(body)
		}
	}

	return pad(sign, body, fs, numeric), nil
}

// group inserts thousands separators into the integer digits of body
func group(body string) string {
	end := len(body)
	for idx, c := range body {
		if c < '0' || c > '9' {
			end = idx
			break
		}
	}
	digits, rest := body[:end], body[end:]
	var b strings.Builder
	for idx, c := range digits {
		if idx > 0 && (len(digits)-idx)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String() + rest
}

func pad(sign, body string, fs formatSpec, numeric bool) string {
	n := fs.width - utf8.RuneCountInString(sign+body)
	if n <= 0 {
		return sign + body
	}
	fill := strings.Repeat(string(fs.fill), n)

	align := fs.align
	if align == 0 {
		align = '<'
		if numeric {
			align = '>'
		}
	}
	switch align {
	case '>':
		return fill + sign + body
	case '^':
		left := strings.Repeat(string(fs.fill), n/2)
		right := strings.Repeat(string(fs.fill), n-n/2)
		return left + sign + body + right
	case '=':
		return sign + fill + body
	}
	return sign + body + fill
}
