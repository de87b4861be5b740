package ast

import (
	"math"
	"strconv"
	"strings"
)

// Render returns source text for an expression, close to what was written.
// It is used for container labels and control-flow summaries.
func Render(e Expr) string {
	var b strings.Builder
	render(&b, e)
	return b.String()
}

func precedence(e Expr) int {
	switch n := e.(type) {
	case *BoolOp:
		if n.Op == Or {
			return 1
		}
		return 2
	case *UnaryOp:
		if n.Op == Not {
			return 3
		}
		return 7
	case *Compare:
		return 4
	case *BinOp:
		switch n.Op {
		case Add, Sub:
			return 5
		case Pow:
			return 8
		default:
			return 6
		}
	}
	return 9
}

func renderOperand(b *strings.Builder, e Expr, min int) {
	if precedence(e) < min {
		b.WriteByte('(')
		render(b, e)
		b.WriteByte(')')
		return
	}
	render(b, e)
}

func renderList(b *strings.Builder, elts []Expr) {
	for i, elt := range elts {
		if i > 0 {
			b.WriteString(", ")
		}
		render(b, elt)
	}
}

func render(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
	case *Name:
		b.WriteString(n.ID)
	case *Constant:
		b.WriteString(n.Literal())
	case *FString:
		b.WriteString("f'")
		for _, part := range n.Parts {
			if part.Expr == nil {
				b.WriteString(strings.ReplaceAll(part.Literal, "'", `\'`))
				continue
			}
			b.WriteByte('{')
			render(b, part.Expr)
			if part.Spec != "" {
				b.WriteByte(':')
				b.WriteString(part.Spec)
			}
			b.WriteByte('}')
		}
		b.WriteByte('\'')
	case *List:
		b.WriteByte('[')
		renderList(b, n.Elts)
		b.WriteByte(']')
	case *Tuple:
		b.WriteByte('(')
		renderList(b, n.Elts)
		if len(n.Elts) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *Dict:
		b.WriteByte('{')
		for i := range n.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, n.Keys[i])
			b.WriteString(": ")
			render(b, n.Values[i])
		}
		b.WriteByte('}')
	case *Subscript:
		renderOperand(b, n.Value, 9)
		b.WriteByte('[')
		render(b, n.Index)
		b.WriteByte(']')
	case *Slice:
		render(b, n.Lower)
		b.WriteByte(':')
		render(b, n.Upper)
		if n.Step != nil {
			b.WriteByte(':')
			render(b, n.Step)
		}
	case *Attribute:
		renderOperand(b, n.Value, 9)
		b.WriteByte('.')
		b.WriteString(n.Attr)
	case *Call:
		renderOperand(b, n.Func, 9)
		b.WriteByte('(')
		renderList(b, n.Args)
		for i, kw := range n.Keywords {
			if i > 0 || len(n.Args) > 0 {
				b.WriteString(", ")
			}
			b.WriteString(kw.Name)
			b.WriteByte('=')
			render(b, kw.Value)
		}
		b.WriteByte(')')
	case *BinOp:
		p := precedence(n)
		if n.Op == Pow {
			renderOperand(b, n.Left, p+1)
		} else {
			renderOperand(b, n.Left, p)
		}
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		if n.Op == Pow {
			renderOperand(b, n.Right, p)
		} else {
			renderOperand(b, n.Right, p+1)
		}
	case *UnaryOp:
		b.WriteString(n.Op.String())
		renderOperand(b, n.Operand, precedence(n))
	case *Compare:
		renderOperand(b, n.Left, 5)
		for i, op := range n.Ops {
			b.WriteByte(' ')
			b.WriteString(op.String())
			b.WriteByte(' ')
			renderOperand(b, n.Comparators[i], 5)
		}
	case *BoolOp:
		p := precedence(n)
		for i, v := range n.Values {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(n.Op.String())
				b.WriteByte(' ')
			}
			renderOperand(b, v, p+1)
		}
	}
}

// Literal renders a constant the way the language prints its repr
func (c *Constant) Literal() string {
	switch c.Type {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return FormatFloat(c.Float)
	case ConstStr:
		return QuoteString(c.Str)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	}
	return "None"
}

// FormatFloat formats a float with the shortest round-tripping digits, always
// keeping a decimal point or exponent so it reads back as a float.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// QuoteString produces a single-quoted string literal, switching to double quotes
// when the text contains a single quote and no double quote.
func QuoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
