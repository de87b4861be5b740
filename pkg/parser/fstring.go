package parser

import (
	"strings"

	"stepviz/pkg/ast"
	"stepviz/pkg/lexer"
)

// parseFStringParts splits the body of an f-string token into literal text and
// embedded `{expr[:spec]}` replacement fields
func (p *Parser) parseFStringParts(tok lexer.Token) []ast.FStringPart {
	body := tok.Literal

	var parts []ast.FStringPart
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, ast.FStringPart{Literal: lexer.Unescape(literal.String())})
			literal.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			literal.WriteByte('{')
			i++
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			literal.WriteByte('}')
			i++
		case c == '}':
			p.fail(tok.Pos, "f-string: single '}' is not allowed")
		case c == '{':
			end, colon := fieldEnd(body, i+1)
			if end < 0 {
				p.fail(tok.Pos, "f-string: expecting '}'")
			}
			flush()

			source, spec := body[i+1:end], ""
			if colon >= 0 {
				source, spec = body[i+1:colon], body[colon+1:end]
			}
			if strings.TrimSpace(source) == "" {
				p.fail(tok.Pos, "f-string: empty expression not allowed")
			}
			expr, err := ParseExpression(strings.TrimSpace(source))
			if err != nil {
				p.fail(tok.Pos, "f-string: "+err.(*SyntaxError).Message)
			}
			parts = append(parts, ast.FStringPart{Expr: expr, Spec: spec})
			i = end
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return parts
}

// fieldEnd finds the '}' closing a replacement field that starts at from, and the
// top-level ':' introducing a format spec if there is one
func fieldEnd(body string, from int) (end, colon int) {
	depth := 0
	colon = -1
	var quote byte
	for i := from; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i, colon
			}
			depth--
		case ':':
			if depth == 0 && colon < 0 {
				colon = i
			}
		}
	}
	return -1, -1
}
