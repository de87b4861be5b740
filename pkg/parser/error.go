package parser

import (
	"fmt"
	"strings"

	"stepviz/pkg/lexer"
)

// SyntaxError describes why source text could not be parsed. It is reported to the
// viewer as-is and never creates an execution session.
type SyntaxError struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Offset  int    `json:"offset"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d, offset %d)", e.Message, e.Line, e.Offset)
}

// bailout unwinds the recursive descent on the first error
type bailout struct{}

// fail records a syntax error at the given position and aborts the parse
func (p *Parser) fail(pos lexer.Position, msg string) {
	p.err = &SyntaxError{
		Kind:    "SyntaxError",
		Message: msg,
		Line:    pos.Line,
		Offset:  pos.Column,
	}
	panic(bailout{})
}

// unexpected reports the current token as out of place while `expected` was wanted
func (p *Parser) unexpected(expected lexer.TokenType) {
	p.fail(p.currentToken.Pos, p.categorizeError(expected, p.currentToken))
}

// categorizeError provides a specific error message based on expected symbol and current token
func (p *Parser) categorizeError(expected lexer.TokenType, current lexer.Token) string {
	if current.Type == lexer.ILLEGAL {
		return illegalMessage(current)
	}

	// Delimiters
	switch expected {
	case lexer.RPAREN:
		return "Missing closing parenthesis"
	case lexer.RSBRACE:
		return "Missing closing bracket"
	case lexer.RBRACE:
		return "Missing closing brace"
	case lexer.COLON:
		return "expected ':'"
	case lexer.INDENT:
		return "expected an indented block"
	case lexer.IN:
		return "expected 'in'"
	case lexer.NEWLINE:
		if current.Type == lexer.INDENT {
			return "unexpected indent"
		}
		return "invalid syntax"
	}

	// Identifiers
	if expected == lexer.ID {
		if current.Type.GetCategory() == lexer.KEYWORD {
			return fmt.Sprintf("cannot use reserved keyword '%s' as identifier", current.Lexeme)
		}
		return "expected identifier"
	}

	if current.Type == lexer.EOF || current.Type == lexer.NEWLINE {
		return "unexpected end of line"
	}

	if current.Lexeme == "" {
		return "invalid syntax"
	}
	return fmt.Sprintf("invalid syntax near '%s'", current.Lexeme)
}

func illegalMessage(tok lexer.Token) string {
	if tok.Literal != "" {
		return tok.Literal
	}
	if strings.ContainsAny(tok.Lexeme, `"'`) {
		return "unterminated string literal"
	}
	return fmt.Sprintf("invalid character '%s'", tok.Lexeme)
}

// isStatementBoundary checks if a token type indicates the start of a new statement or block boundary
func isStatementBoundary(t lexer.TokenType) bool {
	switch t {
	case lexer.NEWLINE, lexer.INDENT, lexer.DEDENT, lexer.EOF:
		return true
	default:
		return false
	}
}
