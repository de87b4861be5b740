package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

func rx(raw string) tokenRegex {
	return tokenRegex{regexp.MustCompile(raw), raw}
}

// Token regex patterns
var tokenRegexes = map[TokenType]tokenRegex{
	FLOORDIV_ASSIGN: rx(`^//=`),
	PLUS_ASSIGN:     rx(`^\+=`),
	MINUS_ASSIGN:    rx(`^-=`),
	MULT_ASSIGN:     rx(`^\*=`),
	DIV_ASSIGN:      rx(`^/=`),
	MOD_ASSIGN:      rx(`^%=`),

	POW:      rx(`^\*\*`),
	FLOORDIV: rx(`^//`),
	LE:       rx(`^<=`),
	GE:       rx(`^>=`),
	EQ:       rx(`^==`),
	NE:       rx(`^!=`),

	ASSIGN: rx(`^=`),
	PLUS:   rx(`^\+`),
	MINUS:  rx(`^-`),
	MULT:   rx(`^\*`),
	DIV:    rx(`^/`),
	MOD:    rx(`^%`),
	LT:     rx(`^<`),
	GT:     rx(`^>`),

	COMMA:   rx(`^,`),
	COLON:   rx(`^:`),
	DOT:     rx(`^\.`),
	LPAREN:  rx(`^\(`),
	RPAREN:  rx(`^\)`),
	LBRACE:  rx(`^\{`),
	RBRACE:  rx(`^\}`),
	LSBRACE: rx(`^\[`),
	RSBRACE: rx(`^\]`),

	FSTRING: rx(`^[fF]("""[\s\S]*?"""|'''[\s\S]*?'''|"([^"\\\n]|\\.)*"|'([^'\\\n]|\\.)*')`),
	STRING:  rx(`^("""[\s\S]*?"""|'''[\s\S]*?'''|"([^"\\\n]|\\.)*"|'([^'\\\n]|\\.)*')`),
	FLOAT:   rx(`^(\d+\.\d*([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+)`),
	INT:     rx(`^\d+`),
	ID:      rx(`^[A-Za-z_][A-Za-z0-9_]*`),
}

var (
	blankRegex   = regexp.MustCompile(`^[ \t\f]+`)
	commentRegex = regexp.MustCompile(`^#[^\n]*`)
)

// Token precedence order for matching (longer patterns first)
var tokenPrecedenceOrder = []TokenType{
	FSTRING, STRING, FLOAT, INT, ID,
	FLOORDIV_ASSIGN, PLUS_ASSIGN, MINUS_ASSIGN, MULT_ASSIGN, DIV_ASSIGN, MOD_ASSIGN,
	POW, FLOORDIV, LE, GE, EQ, NE,
	ASSIGN, PLUS, MINUS, MULT, DIV, MOD, LT, GT,
	COMMA, COLON, DOT, LPAREN, RPAREN, LBRACE, RBRACE, LSBRACE, RSBRACE,
}

// Get the regex pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Pattern
	}

	return nil
}

// Get the raw regex string for a token type
func (t TokenType) RawRegex() string {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Raw
	}

	return ""
}

// MatchToken matches the first token at the start of the string.
// Identifiers that spell a keyword come back with the keyword's type.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				if tokenType == ID {
					if kw, ok := IsKeyword(match); ok {
						return kw, match, true
					}
				}
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}
