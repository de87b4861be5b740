package lexer

import (
	"strings"
)

const tabWidth = 8

type Lexer struct {
	input        string  // input string to be tokenized
	length       int     // length of the input string
	position     int     // current position in the input string
	line         int     // current line number for error reporting
	column       int     // current column number for error reporting
	currentToken Token   // last token handed out
	indents      []int   // indentation stack, bottom is always 0
	depth        int     // bracket nesting; newlines inside brackets are insignificant
	lineStart    bool    // true when the next token begins a logical line
	pending      []Token // layout tokens queued by indentation changes
	finished     bool    // trailing NEWLINE/DEDENT tokens already queued
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:        s,
		length:       len(s),
		position:     0,
		line:         1,
		column:       1,
		currentToken: Token{Type: NEWLINE},
		indents:      []int{0},
		lineStart:    true,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	tok := l.next()
	l.currentToken = tok
	return tok
}

func (l *Lexer) next() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.lineStart && l.depth == 0 {
		if tok, ok := l.indentation(); ok {
			return tok
		}
	}

	l.skipBlanks()

	if l.position >= l.length {
		return l.finish()
	}

	ch := l.input[l.position]

	if ch == '\\' && l.position+1 < l.length && l.input[l.position+1] == '\n' {
		l.advance(2)
		return l.next()
	}

	if ch == '\n' || ch == '\r' {
		pos := l.currentPosition()
		l.advance(1)
		if ch == '\r' && l.position < l.length && l.input[l.position] == '\n' {
			l.advance(1)
		}
		if l.depth > 0 {
			return l.next()
		}
		l.lineStart = true
		return NewToken(NEWLINE, "\n", "", pos)
	}

	remaining := l.input[l.position:]
	tokenType, lexeme, matched := MatchToken(remaining)
	pos := l.currentPosition()

	if !matched {
		l.advance(1)
		return NewToken(ILLEGAL, lexeme, "", pos)
	}

	var literal string
	switch tokenType {
	case STRING:
		literal = Unescape(stripQuotes(lexeme))
	case FSTRING:
		literal = stripQuotes(lexeme[1:])
	case INT, FLOAT, ID:
		literal = lexeme
	case LPAREN, LSBRACE, LBRACE:
		l.depth++
	case RPAREN, RSBRACE, RBRACE:
		if l.depth > 0 {
			l.depth--
		}
	}

	l.advance(len(lexeme))
	return NewToken(tokenType, lexeme, literal, pos)
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	saved := *l
	saved.indents = append([]int(nil), l.indents...)
	saved.pending = append([]Token(nil), l.pending...)

	token := l.NextToken()

	*l = saved
	return token
}

// Check if there are more characters to read
func (l *Lexer) HasMore() bool {
	return l.position < l.length || len(l.pending) > 0 || !l.finished
}

// Tokenize reads the whole input, EOF included.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// indentation measures the indentation of a new logical line, skipping blank and
// comment-only lines, and returns an INDENT/DEDENT token if the level changed.
func (l *Lexer) indentation() (Token, bool) {
	for {
		width := 0
		start := l.position
		for start < l.length {
			c := l.input[start]
			if c == ' ' {
				width++
			} else if c == '\t' {
				width = (width/tabWidth + 1) * tabWidth
			} else if c == '\f' {
				width = 0
			} else {
				break
			}
			start++
		}

		rest := l.input[start:]
		if match := commentRegex.FindString(rest); match != "" {
			rest = rest[len(match):]
		}
		if rest == "" {
			l.advance(l.length - l.position)
			l.lineStart = false
			return Token{}, false
		}
		if rest[0] == '\n' || rest[0] == '\r' {
			// blank line: consume it entirely and measure the next one
			l.advance(l.length - l.position - len(rest) + 1)
			continue
		}

		l.advance(start - l.position)
		l.lineStart = false
		pos := l.currentPosition()

		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return NewToken(INDENT, "", "", pos), true
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, NewToken(DEDENT, "", "", pos))
			}
			if l.indents[len(l.indents)-1] != width {
				l.pending = append(l.pending,
					NewToken(ILLEGAL, "", "unindent does not match any outer indentation level", pos))
			}
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, true
		}
		return Token{}, false
	}
}

// finish queues the closing NEWLINE and DEDENT tokens once input is exhausted
func (l *Lexer) finish() Token {
	pos := l.currentPosition()
	if !l.finished {
		l.finished = true
		if l.currentToken.Type != NEWLINE && l.currentToken.Type != DEDENT && l.currentToken.Type != INDENT {
			l.pending = append(l.pending, NewToken(NEWLINE, "", "", pos))
		}
		for len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, NewToken(DEDENT, "", "", pos))
		}
	}
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	return NewToken(EOF, "", "", pos)
}

// Skip blanks and comments; newlines are significant and left alone
func (l *Lexer) skipBlanks() {
	for l.position < l.length {
		rest := l.input[l.position:]
		if match := blankRegex.FindString(rest); match != "" {
			l.advance(len(match))
		} else if match := commentRegex.FindString(rest); match != "" {
			l.advance(len(match))
		} else if l.depth > 0 && (rest[0] == '\n' || rest[0] == '\r') {
			l.advance(1)
		} else {
			return
		}
	}
}

// Advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	for range n {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}

func stripQuotes(lexeme string) string {
	if strings.HasPrefix(lexeme, `"""`) || strings.HasPrefix(lexeme, `'''`) {
		return lexeme[3 : len(lexeme)-3]
	}
	return lexeme[1 : len(lexeme)-1]
}

// Unescape resolves backslash escapes inside a string literal body
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case '\n':
			// escaped newline joins the lines
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
