package lexer

import (
	"fmt"
)

type TokenType int
type TokenCategory int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Literal value (if applicable), empty string if not
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, Pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     Pos,
	}
}

const (
	NONE TokenCategory = iota
	KEYWORD
	IDENTIFIER
	LITERAL
	OPERATOR
	DELIMITER
	LAYOUT
)

const (
	EOF TokenType = iota // End of file

	NEWLINE // end of a logical line
	INDENT  // indentation increase
	DEDENT  // indentation decrease

	DEF      // def
	CLASS    // class
	RETURN   // return
	IF       // if
	ELIF     // elif
	ELSE     // else
	WHILE    // while
	FOR      // for
	IN       // in
	IS       // is
	BREAK    // break
	CONTINUE // continue
	PASS     // pass
	AND      // and
	OR       // or
	NOT      // not
	TRUE     // True
	FALSE    // False
	NONEKW   // None

	ID      // identifier
	INT     // integer literal
	FLOAT   // float literal
	STRING  // string literal
	FSTRING // f-string literal

	ASSIGN          // =
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	MULT_ASSIGN     // *=
	DIV_ASSIGN      // /=
	FLOORDIV_ASSIGN // //=
	MOD_ASSIGN      // %=
	PLUS            // +
	MINUS           // -
	MULT            // *
	POW             // **
	DIV             // /
	FLOORDIV        // //
	MOD             // %
	LT              // <
	GT              // >
	LE              // <=
	GE              // >=
	EQ              // ==
	NE              // !=

	COMMA   // ,
	COLON   // :
	DOT     // .
	LPAREN  // (
	RPAREN  // )
	LBRACE  // {
	RBRACE  // }
	LSBRACE // [
	RSBRACE // ]

	ILLEGAL // illegal token
)

var Keywords = map[string]TokenType{
	"def":      DEF,
	"class":    CLASS,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"is":       IS,
	"break":    BREAK,
	"continue": CONTINUE,
	"pass":     PASS,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONEKW,
}

var tokenNames = map[TokenType]string{
	EOF:             "$",
	NEWLINE:         "newline",
	INDENT:          "indent",
	DEDENT:          "dedent",
	DEF:             "def",
	CLASS:           "class",
	RETURN:          "return",
	IF:              "if",
	ELIF:            "elif",
	ELSE:            "else",
	WHILE:           "while",
	FOR:             "for",
	IN:              "in",
	IS:              "is",
	BREAK:           "break",
	CONTINUE:        "continue",
	PASS:            "pass",
	AND:             "and",
	OR:              "or",
	NOT:             "not",
	TRUE:            "True",
	FALSE:           "False",
	NONEKW:          "None",
	ID:              "id",
	INT:             "int",
	FLOAT:           "float",
	STRING:          "string",
	FSTRING:         "fstring",
	ASSIGN:          "=",
	PLUS_ASSIGN:     "+=",
	MINUS_ASSIGN:    "-=",
	MULT_ASSIGN:     "*=",
	DIV_ASSIGN:      "/=",
	FLOORDIV_ASSIGN: "//=",
	MOD_ASSIGN:      "%=",
	PLUS:            "+",
	MINUS:           "-",
	MULT:            "*",
	POW:             "**",
	DIV:             "/",
	FLOORDIV:        "//",
	MOD:             "%",
	LT:              "<",
	GT:              ">",
	LE:              "<=",
	GE:              ">=",
	EQ:              "==",
	NE:              "!=",
	COMMA:           ",",
	COLON:           ":",
	DOT:             ".",
	LPAREN:          "(",
	RPAREN:          ")",
	LBRACE:          "{",
	RBRACE:          "}",
	LSBRACE:         "[",
	RSBRACE:         "]",
	ILLEGAL:         "illegal",
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %q, nil, %s}",
			t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %q, %q, %s}",
		t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// GetCategory returns the category of the token
func (t TokenType) GetCategory() TokenCategory {
	switch {
	case t >= DEF && t <= NONEKW:
		return KEYWORD
	case t == ID:
		return IDENTIFIER
	case t >= INT && t <= FSTRING:
		return LITERAL
	case t >= ASSIGN && t <= NE:
		return OPERATOR
	case t >= COMMA && t <= RSBRACE:
		return DELIMITER
	case t == NEWLINE || t == INDENT || t == DEDENT:
		return LAYOUT
	default:
		return NONE
	}
}

// IsAugmentedAssign reports whether the token is one of the compound assignment operators
func (t TokenType) IsAugmentedAssign() bool {
	return t >= PLUS_ASSIGN && t <= MOD_ASSIGN
}

// IsKeyword checks if the given identifier is a keyword and returns its TokenType if it is
func IsKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := Keywords[identifier]
	return tokenType, ok
}
