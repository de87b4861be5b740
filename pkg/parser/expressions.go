package parser

import (
	"strconv"

	"stepviz/pkg/ast"
	"stepviz/pkg/lexer"
)

// canStartExpression reports whether t may begin an expression
func canStartExpression(t lexer.TokenType) bool {
	switch t {
	case lexer.ID, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.FSTRING,
		lexer.TRUE, lexer.FALSE, lexer.NONEKW, lexer.NOT,
		lexer.MINUS, lexer.PLUS, lexer.LPAREN, lexer.LSBRACE, lexer.LBRACE:
		return true
	}
	return false
}

// parseTestList parses `test (',' test)* [',']`; more than one element makes a Tuple
func (p *Parser) parseTestList() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	first := p.parseTest()
	if p.currentToken.Type != lexer.COMMA {
		return first
	}

	tuple := &ast.Tuple{Pos: pos, Elts: []ast.Expr{first}}
	for p.match(lexer.COMMA) {
		if !canStartExpression(p.currentToken.Type) {
			break
		}
		tuple.Elts = append(tuple.Elts, p.parseTest())
	}
	return tuple
}

func (p *Parser) parseTest() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	left := p.parseAnd()
	if p.currentToken.Type != lexer.OR {
		return left
	}
	op := &ast.BoolOp{Pos: pos, Op: ast.Or, Values: []ast.Expr{left}}
	for p.match(lexer.OR) {
		op.Values = append(op.Values, p.parseAnd())
	}
	return op
}

func (p *Parser) parseAnd() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	left := p.parseNot()
	if p.currentToken.Type != lexer.AND {
		return left
	}
	op := &ast.BoolOp{Pos: pos, Op: ast.And, Values: []ast.Expr{left}}
	for p.match(lexer.AND) {
		op.Values = append(op.Values, p.parseNot())
	}
	return op
}

func (p *Parser) parseNot() ast.Expr {
	if p.currentToken.Type == lexer.NOT {
		pos := ast.Pos{At: p.currentToken.Pos}
		p.nextToken()
		return &ast.UnaryOp{Pos: pos, Op: ast.Not, Operand: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.TokenType]ast.CmpOp{
	lexer.EQ: ast.Eq,
	lexer.NE: ast.NotEq,
	lexer.LT: ast.Lt,
	lexer.LE: ast.LtE,
	lexer.GT: ast.Gt,
	lexer.GE: ast.GtE,
	lexer.IN: ast.In,
}

// comparisonOp consumes a comparison operator, including `not in` and `is not`
func (p *Parser) comparisonOp() (ast.CmpOp, bool) {
	tok := p.currentToken
	if op, ok := comparisonOps[tok.Type]; ok {
		p.nextToken()
		return op, true
	}
	switch tok.Type {
	case lexer.NOT:
		if p.peekToken.Type != lexer.IN {
			return 0, false
		}
		p.nextToken()
		p.nextToken()
		return ast.NotIn, true
	case lexer.IS:
		p.nextToken()
		if p.match(lexer.NOT) {
			return ast.IsNot, true
		}
		return ast.Is, true
	}
	return 0, false
}

func (p *Parser) parseComparison() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	left := p.parseArith()

	var cmp *ast.Compare
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		if cmp == nil {
			cmp = &ast.Compare{Pos: pos, Left: left}
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, p.parseArith())
	}
	if cmp == nil {
		return left
	}
	return cmp
}

func (p *Parser) parseArith() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	left := p.parseTerm()
	for {
		var op ast.BinaryOp
		switch p.currentToken.Type {
		case lexer.PLUS:
			op = ast.Add
		case lexer.MINUS:
			op = ast.Sub
		default:
			return left
		}
		p.nextToken()
		left = &ast.BinOp{Pos: pos, Left: left, Op: op, Right: p.parseTerm()}
	}
}

func (p *Parser) parseTerm() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	left := p.parseFactor()
	for {
		var op ast.BinaryOp
		switch p.currentToken.Type {
		case lexer.MULT:
			op = ast.Mult
		case lexer.DIV:
			op = ast.Div
		case lexer.FLOORDIV:
			op = ast.FloorDiv
		case lexer.MOD:
			op = ast.Mod
		default:
			return left
		}
		p.nextToken()
		left = &ast.BinOp{Pos: pos, Left: left, Op: op, Right: p.parseFactor()}
	}
}

func (p *Parser) parseFactor() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	switch p.currentToken.Type {
	case lexer.MINUS:
		p.nextToken()
		return &ast.UnaryOp{Pos: pos, Op: ast.USub, Operand: p.parseFactor()}
	case lexer.PLUS:
		p.nextToken()
		return &ast.UnaryOp{Pos: pos, Op: ast.UAdd, Operand: p.parseFactor()}
	}
	return p.parsePower()
}

// parsePower is right associative: 2 ** -1 and 2 ** 3 ** 2 both parse
func (p *Parser) parsePower() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	base := p.parsePostfix()
	if p.match(lexer.POW) {
		return &ast.BinOp{Pos: pos, Left: base, Op: ast.Pow, Right: p.parseFactor()}
	}
	return base
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parseAtom()
	for {
		pos := ast.Pos{At: expr.Start()}
		switch p.currentToken.Type {
		case lexer.LPAREN:
			expr = p.parseCall(pos, expr)
		case lexer.LSBRACE:
			p.nextToken()
			expr = &ast.Subscript{Pos: pos, Value: expr, Index: p.parseSubscriptIndex()}
			p.expect(lexer.RSBRACE)
		case lexer.DOT:
			p.nextToken()
			name := p.expect(lexer.ID)
			expr = &ast.Attribute{Pos: pos, Value: expr, Attr: name.Literal}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(pos ast.Pos, fn ast.Expr) ast.Expr {
	p.expect(lexer.LPAREN)
	call := &ast.Call{Pos: pos, Func: fn}

	for p.currentToken.Type != lexer.RPAREN {
		if p.currentToken.Type == lexer.ID && p.peekToken.Type == lexer.ASSIGN {
			name := p.currentToken
			p.nextToken()
			p.nextToken()
			for _, kw := range call.Keywords {
				if kw.Name == name.Literal {
					p.fail(name.Pos, "keyword argument repeated: "+name.Literal)
				}
			}
			call.Keywords = append(call.Keywords, ast.Keyword{Name: name.Literal, Value: p.parseTest()})
		} else {
			if len(call.Keywords) > 0 {
				p.fail(p.currentToken.Pos, "positional argument follows keyword argument")
			}
			call.Args = append(call.Args, p.parseTest())
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return call
}

// parseSubscriptIndex parses `test` or a slice `[lower]:[upper][:[step]]`
func (p *Parser) parseSubscriptIndex() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}

	var lower ast.Expr
	if p.currentToken.Type != lexer.COLON {
		lower = p.parseTest()
		if p.currentToken.Type != lexer.COLON {
			return lower
		}
	}

	slice := &ast.Slice{Pos: pos, Lower: lower}
	p.expect(lexer.COLON)
	if p.currentToken.Type != lexer.COLON && p.currentToken.Type != lexer.RSBRACE {
		slice.Upper = p.parseTest()
	}
	if p.match(lexer.COLON) && p.currentToken.Type != lexer.RSBRACE {
		slice.Step = p.parseTest()
	}
	return slice
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.currentToken
	pos := ast.Pos{At: tok.Pos}

	switch tok.Type {
	case lexer.ID:
		p.nextToken()
		return &ast.Name{Pos: pos, ID: tok.Literal}
	case lexer.INT:
		p.nextToken()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.fail(tok.Pos, "integer literal too large")
		}
		return &ast.Constant{Pos: pos, Type: ast.ConstInt, Int: n}
	case lexer.FLOAT:
		p.nextToken()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.fail(tok.Pos, "invalid float literal")
		}
		return &ast.Constant{Pos: pos, Type: ast.ConstFloat, Float: f}
	case lexer.STRING, lexer.FSTRING:
		return p.parseStrings()
	case lexer.TRUE, lexer.FALSE:
		p.nextToken()
		return &ast.Constant{Pos: pos, Type: ast.ConstBool, Bool: tok.Type == lexer.TRUE}
	case lexer.NONEKW:
		p.nextToken()
		return &ast.Constant{Pos: pos, Type: ast.ConstNone}
	case lexer.LPAREN:
		return p.parseParenthesized()
	case lexer.LSBRACE:
		p.nextToken()
		list := &ast.List{Pos: pos, Elts: p.parseElements(lexer.RSBRACE)}
		p.expect(lexer.RSBRACE)
		return list
	case lexer.LBRACE:
		return p.parseDict()
	}

	p.fail(tok.Pos, p.categorizeError(lexer.ILLEGAL, tok))
	return nil
}

// parseStrings joins adjacent string literals; any f-string in the run makes the
// result an f-string
func (p *Parser) parseStrings() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}

	var parts []ast.FStringPart
	formatted := false
	for p.currentToken.Type == lexer.STRING || p.currentToken.Type == lexer.FSTRING {
		tok := p.currentToken
		p.nextToken()
		if tok.Type == lexer.STRING {
			parts = append(parts, ast.FStringPart{Literal: tok.Literal})
			continue
		}
		formatted = true
		parts = append(parts, p.parseFStringParts(tok)...)
	}

	if !formatted {
		var s string
		for _, part := range parts {
			s += part.Literal
		}
		return &ast.Constant{Pos: pos, Type: ast.ConstStr, Str: s}
	}
	return &ast.FString{Pos: pos, Parts: mergeLiterals(parts)}
}

func mergeLiterals(parts []ast.FStringPart) []ast.FStringPart {
	var out []ast.FStringPart
	for _, part := range parts {
		if part.Expr == nil {
			if part.Literal == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Expr == nil {
				out[n-1].Literal += part.Literal
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

// parseParenthesized handles `()`, `(expr)` and tuple displays
func (p *Parser) parseParenthesized() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.expect(lexer.LPAREN)

	if p.match(lexer.RPAREN) {
		return &ast.Tuple{Pos: pos}
	}

	first := p.parseTest()
	if p.currentToken.Type != lexer.COMMA {
		p.expect(lexer.RPAREN)
		return first
	}

	tuple := &ast.Tuple{Pos: pos, Elts: []ast.Expr{first}}
	for p.match(lexer.COMMA) {
		if p.currentToken.Type == lexer.RPAREN {
			break
		}
		tuple.Elts = append(tuple.Elts, p.parseTest())
	}
	p.expect(lexer.RPAREN)
	return tuple
}

// parseElements parses a comma separated list up to (not including) closing
func (p *Parser) parseElements(closing lexer.TokenType) []ast.Expr {
	var elts []ast.Expr
	for p.currentToken.Type != closing {
		elts = append(elts, p.parseTest())
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return elts
}

func (p *Parser) parseDict() ast.Expr {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.expect(lexer.LBRACE)

	dict := &ast.Dict{Pos: pos}
	for p.currentToken.Type != lexer.RBRACE {
		key := p.parseTest()
		p.expect(lexer.COLON)
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, p.parseTest())
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return dict
}
