package parser

import (
	"stepviz/pkg/ast"
	"stepviz/pkg/lexer"
)

type Parser struct {
	lexer        *lexer.Lexer // lexer instance
	currentToken lexer.Token  // current token
	peekToken    lexer.Token  // one token of lookahead
	err          *SyntaxError // first error, parsing stops there
	loopDepth    int          // enclosing loops, for break/continue checks
	funcDepth    int          // enclosing function bodies, for return checks
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}

	// Initialize current and peek tokens
	p.nextToken()
	p.nextToken()

	return p
}

// Parse turns source text into a module, or returns a *SyntaxError
func Parse(source string) (*ast.Module, error) {
	return NewParser(lexer.NewLexer(source)).ParseModule()
}

// ParseExpression parses text holding exactly one expression
func ParseExpression(source string) (ast.Expr, error) {
	p := NewParser(lexer.NewLexer(source))
	var expr ast.Expr
	err := p.guard(func() {
		expr = p.parseTestList()
		for p.currentToken.Type == lexer.NEWLINE {
			p.nextToken()
		}
		if p.currentToken.Type != lexer.EOF {
			p.unexpected(lexer.EOF)
		}
	})
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseModule parses a whole program
func (p *Parser) ParseModule() (*ast.Module, error) {
	mod := &ast.Module{Pos: ast.Pos{At: p.currentToken.Pos}}
	err := p.guard(func() {
		for p.currentToken.Type != lexer.EOF {
			if p.currentToken.Type == lexer.NEWLINE {
				p.nextToken()
				continue
			}
			mod.Body = append(mod.Body, p.parseStatement())
		}
	})
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// guard runs fn and converts a bailout into the recorded syntax error
func (p *Parser) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			err = p.err
		}
	}()
	fn()
	return nil
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// match consumes the current token if it has the given type
func (p *Parser) match(t lexer.TokenType) bool {
	if p.currentToken.Type == t {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes a token of the given type or fails
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.currentToken
	if tok.Type != t {
		p.unexpected(t)
	}
	p.nextToken()
	return tok
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.currentToken.Type {
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.DEF:
		return p.parseFunctionDef()
	case lexer.CLASS:
		return p.parseClassDef()
	case lexer.INDENT:
		p.fail(p.currentToken.Pos, "unexpected indent")
	case lexer.ILLEGAL:
		p.fail(p.currentToken.Pos, illegalMessage(p.currentToken))
	}

	stmt := p.parseSimpleStatement()
	if p.currentToken.Type != lexer.NEWLINE && p.currentToken.Type != lexer.EOF {
		p.unexpected(lexer.NEWLINE)
	}
	p.match(lexer.NEWLINE)
	return stmt
}

func (p *Parser) parseSimpleStatement() ast.Stmt {
	tok := p.currentToken
	pos := ast.Pos{At: tok.Pos}

	switch tok.Type {
	case lexer.PASS:
		p.nextToken()
		return &ast.Pass{Pos: pos}
	case lexer.BREAK:
		if p.loopDepth == 0 {
			p.fail(tok.Pos, "'break' outside loop")
		}
		p.nextToken()
		return &ast.Break{Pos: pos}
	case lexer.CONTINUE:
		if p.loopDepth == 0 {
			p.fail(tok.Pos, "'continue' not properly in loop")
		}
		p.nextToken()
		return &ast.Continue{Pos: pos}
	case lexer.RETURN:
		if p.funcDepth == 0 {
			p.fail(tok.Pos, "'return' outside function")
		}
		p.nextToken()
		ret := &ast.Return{Pos: pos}
		if !isStatementBoundary(p.currentToken.Type) {
			ret.Value = p.parseTestList()
		}
		return ret
	}

	expr := p.parseTestList()

	if p.currentToken.Type.IsAugmentedAssign() {
		opTok := p.currentToken
		p.checkTarget(expr, false)
		p.nextToken()
		return &ast.AugAssign{Pos: pos, Target: expr, Op: augmentedOps[opTok.Type], Value: p.parseTestList()}
	}

	if p.currentToken.Type != lexer.ASSIGN {
		return &ast.ExprStmt{Pos: pos, Value: expr}
	}

	assign := &ast.Assign{Pos: pos}
	for p.match(lexer.ASSIGN) {
		p.checkTarget(expr, true)
		assign.Targets = append(assign.Targets, expr)
		expr = p.parseTestList()
	}
	assign.Value = expr
	return assign
}

var augmentedOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.PLUS_ASSIGN:     ast.Add,
	lexer.MINUS_ASSIGN:    ast.Sub,
	lexer.MULT_ASSIGN:     ast.Mult,
	lexer.DIV_ASSIGN:      ast.Div,
	lexer.FLOORDIV_ASSIGN: ast.FloorDiv,
	lexer.MOD_ASSIGN:      ast.Mod,
}

// checkTarget rejects expressions that cannot be assigned to
func (p *Parser) checkTarget(e ast.Expr, allowUnpack bool) {
	switch t := e.(type) {
	case *ast.Name, *ast.Subscript, *ast.Attribute:
		return
	case *ast.Tuple:
		if allowUnpack {
			for _, elt := range t.Elts {
				p.checkTarget(elt, false)
			}
			return
		}
	case *ast.List:
		if allowUnpack {
			for _, elt := range t.Elts {
				p.checkTarget(elt, false)
			}
			return
		}
	}
	p.fail(e.Start(), "cannot assign to "+describeTarget(e))
}

func describeTarget(e ast.Expr) string {
	switch e.(type) {
	case *ast.Call:
		return "function call"
	case *ast.Constant:
		return "literal"
	case *ast.Compare, *ast.BinOp, *ast.BoolOp, *ast.UnaryOp:
		return "expression"
	}
	return e.Kind().String()
}

// parseBlock parses `: NEWLINE INDENT stmt+ DEDENT` or `: simple_stmt`
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(lexer.COLON)

	if p.currentToken.Type != lexer.NEWLINE {
		stmt := p.parseSimpleStatement()
		if p.currentToken.Type != lexer.NEWLINE && p.currentToken.Type != lexer.EOF {
			p.unexpected(lexer.NEWLINE)
		}
		p.match(lexer.NEWLINE)
		return []ast.Stmt{stmt}
	}

	p.nextToken()
	p.expect(lexer.INDENT)

	var body []ast.Stmt
	for p.currentToken.Type != lexer.DEDENT && p.currentToken.Type != lexer.EOF {
		if p.match(lexer.NEWLINE) {
			continue
		}
		body = append(body, p.parseStatement())
	}
	p.match(lexer.DEDENT)
	return body
}

func (p *Parser) parseIf() ast.Stmt {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.nextToken() // if / elif

	stmt := &ast.If{Pos: pos, Test: p.parseTest()}
	stmt.Body = p.parseBlock()

	switch p.currentToken.Type {
	case lexer.ELIF:
		stmt.Orelse = []ast.Stmt{p.parseIf()}
	case lexer.ELSE:
		p.nextToken()
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.nextToken()

	stmt := &ast.While{Pos: pos, Test: p.parseTest()}
	p.loopDepth++
	stmt.Body = p.parseBlock()
	p.loopDepth--
	return stmt
}

func (p *Parser) parseFor() ast.Stmt {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.nextToken()

	target := p.parseTargetList()
	p.expect(lexer.IN)
	stmt := &ast.For{Pos: pos, Target: target, Iter: p.parseTestList()}

	p.loopDepth++
	stmt.Body = p.parseBlock()
	p.loopDepth--
	return stmt
}

// parseTargetList parses the names bound by a for loop
func (p *Parser) parseTargetList() ast.Expr {
	first := p.currentToken
	var names []ast.Expr
	for {
		tok := p.expect(lexer.ID)
		names = append(names, &ast.Name{Pos: ast.Pos{At: tok.Pos}, ID: tok.Literal})
		if !p.match(lexer.COMMA) || p.currentToken.Type == lexer.IN {
			break
		}
	}
	if len(names) == 1 {
		return names[0]
	}
	return &ast.Tuple{Pos: ast.Pos{At: first.Pos}, Elts: names}
}

func (p *Parser) parseFunctionDef() ast.Stmt {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.nextToken()

	name := p.expect(lexer.ID)
	stmt := &ast.FunctionDef{Pos: pos, Name: name.Literal}

	p.expect(lexer.LPAREN)
	seen := map[string]bool{}
	for p.currentToken.Type != lexer.RPAREN {
		tok := p.expect(lexer.ID)
		if seen[tok.Literal] {
			p.fail(tok.Pos, "duplicate argument '"+tok.Literal+"' in function definition")
		}
		seen[tok.Literal] = true

		param := ast.Param{Name: tok.Literal}
		if p.match(lexer.ASSIGN) {
			param.Default = p.parseTest()
		} else if len(stmt.Params) > 0 && stmt.Params[len(stmt.Params)-1].Default != nil {
			p.fail(tok.Pos, "non-default argument follows default argument")
		}
		stmt.Params = append(stmt.Params, param)

		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)

	loops := p.loopDepth
	p.loopDepth = 0
	p.funcDepth++
	stmt.Body = p.parseBlock()
	p.funcDepth--
	p.loopDepth = loops
	return stmt
}

func (p *Parser) parseClassDef() ast.Stmt {
	pos := ast.Pos{At: p.currentToken.Pos}
	p.nextToken()

	name := p.expect(lexer.ID)
	stmt := &ast.ClassDef{Pos: pos, Name: name.Literal}

	if p.match(lexer.LPAREN) {
		for p.currentToken.Type != lexer.RPAREN {
			stmt.Bases = append(stmt.Bases, p.parseTest())
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
	}

	loops, funcs := p.loopDepth, p.funcDepth
	p.loopDepth, p.funcDepth = 0, 0
	stmt.Body = p.parseBlock()
	p.loopDepth, p.funcDepth = loops, funcs
	return stmt
}
