package ast

// Inspect traverses the tree rooted at n in depth-first order, calling fn for each
// node. If fn returns false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	switch x := n.(type) {
	case *Module:
		inspectStmts(x.Body, fn)
	case *Assign:
		inspectExprs(x.Targets, fn)
		Inspect(x.Value, fn)
	case *AugAssign:
		Inspect(x.Target, fn)
		Inspect(x.Value, fn)
	case *If:
		Inspect(x.Test, fn)
		inspectStmts(x.Body, fn)
		inspectStmts(x.Orelse, fn)
	case *While:
		Inspect(x.Test, fn)
		inspectStmts(x.Body, fn)
	case *For:
		Inspect(x.Target, fn)
		Inspect(x.Iter, fn)
		inspectStmts(x.Body, fn)
	case *FunctionDef:
		for _, p := range x.Params {
			inspectExpr(p.Default, fn)
		}
		inspectStmts(x.Body, fn)
	case *ClassDef:
		inspectExprs(x.Bases, fn)
		inspectStmts(x.Body, fn)
	case *Return:
		inspectExpr(x.Value, fn)
	case *ExprStmt:
		Inspect(x.Value, fn)
	case *Break, *Continue, *Pass, *Name, *Constant:
	case *FString:
		for _, part := range x.Parts {
			inspectExpr(part.Expr, fn)
		}
	case *List:
		inspectExprs(x.Elts, fn)
	case *Tuple:
		inspectExprs(x.Elts, fn)
	case *Dict:
		inspectExprs(x.Keys, fn)
		inspectExprs(x.Values, fn)
	case *Subscript:
		Inspect(x.Value, fn)
		Inspect(x.Index, fn)
	case *Slice:
		inspectExpr(x.Lower, fn)
		inspectExpr(x.Upper, fn)
		inspectExpr(x.Step, fn)
	case *Attribute:
		Inspect(x.Value, fn)
	case *Call:
		Inspect(x.Func, fn)
		inspectExprs(x.Args, fn)
		for _, kw := range x.Keywords {
			Inspect(kw.Value, fn)
		}
	case *BinOp:
		Inspect(x.Left, fn)
		Inspect(x.Right, fn)
	case *UnaryOp:
		Inspect(x.Operand, fn)
	case *Compare:
		Inspect(x.Left, fn)
		inspectExprs(x.Comparators, fn)
	case *BoolOp:
		inspectExprs(x.Values, fn)
	}
}

// inspectExpr skips typed-nil optional children
func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectExprs(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, fn)
	}
}

func inspectStmts(list []Stmt, fn func(Node) bool) {
	for _, s := range list {
		Inspect(s, fn)
	}
}

// Names returns the identifiers referenced anywhere inside e
func Names(e Expr) []string {
	var names []string
	if e == nil {
		return names
	}
	Inspect(e, func(n Node) bool {
		if name, ok := n.(*Name); ok {
			names = append(names, name.ID)
		}
		return true
	})
	return names
}
