// Package ast defines the syntax tree produced by the parser and consumed by the
// interpreter and the loop analyzer. The set of node kinds is closed: every consumer
// dispatches on the concrete type with an exhaustive type switch.
package ast

import "stepviz/pkg/lexer"

type NodeKind int

const (
	KindModule NodeKind = iota

	// statements
	KindAssign
	KindAugAssign
	KindIf
	KindWhile
	KindFor
	KindFunctionDef
	KindClassDef
	KindReturn
	KindExpr
	KindBreak
	KindContinue
	KindPass

	// expressions
	KindName
	KindConstant
	KindFString
	KindList
	KindTuple
	KindDict
	KindSubscript
	KindSlice
	KindAttribute
	KindCall
	KindBinOp
	KindUnaryOp
	KindCompare
	KindBoolOp
)

var kindNames = [...]string{
	KindModule:      "Module",
	KindAssign:      "Assign",
	KindAugAssign:   "AugAssign",
	KindIf:          "If",
	KindWhile:       "While",
	KindFor:         "For",
	KindFunctionDef: "FunctionDef",
	KindClassDef:    "ClassDef",
	KindReturn:      "Return",
	KindExpr:        "Expr",
	KindBreak:       "Break",
	KindContinue:    "Continue",
	KindPass:        "Pass",
	KindName:        "Name",
	KindConstant:    "Constant",
	KindFString:     "JoinedStr",
	KindList:        "List",
	KindTuple:       "Tuple",
	KindDict:        "Dict",
	KindSubscript:   "Subscript",
	KindSlice:       "Slice",
	KindAttribute:   "Attribute",
	KindCall:        "Call",
	KindBinOp:       "BinOp",
	KindUnaryOp:     "UnaryOp",
	KindCompare:     "Compare",
	KindBoolOp:      "BoolOp",
}

// String returns the node type name shown to trace viewers
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Trackable reports whether executing a node of this kind records a step
func (k NodeKind) Trackable() bool {
	switch k {
	case KindAssign, KindAugAssign, KindIf, KindFor, KindWhile,
		KindFunctionDef, KindClassDef, KindReturn, KindExpr, KindCall:
		return true
	default:
		return false
	}
}

// Node is implemented by every syntax tree node
type Node interface {
	Kind() NodeKind
	Line() int
	Start() lexer.Position
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Pos is embedded in every node and records where it starts
type Pos struct {
	At lexer.Position
}

func (p Pos) Line() int { return p.At.Line }

func (p Pos) Start() lexer.Position { return p.At }

// Module is the root of a parsed program
type Module struct {
	Pos
	Body []Stmt
}

func (*Module) Kind() NodeKind { return KindModule }

// ---------------------------------------------------------------------------
// Statements

// Assign is `t1 = t2 = value`
type Assign struct {
	Pos
	Targets []Expr
	Value   Expr
}

// AugAssign is `target op= value`
type AugAssign struct {
	Pos
	Target Expr
	Op     BinaryOp
	Value  Expr
}

// If holds `elif` chains as a nested If in Orelse
type If struct {
	Pos
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type While struct {
	Pos
	Test Expr
	Body []Stmt
}

// For is `for target in iter:`; target is a Name or a Tuple of Names
type For struct {
	Pos
	Target Expr
	Iter   Expr
	Body   []Stmt
}

type Param struct {
	Name    string
	Default Expr
}

type FunctionDef struct {
	Pos
	Name   string
	Params []Param
	Body   []Stmt
}

type ClassDef struct {
	Pos
	Name  string
	Bases []Expr
	Body  []Stmt
}

// Return has a nil Value for a bare `return`
type Return struct {
	Pos
	Value Expr
}

// ExprStmt is an expression evaluated for its effect
type ExprStmt struct {
	Pos
	Value Expr
}

type Break struct{ Pos }
type Continue struct{ Pos }
type Pass struct{ Pos }

func (*Assign) Kind() NodeKind      { return KindAssign }
func (*AugAssign) Kind() NodeKind   { return KindAugAssign }
func (*If) Kind() NodeKind          { return KindIf }
func (*While) Kind() NodeKind       { return KindWhile }
func (*For) Kind() NodeKind         { return KindFor }
func (*FunctionDef) Kind() NodeKind { return KindFunctionDef }
func (*ClassDef) Kind() NodeKind    { return KindClassDef }
func (*Return) Kind() NodeKind      { return KindReturn }
func (*ExprStmt) Kind() NodeKind    { return KindExpr }
func (*Break) Kind() NodeKind       { return KindBreak }
func (*Continue) Kind() NodeKind    { return KindContinue }
func (*Pass) Kind() NodeKind        { return KindPass }

func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions

type Name struct {
	Pos
	ID string
}

type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstFloat
	ConstStr
	ConstBool
)

type Constant struct {
	Pos
	Type  ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// FStringPart is either literal text or an embedded expression
type FStringPart struct {
	Literal string
	Expr    Expr
	Spec    string
}

type FString struct {
	Pos
	Parts []FStringPart
}

type List struct {
	Pos
	Elts []Expr
}

type Tuple struct {
	Pos
	Elts []Expr
}

type Dict struct {
	Pos
	Keys   []Expr
	Values []Expr
}

// Subscript is `value[index]`; Index is a *Slice for `value[a:b]`
type Subscript struct {
	Pos
	Value Expr
	Index Expr
}

// Slice bounds may be nil
type Slice struct {
	Pos
	Lower Expr
	Upper Expr
	Step  Expr
}

type Attribute struct {
	Pos
	Value Expr
	Attr  string
}

type Keyword struct {
	Name  string
	Value Expr
}

type Call struct {
	Pos
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

type BinOp struct {
	Pos
	Left  Expr
	Op    BinaryOp
	Right Expr
}

type UnaryOp struct {
	Pos
	Op      UnaryOperator
	Operand Expr
}

// Compare is a comparison chain `left op0 c0 op1 c1 ...`
type Compare struct {
	Pos
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

type BoolOp struct {
	Pos
	Op     BoolOperator
	Values []Expr
}

func (*Name) Kind() NodeKind      { return KindName }
func (*Constant) Kind() NodeKind  { return KindConstant }
func (*FString) Kind() NodeKind   { return KindFString }
func (*List) Kind() NodeKind      { return KindList }
func (*Tuple) Kind() NodeKind     { return KindTuple }
func (*Dict) Kind() NodeKind      { return KindDict }
func (*Subscript) Kind() NodeKind { return KindSubscript }
func (*Slice) Kind() NodeKind     { return KindSlice }
func (*Attribute) Kind() NodeKind { return KindAttribute }
func (*Call) Kind() NodeKind      { return KindCall }
func (*BinOp) Kind() NodeKind     { return KindBinOp }
func (*UnaryOp) Kind() NodeKind   { return KindUnaryOp }
func (*Compare) Kind() NodeKind   { return KindCompare }
func (*BoolOp) Kind() NodeKind    { return KindBoolOp }

func (*Name) exprNode()      {}
func (*Constant) exprNode()  {}
func (*FString) exprNode()   {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Dict) exprNode()      {}
func (*Subscript) exprNode() {}
func (*Slice) exprNode()     {}
func (*Attribute) exprNode() {}
func (*Call) exprNode()      {}
func (*BinOp) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*Compare) exprNode()   {}
func (*BoolOp) exprNode()    {}
