package ast

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mult
	Div
	FloorDiv
	Mod
	Pow
)

var binaryOpSymbols = [...]string{Add: "+", Sub: "-", Mult: "*", Div: "/", FloorDiv: "//", Mod: "%", Pow: "**"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

type UnaryOperator int

const (
	UAdd UnaryOperator = iota
	USub
	Not
)

func (op UnaryOperator) String() string {
	switch op {
	case UAdd:
		return "+"
	case USub:
		return "-"
	case Not:
		return "not "
	}
	return "?"
}

type CmpOp int

const (
	Eq CmpOp = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOpSymbols = [...]string{
	Eq: "==", NotEq: "!=", Lt: "<", LtE: "<=", Gt: ">", GtE: ">=",
	Is: "is", IsNot: "is not", In: "in", NotIn: "not in",
}

func (op CmpOp) String() string {
	if int(op) < len(cmpOpSymbols) {
		return cmpOpSymbols[op]
	}
	return "?"
}

type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

func (op BoolOperator) String() string {
	if op == And {
		return "and"
	}
	return "or"
}
