package interpreter

import (
	"math"
	"strings"

	"stepviz/pkg/ast"
)

// binary applies an arithmetic operator with the language's numeric and sequence rules
func (i *Interpreter) binary(op ast.BinaryOp, a, b Value) (Value, error) {
	if a.IsNumber() && b.IsNumber() {
		if a.Kind == KindFloat || b.Kind == KindFloat || op == ast.Div {
			return i.floatOp(op, a, b)
		}
		return i.intOp(op, a, b)
	}

	switch op {
	case ast.Add:
		switch {
		case a.Kind == KindString && b.Kind == KindString:
			return NewString(a.Str + b.Str), nil
		case a.Kind == KindList && b.Kind == KindList:
			items := make([]Value, 0, len(a.List.Items)+len(b.List.Items))
			items = append(items, a.List.Items...)
			items = append(items, b.List.Items...)
			return NewList(items...), nil
		}
	case ast.Mult:
		if seq, n, ok := repetition(a, b); ok {
			return i.repeat(seq, n)
		}
	}
	return Value{}, i.errorf(UnsupportedOperator, "unsupported operand type(s) for %s: '%s' and '%s'", op, a.TypeName(), b.TypeName())
}

// repetition matches `seq * n` in either order
func repetition(a, b Value) (Value, int64, bool) {
	isInt := func(v Value) bool { return v.Kind == KindInt || v.Kind == KindBool }
	isSeq := func(v Value) bool { return v.Kind == KindString || v.Kind == KindList }
	switch {
	case isSeq(a) && isInt(b):
		n, _ := b.AsInt64()
		return a, n, true
	case isInt(a) && isSeq(b):
		n, _ := a.AsInt64()
		return b, n, true
	}
	return Value{}, 0, false
}

// maxSequenceLength bounds the length of a repeated string or list
const maxSequenceLength = maxRangeLength

func (i *Interpreter) repeat(seq Value, n int64) (Value, error) {
	if n < 0 {
		n = 0
	}
	size := int64(len(seq.Str))
	if seq.Kind == KindList {
		size = int64(len(seq.List.Items))
	}
	if size == 0 {
		n = 0
	} else if n > maxSequenceLength/size {
		return Value{}, i.errorf(OverflowError, "repeated %s would exceed %d items", seq.TypeName(), maxSequenceLength)
	}

	if seq.Kind == KindString {
		return NewString(strings.Repeat(seq.Str, int(n))), nil
	}
	items := make([]Value, 0, size*n)
	for range n {
		items = append(items, seq.List.Items...)
	}
	return NewList(items...), nil
}

// addInt, subInt and mulInt report false when the result does not fit in 64 bits
func addInt(x, y int64) (int64, bool) {
	s := x + y
	return s, (s > x) == (y > 0)
}

func subInt(x, y int64) (int64, bool) {
	d := x - y
	return d, (d < x) == (y > 0)
}

func mulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	p := x * y
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return p, false
	}
	return p, p/y == x
}

func (i *Interpreter) overflow(op ast.BinaryOp) error {
	return i.errorf(OverflowError, "integer result of %s too large", strings.TrimSpace(op.String()))
}

func (i *Interpreter) intOp(op ast.BinaryOp, a, b Value) (Value, error) {
	x, _ := a.AsInt64()
	y, _ := b.AsInt64()

	switch op {
	case ast.Add, ast.Sub, ast.Mult:
		var r int64
		var ok bool
		switch op {
		case ast.Add:
			r, ok = addInt(x, y)
		case ast.Sub:
			r, ok = subInt(x, y)
		default:
			r, ok = mulInt(x, y)
		}
		if !ok {
			return Value{}, i.overflow(op)
		}
		return NewInt(r), nil
	case ast.FloorDiv:
		if y == 0 {
			return Value{}, i.errorf(ZeroDivision, "integer division or modulo by zero")
		}
		if x == math.MinInt64 && y == -1 {
			return Value{}, i.overflow(op)
		}
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}
		return NewInt(q), nil
	case ast.Mod:
		if y == 0 {
			return Value{}, i.errorf(ZeroDivision, "integer modulo by zero")
		}
		r := x % y
		if r != 0 && ((r < 0) != (y < 0)) {
			r += y
		}
		return NewInt(r), nil
	case ast.Pow:
		if y < 0 {
			if x == 0 {
				return Value{}, i.errorf(ZeroDivision, "0.0 cannot be raised to a negative power")
			}
			return NewFloat(math.Pow(float64(x), float64(y))), nil
		}
		result, ok := int64(1), true
		for base := x; y > 0 && ok; y >>= 1 {
			if y&1 == 1 {
				result, ok = mulInt(result, base)
			}
			if y > 1 && ok {
				base, ok = mulInt(base, base)
			}
		}
		if !ok {
			return Value{}, i.overflow(op)
		}
		return NewInt(result), nil
	}
	return Value{}, i.errorf(UnsupportedOperator, "unsupported operator %s", op)
}

func (i *Interpreter) floatOp(op ast.BinaryOp, a, b Value) (Value, error) {
	x, _ := a.AsFloat64()
	y, _ := b.AsFloat64()

	switch op {
	case ast.Add:
		return NewFloat(x + y), nil
	case ast.Sub:
		return NewFloat(x - y), nil
	case ast.Mult:
		return NewFloat(x * y), nil
	case ast.Div:
		if y == 0 {
			return Value{}, i.errorf(ZeroDivision, "division by zero")
		}
		return NewFloat(x / y), nil
	case ast.FloorDiv:
		if y == 0 {
			return Value{}, i.errorf(ZeroDivision, "float floor division by zero")
		}
		return NewFloat(math.Floor(x / y)), nil
	case ast.Mod:
		if y == 0 {
			return Value{}, i.errorf(ZeroDivision, "float modulo by zero")
		}
		r := math.Mod(x, y)
		if r != 0 && ((r < 0) != (y < 0)) {
			r += y
		}
		return NewFloat(r), nil
	case ast.Pow:
		if x == 0 && y < 0 {
			return Value{}, i.errorf(ZeroDivision, "0.0 cannot be raised to a negative power")
		}
		return NewFloat(math.Pow(x, y)), nil
	}
	return Value{}, i.errorf(UnsupportedOperator, "unsupported operator %s", op)
}

func (i *Interpreter) unary(op ast.UnaryOperator, v Value) (Value, error) {
	switch op {
	case ast.Not:
		return NewBool(!v.Truthy()), nil
	case ast.UAdd, ast.USub:
		switch v.Kind {
		case KindInt, KindBool:
			n, _ := v.AsInt64()
			if op == ast.USub {
				if n == math.MinInt64 {
					return Value{}, i.errorf(OverflowError, "integer result of - too large")
				}
				n = -n
			}
			return NewInt(n), nil
		case KindFloat:
			if op == ast.USub {
				return NewFloat(-v.F64), nil
			}
			return v, nil
		}
	}
	return Value{}, i.errorf(UnsupportedOperator, "bad operand type for unary %s: '%s'", strings.TrimSpace(op.String()), v.TypeName())
}

// compare evaluates a single link of a comparison chain
func (i *Interpreter) compare(op ast.CmpOp, a, b Value) (bool, error) {
	switch op {
	case ast.Eq:
		return equal(a, b), nil
	case ast.NotEq:
		return !equal(a, b), nil
	case ast.Is:
		return identical(a, b), nil
	case ast.IsNot:
		return !identical(a, b), nil
	case ast.In, ast.NotIn:
		found, err := i.contains(b, a)
		if err != nil {
			return false, err
		}
		return found != (op == ast.NotIn), nil
	}

	c, ok := order(a, b)
	if !ok {
		return false, i.errorf(TypeMismatch, "'%s' not supported between instances of '%s' and '%s'", op, a.TypeName(), b.TypeName())
	}
	switch op {
	case ast.Lt:
		return c < 0, nil
	case ast.LtE:
		return c <= 0, nil
	case ast.Gt:
		return c > 0, nil
	case ast.GtE:
		return c >= 0, nil
	}
	return false, i.errorf(UnsupportedOperator, "unsupported comparison %s", op)
}

// order compares two values, reporting false when they have no ordering
func order(a, b Value) (int, bool) {
	switch {
	case a.IsNumber() && b.IsNumber():
		if a.Kind != KindFloat && b.Kind != KindFloat {
			x, _ := a.AsInt64()
			y, _ := b.AsInt64()
			return cmp3(x < y, x > y), true
		}
		x, _ := a.AsFloat64()
		y, _ := b.AsFloat64()
		return cmp3(x < y, x > y), true
	case a.Kind == KindString && b.Kind == KindString:
		return strings.Compare(a.Str, b.Str), true
	case a.Kind == KindList && b.Kind == KindList:
		for idx := 0; idx < len(a.List.Items) && idx < len(b.List.Items); idx++ {
			x, y := a.List.Items[idx], b.List.Items[idx]
			if equal(x, y) {
				continue
			}
			return order(x, y)
		}
		return cmp3(len(a.List.Items) < len(b.List.Items), len(a.List.Items) > len(b.List.Items)), true
	}
	return 0, false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// equal is value equality; containers compare element-wise
func equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.Kind != KindFloat && b.Kind != KindFloat {
			x, _ := a.AsInt64()
			y, _ := b.AsInt64()
			return x == y
		}
		x, _ := a.AsFloat64()
		y, _ := b.AsFloat64()
		return x == y
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindNone:
		return true
	case KindString:
		return a.Str == b.Str
	case KindList:
		if len(a.List.Items) != len(b.List.Items) {
			return false
		}
		for idx := range a.List.Items {
			if !equal(a.List.Items[idx], b.List.Items[idx]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.Map.Len() != b.Map.Len() {
			return false
		}
		same := true
		a.Map.Each(func(k, v Value) bool {
			other, ok, _ := b.Map.Get(k)
			same = ok && equal(v, other)
			return same
		})
		return same
	}
	return identical(a, b)
}

// identical reports whether a and b are the same object
func identical(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.I64 == b.I64
	case KindFloat:
		return a.F64 == b.F64
	case KindString:
		return a.Str == b.Str
	case KindList:
		return a.List == b.List
	case KindMap:
		return a.Map == b.Map
	case KindFunction:
		return a.Func == b.Func
	case KindClass:
		return a.Class == b.Class
	case KindObject:
		return a.Object == b.Object
	case KindBuiltin:
		return a.Builtin == b.Builtin
	}
	return false
}

// contains implements `item in container`
func (i *Interpreter) contains(container, item Value) (bool, error) {
	switch container.Kind {
	case KindString:
		if item.Kind != KindString {
			return false, i.errorf(TypeMismatch, "'in <string>' requires string as left operand, not %s", item.TypeName())
		}
		return strings.Contains(container.Str, item.Str), nil
	case KindList:
		for _, v := range container.List.Items {
			if equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case KindMap:
		_, ok, hashable := container.Map.Get(item)
		if !hashable {
			return false, i.errorf(TypeMismatch, "unhashable type: '%s'", item.TypeName())
		}
		return ok, nil
	}
	return false, i.errorf(TypeMismatch, "argument of type '%s' is not iterable", container.TypeName())
}

// iterate returns the items a for loop visits
func (i *Interpreter) iterate(v Value) ([]Value, error) {
	switch v.Kind {
	case KindList:
		return append([]Value(nil), v.List.Items...), nil
	case KindString:
		items := make([]Value, 0, len(v.Str))
		for _, r := range v.Str {
			items = append(items, NewString(string(r)))
		}
		return items, nil
	case KindMap:
		return v.Map.Keys(), nil
	}
	return nil, i.errorf(TypeMismatch, "'%s' object is not iterable", v.TypeName())
}

// index normalises a sequence index, counting negative indices from the end
func (i *Interpreter) index(key Value, n int, what string) (int, error) {
	if key.Kind != KindInt && key.Kind != KindBool {
		return 0, i.errorf(TypeMismatch, "%s indices must be integers, not %s", strings.Fields(what)[0], key.TypeName())
	}
	idx, _ := key.AsInt64()
	if idx < 0 {
		idx += int64(n)
	}
	if idx < 0 || idx >= int64(n) {
		return 0, i.errorf(IndexOutOfRange, "%s index out of range", what)
	}
	return int(idx), nil
}

func (i *Interpreter) getItem(container, key Value) (Value, error) {
	switch container.Kind {
	case KindList:
		idx, err := i.index(key, len(container.List.Items), "list")
		if err != nil {
			return Value{}, err
		}
		return container.List.Items[idx], nil
	case KindString:
		runes := []rune(container.Str)
		idx, err := i.index(key, len(runes), "string")
		if err != nil {
			return Value{}, err
		}
		return NewString(string(runes[idx])), nil
	case KindMap:
		v, ok, hashable := container.Map.Get(key)
		if !hashable {
			return Value{}, i.errorf(TypeMismatch, "unhashable type: '%s'", key.TypeName())
		}
		if !ok {
			return Value{}, i.errorf(KeyNotFound, "%s", i.repr(key))
		}
		return v, nil
	}
	return Value{}, i.errorf(TypeMismatch, "'%s' object is not subscriptable", container.TypeName())
}

// slice implements `seq[lower:upper:step]`; nil bounds are None
func (i *Interpreter) slice(container, lower, upper, step Value) (Value, error) {
	var n int
	switch container.Kind {
	case KindList:
		n = len(container.List.Items)
	case KindString:
		n = len([]rune(container.Str))
	default:
		return Value{}, i.errorf(TypeMismatch, "'%s' object is not subscriptable", container.TypeName())
	}

	bound := func(v Value, name string) (int64, bool, error) {
		if v.Kind == KindNone {
			return 0, false, nil
		}
		if v.Kind != KindInt && v.Kind != KindBool {
			return 0, false, i.errorf(TypeMismatch, "slice %s must be an integer or None, not %s", name, v.TypeName())
		}
		x, _ := v.AsInt64()
		return x, true, nil
	}

	st, ok, err := bound(step, "step")
	if err != nil {
		return Value{}, err
	}
	if !ok {
		st = 1
	}
	if st == 0 {
		return Value{}, i.errorf(ArgumentError, "slice step cannot be zero")
	}

	clamp := func(x int64, set bool, def int64) int64 {
		if !set {
			return def
		}
		if x < 0 {
			x += int64(n)
			if x < 0 {
				if st < 0 {
					return -1
				}
				return 0
			}
		}
		if x >= int64(n) {
			if st < 0 {
				return int64(n) - 1
			}
			return int64(n)
		}
		return x
	}

	lo, loSet, err := bound(lower, "indices")
	if err != nil {
		return Value{}, err
	}
	hi, hiSet, err := bound(upper, "indices")
	if err != nil {
		return Value{}, err
	}

	var start, stop int64
	if st > 0 {
		start, stop = clamp(lo, loSet, 0), clamp(hi, hiSet, int64(n))
	} else {
		start, stop = clamp(lo, loSet, int64(n)-1), clamp(hi, hiSet, -1)
	}

	var picked []int
	for x := start; (st > 0 && x < stop) || (st < 0 && x > stop); x += st {
		picked = append(picked, int(x))
	}

	if container.Kind == KindString {
		runes := []rune(container.Str)
		var b strings.Builder
		for _, x := range picked {
			b.WriteRune(runes[x])
		}
		return NewString(b.String()), nil
	}
	items := make([]Value, 0, len(picked))
	for _, x := range picked {
		items = append(items, container.List.Items[x])
	}
	return NewList(items...), nil
}
