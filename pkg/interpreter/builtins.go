package interpreter

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"stepviz/pkg/ast"
)

// maxRangeLength bounds the list range() materialises
const maxRangeLength = 10_000_000

func (i *Interpreter) installBuiltins() {
	builtins := map[string]BuiltinFunc{
		"len":       builtinLen,
		"str":       builtinStr,
		"int":       builtinInt,
		"float":     builtinFloat,
		"bool":      builtinBool,
		"list":      builtinList,
		"dict":      builtinDict,
		"range":     builtinRange,
		"print":     builtinPrint,
		"abs":       builtinAbs,
		"max":       builtinMax,
		"min":       builtinMin,
		"sum":       builtinSum,
		"sorted":    builtinSorted,
		"round":     builtinRound,
		"enumerate": builtinEnumerate,
		"zip":       builtinZip,
	}
	for _, name := range slices.Sorted(maps.Keys(builtins)) {
		i.builtins.Set(name, Value{Kind: KindBuiltin, Builtin: &Builtin{Name: name, Fn: builtins[name]}})
	}
}

// arity checks the positional argument count and rejects keyword arguments
// other than the allowed ones
func (i *Interpreter) arity(name string, args []Value, kwargs []Kwarg, lo, hi int, allowed ...string) error {
	for _, kw := range kwargs {
		if !slices.Contains(allowed, kw.Name) {
			return i.errorf(ArgumentError, "%s() got an unexpected keyword argument '%s'", name, kw.Name)
		}
	}
	switch {
	case lo == hi && len(args) != lo:
		return i.errorf(ArgumentError, "%s() takes exactly %d argument%s (%d given)", name, lo, plural(lo), len(args))
	case len(args) < lo:
		return i.errorf(ArgumentError, "%s() takes at least %d argument%s (%d given)", name, lo, plural(lo), len(args))
	case hi >= 0 && len(args) > hi:
		return i.errorf(ArgumentError, "%s() takes at most %d argument%s (%d given)", name, hi, plural(hi), len(args))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// kwarg returns the named keyword argument or def
func kwarg(kwargs []Kwarg, name string, def Value) Value {
	for _, kw := range kwargs {
		if kw.Name == name {
			return kw.Value
		}
	}
	return def
}

func builtinLen(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("len", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	switch v := args[0]; v.Kind {
	case KindString:
		return NewInt(int64(len([]rune(v.Str)))), nil
	case KindList:
		return NewInt(int64(len(v.List.Items))), nil
	case KindMap:
		return NewInt(int64(v.Map.Len())), nil
	}
	return Value{}, i.errorf(TypeMismatch, "object of type '%s' has no len()", args[0].TypeName())
}

func builtinStr(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("str", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewString(""), nil
	}
	return NewString(i.str(args[0])), nil
}

func builtinInt(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("int", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewInt(0), nil
	}
	switch v := args[0]; v.Kind {
	case KindInt, KindBool:
		n, _ := v.AsInt64()
		return NewInt(n), nil
	case KindFloat:
		if math.IsInf(v.F64, 0) || math.IsNaN(v.F64) {
			return Value{}, i.errorf(ArgumentError, "cannot convert float %s to integer", i.str(v))
		}
		return NewInt(int64(v.F64)), nil
	case KindString:
		n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(v.Str), "_", ""), 10, 64)
		if err != nil {
			return Value{}, i.errorf(ArgumentError, "invalid literal for int() with base 10: %s", i.repr(v))
		}
		return NewInt(n), nil
	}
	return Value{}, i.errorf(TypeMismatch, "int() argument must be a string or a number, not '%s'", args[0].TypeName())
}

func builtinFloat(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("float", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewFloat(0), nil
	}
	switch v := args[0]; v.Kind {
	case KindInt, KindBool, KindFloat:
		f, _ := v.AsFloat64()
		return NewFloat(f), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return Value{}, i.errorf(ArgumentError, "could not convert string to float: %s", i.repr(v))
		}
		return NewFloat(f), nil
	}
	return Value{}, i.errorf(TypeMismatch, "float() argument must be a string or a number, not '%s'", args[0].TypeName())
}

func builtinBool(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("bool", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewBool(false), nil
	}
	return NewBool(args[0].Truthy()), nil
}

func builtinList(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("list", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewList(), nil
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	return NewList(items...), nil
}

func builtinDict(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) > 1 {
		return Value{}, i.errorf(ArgumentError, "dict expected at most 1 argument, got %d", len(args))
	}
	m := NewMap()
	if len(args) == 1 {
		if err := i.mergeInto(m.Map, args[0]); err != nil {
			return Value{}, err
		}
	}
	for _, kw := range kwargs {
		m.Map.Set(NewString(kw.Name), kw.Value)
	}
	return m, nil
}

// mergeInto copies a dict, or a sequence of key/value pairs, into m
func (i *Interpreter) mergeInto(m *Map, src Value) error {
	if src.Kind == KindMap {
		src.Map.Each(func(k, v Value) bool {
			m.Set(k, v)
			return true
		})
		return nil
	}
	pairs, err := i.iterate(src)
	if err != nil {
		return err
	}
	for idx, pair := range pairs {
		kv, err := i.iterate(pair)
		if err != nil || len(kv) != 2 {
			return i.errorf(TypeMismatch, "dictionary update sequence element #%d has the wrong shape", idx)
		}
		if !m.Set(kv[0], kv[1]) {
			return i.errorf(TypeMismatch, "unhashable type: '%s'", kv[0].TypeName())
		}
	}
	return nil
}

func builtinRange(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("range", args, kwargs, 1, 3); err != nil {
		return Value{}, err
	}
	bounds := make([]int64, len(args))
	for idx, a := range args {
		if a.Kind != KindInt && a.Kind != KindBool {
			return Value{}, i.errorf(TypeMismatch, "'%s' object cannot be interpreted as an integer", a.TypeName())
		}
		bounds[idx], _ = a.AsInt64()
	}

	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	if step == 0 {
		return Value{}, i.errorf(ArgumentError, "range() arg 3 must not be zero")
	}

	var n int64
	switch {
	case step > 0 && stop > start:
		n = (stop - start + step - 1) / step
	case step < 0 && stop < start:
		n = (start - stop - step - 1) / -step
	}
	if n > maxRangeLength {
		return Value{}, i.errorf(ArgumentError, "range() of %d items is too large", n)
	}

	items := make([]Value, n)
	for idx := range items {
		items[idx] = NewInt(start + int64(idx)*step)
	}
	return NewList(items...), nil
}

// builtinPrint buffers the printed line and echoes it to the interpreter's writer
func builtinPrint(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("print", args, kwargs, 0, -1, "sep", "end"); err != nil {
		return Value{}, err
	}
	sep, end := kwarg(kwargs, "sep", NewString(" ")), kwarg(kwargs, "end", NewString("\n"))
	if sep.Kind != KindString && sep.Kind != KindNone {
		return Value{}, i.errorf(TypeMismatch, "sep must be None or a string, not %s", sep.TypeName())
	}
	if end.Kind != KindString && end.Kind != KindNone {
		return Value{}, i.errorf(TypeMismatch, "end must be None or a string, not %s", end.TypeName())
	}
	if sep.Kind == KindNone {
		sep = NewString(" ")
	}
	if end.Kind == KindNone {
		end = NewString("\n")
	}

	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = i.str(a)
	}
	text := strings.Join(parts, sep.Str)

	i.output = append(i.output, text)
	log.Debug("print", "line", i.line, "text", text)
	if i.out != nil {
		fmt.Fprint(i.out, text+end.Str)
	}
	return None, nil
}

func builtinAbs(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("abs", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	switch v := args[0]; v.Kind {
	case KindInt, KindBool:
		n, _ := v.AsInt64()
		if n == math.MinInt64 {
			return Value{}, i.errorf(OverflowError, "integer result of abs() too large")
		}
		if n < 0 {
			n = -n
		}
		return NewInt(n), nil
	case KindFloat:
		return NewFloat(math.Abs(v.F64)), nil
	}
	return Value{}, i.errorf(TypeMismatch, "bad operand type for abs(): '%s'", args[0].TypeName())
}

func builtinMax(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	return i.extreme("max", args, kwargs, 1)
}

func builtinMin(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	return i.extreme("min", args, kwargs, -1)
}

// extreme implements max (want 1) and min (want -1) over one iterable or several arguments
func (i *Interpreter) extreme(name string, args []Value, kwargs []Kwarg, want int) (Value, error) {
	if err := i.arity(name, args, kwargs, 1, -1, "default"); err != nil {
		return Value{}, err
	}
	items := args
	if len(args) == 1 {
		var err error
		if items, err = i.iterate(args[0]); err != nil {
			return Value{}, err
		}
	}
	if len(items) == 0 {
		if def := kwarg(kwargs, "default", Value{Kind: -1}); def.Kind != -1 {
			return def, nil
		}
		return Value{}, i.errorf(ArgumentError, "%s() arg is an empty sequence", name)
	}

	best := items[0]
	for _, v := range items[1:] {
		c, ok := order(v, best)
		if !ok {
			return Value{}, i.errorf(TypeMismatch, "'%s' not supported between instances of '%s' and '%s'", map[int]string{1: ">", -1: "<"}[want], v.TypeName(), best.TypeName())
		}
		if c == want {
			best = v
		}
	}
	return best, nil
}

func builtinSum(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("sum", args, kwargs, 1, 2, "start"); err != nil {
		return Value{}, err
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	total := kwarg(kwargs, "start", NewInt(0))
	if len(args) == 2 {
		total = args[1]
	}
	if total.Kind == KindString {
		return Value{}, i.errorf(TypeMismatch, "sum() can't sum strings [use ''.join(seq) instead]")
	}
	for _, v := range items {
		if total, err = i.binary(ast.Add, total, v); err != nil {
			return Value{}, err
		}
	}
	return total, nil
}

func builtinSorted(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("sorted", args, kwargs, 1, 1, "reverse"); err != nil {
		return Value{}, err
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	if err := i.sortValues(items, kwarg(kwargs, "reverse", NewBool(false)).Truthy()); err != nil {
		return Value{}, err
	}
	return NewList(items...), nil
}

// sortValues sorts in place, stably, failing on values without an ordering
func (i *Interpreter) sortValues(items []Value, reverse bool) error {
	var failed error
	slices.SortStableFunc(items, func(a, b Value) int {
		c, ok := order(a, b)
		if !ok && failed == nil {
			failed = i.errorf(TypeMismatch, "'<' not supported between instances of '%s' and '%s'", a.TypeName(), b.TypeName())
		}
		if reverse {
			return -c
		}
		return c
	})
	return failed
}

func builtinRound(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("round", args, kwargs, 1, 2, "ndigits"); err != nil {
		return Value{}, err
	}
	x := args[0]
	if !x.IsNumber() {
		return Value{}, i.errorf(TypeMismatch, "type %s doesn't define __round__ method", x.TypeName())
	}
	digits := kwarg(kwargs, "ndigits", None)
	if len(args) == 2 {
		digits = args[1]
	}

	if digits.Kind == KindNone {
		if x.Kind != KindFloat {
			n, _ := x.AsInt64()
			return NewInt(n), nil
		}
		if math.IsInf(x.F64, 0) || math.IsNaN(x.F64) {
			return Value{}, i.errorf(ArgumentError, "cannot convert float %s to integer", i.str(x))
		}
		return NewInt(int64(math.RoundToEven(x.F64))), nil
	}
	if digits.Kind != KindInt && digits.Kind != KindBool {
		return Value{}, i.errorf(TypeMismatch, "'%s' object cannot be interpreted as an integer", digits.TypeName())
	}
	nd, _ := digits.AsInt64()
	if x.Kind != KindFloat {
		if nd >= 0 {
			return x, nil
		}
		n, _ := x.AsInt64()
		p := int64(math.Pow10(int(-nd)))
		return NewInt(int64(math.RoundToEven(float64(n)/float64(p))) * p), nil
	}
	p := math.Pow10(int(nd))
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(math.RoundToEven(x.F64*p)/p, 'f', max(int(nd), 0), 64), 64)
	if err != nil {
		return NewFloat(math.RoundToEven(x.F64*p) / p), nil
	}
	return NewFloat(rounded), nil
}

func builtinEnumerate(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("enumerate", args, kwargs, 1, 2, "start"); err != nil {
		return Value{}, err
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	start := kwarg(kwargs, "start", NewInt(0))
	if len(args) == 2 {
		start = args[1]
	}
	if start.Kind != KindInt && start.Kind != KindBool {
		return Value{}, i.errorf(TypeMismatch, "'%s' object cannot be interpreted as an integer", start.TypeName())
	}
	n, _ := start.AsInt64()

	pairs := make([]Value, len(items))
	for idx, item := range items {
		pairs[idx] = NewList(NewInt(n+int64(idx)), item)
	}
	return NewList(pairs...), nil
}

func builtinZip(i *Interpreter, _ Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("zip", args, kwargs, 0, -1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return NewList(), nil
	}
	columns := make([][]Value, len(args))
	shortest := math.MaxInt
	for idx, a := range args {
		items, err := i.iterate(a)
		if err != nil {
			return Value{}, err
		}
		columns[idx] = items
		shortest = min(shortest, len(items))
	}

	rows := make([]Value, shortest)
	for r := range rows {
		row := make([]Value, len(columns))
		for c := range columns {
			row[c] = columns[c][r]
		}
		rows[r] = NewList(row...)
	}
	return NewList(rows...), nil
}
