package interpreter

import (
	"fmt"
	"math"

	"stepviz/pkg/ast"
)

type ValueKind int

const (
	KindNone ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindList
	KindMap
	KindFunction
	KindClass
	KindObject
	KindBuiltin
)

var kindNames = [...]string{
	KindNone:     "NoneType",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindString:   "str",
	KindList:     "list",
	KindMap:      "dict",
	KindFunction: "function",
	KindClass:    "type",
	KindObject:   "object",
	KindBuiltin:  "builtin_function_or_method",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value represents a dynamically-typed value in the interpreter. The zero Value is None.
// Lists, maps, objects and classes are shared by reference.
type Value struct {
	Kind    ValueKind
	I64     int64
	F64     float64
	Bool    bool
	Str     string
	List    *List
	Map     *Map
	Func    *Function
	Class   *Class
	Object  *Object
	Builtin *Builtin
}

// None is the None value
var None = Value{}

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, I64: i}
}

// NewFloat creates a new float Value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewList creates a list holding items; the slice is not copied.
func NewList(items ...Value) Value {
	return Value{Kind: KindList, List: &List{Items: items}}
}

// NewMap creates an empty dict.
func NewMap() Value {
	return Value{Kind: KindMap, Map: newMap()}
}

// TypeName is the name shown in error messages and variable views
func (v Value) TypeName() string {
	switch v.Kind {
	case KindObject:
		return v.Object.Class.Name
	case KindBuiltin:
		if v.Builtin.Self != nil {
			return "method"
		}
	}
	return v.Kind.String()
}

// IsNumber reports whether v takes part in arithmetic (bools count as ints)
func (v Value) IsNumber() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindBool
}

// IsCallable reports whether v can be called
func (v Value) IsCallable() bool {
	return v.Kind == KindFunction || v.Kind == KindClass || v.Kind == KindBuiltin
}

// AsFloat64 converts the value to float64 if possible.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F64, nil
	case KindInt:
		return float64(v.I64), nil
	case KindBool:
		if v.Bool {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %v to float", v.Kind)
	}
}

// AsInt64 converts the value to int64 if possible. Floats are truncated.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.I64, nil
	case KindFloat:
		return int64(v.F64), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %v to int", v.Kind)
	}
}

// Truthy follows the language's truth rules: empty containers, zero and None are false
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.I64 != 0
	case KindFloat:
		return v.F64 != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List.Items) > 0
	case KindMap:
		return v.Map.Len() > 0
	default:
		return true
	}
}

// List is a mutable sequence
type List struct {
	Items []Value
}

// Function is a user-defined function or a method bound to Self
type Function struct {
	Name     string
	Params   []ast.Param
	Defaults []Value
	Body     []ast.Stmt
	Closure  *Scope
	Self     *Object
}

// bind returns a copy of fn bound to obj
func (fn *Function) bind(obj *Object) *Function {
	bound := *fn
	bound.Self = obj
	return &bound
}

type Class struct {
	Name  string
	Bases []*Class
	Attrs *Scope
}

// lookup finds an attribute on the class or, depth first, on its bases
func (c *Class) lookup(name string) (Value, bool) {
	if v, ok := c.Attrs.Get(name); ok {
		return v, true
	}
	for _, base := range c.Bases {
		if v, ok := base.lookup(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// Object is an attribute bag tied to its class
type Object struct {
	Class *Class
	Attrs *Scope
}

// BuiltinFunc implements a builtin. self is None for plain functions.
type BuiltinFunc func(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error)

type Builtin struct {
	Name string
	Self *Value
	Fn   BuiltinFunc
}

// Kwarg is one keyword argument of a call, kept in call order
type Kwarg struct {
	Name  string
	Value Value
}

// mapKey is the hashable form of a dict key. Bools and integral floats collapse
// onto ints so that 1, 1.0 and True address the same entry.
type mapKey struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	ref  any
}

func keyOf(v Value) (mapKey, bool) {
	switch v.Kind {
	case KindNone:
		return mapKey{kind: KindNone}, true
	case KindInt:
		return mapKey{kind: KindInt, i: v.I64}, true
	case KindBool:
		if v.Bool {
			return mapKey{kind: KindInt, i: 1}, true
		}
		return mapKey{kind: KindInt}, true
	case KindFloat:
		if v.F64 == math.Trunc(v.F64) && math.Abs(v.F64) < 1<<63 {
			return mapKey{kind: KindInt, i: int64(v.F64)}, true
		}
		return mapKey{kind: KindFloat, f: v.F64}, true
	case KindString:
		return mapKey{kind: KindString, s: v.Str}, true
	case KindObject:
		return mapKey{kind: KindObject, ref: v.Object}, true
	case KindClass:
		return mapKey{kind: KindClass, ref: v.Class}, true
	case KindFunction:
		return mapKey{kind: KindFunction, ref: v.Func}, true
	}
	return mapKey{}, false
}

// Map is an insertion-ordered dict with unique keys
type Map struct {
	keys   []Value
	values []Value
	index  map[mapKey]int
}

func newMap() *Map {
	return &Map{index: make(map[mapKey]int)}
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Get returns the value stored under k. ok is false for unhashable keys too;
// hashable reports which case applies.
func (m *Map) Get(k Value) (v Value, ok bool, hashable bool) {
	key, hashable := keyOf(k)
	if !hashable {
		return Value{}, false, false
	}
	idx, ok := m.index[key]
	if !ok {
		return Value{}, false, true
	}
	return m.values[idx], true, true
}

// Set stores v under k, keeping the original position of an existing key
func (m *Map) Set(k, v Value) bool {
	key, hashable := keyOf(k)
	if !hashable {
		return false
	}
	if idx, ok := m.index[key]; ok {
		m.values[idx] = v
		return true
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	return true
}

// Delete removes k and returns its value
func (m *Map) Delete(k Value) (Value, bool) {
	key, hashable := keyOf(k)
	if !hashable {
		return Value{}, false
	}
	idx, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	v := m.values[idx]
	m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	m.values = append(m.values[:idx], m.values[idx+1:]...)
	delete(m.index, key)
	for j := idx; j < len(m.keys); j++ {
		kk, _ := keyOf(m.keys[j])
		m.index[kk] = j
	}
	return v, true
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []Value {
	return append([]Value(nil), m.keys...)
}

// Values returns the values in insertion order
func (m *Map) Values() []Value {
	return append([]Value(nil), m.values...)
}

// Each visits entries in insertion order until fn returns false
func (m *Map) Each(fn func(k, v Value) bool) {
	for idx := range m.keys {
		if !fn(m.keys[idx], m.values[idx]) {
			return
		}
	}
}

// Copy returns a shallow copy
func (m *Map) Copy() *Map {
	out := newMap()
	m.Each(func(k, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}
