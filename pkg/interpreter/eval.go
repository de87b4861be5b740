package interpreter

import (
	"strings"

	"stepviz/pkg/ast"
)

func constant(c *ast.Constant) Value {
	switch c.Type {
	case ast.ConstInt:
		return NewInt(c.Int)
	case ast.ConstFloat:
		return NewFloat(c.Float)
	case ast.ConstStr:
		return NewString(c.Str)
	case ast.ConstBool:
		return NewBool(c.Bool)
	}
	return None
}

// eval evaluates an expression
func (i *Interpreter) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Name:
		v, ok := i.lookup(e.ID)
		if !ok {
			return Value{}, i.errorf(NameNotFound, "name '%s' is not defined", e.ID)
		}
		return v, nil
	case *ast.Constant:
		return constant(e), nil
	case *ast.FString:
		return i.evalFString(e)
	case *ast.List:
		items, err := i.evalAll(e.Elts)
		if err != nil {
			return Value{}, err
		}
		return NewList(items...), nil
	case *ast.Tuple:
		items, err := i.evalAll(e.Elts)
		if err != nil {
			return Value{}, err
		}
		return NewList(items...), nil
	case *ast.Dict:
		return i.evalDict(e)
	case *ast.Subscript:
		return i.evalSubscript(e)
	case *ast.Slice:
		return Value{}, i.errorf(TypeMismatch, "slice outside of a subscript")
	case *ast.Attribute:
		obj, err := i.eval(e.Value)
		if err != nil {
			return Value{}, err
		}
		return i.getAttr(obj, e.Attr)
	case *ast.Call:
		return i.evalCall(e)
	case *ast.BinOp:
		left, err := i.eval(e.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := i.eval(e.Right)
		if err != nil {
			return Value{}, err
		}
		return i.binary(e.Op, left, right)
	case *ast.UnaryOp:
		v, err := i.eval(e.Operand)
		if err != nil {
			return Value{}, err
		}
		return i.unary(e.Op, v)
	case *ast.Compare:
		return i.evalCompare(e)
	case *ast.BoolOp:
		return i.evalBoolOp(e)
	}
	return Value{}, i.errorf(UnsupportedOperator, "unsupported expression %s", expr.Kind())
}

func (i *Interpreter) evalAll(exprs []ast.Expr) ([]Value, error) {
	values := make([]Value, 0, len(exprs))
	for _, e := range exprs {
		v, err := i.eval(e)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (i *Interpreter) evalDict(e *ast.Dict) (Value, error) {
	m := NewMap()
	for idx := range e.Keys {
		k, err := i.eval(e.Keys[idx])
		if err != nil {
			return Value{}, err
		}
		v, err := i.eval(e.Values[idx])
		if err != nil {
			return Value{}, err
		}
		if !m.Map.Set(k, v) {
			return Value{}, i.errorf(TypeMismatch, "unhashable type: '%s'", k.TypeName())
		}
	}
	return m, nil
}

func (i *Interpreter) evalSubscript(e *ast.Subscript) (Value, error) {
	container, err := i.eval(e.Value)
	if err != nil {
		return Value{}, err
	}

	if s, ok := e.Index.(*ast.Slice); ok {
		var bounds [3]Value
		for idx, b := range []ast.Expr{s.Lower, s.Upper, s.Step} {
			if b == nil {
				continue
			}
			if bounds[idx], err = i.eval(b); err != nil {
				return Value{}, err
			}
		}
		return i.slice(container, bounds[0], bounds[1], bounds[2])
	}

	key, err := i.eval(e.Index)
	if err != nil {
		return Value{}, err
	}
	return i.getItem(container, key)
}

func (i *Interpreter) evalCompare(e *ast.Compare) (Value, error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return Value{}, err
	}
	for idx, op := range e.Ops {
		right, err := i.eval(e.Comparators[idx])
		if err != nil {
			return Value{}, err
		}
		ok, err := i.compare(op, left, right)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NewBool(false), nil
		}
		left = right
	}
	return NewBool(true), nil
}

// evalBoolOp returns the operand that decided the result
func (i *Interpreter) evalBoolOp(e *ast.BoolOp) (Value, error) {
	var v Value
	for _, operand := range e.Values {
		var err error
		if v, err = i.eval(operand); err != nil {
			return Value{}, err
		}
		if v.Truthy() == (e.Op == ast.Or) {
			return v, nil
		}
	}
	return v, nil
}

func (i *Interpreter) evalFString(e *ast.FString) (Value, error) {
	var b strings.Builder
	for _, part := range e.Parts {
		if part.Expr == nil {
			b.WriteString(part.Literal)
			continue
		}
		v, err := i.eval(part.Expr)
		if err != nil {
			return Value{}, err
		}
		text, err := i.format(v, part.Spec)
		if err != nil {
			return Value{}, err
		}
		b.WriteString(text)
	}
	return NewString(b.String()), nil
}

// evalCall is the instrumentation point for calls. Container mutations are
// detected before the call and recorded once it has returned.
func (i *Interpreter) evalCall(call *ast.Call) (Value, error) {
	if err := i.instrument(call); err != nil {
		return Value{}, err
	}
	anim := i.detectCallAnimation(call)

	fn, err := i.eval(call.Func)
	if err != nil {
		return Value{}, err
	}
	args, err := i.evalAll(call.Args)
	if err != nil {
		return Value{}, err
	}
	kwargs := make([]Kwarg, 0, len(call.Keywords))
	for _, kw := range call.Keywords {
		v, err := i.eval(kw.Value)
		if err != nil {
			return Value{}, err
		}
		kwargs = append(kwargs, Kwarg{Name: kw.Name, Value: v})
	}

	result, err := i.call(fn, args, kwargs)
	if err != nil {
		return Value{}, err
	}

	i.completeAnimation(anim)
	return result, nil
}
