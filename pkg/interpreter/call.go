package interpreter

// call invokes any callable value
func (i *Interpreter) call(fn Value, args []Value, kwargs []Kwarg) (Value, error) {
	switch fn.Kind {
	case KindBuiltin:
		self := None
		if fn.Builtin.Self != nil {
			self = *fn.Builtin.Self
		}
		return fn.Builtin.Fn(i, self, args, kwargs)
	case KindFunction:
		return i.callFunction(fn.Func, args, kwargs)
	case KindClass:
		return i.instantiate(fn.Class, args, kwargs)
	}
	return Value{}, i.errorf(TypeMismatch, "'%s' object is not callable", fn.TypeName())
}

// instantiate allocates an object and runs __init__ when the class has one
func (i *Interpreter) instantiate(class *Class, args []Value, kwargs []Kwarg) (Value, error) {
	obj := &Object{Class: class, Attrs: NewScope()}
	self := Value{Kind: KindObject, Object: obj}

	init, ok := class.lookup("__init__")
	if !ok {
		return self, nil
	}
	if init.Kind != KindFunction {
		return Value{}, i.errorf(TypeMismatch, "'%s' object is not callable", init.TypeName())
	}
	if _, err := i.callFunction(init.Func.bind(obj), args, kwargs); err != nil {
		return Value{}, err
	}
	return self, nil
}

// callFunction binds arguments into a fresh frame and runs the body. Extra
// positional arguments are dropped and every keyword argument is bound by name,
// overriding a positional one. Parameters left without a value and without a
// default stay unbound.
func (i *Interpreter) callFunction(fn *Function, args []Value, kwargs []Kwarg) (Value, error) {
	if i.frames.Size() >= maxCallDepth {
		return Value{}, i.errorf(RecursionError, "maximum recursion depth exceeded")
	}

	params := fn.Params
	defaults := fn.Defaults
	scope := NewScope()
	if fn.Self != nil && len(params) > 0 {
		scope.Set(params[0].Name, Value{Kind: KindObject, Object: fn.Self})
		params = params[1:]
		defaults = defaults[1:]
	}

	for idx, p := range params {
		switch {
		case idx < len(args):
			scope.Set(p.Name, args[idx])
		case p.Default != nil:
			scope.Set(p.Name, defaults[idx])
		}
	}
	for _, kw := range kwargs {
		scope.Set(kw.Name, kw.Value)
	}

	line, active := i.line, i.active
	i.active = nil
	i.frames.Push(&CallFrame{Label: fn.Name + "()", Scope: scope, Function: fn})
	defer func() {
		i.frames.Pop()
		i.line, i.active = line, active
	}()

	f, err := i.execBlock(fn.Body)
	if err != nil {
		return Value{}, err
	}

	result := None
	if f == flowReturn {
		result = i.returnValue
	}
	i.returnValue = None
	return result, nil
}
