package interpreter

import (
	"stepviz/pkg/analyzer"
	"stepviz/pkg/ast"
	"stepviz/pkg/stack"
)

// flow is the out-of-band signal a statement leaves for its enclosing block
type flow int

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
)

func (f flow) String() string {
	switch f {
	case flowBreak:
		return "break"
	case flowContinue:
		return "continue"
	case flowReturn:
		return "return"
	}
	return "normal"
}

// execBlock runs statements until one of them signals a non-normal flow
func (i *Interpreter) execBlock(body []ast.Stmt) (flow, error) {
	for _, stmt := range body {
		f, err := i.exec(stmt)
		if err != nil || f != flowNormal {
			return f, err
		}
	}
	return flowNormal, nil
}

func (i *Interpreter) exec(stmt ast.Stmt) (flow, error) {
	i.line = stmt.Line()
	if stmt.Kind().Trackable() {
		if err := i.instrument(stmt); err != nil {
			return flowNormal, err
		}
	}

	switch s := stmt.(type) {
	case *ast.Assign:
		return flowNormal, i.execAssign(s)
	case *ast.AugAssign:
		return flowNormal, i.execAugAssign(s)
	case *ast.If:
		return i.execIf(s)
	case *ast.While:
		return i.execWhile(s)
	case *ast.For:
		return i.execFor(s)
	case *ast.FunctionDef:
		return flowNormal, i.execFunctionDef(s)
	case *ast.ClassDef:
		return flowNormal, i.execClassDef(s)
	case *ast.Return:
		i.returnValue = None
		if s.Value != nil {
			v, err := i.eval(s.Value)
			if err != nil {
				return flowNormal, err
			}
			i.returnValue = v
		}
		return flowReturn, nil
	case *ast.ExprStmt:
		_, err := i.eval(s.Value)
		return flowNormal, err
	case *ast.Break:
		return flowBreak, nil
	case *ast.Continue:
		return flowContinue, nil
	case *ast.Pass:
		return flowNormal, nil
	}
	return flowNormal, i.errorf(UnsupportedOperator, "unsupported statement %s", stmt.Kind())
}

func (i *Interpreter) execAssign(s *ast.Assign) error {
	anim := i.detectAssignAnimation(s)

	v, err := i.eval(s.Value)
	if err != nil {
		return err
	}
	for _, target := range s.Targets {
		if err := i.assign(target, v); err != nil {
			return err
		}
	}

	i.completeAnimation(anim)
	return nil
}

// assign binds v to a name, subscript, attribute or unpacking target
func (i *Interpreter) assign(target ast.Expr, v Value) error {
	switch t := target.(type) {
	case *ast.Name:
		i.setVar(t.ID, v)
		return nil
	case *ast.Tuple:
		return i.unpack(t.Elts, v)
	case *ast.List:
		return i.unpack(t.Elts, v)
	case *ast.Subscript:
		container, err := i.eval(t.Value)
		if err != nil {
			return err
		}
		if _, ok := t.Index.(*ast.Slice); ok {
			return i.errorf(TypeMismatch, "slice assignment is not supported")
		}
		key, err := i.eval(t.Index)
		if err != nil {
			return err
		}
		return i.setItem(container, key, v)
	case *ast.Attribute:
		obj, err := i.eval(t.Value)
		if err != nil {
			return err
		}
		return i.setAttr(obj, t.Attr, v)
	}
	return i.errorf(TypeMismatch, "cannot assign to %s", target.Kind())
}

func (i *Interpreter) unpack(targets []ast.Expr, v Value) error {
	items, err := i.iterate(v)
	if err != nil {
		return i.errorf(TypeMismatch, "cannot unpack non-iterable %s object", v.TypeName())
	}
	if len(items) < len(targets) {
		return i.errorf(TypeMismatch, "not enough values to unpack (expected %d, got %d)", len(targets), len(items))
	}
	if len(items) > len(targets) {
		return i.errorf(TypeMismatch, "too many values to unpack (expected %d)", len(targets))
	}
	for idx, target := range targets {
		if err := i.assign(target, items[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) setItem(container, key, v Value) error {
	switch container.Kind {
	case KindList:
		idx, err := i.index(key, len(container.List.Items), "list assignment")
		if err != nil {
			return err
		}
		container.List.Items[idx] = v
		return nil
	case KindMap:
		if !container.Map.Set(key, v) {
			return i.errorf(TypeMismatch, "unhashable type: '%s'", key.TypeName())
		}
		return nil
	}
	return i.errorf(TypeMismatch, "'%s' object does not support item assignment", container.TypeName())
}

func (i *Interpreter) setAttr(obj Value, name string, v Value) error {
	switch obj.Kind {
	case KindObject:
		obj.Object.Attrs.Set(name, v)
		return nil
	case KindClass:
		obj.Class.Attrs.Set(name, v)
		return nil
	}
	return i.errorf(TypeMismatch, "'%s' object has no attribute '%s'", obj.TypeName(), name)
}

func (i *Interpreter) execAugAssign(s *ast.AugAssign) error {
	rhs, err := i.eval(s.Value)
	if err != nil {
		return err
	}

	// update computes the new value; list += extends in place
	update := func(current Value) (Value, error) {
		if s.Op == ast.Add && current.Kind == KindList {
			items, err := i.iterate(rhs)
			if err != nil {
				return Value{}, i.errorf(TypeMismatch, "'%s' object is not iterable", rhs.TypeName())
			}
			current.List.Items = append(current.List.Items, items...)
			return current, nil
		}
		return i.binary(s.Op, current, rhs)
	}

	switch t := s.Target.(type) {
	case *ast.Name:
		current, err := i.eval(t)
		if err != nil {
			return err
		}
		v, err := update(current)
		if err != nil {
			return err
		}
		i.setVar(t.ID, v)
		return nil
	case *ast.Subscript:
		container, err := i.eval(t.Value)
		if err != nil {
			return err
		}
		key, err := i.eval(t.Index)
		if err != nil {
			return err
		}
		current, err := i.getItem(container, key)
		if err != nil {
			return err
		}
		v, err := update(current)
		if err != nil {
			return err
		}
		return i.setItem(container, key, v)
	case *ast.Attribute:
		obj, err := i.eval(t.Value)
		if err != nil {
			return err
		}
		current, err := i.getAttr(obj, t.Attr)
		if err != nil {
			return err
		}
		v, err := update(current)
		if err != nil {
			return err
		}
		return i.setAttr(obj, t.Attr, v)
	}
	return i.errorf(TypeMismatch, "illegal target for augmented assignment")
}

func (i *Interpreter) execIf(s *ast.If) (flow, error) {
	test, err := i.eval(s.Test)
	if err != nil {
		return flowNormal, err
	}
	if test.Truthy() {
		return i.execBlock(s.Body)
	}
	return i.execBlock(s.Orelse)
}

func (i *Interpreter) execWhile(s *ast.While) (flow, error) {
	for {
		test, err := i.eval(s.Test)
		if err != nil {
			return flowNormal, err
		}
		if !test.Truthy() {
			return flowNormal, nil
		}

		f, err := i.execBlock(s.Body)
		if err != nil {
			return flowNormal, err
		}
		switch f {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return flowReturn, nil
		}
	}
}

// loopInfo analyses a loop the first time it is entered
func (i *Interpreter) loopInfo(s *ast.For) analyzer.LoopInfo {
	if info, ok := i.loops[s]; ok {
		return info
	}
	info := analyzer.AnalyzeLoop(s, i.active)
	i.loops[s] = info
	return info
}

// execFor runs a for loop inside an iteration context. The context is closed on
// every normal exit, break and return included; a runtime error ends the session
// and leaves it open.
func (i *Interpreter) execFor(s *ast.For) (flow, error) {
	iterable, err := i.eval(s.Iter)
	if err != nil {
		return flowNormal, err
	}
	items, err := i.iterate(iterable)
	if err != nil {
		return flowNormal, err
	}

	info := i.loopInfo(s)
	i.rec.PushIteration(info.Container, info.Iterator, s.Line(), info.Pattern, len(items))

	outer := len(i.active)
	i.active = append(i.active, info.Targets...)

	result := flowNormal
	for idx, item := range items {
		if err := i.assign(s.Target, item); err != nil {
			return flowNormal, err
		}
		i.rec.UpdateIndex(info.Iterator, idx, i.str(item))
		i.annotateAccesses(info)

		f, err := i.execBlock(s.Body)
		if err != nil {
			return flowNormal, err
		}
		if f == flowBreak {
			break
		}
		if f == flowReturn {
			result = flowReturn
			break
		}
	}

	i.active = i.active[:outer]
	i.rec.PopIteration(info.Iterator)
	return result, nil
}

// annotateAccesses reports multi-index and slice reads of the current iteration
func (i *Interpreter) annotateAccesses(info analyzer.LoopInfo) {
	for _, access := range info.Accesses {
		switch access.Kind {
		case analyzer.AccessMultiIndex:
			indices := make(map[string]int, len(access.Indices))
			for _, name := range access.Indices {
				v, ok := i.lookup(name)
				if !ok || (v.Kind != KindInt && v.Kind != KindBool) {
					indices = nil
					break
				}
				n, _ := v.AsInt64()
				indices[name] = int(n)
			}
			if indices != nil {
				i.rec.RecordMultiIndexAccess(access.Container, indices, access.Line)
			}
		case analyzer.AccessSlice:
			lo, okLo := i.pureInt(access.Lower)
			hi, okHi := i.pureInt(access.Upper)
			if okLo && okHi {
				i.rec.RecordSliceAccess(access.Container, access.Indices[0], access.Indices[1], lo, hi, access.Line)
			}
		}
	}
}

// pureInt evaluates a call-free expression to an int, reporting false on any failure
func (i *Interpreter) pureInt(e ast.Expr) (int, bool) {
	pure := true
	ast.Inspect(e, func(n ast.Node) bool {
		if _, ok := n.(*ast.Call); ok {
			pure = false
		}
		return pure
	})
	if !pure {
		return 0, false
	}
	line := i.line
	v, err := i.eval(e)
	i.line = line
	if err != nil || (v.Kind != KindInt && v.Kind != KindBool) {
		return 0, false
	}
	n, _ := v.AsInt64()
	return int(n), true
}

func (i *Interpreter) execFunctionDef(s *ast.FunctionDef) error {
	fn := &Function{
		Name:     s.Name,
		Params:   s.Params,
		Defaults: make([]Value, len(s.Params)),
		Body:     s.Body,
	}
	for idx, p := range s.Params {
		if p.Default == nil {
			continue
		}
		v, err := i.eval(p.Default)
		if err != nil {
			return err
		}
		fn.Defaults[idx] = v
	}

	// functions capture the scope of the call they are defined in; class bodies
	// are not visible from their methods
	if top, ok := i.frames.Peek(); ok && top.Label != "" {
		fn.Closure = top.Scope
	}

	i.setVar(s.Name, Value{Kind: KindFunction, Func: fn})
	return nil
}

// execClassDef runs the class body with the frame stack swapped for a single
// namespace frame
func (i *Interpreter) execClassDef(s *ast.ClassDef) error {
	class := &Class{Name: s.Name, Attrs: NewScope()}
	for _, base := range s.Bases {
		v, err := i.eval(base)
		if err != nil {
			return err
		}
		if v.Kind != KindClass {
			if name, ok := base.(*ast.Name); ok && name.ID == "object" {
				continue
			}
			return i.errorf(TypeMismatch, "bases must be classes, not '%s'", v.TypeName())
		}
		class.Bases = append(class.Bases, v.Class)
	}

	saved := i.frames
	i.frames = stack.New(&CallFrame{Scope: class.Attrs})
	_, err := i.execBlock(s.Body)
	i.frames = saved
	if err != nil {
		return err
	}

	i.setVar(s.Name, Value{Kind: KindClass, Class: class})
	return nil
}
