package interpreter

import (
	"stepviz/pkg/ast"
	"stepviz/pkg/recorder"
)

const (
	animationTransfer = "value_transfer"

	listOperation       = "list_operation"
	dictOperation       = "dict_operation"
	assignmentOperation = "assignment_operation"
)

// targetName names the variable an expression ultimately refers to: `a`, `a.b`, or
// the container of a subscript
func targetName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Name:
		return t.ID
	case *ast.Attribute:
		if base := targetName(t.Value); base != "" {
			return base + "." + t.Attr
		}
	case *ast.Subscript:
		return targetName(t.Value)
	}
	return ""
}

// detectCallAnimation recognises container mutations like `xs.append(x)` before
// they run. It returns nil when the call is not one.
func (i *Interpreter) detectCallAnimation(call *ast.Call) *recorder.AnimationEvent {
	attr, ok := call.Func.(*ast.Attribute)
	if !ok || len(call.Args) == 0 {
		return nil
	}
	target := targetName(attr.Value)
	if target == "" {
		return nil
	}

	switch attr.Attr {
	case "append", "insert", "extend":
		args := call.Args
		if attr.Attr == "insert" && len(args) > 1 {
			args = args[1:]
		}
		for _, arg := range args {
			switch a := arg.(type) {
			case *ast.Name:
				v, ok := i.lookup(a.ID)
				if !ok {
					continue
				}
				return i.transfer(attr.Attr, a.ID, v, target, call.Line(), listOperation)
			case *ast.Constant:
				v := constant(a)
				if v.Kind == KindNone {
					return nil
				}
				return i.transfer(attr.Attr, "", v, target, call.Line(), listOperation)
			}
		}
	case "update", "setdefault":
		return &recorder.AnimationEvent{
			Type:           animationTransfer,
			Operation:      attr.Attr,
			TargetVariable: target,
			Line:           call.Line(),
			AnimationType:  dictOperation,
		}
	}
	return nil
}

// detectAssignAnimation recognises `target[key] = name`
func (i *Interpreter) detectAssignAnimation(s *ast.Assign) *recorder.AnimationEvent {
	source, ok := s.Value.(*ast.Name)
	if !ok {
		return nil
	}
	v, ok := i.lookup(source.ID)
	if !ok {
		return nil
	}
	for _, t := range s.Targets {
		sub, ok := t.(*ast.Subscript)
		if !ok {
			continue
		}
		if target := targetName(sub.Value); target != "" {
			return i.transfer("assignment", source.ID, v, target, s.Line(), assignmentOperation)
		}
	}
	return nil
}

func (i *Interpreter) transfer(op, source string, v Value, target string, line int, kind string) *recorder.AnimationEvent {
	view := Describe(v)
	return &recorder.AnimationEvent{
		Type:           animationTransfer,
		Operation:      op,
		SourceVariable: source,
		SourceValue:    view.Value,
		SourceDisplay:  view.Display,
		TargetVariable: target,
		Line:           line,
		AnimationType:  kind,
	}
}

// completeAnimation records a detected event once its operation has succeeded
func (i *Interpreter) completeAnimation(ev *recorder.AnimationEvent) {
	if ev == nil {
		return
	}
	ev.Completed = true
	i.rec.RecordAnimation(*ev)
}
