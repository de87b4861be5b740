package interpreter

import (
	"math"
	"strings"

	"stepviz/pkg/recorder"
)

const (
	listValueLimit   = 10
	listDisplayLimit = 3
	dictValueLimit   = 5
	dictDisplayLimit = 2
)

// Describe produces the viewer's view of a value. Long lists and dicts are
// truncated in both the raw value and the display text.
func Describe(v Value) recorder.VariableView {
	view := recorder.VariableView{
		Type:    v.TypeName(),
		Value:   raw(v),
		Display: toString(v, false, nil),
	}

	switch v.Kind {
	case KindList:
		items := v.List.Items
		shown := make([]string, 0, listDisplayLimit)
		for _, item := range items[:min(len(items), listDisplayLimit)] {
			shown = append(shown, toString(item, false, nil))
		}
		more := ""
		if len(items) > listDisplayLimit {
			more = "..."
		}
		view.Display = "[" + strings.Join(shown, ", ") + more + "]"
		view.Length = length(len(items))
	case KindMap:
		shown := make([]string, 0, dictDisplayLimit)
		v.Map.Each(func(k, val Value) bool {
			if len(shown) == dictDisplayLimit {
				return false
			}
			shown = append(shown, toString(k, false, nil)+": "+toString(val, false, nil))
			return true
		})
		more := ""
		if v.Map.Len() > dictDisplayLimit {
			more = "..."
		}
		view.Display = "{" + strings.Join(shown, ", ") + more + "}"
		view.Length = length(v.Map.Len())
	case KindFunction, KindClass, KindBuiltin:
		view.Value = nil
	}
	return view
}

func length(n int) *int {
	return &n
}

// raw converts v to plain data for JSON encoding
func raw(v Value) any {
	return rawValue(v, nil)
}

func rawValue(v Value, seen map[any]bool) any {
	switch v.Kind {
	case KindNone:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.I64
	case KindFloat:
		if math.IsInf(v.F64, 0) || math.IsNaN(v.F64) {
			return toString(v, false, nil)
		}
		return v.F64
	case KindString:
		return v.Str
	case KindList:
		if seen[v.List] {
			return nil
		}
		seen = mark(seen, v.List)
		defer delete(seen, v.List)
		items := v.List.Items[:min(len(v.List.Items), listValueLimit)]
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, rawValue(item, seen))
		}
		return out
	case KindMap:
		if seen[v.Map] {
			return nil
		}
		seen = mark(seen, v.Map)
		defer delete(seen, v.Map)
		out := make(map[string]any, min(v.Map.Len(), dictValueLimit))
		v.Map.Each(func(k, val Value) bool {
			if len(out) == dictValueLimit {
				return false
			}
			out[toString(k, false, nil)] = rawValue(val, seen)
			return true
		})
		return out
	case KindObject:
		if seen[v.Object] {
			return nil
		}
		seen = mark(seen, v.Object)
		defer delete(seen, v.Object)
		out := make(map[string]any, v.Object.Attrs.Len())
		for _, name := range v.Object.Attrs.Names() {
			attr, _ := v.Object.Attrs.Get(name)
			out[name] = rawValue(attr, seen)
		}
		return out
	}
	return nil
}
