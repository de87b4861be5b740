// Package analyzer classifies the indexing idiom of `for` loops and summarises the
// structure of a parsed program. Everything here is a pure function of the tree.
package analyzer

import (
	"slices"
	"strings"

	"stepviz/pkg/ast"
)

// Pattern is the indexing idiom a loop uses to walk its container
type Pattern string

const (
	PatternNone        Pattern = ""
	PatternDirect      Pattern = "direct"
	PatternSimpleIndex Pattern = "simple-index"
	PatternDualPointer Pattern = "dual-pointer"
)

type AccessKind string

const (
	AccessMultiIndex AccessKind = "multi_index"
	AccessSlice      AccessKind = "slice"
)

// Access is a subscript in the loop body that reads the container through more
// than one active iterator
type Access struct {
	Kind      AccessKind
	Container string
	Line      int

	// Indices holds the iterator names used as indices, in order of appearance
	Indices []string

	// Lower and Upper are the slice bounds of a slice access
	Lower ast.Expr
	Upper ast.Expr
}

// LoopInfo is the result of analysing one loop header and its body
type LoopInfo struct {
	Pattern   Pattern
	Container string
	Iterator  string
	Targets   []string
	Active    []string
	Accesses  []Access
}

// AnalyzeLoop classifies loop. active lists the iterator names of the loops that
// enclose it; the loop's own targets are added to that set.
func AnalyzeLoop(loop *ast.For, active []string) LoopInfo {
	targets := targetNames(loop.Target)
	info := LoopInfo{
		Targets:  targets,
		Iterator: strings.Join(targets, ", "),
		Active:   union(active, targets),
	}

	subs := collectSubscripts(loop.Body)
	info.Accesses = findAccesses(subs, targets, info.Active)

	switch iter := loop.Iter.(type) {
	case *ast.Name:
		info.Pattern = PatternDirect
		info.Container = iter.ID
		return info
	case *ast.Call:
		if container, start, ok := rangeOverLen(iter); ok {
			info.Container = container
			pattern := PatternSimpleIndex
			if start != nil && intersects(ast.Names(start), active) {
				pattern = PatternDualPointer
			}
			if indexedBy(subs, container, targets) {
				info.Pattern = pattern
			}
			return info
		}
		if base, ok := methodBase(iter); ok {
			info.Pattern = PatternDirect
			info.Container = base
			return info
		}
	}

	info.Container = ast.Render(loop.Iter)
	return info
}

// targetNames lists the names bound by a for target
func targetNames(target ast.Expr) []string {
	switch t := target.(type) {
	case *ast.Name:
		return []string{t.ID}
	case *ast.Tuple:
		var names []string
		for _, elt := range t.Elts {
			names = append(names, targetNames(elt)...)
		}
		return names
	case *ast.List:
		var names []string
		for _, elt := range t.Elts {
			names = append(names, targetNames(elt)...)
		}
		return names
	}
	return nil
}

// rangeOverLen matches range(len(C)) and range(start, len(C)[, step]). start is nil
// for the one-argument form and for a literal zero start.
func rangeOverLen(call *ast.Call) (container string, start ast.Expr, ok bool) {
	if name, isName := call.Func.(*ast.Name); !isName || name.ID != "range" || len(call.Keywords) > 0 {
		return "", nil, false
	}

	var stop ast.Expr
	switch len(call.Args) {
	case 1:
		stop = call.Args[0]
	case 2, 3:
		start, stop = call.Args[0], call.Args[1]
		if c, isConst := start.(*ast.Constant); isConst && c.Type == ast.ConstInt && c.Int == 0 {
			start = nil
		}
	default:
		return "", nil, false
	}

	length, isCall := stop.(*ast.Call)
	if !isCall || len(length.Args) != 1 {
		return "", nil, false
	}
	if name, isName := length.Func.(*ast.Name); !isName || name.ID != "len" {
		return "", nil, false
	}
	return ast.Render(length.Args[0]), start, true
}

// methodBase matches `C.items()` style iteration over a named container
func methodBase(call *ast.Call) (string, bool) {
	attr, ok := call.Func.(*ast.Attribute)
	if !ok {
		return "", false
	}
	switch attr.Attr {
	case "items", "keys", "values":
		if name, ok := attr.Value.(*ast.Name); ok {
			return name.ID, true
		}
	}
	return "", false
}

// collectSubscripts gathers every subscript in a block, descending into nested
// control flow but not into function or class bodies
func collectSubscripts(body []ast.Stmt) []*ast.Subscript {
	var subs []*ast.Subscript
	for _, stmt := range body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef:
				return false
			case *ast.Subscript:
				subs = append(subs, x)
			}
			return true
		})
	}
	return subs
}

// indexedBy reports whether some subscript of container mentions one of names in
// its index or slice bounds
func indexedBy(subs []*ast.Subscript, container string, names []string) bool {
	for _, sub := range subs {
		if ast.Render(sub.Value) == container && intersects(ast.Names(sub.Index), names) {
			return true
		}
	}
	return false
}

func findAccesses(subs []*ast.Subscript, own, active []string) []Access {
	var accesses []Access

	type indexUse struct {
		names []string
		line  int
	}
	uses := map[string]*indexUse{}
	var order []string

	for _, sub := range subs {
		container := ast.Render(sub.Value)

		if slice, ok := sub.Index.(*ast.Slice); ok {
			if slice.Lower == nil || slice.Upper == nil || slice.Step != nil {
				continue
			}
			lower := filter(ast.Names(slice.Lower), active)
			upper := filter(ast.Names(slice.Upper), active)
			if len(lower) == 0 || len(upper) == 0 {
				continue
			}
			if !intersects(lower, own) && !intersects(upper, own) {
				continue
			}
			accesses = append(accesses, Access{
				Kind:      AccessSlice,
				Container: container,
				Line:      sub.Line(),
				Indices:   []string{lower[0], upper[0]},
				Lower:     slice.Lower,
				Upper:     slice.Upper,
			})
			continue
		}

		names := filter(ast.Names(sub.Index), active)
		if len(names) == 0 {
			continue
		}
		use, seen := uses[container]
		if !seen {
			use = &indexUse{line: sub.Line()}
			uses[container] = use
			order = append(order, container)
		}
		for _, name := range names {
			if !slices.Contains(use.names, name) {
				use.names = append(use.names, name)
			}
		}
	}

	for _, container := range order {
		use := uses[container]
		if len(use.names) < 2 || !intersects(use.names, own) {
			continue
		}
		accesses = append(accesses, Access{
			Kind:      AccessMultiIndex,
			Container: container,
			Line:      use.line,
			Indices:   use.names,
		})
	}
	return accesses
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func filter(names, keep []string) []string {
	var out []string
	for _, n := range names {
		if slices.Contains(keep, n) && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, s := range a {
		if slices.Contains(b, s) {
			return true
		}
	}
	return false
}
