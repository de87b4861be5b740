package analyzer

import (
	"slices"
	"strings"

	"stepviz/pkg/ast"
)

type FunctionInfo struct {
	Name      string   `json:"name"`
	Args      []string `json:"args"`
	Line      int      `json:"line"`
	Docstring string   `json:"docstring,omitempty"`
}

type ClassInfo struct {
	Name      string   `json:"name"`
	Line      int      `json:"line"`
	Methods   []string `json:"methods"`
	Docstring string   `json:"docstring,omitempty"`
}

// ControlFlow describes one if, while or for statement
type ControlFlow struct {
	Type      string `json:"type"`
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
	Target    string `json:"target,omitempty"`
	Iter      string `json:"iter,omitempty"`
}

// Summary is the structural overview sent to the viewer when code is parsed
type Summary struct {
	Functions   map[string]FunctionInfo `json:"functions"`
	Classes     map[string]ClassInfo    `json:"classes"`
	Variables   []string                `json:"variables"`
	ControlFlow []ControlFlow           `json:"control_flow"`
	LineCount   int                     `json:"line_count"`
}

// Summarize walks the whole module. Methods are listed both under their class and
// as functions.
func Summarize(mod *ast.Module, source string) Summary {
	s := Summary{
		Functions:   map[string]FunctionInfo{},
		Classes:     map[string]ClassInfo{},
		Variables:   []string{},
		ControlFlow: []ControlFlow{},
		LineCount:   countLines(source),
	}

	ast.Inspect(mod, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FunctionDef:
			args := make([]string, 0, len(x.Params))
			for _, p := range x.Params {
				args = append(args, p.Name)
			}
			s.Functions[x.Name] = FunctionInfo{Name: x.Name, Args: args, Line: x.Line(), Docstring: docstring(x.Body)}
		case *ast.ClassDef:
			class := ClassInfo{Name: x.Name, Line: x.Line(), Methods: []string{}, Docstring: docstring(x.Body)}
			for _, stmt := range x.Body {
				if fn, ok := stmt.(*ast.FunctionDef); ok {
					class.Methods = append(class.Methods, fn.Name)
				}
			}
			s.Classes[x.Name] = class
		case *ast.Assign:
			for _, target := range x.Targets {
				for _, name := range targetNames(target) {
					if !slices.Contains(s.Variables, name) {
						s.Variables = append(s.Variables, name)
					}
				}
			}
		case *ast.If:
			s.ControlFlow = append(s.ControlFlow, ControlFlow{Type: "if", Line: x.Line(), Condition: ast.Render(x.Test)})
		case *ast.While:
			s.ControlFlow = append(s.ControlFlow, ControlFlow{Type: "while", Line: x.Line(), Condition: ast.Render(x.Test)})
		case *ast.For:
			s.ControlFlow = append(s.ControlFlow, ControlFlow{
				Type:   "for",
				Line:   x.Line(),
				Target: strings.Join(targetNames(x.Target), ", "),
				Iter:   ast.Render(x.Iter),
			})
		}
		return true
	})

	slices.Sort(s.Variables)
	return s
}

// docstring returns the leading string literal of a body, if any
func docstring(body []ast.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	stmt, ok := body[0].(*ast.ExprStmt)
	if !ok {
		return ""
	}
	if c, ok := stmt.Value.(*ast.Constant); ok && c.Type == ast.ConstStr {
		return strings.TrimSpace(c.Str)
	}
	return ""
}

func countLines(source string) int {
	if source == "" {
		return 0
	}
	n := strings.Count(source, "\n")
	if !strings.HasSuffix(source, "\n") {
		n++
	}
	return n
}
