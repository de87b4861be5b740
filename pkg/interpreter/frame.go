package interpreter

// Scope is an insertion-ordered name -> Value mapping
type Scope struct {
	names []string
	vars  map[string]Value
}

func NewScope() *Scope {
	return &Scope{vars: make(map[string]Value)}
}

func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *Scope) Set(name string, v Value) {
	if _, ok := s.vars[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vars[name] = v
}

// Names returns the bound names in the order they were first assigned
func (s *Scope) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Scope) Len() int {
	return len(s.names)
}

// CallFrame represents a function call frame. A frame with an empty Label holds a
// class body namespace and is left out of call-stack snapshots.
type CallFrame struct {
	Label    string    // shown in the call stack, e.g. "fib()"
	Scope    *Scope    // local variables
	Function *Function // function being executed, nil for class bodies
}
