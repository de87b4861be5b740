// Package stack provides the LIFO used for call frames and loop iteration contexts.
package stack

type Stack[T any] struct {
	a []T
	l int
}

// New creates a new stack instance holding elm, last element on top
func New[T any](elm ...T) *Stack[T] {
	stack := Stack[T]{
		a: make([]T, 0, len(elm)),
		l: 0,
	}

	for _, e := range elm {
		stack.l++
		stack.a = append(stack.a, e)
	}

	return &stack
}

// Push adds an element to the top of the stack
func (s *Stack[T]) Push(elm T) {
	s.l++
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.l < 1 {
		return zero, false
	}

	s.l--
	elm := s.a[s.l]
	s.a[s.l] = zero
	s.a = s.a[:s.l]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if s.l < 1 {
		return zero, false
	}

	return s.a[s.l-1], true
}

// At returns the element i positions from the bottom
func (s *Stack[T]) At(i int) T {
	return s.a[i]
}

// Get the size of the stack
func (s *Stack[T]) Size() int {
	return s.l
}

// Clear empties the stack
func (s *Stack[T]) Clear() {
	clear(s.a)
	s.a = s.a[:0]
	s.l = 0
}

// Array returns a copy of the stack contents, bottom first
func (s *Stack[T]) Array() []T {
	out := make([]T, s.l)
	copy(out, s.a)
	return out
}

// Each visits elements from the top of the stack down until fn returns false
func (s *Stack[T]) Each(fn func(T) bool) {
	for i := s.l - 1; i >= 0; i-- {
		if !fn(s.a[i]) {
			return
		}
	}
}
