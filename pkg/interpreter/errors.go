package interpreter

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	NameNotFound        ErrorKind = "NameNotFound"
	UnsupportedOperator ErrorKind = "UnsupportedOperator"
	TypeMismatch        ErrorKind = "TypeMismatch"
	IndexOutOfRange     ErrorKind = "IndexOutOfRange"
	KeyNotFound         ErrorKind = "KeyNotFound"
	ZeroDivision        ErrorKind = "ZeroDivision"
	ArgumentError       ErrorKind = "ArgumentError"
	RecursionError      ErrorKind = "RecursionError"
	OverflowError       ErrorKind = "OverflowError"
	InternalError       ErrorKind = "InternalError"
)

// RuntimeError terminates the session it occurs in
type RuntimeError struct {
	Kind    ErrorKind `json:"error"`
	Message string    `json:"message"`
	Line    int       `json:"line"`
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
}

// InputParseError reports a malformed line of pre-seeded input variables
type InputParseError struct {
	Line int
	Name string
	Err  error
}

func (e *InputParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("error parsing inputs on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing input %q on line %d: %v", e.Name, e.Line, e.Err)
}

func (e *InputParseError) Unwrap() error {
	return e.Err
}

var (
	ErrExecutionCancelled = errors.New("execution cancelled")
	ErrMaxStepsExceeded   = errors.New("maximum steps exceeded")
)

// errorf builds a RuntimeError at the line currently executing
func (i *Interpreter) errorf(kind ErrorKind, format string, args ...any) error {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Line: i.line}
}
