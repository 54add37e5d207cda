package query

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedExpression marks a filter or query that is structurally invalid:
	// unknown operator, unknown logical key, wrong arity, wrong operand type.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrUnorderableComparison marks an ordered operator applied to a stored value
	// that cannot be ordered against its operand.
	ErrUnorderableComparison = errors.New("unorderable comparison")
)

// QueryError describes a defect in an expression and where in the tree it sits.
// Path uses a JSONPath-like notation rooted at "$", e.g. "$.and[1].price.gte".
type QueryError struct {
	Kind error
	Path string
	Msg  string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Path, e.Msg)
}

// Unwrap lets errors.Is match the error kind.
func (e *QueryError) Unwrap() error {
	return e.Kind
}

func malformed(path, format string, args ...any) *QueryError {
	return &QueryError{Kind: ErrMalformedExpression, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func unorderable(path, format string, args ...any) *QueryError {
	return &QueryError{Kind: ErrUnorderableComparison, Path: path, Msg: fmt.Sprintf(format, args...)}
}
