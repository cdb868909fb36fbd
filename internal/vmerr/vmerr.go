// Package vmerr defines the fatal error kinds produced across the parse,
// resolve and eval stages. Everything in the core is fatal:
// there is no recoverable error type exposed to source programs.
package vmerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies which stage of the pipeline raised a fatal error.
type Kind int

const (
	Parse Kind = iota
	Resolve
	Eval
	Resource
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse error"
	case Resolve:
		return "resolution error"
	case Eval:
		return "evaluation error"
	case Resource:
		return "resource error"
	default:
		return "error"
	}
}

// Pos is a source position, line and column both 1-based.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Error is a fatal condition with a kind, a message and, for parse errors,
// a source position formatted as "@line:col".
type Error struct {
	Kind Kind
	Pos  *Pos
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s @%s: %s", e.Kind, *e.Pos, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, pos *Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, msg: fmt.Sprintf(format, args...), Err: errors.WithStack(errors.New(format))}
}

// Parsef builds a parse-stage error carrying a source position.
func Parsef(pos Pos, format string, args ...interface{}) *Error {
	return newf(Parse, &pos, format, args...)
}

// Resolvef builds a resolution-stage error (no position tracked past parsing).
func Resolvef(format string, args ...interface{}) *Error {
	return newf(Resolve, nil, format, args...)
}

// Evalf builds an evaluation-stage error.
func Evalf(format string, args ...interface{}) *Error {
	return newf(Eval, nil, format, args...)
}

// Wrap re-wraps an underlying error (e.g. from heap/array/object) as an
// Eval-kind fatal error, preserving the original via errors.Wrap so
// %+v / errors.Cause still reach the root cause.
func Wrap(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: Eval, msg: fmt.Sprintf(format, args...), Err: errors.Wrap(err, fmt.Sprintf(format, args...))}
}

// WrapResource wraps a resource-kind fatal error (heap exhaustion).
func WrapResource(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: Resource, msg: fmt.Sprintf(format, args...), Err: errors.Wrap(err, fmt.Sprintf(format, args...))}
}
