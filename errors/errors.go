// Package errors holds the error kinds raised while tokenizing, parsing,
// evaluating and deserializing expressions. Wrapping helpers are re-exported
// from github.com/pkg/errors so callers need a single import.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// New is re-exported from github.com/pkg/errors
var New = errors.New

// Errorf is re-exported from github.com/pkg/errors
var Errorf = errors.Errorf

// Wrap is re-exported from github.com/pkg/errors
var Wrap = errors.Wrap

// Wrapf is re-exported from github.com/pkg/errors
var Wrapf = errors.Wrapf

// WithStack is re-exported from github.com/pkg/errors
var WithStack = errors.WithStack

// WithMessage is re-exported from github.com/pkg/errors
var WithMessage = errors.WithMessage

// Cause is re-exported from github.com/pkg/errors
var Cause = errors.Cause

// Is is re-exported from github.com/pkg/errors
var Is = errors.Is

// As is re-exported from github.com/pkg/errors
var As = errors.As

// Sentinels matched with Is.
var (
	ErrNotAssignable   = New("not assignable")
	ErrConstAssignment = New("assignment to constant variable")
	ErrNotImplemented  = New("not implemented")
	ErrDuplicateTag    = New("duplicate tag")
	ErrUnknownTag      = New("unknown tag")
)

// SyntaxError is raised by the lexer and parser. Parsing stops at the first one.
type SyntaxError struct {
	Msg    string
	Near   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("SyntaxError: %s at %d:%d", e.Msg, e.Line, e.Column)
	}
	return fmt.Sprintf("SyntaxError: %s near %q at %d:%d", e.Msg, e.Near, e.Line, e.Column)
}

// EvaluationError is raised from Get and Set. Kind carries the script-visible
// error name (TypeError, ReferenceError, RangeError, SyntaxError or Error).
type EvaluationError struct {
	Kind string
	Msg  string
	Err  error
}

func (e *EvaluationError) Error() string {
	return e.Kind + ": " + e.Msg
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// TypeErrorf builds a TypeError.
func TypeErrorf(format string, args ...interface{}) error {
	return &EvaluationError{Kind: "TypeError", Msg: fmt.Sprintf(format, args...)}
}

// ReferenceErrorf builds a ReferenceError.
func ReferenceErrorf(format string, args ...interface{}) error {
	return &EvaluationError{Kind: "ReferenceError", Msg: fmt.Sprintf(format, args...)}
}

// RangeErrorf builds a RangeError.
func RangeErrorf(format string, args ...interface{}) error {
	return &EvaluationError{Kind: "RangeError", Msg: fmt.Sprintf(format, args...)}
}

// Redeclaration is raised when a let/const name is declared twice in one scope.
func Redeclaration(name string) error {
	return &EvaluationError{Kind: "SyntaxError", Msg: fmt.Sprintf("Identifier '%s' has already been declared", name)}
}

// NotAssignable reports a Set on a node kind that cannot be a target.
func NotAssignable(what string) error {
	return &EvaluationError{
		Kind: "TypeError",
		Msg:  fmt.Sprintf("%s is not assignable", what),
		Err:  ErrNotAssignable,
	}
}

// ConstAssignment reports a write to a const binding.
func ConstAssignment(name string) error {
	return &EvaluationError{
		Kind: "TypeError",
		Msg:  fmt.Sprintf("Assignment to constant variable '%s'", name),
		Err:  ErrConstAssignment,
	}
}

// NotImplementedError marks operations that a node kind deliberately does
// not support, such as Set on a statement.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return e.What + " has no implementation"
}

func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// NotImplemented builds a NotImplementedError.
func NotImplemented(format string, args ...interface{}) error {
	return &NotImplementedError{What: fmt.Sprintf(format, args...)}
}

// RegistryError is raised by the node registry on registration and decoding.
type RegistryError struct {
	Registry string
	Op       string
	Tag      string
	Err      error
}

func (e *RegistryError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%s registry: %s: %v", e.Registry, e.Op, e.Err)
	}
	return fmt.Sprintf("%s registry: %s %q: %v", e.Registry, e.Op, e.Tag, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}
