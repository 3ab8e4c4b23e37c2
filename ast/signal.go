package ast

import (
	stderrors "errors"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

type signalKind int

const (
	sigReturn signalKind = iota
	sigBreak
	sigContinue
)

// signal unwinds the Go call chain for return, break and continue. Loops,
// switches and function bodies consume the ones addressed to them.
type signal struct {
	kind  signalKind
	label string
	value *runtime.Value
}

func (s *signal) Error() string {
	switch s.kind {
	case sigReturn:
		return "Illegal return statement"
	case sigBreak:
		if s.label != "" {
			return "Undefined label '" + s.label + "'"
		}
		return "Illegal break statement"
	default:
		if s.label != "" {
			return "Undefined label '" + s.label + "'"
		}
		return "Illegal continue statement"
	}
}

// errShortCircuit is raised by an optional link on a nullish base and turned
// into undefined by the enclosing ChainExpression.
var errShortCircuit = stderrors.New("optional chain short-circuited")

func asSignal(err error) (*signal, bool) {
	s, ok := err.(*signal)
	return s, ok
}

// loopControl classifies err for a loop carrying labels. It returns whether
// the loop must stop, whether it continues with the next iteration, and any
// error that has to propagate.
func loopControl(err error, labels []string) (stop bool, next bool, out error) {
	if err == nil {
		return false, false, nil
	}
	s, ok := asSignal(err)
	if !ok || s.kind == sigReturn {
		return true, false, err
	}
	if s.label != "" && !hasLabel(labels, s.label) {
		return true, false, err
	}
	if s.kind == sigBreak {
		return true, false, nil
	}
	return false, true, nil
}

func hasLabel(labels []string, l string) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

// catchable reports whether a try statement may intercept err.
func catchable(err error) bool {
	if _, ok := asSignal(err); ok {
		return false
	}
	if err == errShortCircuit {
		return false
	}
	return runtime.IsCatchable(err)
}

// escaped converts a control signal that left its construct into the error
// a script sees.
func escaped(err error) error {
	if s, ok := asSignal(err); ok {
		return &errors.EvaluationError{Kind: "SyntaxError", Msg: s.Error()}
	}
	return err
}
