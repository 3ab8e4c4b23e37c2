package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntaxError(t *testing.T) {
	err := &SyntaxError{Msg: "unexpected token", Near: ")", Line: 2, Column: 7}
	assert.Contains(t, err.Error(), "unexpected token")
	assert.Contains(t, err.Error(), "2:7")
}

func TestEvaluationErrorKinds(t *testing.T) {
	var evalErr *EvaluationError

	err := TypeErrorf("%s is not a function", "f")
	assert.True(t, As(err, &evalErr))
	assert.Equal(t, "TypeError", evalErr.Kind)
	assert.Equal(t, "f is not a function", evalErr.Msg)

	assert.True(t, As(ReferenceErrorf("x is not defined"), &evalErr))
	assert.Equal(t, "ReferenceError", evalErr.Kind)
	assert.True(t, As(RangeErrorf("bad length"), &evalErr))
	assert.Equal(t, "RangeError", evalErr.Kind)
}

func TestSentinels(t *testing.T) {
	assert.True(t, Is(ConstAssignment("x"), ErrConstAssignment))
	assert.True(t, Is(NotAssignable("1"), ErrNotAssignable))
	assert.True(t, Is(NotImplemented("with statement"), ErrNotImplemented))
	assert.False(t, Is(NotImplemented("x"), ErrNotAssignable))

	wrapped := Wrap(&RegistryError{Registry: "ast", Op: "decode", Tag: "Foo", Err: ErrUnknownTag}, "loading")
	assert.True(t, Is(wrapped, ErrUnknownTag))
	assert.Equal(t, `loading: ast registry: decode "Foo": unknown tag`, wrapped.Error())
}
