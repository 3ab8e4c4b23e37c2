package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/parser"
	"github.com/example/jsexpr/runtime"
)

func run(src string) (*runtime.Value, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	return prog.Get(runtime.NewStack(Globals(nil), runtime.Scopes.FunctionScope()))
}

func eval(t *testing.T, src string) *runtime.Value {
	t.Helper()
	v, err := run(src)
	require.NoError(t, err, src)
	return v
}

type evalCase struct {
	src  string
	want interface{}
}

// checkAll evaluates each case and compares the exported result.
func checkAll(t *testing.T, cases []evalCase) {
	t.Helper()
	for _, tc := range cases {
		assert.Equal(t, tc.want, runtime.Export(eval(t, tc.src)), tc.src)
	}
}

// evalError evaluates src and returns the script-visible error kind.
func evalError(t *testing.T, src string) *errors.EvaluationError {
	t.Helper()
	_, err := run(src)
	require.Error(t, err, src)
	var evalErr *errors.EvaluationError
	require.True(t, errors.As(err, &evalErr), "%s: expected an evaluation error, got %v", src, err)
	return evalErr
}

func TestRelativeIndex(t *testing.T) {
	assert.Equal(t, 2, relativeIndex(runtime.NewNumber(2), 5, 0))
	assert.Equal(t, 3, relativeIndex(runtime.NewNumber(-2), 5, 0))
	assert.Equal(t, 0, relativeIndex(runtime.NewNumber(-10), 5, 0))
	assert.Equal(t, 5, relativeIndex(runtime.NewNumber(10), 5, 0))
	assert.Equal(t, 5, relativeIndex(runtime.Undefined, 5, 5))
}

func TestUnits(t *testing.T) {
	u := units("a😀")
	assert.Len(t, u, 3)
	assert.Equal(t, "a😀", fromUnits(u))
}
