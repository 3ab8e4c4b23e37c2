package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func TestInstallDeclaresEveryGlobal(t *testing.T) {
	scope := runtime.Scopes.FunctionScope()
	require.NoError(t, Install(scope, nil))
	for _, name := range Names() {
		assert.True(t, scope.Has(name), name)
	}
	assert.Contains(t, Names(), "JSON")
	assert.Contains(t, Names(), "URIError")
}

func TestInstallCollidesWithLexicalBinding(t *testing.T) {
	scope := runtime.Scopes.FunctionScope()
	require.NoError(t, scope.Declare("Math", runtime.DeclConst, runtime.Null))
	err := Install(scope, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declaring Math")
	var evalErr *errors.EvaluationError
	assert.True(t, errors.As(err, &evalErr))
}

func TestGlobalsAreIndependent(t *testing.T) {
	a, b := Globals(nil), Globals(nil)
	require.NoError(t, a.Set("parseInt", runtime.Null))
	v, ok := b.Get("parseInt")
	require.True(t, ok)
	assert.True(t, v.IsCallable())
}
