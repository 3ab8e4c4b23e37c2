package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/errors"
)

func TestScopeDeclare(t *testing.T) {
	s := NewScope(BlockScope, nil)
	require.NoError(t, s.Declare("a", DeclLet, NewNumber(1)))
	assert.Error(t, s.Declare("a", DeclConst, NewNumber(2)))

	require.NoError(t, s.Declare("c", DeclConst, NewNumber(3)))
	assert.True(t, s.IsConst("c"))
	assert.True(t, errors.Is(s.Set("c", NewNumber(4)), errors.ErrConstAssignment))

	require.NoError(t, s.Declare("v", DeclVar, NewNumber(5)))
	require.NoError(t, s.Declare("v", DeclVar, nil))
	v, ok := s.Get("v")
	require.True(t, ok)
	assert.Equal(t, 5.0, v.Number)

	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "block", s.Kind().String())
}

func TestRedeclaration(t *testing.T) {
	s := NewScope(FunctionScope, nil)
	require.NoError(t, s.Declare("x", DeclLet, Undefined))
	err := s.Declare("x", DeclLet, Undefined)
	var evalErr *errors.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "SyntaxError", evalErr.Kind)
	assert.Error(t, s.Declare("x", DeclVar, Undefined))
}

func TestDeclKind(t *testing.T) {
	k, ok := ParseDeclKind("const")
	assert.True(t, ok)
	assert.Equal(t, DeclConst, k)
	assert.True(t, k.Lexical())
	assert.False(t, DeclVar.Lexical())
	_, ok = ParseDeclKind("static")
	assert.False(t, ok)
}

func TestStackResolution(t *testing.T) {
	st := Scopes.StackFor(map[string]interface{}{"a": 1, "shared": "outer"}, map[string]interface{}{"shared": "inner"})
	require.Equal(t, 2, st.Len())

	v, ok := st.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, "inner", v.Str)
	v, _ = st.Lookup("a")
	assert.Equal(t, 1.0, v.Number)

	block := st.PushBlock()
	require.NoError(t, st.Declare("b", DeclLet, NewNumber(2)))
	require.NoError(t, st.Declare("f", DeclVar, NewNumber(3)))
	assert.True(t, block.Has("b"))
	assert.False(t, block.Has("f"), "var skips block scopes")
	assert.True(t, st.Scopes()[1].Has("f"))

	require.NoError(t, st.Assign("a", NewNumber(10)))
	v, _ = st.Lookup("a")
	assert.Equal(t, 10.0, v.Number)

	err := st.Assign("nope", Null)
	var evalErr *errors.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "ReferenceError", evalErr.Kind)

	st.ClearTo(2)
	_, ok = st.Lookup("b")
	assert.False(t, ok)
}

func TestStackFork(t *testing.T) {
	st := Scopes.StackFor(nil)
	fork := st.Fork()
	fork.PushBlock()
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 2, fork.Len())

	require.NoError(t, fork.Declare("x", DeclVar, True))
	_, ok := st.Lookup("x")
	assert.True(t, ok, "forks share scopes")
}

func TestEmptyStack(t *testing.T) {
	st := NewStack()
	assert.Nil(t, st.Top())
	assert.Nil(t, st.Pop())
	require.NoError(t, st.Declare("x", DeclLet, True))
	assert.Equal(t, 1, st.Len())
}

func TestExports(t *testing.T) {
	st := Scopes.StackFor(nil)
	require.NoError(t, st.Export("answer", NewNumber(42)))
	assert.Equal(t, 42.0, st.Exports().Get("answer").Number)
}

func TestContextObjectSharing(t *testing.T) {
	obj := NewPlainObject()
	st := NewStack(Scopes.For(obj))
	require.NoError(t, st.Declare("x", DeclVar, NewNumber(1)))
	assert.Equal(t, 1.0, obj.Get("x").Number, "a *Object context is used as is")

	type user struct {
		Name  string `json:"name"`
		Admin bool   `json:"-"`
		Age   int
	}
	sc := Scopes.For(user{Name: "ada", Age: 36})
	assert.True(t, sc.Has("name"))
	assert.True(t, sc.Has("Age"))
	assert.False(t, sc.Has("Admin"))

	assert.Empty(t, Scopes.For(42).Context().OwnKeys())
}
