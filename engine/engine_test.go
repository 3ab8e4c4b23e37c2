package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/config"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(config.Default(), opts...)
	require.NoError(t, err)
	return e
}

func TestEval(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		src  string
		data interface{}
		want interface{}
	}{
		{"1 + 2 * 3", nil, 7.0},
		{"user.name + '!'", map[string]interface{}{"user": map[string]interface{}{"name": "ada"}}, "ada!"},
		{"items.filter(x => x > 1).length", map[string]interface{}{"items": []interface{}{1, 2, 3}}, 2.0},
		{"let total = 0; for (const n of [1, 2, 3]) total += n; total", nil, 6.0},
		{"Math.max(a, b)", struct {
			A int `json:"a"`
			B int `json:"b"`
		}{4, 9}, 9.0},
		{"JSON.stringify({k: v})", map[string]interface{}{"v": true}, `{"k":true}`},
	}
	for _, tt := range tests {
		v, err := e.Eval(tt.src, tt.data)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, runtime.Export(v), tt.src)
	}
}

func TestEvalErrors(t *testing.T) {
	e := newEngine(t)

	_, err := e.Eval("1 +", nil)
	var syntax *errors.SyntaxError
	assert.True(t, errors.As(err, &syntax), "%v", err)

	_, err = e.Eval("missing.x", nil)
	var evalErr *errors.EvaluationError
	require.True(t, errors.As(err, &evalErr), "%v", err)
	assert.Equal(t, "ReferenceError", evalErr.Kind)

	_, err = e.Eval("throw 'boom'", nil)
	var thrown *runtime.ThrowError
	require.True(t, errors.As(err, &thrown), "%v", err)
	assert.Equal(t, "boom", thrown.Value.Str)
}

func TestEvalWithoutGlobals(t *testing.T) {
	cfg := config.Default()
	cfg.Globals = false
	e, err := New(cfg)
	require.NoError(t, err)

	_, err = e.Eval("Math.PI", nil)
	assert.Error(t, err)
	v, err := e.Eval("x * 2", map[string]interface{}{"x": 21})
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Number)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Size = -1
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCompileCaches(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := newEngine(t, WithLogger(zap.New(core)))

	a, err := e.Compile("a + b")
	require.NoError(t, err)
	b, err := e.Compile("a + b")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, logs.FilterMessage("parse cache hit").Len())
	assert.Equal(t, 1, logs.FilterMessage("parse cache miss").Len())

	prog, err := e.Compile("var x = 1; x")
	require.NoError(t, err)
	assert.IsType(t, &ast.Program{}, prog)
}

func TestCompileWithoutCache(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Size = 0
	e, err := New(cfg)
	require.NoError(t, err)
	a, err := e.Parse("a")
	require.NoError(t, err)
	b, err := e.Parse("a")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestConstantFoldingFollowsConfig(t *testing.T) {
	e := newEngine(t)
	n, err := e.Parse("1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "Literal", n.Type())

	cfg := config.Default()
	cfg.Parser.FoldConstants = false
	e, err = New(cfg)
	require.NoError(t, err)
	n, err = e.Parse("1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "BinaryExpression", n.Type())
}

func TestAdd(t *testing.T) {
	e := newEngine(t)
	n, err := e.Parse("40 + 2")
	require.NoError(t, err)
	e.Add("answer", n)
	v, err := e.Eval("answer", nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Number)
}

func TestEvalAsync(t *testing.T) {
	e := newEngine(t)
	pending := runtime.NewFuture()
	data := map[string]interface{}{"later": pending}
	go func() {
		time.Sleep(10 * time.Millisecond)
		pending.Resolve(runtime.NewNumber(20))
	}()

	v, err := e.EvalAsync(context.Background(), "(await later) + (await Promise.resolve(1))", data)
	require.NoError(t, err)
	assert.Equal(t, 21.0, v.Number)

	_, err = e.EvalAsync(context.Background(), "await Promise.reject('no')", nil)
	var thrown *runtime.ThrowError
	require.True(t, errors.As(err, &thrown), "%v", err)
	assert.Equal(t, "no", thrown.Value.Str)
}

func TestEvalAsyncCancelled(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := e.EvalAsync(ctx, "await never", map[string]interface{}{"never": runtime.NewFuture()})
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
}

func TestEvalPendingAwait(t *testing.T) {
	e := newEngine(t)
	_, err := e.Eval("await never", map[string]interface{}{"never": runtime.NewFuture()})
	var pending *runtime.PendingError
	assert.True(t, errors.As(err, &pending), "%v", err)
}

func TestReactiveStack(t *testing.T) {
	e := newEngine(t)
	stack, rs := e.NewReactiveStack(map[string]interface{}{"count": 1})
	var seen []float64
	rs.Subscribe(runtime.ParsePath("count"), func(newValue, oldValue *runtime.Value) {
		seen = append(seen, newValue.Number)
	})
	n, err := e.Compile("count = count + 1")
	require.NoError(t, err)
	_, err = e.Run(n, stack)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, seen)
}

func TestDependencies(t *testing.T) {
	e := newEngine(t)
	deps, err := e.Dependencies("user.name + user.name + items[0] + Math.PI")
	require.NoError(t, err)
	var got []string
	for _, d := range deps {
		got = append(got, d.String())
	}
	assert.Contains(t, got, "user.name")
	assert.Contains(t, got, "items.0")
	assert.Contains(t, got, "Math.PI")
	assert.Equal(t, 1, count(got, "user.name"))
}

func count(list []string, s string) int {
	n := 0
	for _, x := range list {
		if x == s {
			n++
		}
	}
	return n
}
