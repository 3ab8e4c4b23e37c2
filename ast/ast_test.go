package ast_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/parser"
	"github.com/example/jsexpr/runtime"
)

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	n, err := parser.Parse(src, parser.WithConstantFolding(false))
	require.NoError(t, err, src)
	return n
}

func mustProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := parser.ParseProgram(src, parser.WithConstantFolding(false))
	require.NoError(t, err, src)
	return p
}

var roundTripExpressions = []string{
	"42",
	"-0.5",
	"10n",
	`"text"`,
	"null",
	"undefined",
	"true",
	"a",
	"this",
	"a + b * c",
	"(a + b) * c",
	"a ** b ** c",
	"(a ** b) ** c",
	"-a",
	"!a && b || c",
	"a ?? b",
	"a ? b : c ? d : e",
	"typeof a",
	"void 0",
	"delete a.b",
	"a++",
	"--a",
	"a = b = c",
	"a += 1",
	"a ||= b",
	"a, b",
	"a.b.c",
	"a[0]",
	"a[b + 1]",
	"a?.b?.[c]",
	"(a?.b).c",
	"(a?.m)(x)",
	"f(a, ...b)",
	"f?.(a)",
	"new Foo(a)",
	"[1, , ...rest]",
	"{ a: 1, b, [c]: 2, ...d }",
	"{ get x() { return 1; }, m(a) { return a; } }",
	"x => x + 1",
	"(a, { b = 2 }, ...c) => a",
	"async (x) => await x",
	"function (a) { return a; }",
	"async function named() { await p; }",
	"`a${b}c`",
	"tag`x${y}`",
	"/ab+c/gi",
	"x |> f",
	"obj::fn",
	"a instanceof B",
	"'k' in o",
	"[a, b] = [b, a]",
	"({ a, b: [c] } = o)",
}

var roundTripPrograms = []string{
	"let a = 1; const { b } = o; var [c, ...d] = e;",
	"if (a) { b(); } else if (c) d(); else { e(); }",
	"for (let i = 0; i < n; i++) { if (i == 2) continue; }",
	"for (const k in o) sum += o[k];",
	"for (const x of xs) { total += x; }",
	"while (a) { a--; }",
	"do { a++; } while (a < 10);",
	"label: for (;;) { break label; }",
	"switch (x) { case 1: y = 1; break; default: y = 2; }",
	"try { f(); } catch (e) { g(e); } finally { h(); }",
	"try { f(); } catch { g(); }",
	"function add(a, b = 1) { return a + b; }",
	"throw new Error('x');",
	"import x, { y as z } from 'mod'; export const w = x + z;",
	"export default a;",
	"export * from 'other';",
}

func TestRoundTripThroughJSON(t *testing.T) {
	check := func(src string, n ast.Node) {
		data, err := json.Marshal(n)
		require.NoError(t, err, src)

		back, err := ast.Deserialize(data)
		require.NoError(t, err, src)
		assert.Equal(t, n.Type(), back.Type(), src)
		assert.Equal(t, n.String(), back.String(), src)

		again, err := json.Marshal(back)
		require.NoError(t, err, src)
		assert.JSONEq(t, string(data), string(again), src)
	}
	for _, src := range roundTripExpressions {
		check(src, mustParse(t, src))
	}
	for _, src := range roundTripPrograms {
		check(src, mustProgram(t, src))
	}
}

func TestPrintReparses(t *testing.T) {
	for _, src := range roundTripExpressions {
		n := mustParse(t, src)
		again := mustParse(t, n.String())
		assert.Equal(t, n.String(), again.String(), src)
	}
	for _, src := range roundTripPrograms {
		n := mustProgram(t, src)
		again := mustProgram(t, n.String())
		assert.Equal(t, n.String(), again.String(), src)
	}
}

func TestDeserializeErrors(t *testing.T) {
	_, err := ast.Deserialize([]byte(`{"type":"GotoStatement","node":{}}`))
	assert.True(t, errors.Is(err, errors.ErrUnknownTag))

	_, err = ast.Deserialize([]byte(`{"type":"BinaryExpression","node":{"operator":"+","left":{"type":"Nope","node":{}},"right":null}}`))
	var regErr *errors.RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "Nope", regErr.Tag)

	_, err = ast.Deserialize([]byte(`not json`))
	assert.Error(t, err)

	tags := ast.Tags()
	for _, tag := range []string{"Identifier", "BinaryExpression", "Program", "ArrowFunctionExpression", "ObjectPattern"} {
		assert.Contains(t, tags, tag)
	}
}

func eval(t *testing.T, src string, data interface{}) interface{} {
	t.Helper()
	var n ast.Node
	if p, err := parser.Parse(src); err == nil {
		n = p
	} else {
		n = mustProgram(t, src)
	}
	v, err := n.Get(runtime.Scopes.StackFor(data))
	require.NoError(t, err, src)
	return runtime.Export(v)
}

func TestEvaluate(t *testing.T) {
	data := map[string]interface{}{
		"user":  map[string]interface{}{"name": "ada", "langs": []interface{}{"go", "js"}},
		"n":     4,
		"empty": nil,
	}
	cases := []struct {
		src  string
		want interface{}
	}{
		{"1 + 2 * 3", 7.0},
		{"user.name", "ada"},
		{"user.langs[1]", "js"},
		{"user.langs.length", 2.0},
		{"user?.missing?.deep", nil},
		{"empty ?? 'fallback'", "fallback"},
		{"n > 3 ? 'big' : 'small'", "big"},
		{"`${user.name}:${n}`", "ada:4"},
		{"typeof user", "object"},
		{"'name' in user", true},
		{"[n, ...user.langs]", []interface{}{4.0, "go", "js"}},
		{"({ n, double: n * 2 })", map[string]interface{}{"n": 4.0, "double": 8.0}},
		{"(x => x * x)(n)", 16.0},
		{"n |> (x => x + 1)", 5.0},
		{"(() => { let s = 0; for (let i = 1; i <= n; i++) s += i; return s; })()", 10.0},
		{"let { name, langs: [first] } = user; name + '/' + first", "ada/go"},
		{"function fact(k) { return k <= 1 ? 1 : k * fact(k - 1); } fact(n)", 24.0},
		{"let r = []; for (const k in user) r[r.length] = k; r", []interface{}{"langs", "name"}},
		{"let t = 0; for (const l of user.langs) t += l.length; t", 4.0},
		{"let out; switch (n) { case 4: out = 'four'; break; default: out = 'other'; } out", "four"},
		{"let v; try { throw 'boom'; } catch (e) { v = e; } v", "boom"},
		{"var k = 0; do { k++; } while (k < 3); k", 3.0},
		{"let h = hoisted(); function hoisted() { return 1; } h", 1.0},
		{"const o = {v: 3, m() { return this.v; }}; (o?.m)()", 3.0},
		{"const o = {v: 3, m() { return this.v; }}; (o?.['m'])() + o?.m()", 6.0},
		{"(empty?.m)?.()", nil},
		{"outer: for (const a of [1, 2]) { for (const b of [3, 4]) { if (b == 4) continue outer; n += a * b; } } n", 13.0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, eval(t, c.src, data), c.src)
	}
}

func TestTryWithoutFinally(t *testing.T) {
	cases := []struct {
		src  string
		want interface{}
	}{
		{"let v = 0; try { v = 1; } catch (e) { v = 2; } v", 1.0},
		{"try { throw 'x'; } catch { var caught = true; } caught", true},
		{"try { var inTry = 3; } catch (e) {} inTry", 3.0},
		{"function f() { try { return g(); } catch (e) { return e; } function g() { throw 'g'; } } f()", "g"},
		{"(() => { try { throw 1; } catch (e) { var r = e + 1; } return r; })()", 2.0},
		{"let w; try { w = 'body'; } finally { w += '!'; } w", "body!"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, eval(t, c.src, nil), c.src)
	}
}

func TestEvaluateErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind string
	}{
		{"missing", "ReferenceError"},
		{"empty.x", "TypeError"},
		{"n()", "TypeError"},
		{"(empty?.m)()", "TypeError"},
		{"const c = 1; c = 2", "TypeError"},
		{"let d = 1; let d = 2", "SyntaxError"},
		{"1n + 1", "TypeError"},
	}
	for _, c := range cases {
		var n ast.Node
		if p, err := parser.Parse(c.src); err == nil {
			n = p
		} else {
			n = mustProgram(t, c.src)
		}
		_, err := n.Get(runtime.Scopes.StackFor(map[string]interface{}{"empty": nil, "n": 1}))
		var evalErr *errors.EvaluationError
		require.True(t, errors.As(err, &evalErr), "%s: %v", c.src, err)
		assert.Equal(t, c.kind, evalErr.Kind, c.src)
	}

	_, err := mustProgram(t, "throw 42").Get(runtime.Scopes.StackFor(nil))
	var thrown *runtime.ThrowError
	require.True(t, errors.As(err, &thrown))
	assert.Equal(t, 42.0, thrown.Value.Number)
}

func TestSet(t *testing.T) {
	ctx := runtime.NewPlainObject()
	ctx.Set("obj", runtime.NewObject(runtime.NewPlainObject()))
	stack := runtime.NewStack(runtime.Scopes.For(ctx))

	_, err := mustParse(t, "obj.x").Set(stack, runtime.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, ctx.Get("obj").Object.Get("x").Number)

	_, err = mustParse(t, "obj").Set(stack, runtime.NewString("replaced"))
	require.NoError(t, err)
	assert.Equal(t, "replaced", ctx.Get("obj").Str)

	_, err = mustParse(t, "1 + 2").Set(stack, runtime.Null)
	assert.True(t, errors.Is(err, errors.ErrNotAssignable))
}

func TestEvents(t *testing.T) {
	cases := []struct {
		src  string
		want []string
	}{
		{"42", nil},
		{"a", []string{"a"}},
		{"user.name", []string{"user.name"}},
		{"items[0].title", []string{"items.0.title"}},
		{"items[i]", []string{"items", "i"}},
		{"a + a * b", []string{"a", "b"}},
		{"user.greet(name)", []string{"user", "name"}},
		{"c ? x.y : z", []string{"c", "x.y", "z"}},
		{"x => x + y", []string{"y"}},
		{"`${a.b}-${c}`", []string{"a.b", "c"}},
		{"{ k: v, ...rest }", []string{"v", "rest"}},
	}
	for _, c := range cases {
		var got []string
		for _, p := range mustParse(t, c.src).Events() {
			got = append(got, p.String())
		}
		assert.Equal(t, c.want, got, c.src)
	}
}

func TestReactiveAssignment(t *testing.T) {
	stack, rs := runtime.Scopes.ReactiveStackFor(map[string]interface{}{
		"user": map[string]interface{}{"name": "ada"},
	})
	n := mustParse(t, "user.name")
	var seen []interface{}
	rs.SubscribeAll(n.Events(), func(newValue, oldValue *runtime.Value) {
		seen = append(seen, runtime.Export(oldValue), runtime.Export(newValue))
	})

	_, err := mustParse(t, "user.name = 'grace'").Get(stack)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ada", "grace"}, seen)
}

func TestAsync(t *testing.T) {
	pending := runtime.NewFuture()
	stack := runtime.Scopes.StackFor(map[string]interface{}{"p": pending})
	f := ast.Async(stack, mustProgram(t, "const v = await p; v * 2"))
	assert.Equal(t, runtime.Pending, f.State())

	pending.Resolve(runtime.NewNumber(21))
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("async evaluation did not finish")
	}
	v, _, state := f.Result()
	assert.Equal(t, runtime.Fulfilled, state)
	assert.Equal(t, 42.0, v.Number)

	f = ast.Async(runtime.Scopes.StackFor(nil), mustProgram(t, "throw 'no'"))
	<-f.Done()
	_, reason, state := f.Result()
	assert.Equal(t, runtime.Rejected, state)
	assert.Equal(t, "no", reason.Str)

	_, err := mustParse(t, "await p").Get(runtime.Scopes.StackFor(map[string]interface{}{"p": runtime.NewFuture()}))
	var pendingErr *runtime.PendingError
	assert.True(t, errors.As(err, &pendingErr))
}
