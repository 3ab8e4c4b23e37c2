package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func mustParse(t *testing.T, src string, opts ...Option) ast.Node {
	t.Helper()
	n, err := Parse(src, opts...)
	require.NoError(t, err, src)
	return n
}

func mustProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseProgram(src)
	require.NoError(t, err, src)
	return prog
}

func syntaxError(t *testing.T, err error) *errors.SyntaxError {
	t.Helper()
	require.Error(t, err)
	var se *errors.SyntaxError
	require.True(t, errors.As(err, &se), "expected a syntax error, got %v", err)
	return se
}

func TestPrecedencePrinting(t *testing.T) {
	noFold := WithConstantFolding(false)
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "a + b * c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - (b - c)", "a - (b - c)"},
		{"a - b - c", "a - b - c"},
		{"a || b && c", "a || b && c"},
		{"(a || b) && c", "(a || b) && c"},
		{"a ? b : c ? d : e", "a ? b : c ? d : e"},
		{"(a ? b : c) ? d : e", "(a ? b : c) ? d : e"},
		{"a = b ? c : d", "a = b ? c : d"},
		{"x |> f |> g", "x |> f |> g"},
		{"a ?? b", "a ?? b"},
		{"typeof a === 'string'", `typeof a === "string"`},
		{"!a instanceof B", "!a instanceof B"},
		{"a << 1 < b", "a << 1 < b"},
		{"a & b | c ^ d", "a & b | c ^ d"},
		{"(-a) ** 2", "(-a) ** 2"},
		{"a ** -b", "a ** -b"},
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"a.b[c](d)", "a.b[c](d)"},
		{"new Foo(1).bar", "new Foo(1).bar"},
		{"a++ + ++b", "a++ + ++b"},
		{"- -a", "- -a"},
		{"void 0", "void 0"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(t, tt.src, noFold).String())
		})
	}
}

func TestAssociativity(t *testing.T) {
	left := mustParse(t, "a - b - c").(*ast.BinaryExpression)
	inner, ok := left.Left.(*ast.BinaryExpression)
	require.True(t, ok, "left associative operators nest on the left")
	assert.Equal(t, "a", inner.Left.String())
	assert.Equal(t, "c", left.Right.String())

	pow := mustParse(t, "a ** b ** c").(*ast.BinaryExpression)
	_, ok = pow.Right.(*ast.BinaryExpression)
	assert.True(t, ok, "** nests on the right")
	assert.Equal(t, "a", pow.Left.String())

	assign := mustParse(t, "a = b = c").(*ast.AssignmentExpression)
	_, ok = assign.Right.(*ast.AssignmentExpression)
	assert.True(t, ok, "= nests on the right")

	cond := mustParse(t, "a ? b : c ? d : e").(*ast.ConditionalExpression)
	_, ok = cond.Alternate.(*ast.ConditionalExpression)
	assert.True(t, ok, "?: nests in the alternate")

	seq := mustParse(t, "a, b, c").(*ast.SequenceExpression)
	assert.Len(t, seq.Expressions, 3)

	nested := mustParse(t, "(a, b), c").(*ast.SequenceExpression)
	assert.Len(t, nested.Expressions, 2)
}

func TestConditionalBindsLooserThanLogical(t *testing.T) {
	cond := mustParse(t, "a || b ? c : d").(*ast.ConditionalExpression)
	assert.Equal(t, "a || b", cond.Test.String())

	assign := mustParse(t, "x = a ? b : c = d").(*ast.AssignmentExpression)
	inner := assign.Right.(*ast.ConditionalExpression)
	_, ok := inner.Alternate.(*ast.AssignmentExpression)
	assert.True(t, ok)
}

func TestConstantFolding(t *testing.T) {
	lit, ok := mustParse(t, "1 + 2 * 3").(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(7), lit.Value.Number)

	lit, ok = mustParse(t, `"a" + "b"`).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "ab", lit.Value.Str)

	lit, ok = mustParse(t, "-5").(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(-5), lit.Value.Number)

	_, ok = mustParse(t, "1 + 2", WithConstantFolding(false)).(*ast.BinaryExpression)
	assert.True(t, ok)

	_, ok = mustParse(t, "a + 2").(*ast.BinaryExpression)
	assert.True(t, ok)
}

func TestExponentRequiresParensAfterUnary(t *testing.T) {
	for _, src := range []string{"-a ** 2", "-2 ** 2", "typeof a ** 2", "await x ** 2"} {
		_, err := Parse(src)
		syntaxError(t, err)
	}
	mustParse(t, "(-2) ** 2")
}

func TestNullishMixing(t *testing.T) {
	for _, src := range []string{"a ?? b || c", "a || b ?? c", "a && b ?? c"} {
		_, err := Parse(src)
		syntaxError(t, err)
	}
	mustParse(t, "(a ?? b) || c")
	mustParse(t, "a ?? (b && c)")
}

func TestRegExpVersusDivision(t *testing.T) {
	div := mustParse(t, "a / b / c").(*ast.BinaryExpression)
	assert.Equal(t, "/", div.Operator)

	assign := mustParse(t, "x = /ab+c/gi").(*ast.AssignmentExpression)
	re, ok := assign.Right.(*ast.RegExpLiteral)
	require.True(t, ok)
	assert.Equal(t, "ab+c", re.Pattern)
	assert.Equal(t, "gi", re.Flags)

	call := mustParse(t, "s.split(/,/)").(*ast.CallExpression)
	_, ok = call.Arguments[0].(*ast.RegExpLiteral)
	assert.True(t, ok)

	_, ok = mustParse(t, "(a) / 2", WithConstantFolding(false)).(*ast.BinaryExpression)
	assert.True(t, ok)
}

func TestInvalidAssignmentTargets(t *testing.T) {
	for _, src := range []string{
		"1 = 2",
		"a + b = c",
		"f() = 1",
		"a?.b = 1",
		"++1",
		"a++ = 1",
		"(a + b)++",
		"f() += 1",
		"[a + 1] = x",
		"this = 1",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			syntaxError(t, err)
		})
	}
}

func TestDestructuringAssignment(t *testing.T) {
	swap := mustParse(t, "[a, b] = [b, a]").(*ast.AssignmentExpression)
	pat, ok := swap.Left.(*ast.ArrayPattern)
	require.True(t, ok)
	assert.Len(t, pat.Elements, 2)

	obj := mustParse(t, "({a, b: [c], ...rest} = src)").(*ast.AssignmentExpression)
	op, ok := obj.Left.(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, op.Properties, 3)
	_, ok = op.Properties[2].(*ast.RestElement)
	assert.True(t, ok)

	def := mustParse(t, "({a = 1} = src)").(*ast.AssignmentExpression)
	prop := def.Left.(*ast.ObjectPattern).Properties[0].(*ast.Property)
	_, ok = prop.Value.(*ast.AssignmentPattern)
	assert.True(t, ok)

	_, err := Parse("({a = 1})")
	se := syntaxError(t, err)
	assert.Equal(t, "Invalid shorthand property initializer", se.Msg)

	_, err = Parse("[...a, b] = c")
	syntaxError(t, err)
}

func TestArrowFunctions(t *testing.T) {
	single := mustParse(t, "x => x * 2").(*ast.ArrowFunctionExpression)
	assert.Len(t, single.Params, 1)
	_, ok := single.Body.(*ast.BinaryExpression)
	assert.True(t, ok)

	multi := mustParse(t, "(a, b = 1, ...rest) => a").(*ast.ArrowFunctionExpression)
	require.Len(t, multi.Params, 3)
	_, ok = multi.Params[1].(*ast.AssignmentPattern)
	assert.True(t, ok)
	_, ok = multi.Params[2].(*ast.RestElement)
	assert.True(t, ok)

	patterns := mustParse(t, "({a}, [b]) => a + b").(*ast.ArrowFunctionExpression)
	_, ok = patterns.Params[0].(*ast.ObjectPattern)
	assert.True(t, ok)
	_, ok = patterns.Params[1].(*ast.ArrayPattern)
	assert.True(t, ok)

	async := mustParse(t, "async (x) => await x").(*ast.ArrowFunctionExpression)
	assert.True(t, async.Async)
	_, ok = async.Body.(*ast.AwaitExpression)
	assert.True(t, ok)

	asyncSingle := mustParse(t, "async x => x").(*ast.ArrowFunctionExpression)
	assert.True(t, asyncSingle.Async)

	obj := mustParse(t, "() => ({a: 1})").(*ast.ArrowFunctionExpression)
	_, ok = obj.Body.(*ast.ObjectExpression)
	assert.True(t, ok)
	assert.Equal(t, "() => ({ a: 1 })", obj.String())

	block := mustParse(t, "(a) => { return a }").(*ast.ArrowFunctionExpression)
	_, ok = block.Body.(*ast.BlockStatement)
	assert.True(t, ok)

	call := mustParse(t, "async(x)").(*ast.CallExpression)
	assert.Equal(t, "async", call.Callee.String())

	list := mustParse(t, "f(a => a, b)").(*ast.CallExpression)
	assert.Len(t, list.Arguments, 2)
}

func TestFunctionExpressions(t *testing.T) {
	fn := mustParse(t, "function add(a, b) { return a + b }").(*ast.FunctionExpression)
	assert.Equal(t, "add", fn.ID.Name)
	assert.Len(t, fn.Params, 2)

	gen := mustParse(t, "function* () { yield 1; yield* other() }").(*ast.FunctionExpression)
	assert.True(t, gen.Generator)
	y := gen.Body.Body[1].(*ast.ExpressionStatement).Expression.(*ast.YieldExpression)
	assert.True(t, y.Delegate)

	async := mustParse(t, "async function () { await p }").(*ast.FunctionExpression)
	assert.True(t, async.Async)
}

func TestObjectLiterals(t *testing.T) {
	obj := mustParse(t, `({
		a,
		b: 1,
		"c d": 2,
		3: x,
		[k]: v,
		get g() { return 1 },
		set s(v) {},
		m(x) { return x },
		async am() {},
		*gen() {},
		get: 1,
		...rest,
	})`).(*ast.ObjectExpression)
	require.Len(t, obj.Properties, 12)

	props := obj.Properties
	assert.True(t, props[0].(*ast.Property).Shorthand)
	assert.True(t, props[4].(*ast.Property).Computed)
	assert.Equal(t, ast.PropertyGet, props[5].(*ast.Property).Kind)
	assert.Equal(t, ast.PropertySet, props[6].(*ast.Property).Kind)
	assert.True(t, props[7].(*ast.Property).Method)
	assert.True(t, props[8].(*ast.Property).Value.(*ast.FunctionExpression).Async)
	assert.True(t, props[9].(*ast.Property).Value.(*ast.FunctionExpression).Generator)
	assert.Equal(t, ast.PropertyInit, props[10].(*ast.Property).Kind)
	_, ok := props[11].(*ast.SpreadElement)
	assert.True(t, ok)
}

func TestArrayLiterals(t *testing.T) {
	arr := mustParse(t, "[1, , 3, ...xs,]").(*ast.ArrayExpression)
	require.Len(t, arr.Elements, 4)
	assert.Nil(t, arr.Elements[1])
	_, ok := arr.Elements[3].(*ast.SpreadElement)
	assert.True(t, ok)

	holes := mustParse(t, "[,]").(*ast.ArrayExpression)
	assert.Len(t, holes.Elements, 1)
}

func TestMemberChains(t *testing.T) {
	chain := mustParse(t, "a?.b.c").(*ast.ChainExpression)
	outer := chain.Expression.(*ast.MemberExpression)
	assert.False(t, outer.Optional)
	assert.True(t, outer.Object.(*ast.MemberExpression).Optional)

	call := mustParse(t, "f?.(x)").(*ast.ChainExpression)
	assert.True(t, call.Expression.(*ast.CallExpression).Optional)

	idx := mustParse(t, "a?.[0]").(*ast.ChainExpression)
	assert.True(t, idx.Expression.(*ast.MemberExpression).Computed)

	grouped := mustParse(t, "(a?.m)(x)").(*ast.CallExpression)
	assert.IsType(t, &ast.ChainExpression{}, grouped.Callee)
	assert.Equal(t, "(a?.m)(x)", grouped.String())
	assert.Equal(t, "(a?.b).c", mustParse(t, "(a?.b).c").String())

	kw := mustParse(t, "a.default.new").(*ast.MemberExpression)
	assert.Equal(t, "new", kw.Property.(*ast.Identifier).Name)

	newNoArgs := mustParse(t, "new Date").(*ast.NewExpression)
	assert.Empty(t, newNoArgs.Arguments)

	bind := mustParse(t, "obj::fn(1)").(*ast.CallExpression)
	_, ok := bind.Callee.(*ast.BindExpression)
	assert.True(t, ok)

	unbound := mustParse(t, "::obj.fn").(*ast.BindExpression)
	assert.Nil(t, unbound.Object)

	_, err := Parse("a?.b`x`")
	syntaxError(t, err)
}

func TestTemplates(t *testing.T) {
	tpl := mustParse(t, "`a${b}c${d + 1}`").(*ast.TemplateLiteral)
	assert.Equal(t, []string{"a", "c", ""}, tpl.Quasis)
	assert.Len(t, tpl.Expressions, 2)

	plain := mustParse(t, "`line\\n`").(*ast.TemplateLiteral)
	assert.Equal(t, []string{"line\n"}, plain.Quasis)
	assert.Equal(t, []string{`line\n`}, plain.Raws)

	tagged := mustParse(t, "tag`x${y}`").(*ast.TaggedTemplateExpression)
	assert.Equal(t, "tag", tagged.Tag.String())

	nested := mustParse(t, "`${`${a}`}`").(*ast.TemplateLiteral)
	_, ok := nested.Expressions[0].(*ast.TemplateLiteral)
	assert.True(t, ok)
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"0x10", 16},
		{"0b101", 5},
		{"0o17", 15},
		{"017", 15},
		{"1_000_000", 1e6},
		{".5", 0.5},
		{"1e3", 1000},
		{"2.5e-1", 0.25},
	}
	for _, tt := range tests {
		lit, ok := mustParse(t, tt.src).(*ast.Literal)
		require.True(t, ok, tt.src)
		assert.Equal(t, tt.want, lit.Value.Number, tt.src)
	}

	big := mustParse(t, "0xffn").(*ast.Literal)
	assert.Equal(t, runtime.TypeBigInt, big.Value.Type)
	assert.Equal(t, "255", big.Value.BigInt.String())
}

func TestTrailingSemicolon(t *testing.T) {
	mustParse(t, "a + b;")
	_, err := Parse("a + b; c")
	syntaxError(t, err)
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("a +")
	se := syntaxError(t, err)
	assert.Equal(t, "Unexpected end of input", se.Msg)

	_, err = ParseProgram("let x = 1;\nlet y = @;")
	se = syntaxError(t, err)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, "Invalid or unexpected token", se.Msg)

	_, err = Parse("(a, b")
	syntaxError(t, err)

	_, err = Parse("class A {}")
	syntaxError(t, err)
}

func TestStatements(t *testing.T) {
	prog := mustProgram(t, `
		var a = 1, b;
		let [c, d] = pair;
		const {e} = obj;
		if (a) b = 1; else { b = 2 }
		for (let i = 0; i < 3; i++) {}
		for (const k in obj) continue;
		for (x of xs) break;
		while (false) {}
		do a++; while (a < 3)
		outer: for (;;) { break outer }
		throw new Error("x");
		function f() {}
		;
		debugger
	`)
	kinds := make([]string, len(prog.Body))
	for i, s := range prog.Body {
		kinds[i] = s.Type()
	}
	assert.Equal(t, []string{
		"VariableDeclaration",
		"VariableDeclaration",
		"VariableDeclaration",
		"IfStatement",
		"ForStatement",
		"ForInStatement",
		"ForOfStatement",
		"WhileStatement",
		"DoWhileStatement",
		"LabeledStatement",
		"ThrowStatement",
		"FunctionDeclaration",
		"EmptyStatement",
		"DebuggerStatement",
	}, kinds)
	assert.False(t, prog.Module)

	forOf := prog.Body[6].(*ast.ForOfStatement)
	assert.Equal(t, "x", forOf.Left.String())
}

func TestAutomaticSemicolons(t *testing.T) {
	prog := mustProgram(t, "a = 1\nb = 2")
	assert.Len(t, prog.Body, 2)

	prog = mustProgram(t, "a\n++b")
	require.Len(t, prog.Body, 2)
	upd := prog.Body[1].(*ast.ExpressionStatement).Expression.(*ast.UpdateExpression)
	assert.True(t, upd.Prefix)

	prog = mustProgram(t, "function f() { return\n1 }")
	ret := prog.Body[0].(*ast.FunctionDeclaration).Body.Body[0].(*ast.ReturnStatement)
	assert.Nil(t, ret.Argument)

	_, err := ParseProgram("a = 1 b = 2")
	syntaxError(t, err)

	_, err = ParseProgram("throw\nerr")
	syntaxError(t, err)
}

func TestSwitchStatement(t *testing.T) {
	prog := mustProgram(t, `switch (x) { case 1: a(); case 2: b(); break; default: c() }`)
	sw := prog.Body[0].(*ast.SwitchStatement)
	require.Len(t, sw.Cases, 3)
	assert.Len(t, sw.Cases[1].Consequent, 2)
	assert.Nil(t, sw.Cases[2].Test)

	_, err := ParseProgram(`switch (x) { default: a(); default: b() }`)
	se := syntaxError(t, err)
	assert.Equal(t, "More than one default clause in switch statement", se.Msg)
}

func TestTryStatement(t *testing.T) {
	prog := mustProgram(t, `try { a() } catch ({message}) { log(message) } finally { done() }`)
	try := prog.Body[0].(*ast.TryStatement)
	require.NotNil(t, try.Handler)
	_, ok := try.Handler.Param.(*ast.ObjectPattern)
	assert.True(t, ok)
	assert.NotNil(t, try.Finalizer)

	prog = mustProgram(t, `try { a() } catch { b() }`)
	assert.Nil(t, prog.Body[0].(*ast.TryStatement).Handler.Param)

	_, err := ParseProgram(`try { a() }`)
	se := syntaxError(t, err)
	assert.Equal(t, "Missing catch or finally after try", se.Msg)
}

func TestDeclarationErrors(t *testing.T) {
	for _, src := range []string{
		"const x;",
		"let [a];",
		"for (const i; i < 1;) {}",
		"for (let a, b of xs) {}",
		"for (var a = 1 of xs) {}",
		"function () {}",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseProgram(src)
			syntaxError(t, err)
		})
	}
}

func TestForInHeadStopsAtIn(t *testing.T) {
	prog := mustProgram(t, "for (var k in o) {}\nfor (var i = 0, n = ('a' in o) ? 1 : 2; i < n; i++) {}")
	_, ok := prog.Body[0].(*ast.ForInStatement)
	assert.True(t, ok)
	_, ok = prog.Body[1].(*ast.ForStatement)
	assert.True(t, ok)

	loop := mustProgram(t, "for ([a, b] of pairs) {}").Body[0].(*ast.ForOfStatement)
	_, ok = loop.Left.(*ast.ArrayPattern)
	assert.True(t, ok)

	await := mustProgram(t, "for await (const x of xs) {}").Body[0].(*ast.ForOfStatement)
	assert.True(t, await.Await)
}

func TestModules(t *testing.T) {
	prog := mustProgram(t, `
		import "side-effect";
		import def from "a";
		import def2, * as ns from "b";
		import { x, y as z, default as d } from "c";
		export const one = 1;
		export function two() {}
		export { one as uno, two };
		export { three } from "d";
		export * from "e";
		export * as all from "f";
		export default function () {}
	`)
	assert.True(t, prog.Module)
	require.Len(t, prog.Body, 11)

	named := prog.Body[3].(*ast.ImportDeclaration)
	assert.Equal(t, []*ast.ImportSpecifier{
		{Kind: ast.ImportNamed, Imported: "x", Local: "x"},
		{Kind: ast.ImportNamed, Imported: "y", Local: "z"},
		{Kind: ast.ImportNamed, Imported: "default", Local: "d"},
	}, named.Specifiers)

	ns := prog.Body[2].(*ast.ImportDeclaration)
	assert.Equal(t, ast.ImportNamespace, ns.Specifiers[1].Kind)

	all := prog.Body[9].(*ast.ExportAllDeclaration)
	assert.Equal(t, "all", all.Exported)

	def := prog.Body[10].(*ast.ExportDefaultDeclaration)
	_, ok := def.Declaration.(*ast.FunctionDeclaration)
	assert.True(t, ok)

	expr := mustProgram(t, "export default a + b;").Body[0].(*ast.ExportDefaultDeclaration)
	_, ok = expr.Declaration.(*ast.BinaryExpression)
	assert.True(t, ok)
}

func TestPrintedProgramReparses(t *testing.T) {
	sources := []string{
		"let x = 1;\nx += 2;",
		"if (a) {\n  b();\n} else c();",
		"for (let i = 0; i < n; i++) total += i;",
		"for (const [k, v] of entries) out[k] = v;",
		"label: while (true) {\n  break label;\n}",
		"switch (x) {\n  case 1:\n    a();\n  default:\n    b();\n}",
		"try {\n  f();\n} catch (e) {\n  g(e);\n} finally {\n  h();\n}",
		"const f = async (a, {b = 2}) => await a + b;",
		"({a, ...rest} = obj);",
		"function* gen() {\n  yield* [1, 2];\n}",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := mustProgram(t, src)
			second := mustProgram(t, first.String())
			assert.Equal(t, first.String(), second.String())
		})
	}
}
