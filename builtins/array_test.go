package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/runtime"
)

func TestArrayMethods(t *testing.T) {
	checkAll(t, []evalCase{
		{"[1, 2, 3].at(-1)", 3.0},
		{"[1, 2, 3].at(5)", nil},
		{"var a = [1]; a.push(2, 3); a", []interface{}{1.0, 2.0, 3.0}},
		{"var a = [1, 2]; a.pop() + a.length", 3.0},
		{"var a = [1, 2]; a.shift(); a", []interface{}{2.0}},
		{"var a = [3]; a.unshift(1, 2); a", []interface{}{1.0, 2.0, 3.0}},
		{"var a = [1, 2, 3, 4]; a.splice(1, 2, 'x'); a", []interface{}{1.0, "x", 4.0}},
		{"[1, 2, 3, 4].slice(1, -1)", []interface{}{2.0, 3.0}},
		{"[1].concat([2, 3], 4)", []interface{}{1.0, 2.0, 3.0, 4.0}},
		{"[1, 2, 1].indexOf(1, 1)", 2.0},
		{"[1, 2, 1].lastIndexOf(1)", 2.0},
		{"[NaN].includes(NaN)", true},
		{"[NaN].indexOf(NaN)", -1.0},
		{"[5, 12, 8].find(x => x > 6)", 12.0},
		{"[5, 12, 8].findIndex(x => x > 100)", -1.0},
		{"[5, 12, 8].findLast(x => x > 6)", 8.0},
		{"[5, 12, 8].findLastIndex(x => x > 6)", 2.0},
		{"var s = 0; [1, 2, 3].forEach(x => { s += x }); s", 6.0},
		{"[1, 2, 3].map((x, i) => x * i)", []interface{}{0.0, 2.0, 6.0}},
		{"[1, 2, 3, 4].filter(x => x % 2 == 0)", []interface{}{2.0, 4.0}},
		{"[1, 2, 3].reduce((a, b) => a + b)", 6.0},
		{"[1, 2, 3].reduce((a, b) => a + b, 10)", 16.0},
		{"['a', 'b'].reduceRight((a, b) => a + b)", "ba"},
		{"[2, 4].every(x => x % 2 == 0)", true},
		{"[1, 3].some(x => x > 2)", true},
		{"[3, 1, 2].sort()", []interface{}{1.0, 2.0, 3.0}},
		{"[10, 9, 1].sort()", []interface{}{1.0, 10.0, 9.0}},
		{"[10, 9, 1].sort((a, b) => a - b)", []interface{}{1.0, 9.0, 10.0}},
		{"[undefined, 2, 1].sort()", []interface{}{1.0, 2.0, nil}},
		{"[1, 2, 3].reverse()", []interface{}{3.0, 2.0, 1.0}},
		{"[1, 2, 3].fill(0, 1)", []interface{}{1.0, 0.0, 0.0}},
		{"[1, null, 'a'].join('-')", "1--a"},
		{"String([1, [2, 3]])", "1,2,3"},
		{"[1, [2, [3, [4]]]].flat()", []interface{}{1.0, 2.0, []interface{}{3.0, []interface{}{4.0}}}},
		{"[1, [2, [3, [4]]]].flat(Infinity)", []interface{}{1.0, 2.0, 3.0, 4.0}},
		{"[1, 2].flatMap(x => [x, x * 2])", []interface{}{1.0, 2.0, 2.0, 4.0}},
		{"var out = []; for (const [i, v] of ['a', 'b'].entries()) out.push(i + v); out", []interface{}{"0a", "1b"}},
		{"Array.from(['a', 'b'].keys())", []interface{}{0.0, 1.0}},
	})
}

func TestArraySpliceReturnsRemoved(t *testing.T) {
	assert.Equal(t, []interface{}{3.0, 4.0}, runtime.Export(eval(t, "[1, 2, 3, 4].splice(-2)")))
}

func TestArrayConstructor(t *testing.T) {
	checkAll(t, []evalCase{
		{"Array(3).length", 3.0},
		{"new Array(1, 2)", []interface{}{1.0, 2.0}},
		{"Array.isArray([])", true},
		{"Array.isArray({})", false},
		{"Array.from('ab')", []interface{}{"a", "b"}},
		{"Array.from({length: 2, 0: 'x', 1: 'y'})", []interface{}{"x", "y"}},
		{"Array.from([1, 2], x => x * 10)", []interface{}{10.0, 20.0}},
		{"Array.of(7)", []interface{}{7.0}},
	})
	assert.Equal(t, "RangeError", evalError(t, "Array(-1)").Kind)
}

func TestArrayErrors(t *testing.T) {
	assert.Equal(t, "TypeError", evalError(t, "[].reduce((a, b) => a + b)").Kind)
	assert.Equal(t, "TypeError", evalError(t, "[1].map(3)").Kind)
	assert.Equal(t, "TypeError", evalError(t, "[1, 2].sort((a, b) => a.x.y)").Kind)
}

func TestArrayPrototypeDirect(t *testing.T) {
	arr := runtime.NewArray([]*runtime.Value{runtime.NewNumber(1), runtime.NewNumber(2)})
	res, err := arrayJoin(arr, []*runtime.Value{runtime.NewString("+")})
	assert.NoError(t, err)
	assert.Equal(t, "1+2", res.Str)

	_, err = arrayJoin(runtime.NewString("x"), nil)
	assert.Error(t, err)
}
