package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectStatics(t *testing.T) {
	checkAll(t, []evalCase{
		{"Object.keys({b: 1, a: 2, 1: 3})", []interface{}{"1", "b", "a"}},
		{"Object.keys({z: 0, 10: 1, 2: 2, '01': 3})", []interface{}{"2", "10", "z", "01"}},
		{"var r = ''; for (var k in {b: 1, 3: 2, a: 3, 1: 4}) r += k; r", "13ba"},
		{"JSON.stringify({b: 1, 2: 2, a: 3})", `{"2":2,"b":1,"a":3}`},
		{"var {b, ...rest} = {b: 1, c: 2, 7: 3}; Object.keys(rest)", []interface{}{"7", "c"}},
		{"Object.values({a: 1, b: 2})", []interface{}{1.0, 2.0}},
		{"Object.entries({a: 1})", []interface{}{[]interface{}{"a", 1.0}}},
		{"Object.keys('ab')", []interface{}{"0", "1"}},
		{"Object.fromEntries([['a', 1], ['b', 2]])", map[string]interface{}{"a": 1.0, "b": 2.0}},
		{"Object.assign({a: 1}, {b: 2}, null, {a: 3})", map[string]interface{}{"a": 3.0, "b": 2.0}},
		{"var p = {x: 1}; var o = Object.create(p); o.x", 1.0},
		{"Object.getPrototypeOf(Object.create(null))", nil},
		{"var o = {}; Object.defineProperty(o, 'x', {value: 1}); Object.keys(o).length + o.x", 1.0},
		{"var o = {}; Object.defineProperty(o, 'x', {get() { return 7 }}); o.x", 7.0},
		{"Object.getOwnPropertyDescriptor({a: 1}, 'a')", map[string]interface{}{"value": 1.0, "writable": true, "enumerable": true, "configurable": true}},
		{"var o = Object.freeze({a: 1}); o.a = 2; o.a", 1.0},
		{"Object.hasOwn({a: 1}, 'a')", true},
		{"Object.is(NaN, NaN)", true},
		{"Object.is(0, -0)", false},
		{"var o = {}; Object.setPrototypeOf(o, {y: 2}); o.y", 2.0},
	})
	assert.Equal(t, "TypeError", evalError(t, "Object.keys(null)").Kind)
	assert.Equal(t, "TypeError", evalError(t, "var a = {}; var b = Object.create(a); Object.setPrototypeOf(a, b)").Kind)
}

func TestObjectPrototype(t *testing.T) {
	checkAll(t, []evalCase{
		{"({a: 1}).hasOwnProperty('a')", true},
		{"({a: 1}).hasOwnProperty('toString')", false},
		{"var p = {}; p.isPrototypeOf(Object.create(p))", true},
		{"[1].propertyIsEnumerable('length')", false},
		{"Object.prototype.toString.call([])", "[object Array]"},
		{"Object.prototype.toString.call(null)", "[object Null]"},
		{"String({})", "[object Object]"},
		{"var o = {}; o.valueOf() === o", true},
	})
}
