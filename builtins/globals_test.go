package builtins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalFunctions(t *testing.T) {
	checkAll(t, []evalCase{
		{"parseInt('42px')", 42.0},
		{"parseInt('  -17')", -17.0},
		{"parseInt('0x1f')", 31.0},
		{"parseInt('ff', 16)", 255.0},
		{"parseInt('101', 2)", 5.0},
		{"parseFloat('3.14abc')", 3.14},
		{"parseFloat('.5')", 0.5},
		{"parseFloat('1e3x')", 1000.0},
		{"parseFloat('1e')", 1.0},
		{"parseFloat('-Infinity')", math.Inf(-1)},
		{"isNaN('abc')", true},
		{"isNaN('12')", false},
		{"isFinite('12')", true},
		{"isFinite(Infinity)", false},
		{"encodeURIComponent('a b&c/ü')", "a%20b%26c%2F%C3%BC"},
		{"encodeURI('http://x.y/a b?q=1#h')", "http://x.y/a%20b?q=1#h"},
		{"decodeURIComponent('a%20b%26c%2F%C3%BC')", "a b&c/ü"},
		{"decodeURI('a%20b%2Fc')", "a b%2Fc"},
		{"typeof undefined", "undefined"},
		{"Infinity > 1e308", true},
		{"globalThis.Math === Math", true},
	})
	assert.True(t, math.IsNaN(eval(t, "parseInt('12', 37)").Number))
	assert.True(t, math.IsNaN(eval(t, "parseInt('xyz')").Number))
	assert.Equal(t, "URIError", evalError(t, "decodeURIComponent('%E0%A4%A')").Kind)
	assert.Equal(t, "URIError", evalError(t, "decodeURIComponent('%C3')").Kind)
}

func TestFloatPrefix(t *testing.T) {
	assert.Equal(t, 0, floatPrefix("abc"))
	assert.Equal(t, 0, floatPrefix("."))
	assert.Equal(t, 2, floatPrefix("1.x"))
	assert.Equal(t, 4, floatPrefix("-1e5"))
}
