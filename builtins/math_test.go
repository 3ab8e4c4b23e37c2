package builtins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/runtime"
)

func TestMath(t *testing.T) {
	checkAll(t, []evalCase{
		{"Math.abs(-2)", 2.0},
		{"Math.floor(1.7)", 1.0},
		{"Math.ceil(1.2)", 2.0},
		{"Math.round(2.5)", 3.0},
		{"Math.round(-2.5)", -2.0},
		{"Math.trunc(-1.7)", -1.0},
		{"Math.sign(-3)", -1.0},
		{"Math.max(1, 3, 2)", 3.0},
		{"Math.max()", math.Inf(-1)},
		{"Math.min(1, 3, 2)", 1.0},
		{"Math.pow(2, 10)", 1024.0},
		{"Math.hypot(3, 4)", 5.0},
		{"Math.sqrt(16)", 4.0},
		{"Math.cbrt(27)", 3.0},
		{"Math.clz32(1)", 31.0},
		{"Math.imul(3, 4)", 12.0},
		{"Math.imul(0xffffffff, 5)", -5.0},
		{"Math.PI", math.Pi},
		{"var r = Math.random(); r >= 0 && r < 1", true},
		{"Math.fround(5.5)", 5.5},
	})
	assert.True(t, math.IsNaN(eval(t, "Math.max(1, NaN)").Number))
	assert.Equal(t, "TypeError", evalError(t, "Math.abs(1n)").Kind)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.0, round(0.4))
	assert.True(t, math.Signbit(round(-0.4)))
	assert.Equal(t, -1.0, round(-0.6))
	assert.True(t, math.IsNaN(round(math.NaN())))
}

func TestMathObjectIsShared(t *testing.T) {
	a, ok := Globals(nil).Get("Math")
	assert.True(t, ok)
	b, _ := Globals(nil).Get("Math")
	assert.Same(t, a.Object, b.Object)
	assert.Equal(t, runtime.TypeObject, a.Type)
}
