package runtime

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/errors"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{1.0 / 3, "0.3333333333333333"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789012, "123456789012"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatNumber(c.n))
	}
}

func TestStringToNumber(t *testing.T) {
	cases := map[string]float64{
		"12":        12,
		" 3.5 ":     3.5,
		"":          0,
		"0x10":      16,
		"0b101":     5,
		"-Infinity": math.Inf(-1),
		"1e3":       1000,
	}
	for s, want := range cases {
		assert.Equal(t, want, StringToNumber(s), s)
	}
	for _, s := range []string{"abc", "1_000", "inf", "0xZZ", "12px"} {
		assert.True(t, math.IsNaN(StringToNumber(s)), s)
	}
}

func TestToBooleanAndTypeOf(t *testing.T) {
	falsy := []*Value{Undefined, Null, False, NewNumber(0), NaN, EmptyStr, NewBigInt(big.NewInt(0))}
	for _, v := range falsy {
		assert.False(t, v.ToBoolean(), Inspect(v))
	}
	truthy := []*Value{True, NewNumber(-1), NewString("0"), NewObject(NewPlainObject()), NewArray(nil)}
	for _, v := range truthy {
		assert.True(t, v.ToBoolean(), Inspect(v))
	}

	assert.Equal(t, "object", Null.TypeOf())
	assert.Equal(t, "undefined", Undefined.TypeOf())
	assert.Equal(t, "bigint", NewBigInt(big.NewInt(1)).TypeOf())
	noop := func(this *Value, args []*Value) (*Value, error) { return Undefined, nil }
	assert.Equal(t, "function", NewFunction("f", 0, noop).TypeOf())
	assert.Equal(t, "object", NewArray(nil).TypeOf())
}

func TestEquality(t *testing.T) {
	one := NewNumber(1)
	assert.True(t, StrictEquals(one, NewNumber(1)))
	assert.False(t, StrictEquals(one, NewString("1")))
	assert.False(t, StrictEquals(NaN, NaN))
	assert.True(t, SameValueZero(NaN, NaN))
	assert.True(t, StrictEquals(nil, Undefined))

	obj := NewObject(NewPlainObject())
	assert.True(t, StrictEquals(obj, obj))
	assert.False(t, StrictEquals(obj, NewObject(NewPlainObject())))

	cases := []struct {
		a, b *Value
		want bool
	}{
		{Null, Undefined, true},
		{Null, NewNumber(0), false},
		{one, NewString("1"), true},
		{True, one, true},
		{NewString(""), NewNumber(0), true},
		{NewBigInt(big.NewInt(2)), NewNumber(2), true},
	}
	for _, c := range cases {
		got, err := LooseEquals(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s == %s", Inspect(c.a), Inspect(c.b))
	}
}

func TestBinaryOp(t *testing.T) {
	num := func(f float64) *Value { return NewNumber(f) }
	cases := []struct {
		op   string
		l, r *Value
		want *Value
	}{
		{"+", num(1), NewString("2"), NewString("12")},
		{"+", num(1), num(2), num(3)},
		{"-", NewString("5"), num(2), num(3)},
		{"*", num(4), True, num(4)},
		{"/", num(1), num(4), num(0.25)},
		{"%", num(-5), num(2), num(-1)},
		{"**", num(2), num(10), num(1024)},
		{"&", num(6), num(3), num(2)},
		{"|", num(6), num(3), num(7)},
		{"^", num(6), num(3), num(5)},
		{"<<", num(1), num(33), num(2)},
		{">>", num(-8), num(1), num(-4)},
		{">>>", num(-1), num(28), num(15)},
		{"<", NewString("10"), NewString("9"), True},
		{"<", num(10), NewString("9"), False},
		{">=", num(2), num(2), True},
		{"===", num(1), NewString("1"), False},
		{"!=", Null, Undefined, False},
	}
	for _, c := range cases {
		got, err := BinaryOp(c.op, c.l, c.r)
		require.NoError(t, err, c.op)
		assert.True(t, StrictEquals(c.want, got), "%s %s %s = %s", Inspect(c.l), c.op, Inspect(c.r), Inspect(got))
	}

	got, err := BinaryOp("%", num(1), num(0))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Number))
}

func TestBigIntArithmetic(t *testing.T) {
	a, b := NewBigInt(big.NewInt(7)), NewBigInt(big.NewInt(2))
	got, err := BinaryOp("*", a, b)
	require.NoError(t, err)
	assert.Equal(t, "14", got.BigInt.String())

	_, err = BinaryOp("+", a, NewNumber(1))
	var evalErr *errors.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "TypeError", evalErr.Kind)

	neg, err := UnaryOp("-", a)
	require.NoError(t, err)
	assert.Equal(t, "-7", neg.BigInt.String())

	_, err = UnaryOp("+", a)
	assert.Error(t, err)

	inc, err := Increment(a, 1)
	require.NoError(t, err)
	assert.Equal(t, "8", inc.BigInt.String())
}

func TestUnaryOp(t *testing.T) {
	v, err := UnaryOp("typeof", NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, "string", v.Str)

	v, err = UnaryOp("~", NewNumber(5))
	require.NoError(t, err)
	assert.Equal(t, -6.0, v.Number)

	v, err = UnaryOp("!", EmptyStr)
	require.NoError(t, err)
	assert.True(t, v.Bool)

	_, err = UnaryOp("??", Null)
	assert.True(t, errors.Is(err, errors.ErrNotImplemented))
}
