package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

const maxSafeInteger = 1<<53 - 1

func createNumberConstructor() *runtime.Object {
	proto := runtime.NumberPrototype
	setMethod(proto, "toFixed", 1, numberToFixed)
	setMethod(proto, "toPrecision", 1, numberToPrecision)
	setMethod(proto, "toExponential", 1, numberToExponential)
	setMethod(proto, "toString", 1, numberToString)
	setMethod(proto, "toLocaleString", 0, numberToString)
	setMethod(proto, "valueOf", 0, numberValueOf)

	ctor := newConstructor("Number", 1, proto, numberConstructorCall, numberConstructorCall)
	setMethod(ctor, "isInteger", 1, numberIsInteger)
	setMethod(ctor, "isFinite", 1, numberIsFinite)
	setMethod(ctor, "isNaN", 1, numberIsNaN)
	setMethod(ctor, "isSafeInteger", 1, numberIsSafeInteger)
	setMethod(ctor, "parseInt", 2, globalParseInt)
	setMethod(ctor, "parseFloat", 1, globalParseFloat)

	setConstant(ctor, "EPSILON", runtime.NewNumber(math.Nextafter(1, 2)-1))
	setConstant(ctor, "MAX_SAFE_INTEGER", runtime.NewNumber(maxSafeInteger))
	setConstant(ctor, "MIN_SAFE_INTEGER", runtime.NewNumber(-maxSafeInteger))
	setConstant(ctor, "MAX_VALUE", runtime.NewNumber(math.MaxFloat64))
	setConstant(ctor, "MIN_VALUE", runtime.NewNumber(math.SmallestNonzeroFloat64))
	setConstant(ctor, "NaN", runtime.NaN)
	setConstant(ctor, "POSITIVE_INFINITY", runtime.PosInf)
	setConstant(ctor, "NEGATIVE_INFINITY", runtime.NegInf)
	return ctor
}

func numberConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Zero, nil
	}
	n, err := runtime.ToNumeric(args[0])
	if err != nil {
		return nil, err
	}
	if n.Type == runtime.TypeBigInt {
		f, _ := new(big.Float).SetInt(n.BigInt).Float64()
		return runtime.NewNumber(f), nil
	}
	return n, nil
}

func thisNumber(this *runtime.Value, method string) (float64, error) {
	if this == nil || this.Type != runtime.TypeNumber {
		return 0, errors.TypeErrorf("Number.prototype.%s requires that 'this' be a Number", method)
	}
	return this.Number, nil
}

// digitsArg reads an optional digit count and checks it against [lo, hi].
func digitsArg(args []*runtime.Value, lo, hi int, method string) (int, bool, error) {
	d := runtime.Arg(args, 0)
	if d.Type == runtime.TypeUndefined {
		return 0, false, nil
	}
	n := runtime.ToIntegerOrInfinity(d)
	if n < float64(lo) || n > float64(hi) {
		return 0, false, errors.RangeErrorf("%s() argument must be between %d and %d", method, lo, hi)
	}
	return int(n), true, nil
}

// nonFinite renders NaN and the infinities, which every formatter passes
// through unchanged.
func nonFinite(n float64) (string, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return runtime.FormatNumber(n), true
	}
	return "", false
}

func numberToFixed(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := thisNumber(this, "toFixed")
	if err != nil {
		return nil, err
	}
	digits, _, err := digitsArg(args, 0, 100, "toFixed")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return runtime.NewString(s), nil
	}
	if math.Abs(n) >= 1e21 {
		return runtime.NewString(runtime.FormatNumber(n)), nil
	}
	return runtime.NewString(strconv.FormatFloat(n, 'f', digits, 64)), nil
}

// exponent rewrites Go's e+07 exponent form as e+7.
func exponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mant, sign, digits := s[:i], s[i+1], strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + string(sign) + digits
}

func numberToExponential(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := thisNumber(this, "toExponential")
	if err != nil {
		return nil, err
	}
	digits, given, err := digitsArg(args, 0, 100, "toExponential")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return runtime.NewString(s), nil
	}
	if !given {
		digits = -1
	}
	return runtime.NewString(exponent(strconv.FormatFloat(n, 'e', digits, 64))), nil
}

func numberToPrecision(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := thisNumber(this, "toPrecision")
	if err != nil {
		return nil, err
	}
	if runtime.Arg(args, 0).Type == runtime.TypeUndefined {
		return runtime.NewString(runtime.FormatNumber(n)), nil
	}
	prec, _, err := digitsArg(args, 1, 100, "toPrecision")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return runtime.NewString(s), nil
	}
	// The exponent after rounding to prec digits, which can carry into the
	// next power of ten.
	sci := strconv.FormatFloat(n, 'e', prec-1, 64)
	e, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if e < -6 || e >= prec {
		return runtime.NewString(exponent(sci)), nil
	}
	return runtime.NewString(strconv.FormatFloat(n, 'f', prec-1-e, 64)), nil
}

func numberToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := thisNumber(this, "toString")
	if err != nil {
		return nil, err
	}
	radix := 10
	if r := runtime.Arg(args, 0); r.Type != runtime.TypeUndefined {
		f := runtime.ToIntegerOrInfinity(r)
		if f < 2 || f > 36 {
			return nil, errors.RangeErrorf("toString() radix must be between 2 and 36")
		}
		radix = int(f)
	}
	if s, ok := nonFinite(n); ok || radix == 10 {
		if !ok {
			s = runtime.FormatNumber(n)
		}
		return runtime.NewString(s), nil
	}
	return runtime.NewString(formatRadix(n, radix)), nil
}

// formatRadix writes n in radix, with up to 20 fractional digits.
func formatRadix(n float64, radix int) string {
	neg := n < 0
	n = math.Abs(n)
	whole := math.Floor(n)
	frac := n - whole
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if whole < 1<<63 {
		b.WriteString(strconv.FormatUint(uint64(whole), radix))
	} else {
		i, _ := new(big.Float).SetFloat64(whole).Int(nil)
		b.WriteString(i.Text(radix))
	}
	if frac > 0 {
		b.WriteByte('.')
		for i := 0; i < 20 && frac > 0; i++ {
			frac *= float64(radix)
			d := int(frac)
			b.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[d])
			frac -= float64(d)
		}
	}
	return b.String()
}

func numberValueOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := thisNumber(this, "valueOf")
	if err != nil {
		return nil, err
	}
	return runtime.NewNumber(n), nil
}

func numberArg(args []*runtime.Value) (float64, bool) {
	a := runtime.Arg(args, 0)
	return a.Number, a.Type == runtime.TypeNumber
}

func numberIsInteger(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, ok := numberArg(args)
	return runtime.NewBool(ok && isIntegral(n)), nil
}

func numberIsFinite(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, ok := numberArg(args)
	return runtime.NewBool(ok && !math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

func numberIsNaN(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, ok := numberArg(args)
	return runtime.NewBool(ok && math.IsNaN(n)), nil
}

func numberIsSafeInteger(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, ok := numberArg(args)
	return runtime.NewBool(ok && isIntegral(n) && math.Abs(n) <= maxSafeInteger), nil
}
