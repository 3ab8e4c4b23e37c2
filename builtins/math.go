package builtins

import (
	"math"
	"math/bits"
	"math/rand"

	"github.com/example/jsexpr/runtime"
)

// unary maps one-argument Math functions onto their Go counterparts.
var unary = map[string]func(float64) float64{
	"abs":   math.Abs,
	"acos":  math.Acos,
	"acosh": math.Acosh,
	"asin":  math.Asin,
	"asinh": math.Asinh,
	"atan":  math.Atan,
	"atanh": math.Atanh,
	"cbrt":  math.Cbrt,
	"ceil":  math.Ceil,
	"cos":   math.Cos,
	"cosh":  math.Cosh,
	"exp":   math.Exp,
	"expm1": math.Expm1,
	"floor": math.Floor,
	"log":   math.Log,
	"log10": math.Log10,
	"log1p": math.Log1p,
	"log2":  math.Log2,
	"round": round,
	"sign":  sign,
	"sin":   math.Sin,
	"sinh":  math.Sinh,
	"sqrt":  math.Sqrt,
	"tan":   math.Tan,
	"tanh":  math.Tanh,
	"trunc": math.Trunc,
	"fround": func(f float64) float64 {
		return float64(float32(f))
	},
}

func createMathObject() *runtime.Object {
	m := runtime.NewPlainObject()
	setConstant(m, "PI", runtime.NewNumber(math.Pi))
	setConstant(m, "E", runtime.NewNumber(math.E))
	setConstant(m, "LN2", runtime.NewNumber(math.Ln2))
	setConstant(m, "LN10", runtime.NewNumber(math.Ln10))
	setConstant(m, "LOG2E", runtime.NewNumber(math.Log2E))
	setConstant(m, "LOG10E", runtime.NewNumber(math.Log10E))
	setConstant(m, "SQRT2", runtime.NewNumber(math.Sqrt2))
	setConstant(m, "SQRT1_2", runtime.NewNumber(math.Sqrt2/2))

	for name, fn := range unary {
		setMethod(m, name, 1, mathUnary(fn))
	}
	setMethod(m, "max", 2, mathMax)
	setMethod(m, "min", 2, mathMin)
	setMethod(m, "pow", 2, mathPow)
	setMethod(m, "atan2", 2, mathAtan2)
	setMethod(m, "hypot", 2, mathHypot)
	setMethod(m, "random", 0, mathRandom)
	setMethod(m, "clz32", 1, mathClz32)
	setMethod(m, "imul", 2, mathImul)
	return m
}

func mathUnary(fn func(float64) float64) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		n, err := toNumber(runtime.Arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(fn(n)), nil
	}
}

// round rounds half up, toward +Infinity, unlike math.Round.
func round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return f
	}
	if f < 0 && f >= -0.5 {
		return math.Copysign(0, -1)
	}
	return math.Floor(f + 0.5)
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	// NaN, +0 and -0 map to themselves.
	return f
}

func numbers(args []*runtime.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func mathMax(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	result := math.Inf(-1)
	for _, n := range ns {
		if math.IsNaN(n) {
			return runtime.NaN, nil
		}
		result = math.Max(result, n)
	}
	return runtime.NewNumber(result), nil
}

func mathMin(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	result := math.Inf(1)
	for _, n := range ns {
		if math.IsNaN(n) {
			return runtime.NaN, nil
		}
		result = math.Min(result, n)
	}
	return runtime.NewNumber(result), nil
}

func mathPow(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.BinaryOp("**", runtime.Arg(args, 0), runtime.Arg(args, 1))
}

func mathAtan2(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	ns, err := numbers([]*runtime.Value{runtime.Arg(args, 0), runtime.Arg(args, 1)})
	if err != nil {
		return nil, err
	}
	return runtime.NewNumber(math.Atan2(ns[0], ns[1])), nil
}

func mathHypot(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	result := 0.0
	for _, n := range ns {
		if math.IsInf(n, 0) {
			return runtime.PosInf, nil
		}
		result = math.Hypot(result, n)
	}
	return runtime.NewNumber(result), nil
}

func mathRandom(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewNumber(rand.Float64()), nil
}

func mathClz32(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewNumber(float64(bits.LeadingZeros32(runtime.ToUint32(runtime.Arg(args, 0))))), nil
}

func mathImul(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	a, b := runtime.ToInt32(runtime.Arg(args, 0)), runtime.ToInt32(runtime.Arg(args, 1))
	return runtime.NewNumber(float64(a * b)), nil
}
