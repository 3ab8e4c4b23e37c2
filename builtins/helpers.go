package builtins

import (
	"math"
	"unicode/utf16"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func setMethod(obj *runtime.Object, name string, arity int, fn runtime.CallableFunc) {
	obj.DefineHidden(name, runtime.NewFunction(name, arity, fn))
}

func setConstant(obj *runtime.Object, name string, val *runtime.Value) {
	obj.DefineProperty(name, &runtime.Property{Value: val})
}

// newConstructor links ctor and proto both ways.
func newConstructor(name string, arity int, proto *runtime.Object, call, construct runtime.CallableFunc) *runtime.Object {
	ctor := runtime.NewFunctionObject(name, arity, call)
	ctor.Constructor = construct
	setConstant(ctor, "prototype", runtime.NewObject(proto))
	proto.DefineHidden("constructor", runtime.NewObject(ctor))
	return ctor
}

// callback returns args[i] when it is callable.
func callback(args []*runtime.Value, i int) (*runtime.Value, error) {
	fn := runtime.Arg(args, i)
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", runtime.Inspect(fn))
	}
	return fn, nil
}

func toObject(v *runtime.Value) *runtime.Object {
	if v.IsObject() {
		return v.Object
	}
	return nil
}

// toPrimitiveString is ToString with errors from user toString methods
// kept.
func toPrimitiveString(v *runtime.Value) (string, error) {
	p, err := runtime.ToPrimitive(v, runtime.HintString)
	if err != nil {
		return "", err
	}
	return p.ToString(), nil
}

func toNumber(v *runtime.Value) (float64, error) {
	p, err := runtime.ToPrimitive(v, runtime.HintNumber)
	if err != nil {
		return 0, err
	}
	if p.Type == runtime.TypeBigInt {
		return 0, errors.TypeErrorf("Cannot convert a BigInt value to a number")
	}
	return p.ToNumber(), nil
}

// relativeIndex resolves a possibly negative position argument against
// length, clamping into [0, length]. Undefined maps to def.
func relativeIndex(v *runtime.Value, length, def int) int {
	if v == nil || v.Type == runtime.TypeUndefined {
		return def
	}
	n := runtime.ToIntegerOrInfinity(v)
	if n < 0 {
		n += float64(length)
		if n < 0 {
			return 0
		}
	}
	if n > float64(length) {
		return length
	}
	return int(n)
}

func units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func fromUnits(u []uint16) string {
	return string(utf16.Decode(u))
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Trunc(f) == f
}
