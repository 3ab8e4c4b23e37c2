package builtins

import (
	"strconv"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createFunctionConstructor() *runtime.Object {
	proto := runtime.FunctionPrototype
	setMethod(proto, "call", 1, functionCall)
	setMethod(proto, "apply", 2, functionApply)
	setMethod(proto, "bind", 1, functionBind)
	setMethod(proto, "toString", 0, functionToString)

	return newConstructor("Function", 1, proto, functionConstructorCall, functionConstructorCall)
}

// Functions can only come from source handed to the engine.
func functionConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return nil, errors.NotImplemented("Function constructor")
}

func thisFunction(this *runtime.Value, method string) (*runtime.Value, error) {
	if !this.IsCallable() {
		return nil, errors.TypeErrorf("Function.prototype.%s called on %s", method, runtime.Inspect(this))
	}
	return this, nil
}

func functionCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	fn, err := thisFunction(this, "call")
	if err != nil {
		return nil, err
	}
	var rest []*runtime.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return runtime.Call(fn, runtime.Arg(args, 0), rest)
}

func functionApply(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	fn, err := thisFunction(this, "apply")
	if err != nil {
		return nil, err
	}
	list := runtime.Arg(args, 1)
	var callArgs []*runtime.Value
	switch {
	case list.IsNullish():
	case list.IsObject():
		callArgs, err = arrayLike(list.Object)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.TypeErrorf("CreateListFromArrayLike called on non-object")
	}
	return runtime.Call(fn, runtime.Arg(args, 0), callArgs)
}

// arrayLike reads obj[0..length).
func arrayLike(obj *runtime.Object) ([]*runtime.Value, error) {
	if obj.Kind == runtime.KindArray {
		return append([]*runtime.Value(nil), obj.ArrayData...), nil
	}
	l, err := obj.GetE("length")
	if err != nil {
		return nil, err
	}
	n := int(runtime.ToIntegerOrInfinity(l))
	out := make([]*runtime.Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := obj.GetE(strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func functionBind(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target, err := thisFunction(this, "bind")
	if err != nil {
		return nil, err
	}
	boundThis := runtime.Arg(args, 0)
	var bound []*runtime.Value
	if len(args) > 1 {
		bound = append(bound, args[1:]...)
	}
	withBound := func(extra []*runtime.Value) []*runtime.Value {
		return append(append(make([]*runtime.Value, 0, len(bound)+len(extra)), bound...), extra...)
	}

	arity := int(runtime.ToIntegerOrInfinity(target.Object.Get("length"))) - len(bound)
	if arity < 0 {
		arity = 0
	}
	fn := runtime.NewFunctionObject("bound "+target.Object.Get("name").ToString(), arity,
		func(_ *runtime.Value, callArgs []*runtime.Value) (*runtime.Value, error) {
			return runtime.Call(target, boundThis, withBound(callArgs))
		})
	if target.Object.NoConstruct {
		fn.NoConstruct = true
	} else {
		fn.Constructor = func(_ *runtime.Value, callArgs []*runtime.Value) (*runtime.Value, error) {
			return runtime.Construct(target, withBound(callArgs))
		}
	}
	return runtime.NewObject(fn), nil
}

func functionToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	fn, err := thisFunction(this, "toString")
	if err != nil {
		return nil, err
	}
	if src := fn.Object.Source; src != "" {
		return runtime.NewString(src), nil
	}
	return runtime.NewString("function " + fn.Object.Get("name").ToString() + "() { [native code] }"), nil
}
