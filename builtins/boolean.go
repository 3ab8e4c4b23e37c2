package builtins

import (
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createBooleanConstructor() *runtime.Object {
	proto := runtime.BooleanPrototype
	setMethod(proto, "toString", 0, booleanToString)
	setMethod(proto, "valueOf", 0, booleanValueOf)

	return newConstructor("Boolean", 1, proto, booleanConstructorCall, booleanConstructorCall)
}

func booleanConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewBool(runtime.Arg(args, 0).ToBoolean()), nil
}

func thisBoolean(this *runtime.Value, method string) (bool, error) {
	if this == nil || this.Type != runtime.TypeBoolean {
		return false, errors.TypeErrorf("Boolean.prototype.%s requires that 'this' be a Boolean", method)
	}
	return this.Bool, nil
}

func booleanToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	b, err := thisBoolean(this, "toString")
	if err != nil {
		return nil, err
	}
	if b {
		return runtime.NewString("true"), nil
	}
	return runtime.NewString("false"), nil
}

func booleanValueOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	b, err := thisBoolean(this, "valueOf")
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(b), nil
}
