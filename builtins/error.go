package builtins

import (
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

// errorKinds are the Error subtypes installed as globals.
var errorKinds = []string{"TypeError", "ReferenceError", "SyntaxError", "RangeError", "URIError", "EvalError"}

func createErrorConstructor() *runtime.Object {
	proto := runtime.ErrorPrototype
	proto.DefineHidden("name", runtime.NewString("Error"))
	proto.DefineHidden("message", runtime.EmptyStr)
	setMethod(proto, "toString", 0, errorToString)

	construct := errorConstruct(proto)
	return newConstructor("Error", 1, proto, construct, construct)
}

func createErrorSubtype(kind string) *runtime.Object {
	proto := runtime.NewOrdinaryObject(runtime.ErrorPrototype)
	proto.DefineHidden("name", runtime.NewString(kind))
	proto.DefineHidden("message", runtime.EmptyStr)
	runtime.RegisterErrorPrototype(kind, proto)

	construct := errorConstruct(proto)
	ctor := newConstructor(kind, 1, proto, construct, construct)
	// TypeError.__proto__ is Error.
	if base := runtime.ErrorPrototype.Get("constructor"); base.IsObject() {
		ctor.Prototype = base.Object
	}
	return ctor
}

// errorConstruct makes Error(msg) and new Error(msg) behave alike.
func errorConstruct(proto *runtime.Object) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj := runtime.NewOrdinaryObject(proto)
		obj.Kind = runtime.KindError
		if msg := runtime.Arg(args, 0); msg.Type != runtime.TypeUndefined {
			s, err := toPrimitiveString(msg)
			if err != nil {
				return nil, err
			}
			obj.DefineHidden("message", runtime.NewString(s))
		}
		if opts := runtime.Arg(args, 1); opts.IsObject() && opts.Object.HasProperty("cause") {
			obj.DefineHidden("cause", opts.Object.Get("cause"))
		}
		return runtime.NewObject(obj), nil
	}
}

func errorToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsObject() {
		return nil, errors.TypeErrorf("Error.prototype.toString called on non-object %s", runtime.Inspect(this))
	}
	return runtime.NewString(runtime.ErrorString(this.Object)), nil
}
