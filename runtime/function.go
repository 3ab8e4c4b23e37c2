package runtime

import (
	"strconv"
	"sync"

	"github.com/example/jsexpr/errors"
)

// NewFunctionObject creates a function object.
func NewFunctionObject(name string, arity int, callable CallableFunc) *Object {
	obj := &Object{
		Kind:      KindFunction,
		Prototype: FunctionPrototype,
		Callable:  callable,
		props:     make(map[string]*Property),
	}
	obj.DefineHidden("name", NewString(name))
	obj.DefineHidden("length", NewNumber(float64(arity)))
	return obj
}

// NewFunction wraps NewFunctionObject in a Value.
func NewFunction(name string, arity int, callable CallableFunc) *Value {
	return NewObject(NewFunctionObject(name, arity, callable))
}

// Call invokes fn with the given receiver and arguments.
func Call(fn *Value, this *Value, args []*Value) (*Value, error) {
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", describe(fn))
	}
	if this == nil {
		this = Undefined
	}
	res, err := fn.Object.Callable(this, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return Undefined, nil
	}
	return res, nil
}

// Construct implements the new operator.
func Construct(fn *Value, args []*Value) (*Value, error) {
	if !fn.IsCallable() || fn.Object.NoConstruct {
		return nil, errors.TypeErrorf("%s is not a constructor", describe(fn))
	}
	if fn.Object.Constructor != nil {
		return fn.Object.Constructor(Undefined, args)
	}
	proto := ObjectPrototype
	if p, err := fn.Object.GetE("prototype"); err != nil {
		return nil, err
	} else if p.IsObject() {
		proto = p.Object
	}
	this := NewObject(NewOrdinaryObject(proto))
	res, err := Call(fn, this, args)
	if err != nil {
		return nil, err
	}
	if res.IsObject() {
		return res, nil
	}
	return this, nil
}

func describe(v *Value) string {
	switch {
	case v == nil:
		return "undefined"
	case v.Type == TypeString:
		return strconv.Quote(v.Str)
	case v.Type == TypeObject && v.Object.Kind == KindArray:
		return "array"
	case v.Type == TypeObject:
		return "object"
	}
	return v.ToString()
}

// Arg returns args[i] or undefined.
func Arg(args []*Value, i int) *Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return Undefined
}

// GetProperty reads a property from any value, boxing primitives.
func GetProperty(v *Value, key string) (*Value, error) {
	if v.IsNullish() {
		return nil, errors.TypeErrorf("Cannot read properties of %s (reading '%s')", v.ToString(), key)
	}
	switch v.Type {
	case TypeObject:
		return v.Object.GetE(key)
	case TypeString:
		if key == "length" {
			return NewNumber(float64(len(utf16Units(v.Str)))), nil
		}
		if i, ok := arrayIndex(key); ok {
			units := utf16Units(v.Str)
			if i < len(units) {
				return NewString(unitsToString(units[i : i+1])), nil
			}
			return Undefined, nil
		}
		return StringPrototype.getWithReceiver(key, v)
	case TypeNumber:
		return NumberPrototype.getWithReceiver(key, v)
	case TypeBoolean:
		return BooleanPrototype.getWithReceiver(key, v)
	}
	return Undefined, nil
}

// SetProperty writes a property. Writes to primitives are ignored.
func SetProperty(v *Value, key string, val *Value) error {
	if v.IsNullish() {
		return errors.TypeErrorf("Cannot set properties of %s (setting '%s')", v.ToString(), key)
	}
	if v.Type != TypeObject {
		return nil
	}
	return v.Object.SetE(key, val)
}

var (
	errorProtosMu sync.RWMutex
	errorProtos   = map[string]*Object{}
)

// RegisterErrorPrototype makes NewError give errors of kind the prototype
// proto, so that instanceof matches the subtype constructor.
func RegisterErrorPrototype(kind string, proto *Object) {
	errorProtosMu.Lock()
	defer errorProtosMu.Unlock()
	errorProtos[kind] = proto
}

func errorPrototype(kind string) *Object {
	errorProtosMu.RLock()
	defer errorProtosMu.RUnlock()
	if p, ok := errorProtos[kind]; ok {
		return p
	}
	return ErrorPrototype
}

// NewError creates an error object such as TypeError("msg").
func NewError(kind, message string) *Value {
	obj := NewOrdinaryObject(errorPrototype(kind))
	obj.Kind = KindError
	obj.DefineHidden("name", NewString(kind))
	obj.DefineHidden("message", NewString(message))
	return NewObject(obj)
}

// ThrowError carries a value raised by a throw statement.
type ThrowError struct {
	Value *Value
}

func (e *ThrowError) Error() string {
	if e.Value.IsObject() && e.Value.Object.Kind == KindError {
		return ErrorString(e.Value.Object)
	}
	return "Uncaught " + Inspect(e.Value)
}

// PendingError is returned when await meets an unsettled Future. The host
// waits for the future and evaluates again.
type PendingError struct {
	Future *Future
}

func (e *PendingError) Error() string {
	return "await: value is still pending"
}

// ErrorValue converts a Go error into the value a catch clause binds.
func ErrorValue(err error) *Value {
	var thrown *ThrowError
	if errors.As(err, &thrown) {
		return thrown.Value
	}
	var evalErr *errors.EvaluationError
	if errors.As(err, &evalErr) {
		return NewError(evalErr.Kind, evalErr.Msg)
	}
	return NewError("Error", err.Error())
}

// IsCatchable reports whether a user try/catch may intercept err. Pending
// awaits and host cancellation pass through.
func IsCatchable(err error) bool {
	var pending *PendingError
	return !errors.As(err, &pending)
}
