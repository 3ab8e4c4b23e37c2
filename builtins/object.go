package builtins

import (
	"math"
	"strconv"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createObjectConstructor() *runtime.Object {
	proto := runtime.ObjectPrototype
	setMethod(proto, "hasOwnProperty", 1, objectProtoHasOwnProperty)
	setMethod(proto, "isPrototypeOf", 1, objectProtoIsPrototypeOf)
	setMethod(proto, "propertyIsEnumerable", 1, objectProtoPropertyIsEnumerable)
	setMethod(proto, "toString", 0, objectProtoToString)
	setMethod(proto, "toLocaleString", 0, objectProtoToString)
	setMethod(proto, "valueOf", 0, objectProtoValueOf)

	ctor := newConstructor("Object", 1, proto, objectConstructorCall, objectConstructorCall)
	setMethod(ctor, "keys", 1, objectKeys)
	setMethod(ctor, "values", 1, objectValues)
	setMethod(ctor, "entries", 1, objectEntries)
	setMethod(ctor, "fromEntries", 1, objectFromEntries)
	setMethod(ctor, "assign", 2, objectAssign)
	setMethod(ctor, "create", 2, objectCreate)
	setMethod(ctor, "defineProperty", 3, objectDefineProperty)
	setMethod(ctor, "defineProperties", 2, objectDefineProperties)
	setMethod(ctor, "getOwnPropertyDescriptor", 2, objectGetOwnPropertyDescriptor)
	setMethod(ctor, "getPrototypeOf", 1, objectGetPrototypeOf)
	setMethod(ctor, "setPrototypeOf", 2, objectSetPrototypeOf)
	setMethod(ctor, "freeze", 1, objectFreeze)
	setMethod(ctor, "hasOwn", 2, objectHasOwn)
	setMethod(ctor, "is", 2, objectIs)
	return ctor
}

func objectConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if v.IsNullish() {
		return runtime.NewObject(runtime.NewPlainObject()), nil
	}
	return v, nil
}

// requireObject rejects null and undefined the way the Object statics do.
func requireObject(v *runtime.Value) error {
	if v.IsNullish() {
		return errors.TypeErrorf("Cannot convert undefined or null to object")
	}
	return nil
}

// enumerableKeys lists the own enumerable keys of any non-nullish value.
// Strings expose their indices; other primitives have none.
func enumerableKeys(v *runtime.Value) []string {
	switch {
	case v.IsObject():
		return v.Object.OwnKeys()
	case v.Type == runtime.TypeString:
		n := runtime.StringLength(v.Str)
		keys := make([]string, n)
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

func objectKeys(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if err := requireObject(v); err != nil {
		return nil, err
	}
	keys := enumerableKeys(v)
	out := make([]*runtime.Value, len(keys))
	for i, k := range keys {
		out[i] = runtime.NewString(k)
	}
	return runtime.NewArray(out), nil
}

func objectValues(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if err := requireObject(v); err != nil {
		return nil, err
	}
	keys := enumerableKeys(v)
	out := make([]*runtime.Value, 0, len(keys))
	for _, k := range keys {
		el, err := runtime.GetProperty(v, k)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return runtime.NewArray(out), nil
}

func objectEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if err := requireObject(v); err != nil {
		return nil, err
	}
	keys := enumerableKeys(v)
	out := make([]*runtime.Value, 0, len(keys))
	for _, k := range keys {
		el, err := runtime.GetProperty(v, k)
		if err != nil {
			return nil, err
		}
		out = append(out, runtime.NewArray([]*runtime.Value{runtime.NewString(k), el}))
	}
	return runtime.NewArray(out), nil
}

func objectFromEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	entries, err := runtime.Collect(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	obj := runtime.NewPlainObject()
	for _, entry := range entries {
		if !entry.IsObject() {
			return nil, errors.TypeErrorf("Iterator value %s is not an entry object", runtime.Inspect(entry))
		}
		key, err := runtime.ToPropertyKey(entry.Object.Get("0"))
		if err != nil {
			return nil, err
		}
		if err := obj.SetE(key, entry.Object.Get("1")); err != nil {
			return nil, err
		}
	}
	return runtime.NewObject(obj), nil
}

func objectAssign(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target := runtime.Arg(args, 0)
	if err := requireObject(target); err != nil {
		return nil, err
	}
	if !target.IsObject() {
		return target, nil
	}
	for _, src := range args[1:] {
		if src.IsNullish() {
			continue
		}
		for _, k := range enumerableKeys(src) {
			v, err := runtime.GetProperty(src, k)
			if err != nil {
				return nil, err
			}
			if err := target.Object.SetE(k, v); err != nil {
				return nil, err
			}
		}
	}
	return target, nil
}

func objectCreate(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	proto := runtime.Arg(args, 0)
	var obj *runtime.Object
	switch {
	case proto.Type == runtime.TypeNull:
		obj = runtime.NewOrdinaryObject(nil)
	case proto.IsObject():
		obj = runtime.NewOrdinaryObject(proto.Object)
	default:
		return nil, errors.TypeErrorf("Object prototype may only be an Object or null: %s", proto.ToString())
	}
	if props := runtime.Arg(args, 1); !props.IsNullish() {
		if err := defineFromDescriptors(obj, props); err != nil {
			return nil, err
		}
	}
	return runtime.NewObject(obj), nil
}

// toProperty converts a descriptor object into a Property.
func toProperty(desc *runtime.Value) (*runtime.Property, error) {
	if !desc.IsObject() {
		return nil, errors.TypeErrorf("Property description must be an object: %s", desc.ToString())
	}
	d := desc.Object
	prop := &runtime.Property{
		Enumerable: d.Get("enumerable").ToBoolean(),
		Writable:   d.Get("writable").ToBoolean(),
		Value:      runtime.Undefined,
	}
	get, set := d.Get("get"), d.Get("set")
	if d.HasProperty("get") || d.HasProperty("set") {
		if d.HasProperty("value") || d.HasProperty("writable") {
			return nil, errors.TypeErrorf("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
		}
		for _, fn := range []*runtime.Value{get, set} {
			if !fn.IsNullish() && !fn.IsCallable() {
				return nil, errors.TypeErrorf("Getter must be a function: %s", runtime.Inspect(fn))
			}
		}
		prop.IsAccessor = true
		prop.Value = nil
		if get.IsCallable() {
			prop.Getter = get
		}
		if set.IsCallable() {
			prop.Setter = set
		}
		return prop, nil
	}
	if d.HasProperty("value") {
		prop.Value = d.Get("value")
	}
	return prop, nil
}

func fromProperty(prop *runtime.Property) *runtime.Value {
	d := runtime.NewPlainObject()
	if prop.IsAccessor {
		get, set := prop.Getter, prop.Setter
		if get == nil {
			get = runtime.Undefined
		}
		if set == nil {
			set = runtime.Undefined
		}
		d.Set("get", get)
		d.Set("set", set)
	} else {
		d.Set("value", prop.Value)
		d.Set("writable", runtime.NewBool(prop.Writable))
	}
	d.Set("enumerable", runtime.NewBool(prop.Enumerable))
	d.Set("configurable", runtime.True)
	return runtime.NewObject(d)
}

func defineOwn(obj *runtime.Object, key string, desc *runtime.Value) error {
	prop, err := toProperty(desc)
	if err != nil {
		return err
	}
	if obj.Kind == runtime.KindArray {
		if _, isIndex := arrayIndexKey(key); isIndex || key == "length" {
			if prop.IsAccessor {
				return errors.TypeErrorf("Cannot define accessor on array index %s", key)
			}
			return obj.SetE(key, prop.Value)
		}
	}
	obj.DefineProperty(key, prop)
	return nil
}

func arrayIndexKey(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	return i, err == nil && i >= 0 && strconv.Itoa(i) == key
}

func defineFromDescriptors(obj *runtime.Object, props *runtime.Value) error {
	for _, k := range enumerableKeys(props) {
		desc, err := runtime.GetProperty(props, k)
		if err != nil {
			return err
		}
		if err := defineOwn(obj, k, desc); err != nil {
			return err
		}
	}
	return nil
}

func objectDefineProperty(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target := runtime.Arg(args, 0)
	if !target.IsObject() {
		return nil, errors.TypeErrorf("Object.defineProperty called on non-object")
	}
	key, err := runtime.ToPropertyKey(runtime.Arg(args, 1))
	if err != nil {
		return nil, err
	}
	if err := defineOwn(target.Object, key, runtime.Arg(args, 2)); err != nil {
		return nil, err
	}
	return target, nil
}

func objectDefineProperties(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target := runtime.Arg(args, 0)
	if !target.IsObject() {
		return nil, errors.TypeErrorf("Object.defineProperties called on non-object")
	}
	if err := defineFromDescriptors(target.Object, runtime.Arg(args, 1)); err != nil {
		return nil, err
	}
	return target, nil
}

func objectGetOwnPropertyDescriptor(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target := runtime.Arg(args, 0)
	if err := requireObject(target); err != nil {
		return nil, err
	}
	key, err := runtime.ToPropertyKey(runtime.Arg(args, 1))
	if err != nil {
		return nil, err
	}
	obj := toObject(target)
	if obj == nil {
		return runtime.Undefined, nil
	}
	if prop, ok := obj.GetOwnProperty(key); ok {
		return fromProperty(prop), nil
	}
	if obj.Kind == runtime.KindArray && obj.HasOwnProperty(key) {
		return fromProperty(&runtime.Property{Value: obj.Get(key), Writable: true, Enumerable: key != "length"}), nil
	}
	return runtime.Undefined, nil
}

func prototypeOf(v *runtime.Value) *runtime.Object {
	switch v.Type {
	case runtime.TypeObject:
		return v.Object.Prototype
	case runtime.TypeString:
		return runtime.StringPrototype
	case runtime.TypeNumber:
		return runtime.NumberPrototype
	case runtime.TypeBoolean:
		return runtime.BooleanPrototype
	}
	return nil
}

func objectGetPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if err := requireObject(v); err != nil {
		return nil, err
	}
	if p := prototypeOf(v); p != nil {
		return runtime.NewObject(p), nil
	}
	return runtime.Null, nil
}

func objectSetPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target, proto := runtime.Arg(args, 0), runtime.Arg(args, 1)
	if err := requireObject(target); err != nil {
		return nil, err
	}
	if !proto.IsObject() && proto.Type != runtime.TypeNull {
		return nil, errors.TypeErrorf("Object prototype may only be an Object or null: %s", proto.ToString())
	}
	if !target.IsObject() {
		return target, nil
	}
	if proto.Type == runtime.TypeNull {
		target.Object.Prototype = nil
		return target, nil
	}
	for p := proto.Object; p != nil; p = p.Prototype {
		if p == target.Object {
			return nil, errors.TypeErrorf("Cyclic __proto__ value")
		}
	}
	target.Object.Prototype = proto.Object
	return target, nil
}

// objectFreeze makes the existing data properties read-only. Array
// elements and later additions are not covered.
func objectFreeze(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if obj := toObject(v); obj != nil {
		for _, k := range obj.OwnKeys() {
			if prop, ok := obj.GetOwnProperty(k); ok {
				prop.Writable = false
			}
		}
	}
	return v, nil
}

func objectHasOwn(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if err := requireObject(v); err != nil {
		return nil, err
	}
	return hasOwn(v, runtime.Arg(args, 1))
}

func hasOwn(v, key *runtime.Value) (*runtime.Value, error) {
	k, err := runtime.ToPropertyKey(key)
	if err != nil {
		return nil, err
	}
	switch {
	case v.IsObject():
		return runtime.NewBool(v.Object.HasOwnProperty(k)), nil
	case v.Type == runtime.TypeString:
		if k == "length" {
			return runtime.True, nil
		}
		i, ok := arrayIndexKey(k)
		return runtime.NewBool(ok && i < runtime.StringLength(v.Str)), nil
	}
	return runtime.False, nil
}

func objectIs(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewBool(sameValue(runtime.Arg(args, 0), runtime.Arg(args, 1))), nil
}

// sameValue is SameValueZero that also tells +0 from -0.
func sameValue(a, b *runtime.Value) bool {
	if a.Type == runtime.TypeNumber && b.Type == runtime.TypeNumber && a.Number == 0 && b.Number == 0 {
		return math.Signbit(a.Number) == math.Signbit(b.Number)
	}
	return runtime.SameValueZero(a, b)
}

func objectProtoHasOwnProperty(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if err := requireObject(this); err != nil {
		return nil, err
	}
	return hasOwn(this, runtime.Arg(args, 0))
}

func objectProtoIsPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	self := toObject(this)
	if self == nil || !v.IsObject() {
		return runtime.False, nil
	}
	for p := v.Object.Prototype; p != nil; p = p.Prototype {
		if p == self {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectProtoPropertyIsEnumerable(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	key, err := runtime.ToPropertyKey(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	for _, k := range enumerableKeys(this) {
		if k == key {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectProtoToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	tag := "Object"
	switch {
	case this == nil || this.Type == runtime.TypeUndefined:
		tag = "Undefined"
	case this.Type == runtime.TypeNull:
		tag = "Null"
	case this.Type == runtime.TypeString:
		tag = "String"
	case this.Type == runtime.TypeNumber:
		tag = "Number"
	case this.Type == runtime.TypeBoolean:
		tag = "Boolean"
	case this.IsObject():
		switch this.Object.Kind {
		case runtime.KindArray:
			tag = "Array"
		case runtime.KindFunction:
			tag = "Function"
		case runtime.KindError:
			tag = "Error"
		case runtime.KindRegExp:
			tag = "RegExp"
		case runtime.KindFuture:
			tag = "Promise"
		}
	}
	return runtime.NewString("[object " + tag + "]"), nil
}

func objectProtoValueOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if err := requireObject(this); err != nil {
		return nil, err
	}
	return this, nil
}
