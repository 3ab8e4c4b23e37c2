package runtime

import (
	"sort"
	"strconv"

	"github.com/example/jsexpr/errors"
)

// ObjectKind describes the kind of object.
type ObjectKind int

const (
	KindOrdinary ObjectKind = iota
	KindArray
	KindFunction
	KindError
	KindRegExp
	KindFuture
	KindIterator
)

// Object represents a script object. Own properties keep insertion order.
type Object struct {
	Kind        ObjectKind
	Prototype   *Object
	Callable    CallableFunc
	Constructor CallableFunc
	// Arrow functions and methods cannot be used with new.
	NoConstruct bool
	// Source is the textual form of user-defined functions.
	Source string

	// Array-specific
	ArrayData []*Value

	// For iterables
	IteratorNext func() (*Value, bool)

	// Internal holds host state: a *regexp2.Regexp wrapper, a *Future, ...
	Internal interface{}

	props map[string]*Property
	keys  []string
}

// Property represents a property descriptor.
type Property struct {
	Value      *Value
	Getter     *Value
	Setter     *Value
	Writable   bool
	Enumerable bool
	IsAccessor bool
}

// CallableFunc is the Go function signature for callable objects.
type CallableFunc func(this *Value, args []*Value) (*Value, error)

// Intrinsic prototypes. The builtins package fills in their methods.
var (
	ObjectPrototype   = &Object{props: map[string]*Property{}}
	FunctionPrototype = NewOrdinaryObject(ObjectPrototype)
	ArrayPrototype    = NewOrdinaryObject(ObjectPrototype)
	StringPrototype   = NewOrdinaryObject(ObjectPrototype)
	NumberPrototype   = NewOrdinaryObject(ObjectPrototype)
	BooleanPrototype  = NewOrdinaryObject(ObjectPrototype)
	ErrorPrototype    = NewOrdinaryObject(ObjectPrototype)
	RegExpPrototype   = NewOrdinaryObject(ObjectPrototype)
	FuturePrototype   = NewOrdinaryObject(ObjectPrototype)
)

// NewOrdinaryObject creates a plain object.
func NewOrdinaryObject(proto *Object) *Object {
	return &Object{
		Kind:      KindOrdinary,
		Prototype: proto,
		props:     make(map[string]*Property),
	}
}

// NewPlainObject creates a plain object inheriting from ObjectPrototype.
func NewPlainObject() *Object {
	return NewOrdinaryObject(ObjectPrototype)
}

// NewArrayObject creates an array object from values.
func NewArrayObject(elements []*Value) *Object {
	if elements == nil {
		elements = []*Value{}
	}
	return &Object{
		Kind:      KindArray,
		Prototype: ArrayPrototype,
		ArrayData: elements,
		props:     make(map[string]*Property),
	}
}

// NewArray wraps NewArrayObject in a Value.
func NewArray(elements []*Value) *Value {
	return NewObject(NewArrayObject(elements))
}

// arrayIndex reports whether name is a canonical array index.
func arrayIndex(name string) (int, bool) {
	if name == "" || name[0] < '0' || name[0] > '9' || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// GetOwnProperty returns the own property descriptor, if any.
func (o *Object) GetOwnProperty(name string) (*Property, bool) {
	p, ok := o.props[name]
	return p, ok
}

// GetE retrieves a property, walking the prototype chain and running getters.
func (o *Object) GetE(name string) (*Value, error) {
	return o.getWithReceiver(name, NewObject(o))
}

func (o *Object) getWithReceiver(name string, receiver *Value) (*Value, error) {
	if o.Kind == KindArray {
		if name == "length" {
			return NewNumber(float64(len(o.ArrayData))), nil
		}
		if i, ok := arrayIndex(name); ok {
			if i < len(o.ArrayData) {
				if v := o.ArrayData[i]; v != nil {
					return v, nil
				}
			}
			return Undefined, nil
		}
	}
	if prop, ok := o.props[name]; ok {
		if prop.IsAccessor {
			if prop.Getter == nil {
				return Undefined, nil
			}
			return Call(prop.Getter, receiver, nil)
		}
		return prop.Value, nil
	}
	if o.Prototype != nil {
		return o.Prototype.getWithReceiver(name, receiver)
	}
	return Undefined, nil
}

// Get retrieves a property and drops getter errors.
func (o *Object) Get(name string) *Value {
	v, err := o.GetE(name)
	if err != nil {
		return Undefined
	}
	return v
}

// SetE sets a property value, running setters found on the prototype chain.
func (o *Object) SetE(name string, val *Value) error {
	if o.Kind == KindArray {
		if name == "length" {
			n := val.ToNumber()
			l := int(n)
			if float64(l) != n || l < 0 {
				return errors.RangeErrorf("Invalid array length")
			}
			o.setLength(l)
			return nil
		}
		if i, ok := arrayIndex(name); ok {
			if i >= len(o.ArrayData) {
				o.setLength(i + 1)
			}
			o.ArrayData[i] = val
			return nil
		}
	}
	for cur := o; cur != nil; cur = cur.Prototype {
		prop, ok := cur.props[name]
		if !ok {
			continue
		}
		if prop.IsAccessor {
			if prop.Setter == nil {
				return nil
			}
			_, err := Call(prop.Setter, NewObject(o), []*Value{val})
			return err
		}
		if cur == o {
			if prop.Writable {
				prop.Value = val
			}
			return nil
		}
		break
	}
	o.DefineProperty(name, &Property{Value: val, Writable: true, Enumerable: true})
	return nil
}

// Set sets a property value and drops setter errors.
func (o *Object) Set(name string, val *Value) {
	_ = o.SetE(name, val)
}

func (o *Object) setLength(l int) {
	switch {
	case l < len(o.ArrayData):
		o.ArrayData = o.ArrayData[:l]
	case l > len(o.ArrayData):
		for len(o.ArrayData) < l {
			o.ArrayData = append(o.ArrayData, Undefined)
		}
	}
}

// DefineProperty defines a property with full descriptor control.
func (o *Object) DefineProperty(name string, prop *Property) {
	if o.props == nil {
		o.props = make(map[string]*Property)
	}
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = prop
}

// DefineHidden defines a non-enumerable data property.
func (o *Object) DefineHidden(name string, val *Value) {
	o.DefineProperty(name, &Property{Value: val, Writable: true})
}

// DefineAccessor defines or extends a getter/setter pair.
func (o *Object) DefineAccessor(name string, getter, setter *Value) {
	prop, ok := o.props[name]
	if !ok || !prop.IsAccessor {
		prop = &Property{IsAccessor: true, Enumerable: true}
		o.DefineProperty(name, prop)
	}
	if getter != nil {
		prop.Getter = getter
	}
	if setter != nil {
		prop.Setter = setter
	}
}

// Delete removes an own property.
func (o *Object) Delete(name string) bool {
	if o.Kind == KindArray {
		if i, ok := arrayIndex(name); ok {
			if i < len(o.ArrayData) {
				o.ArrayData[i] = Undefined
			}
			return true
		}
	}
	if _, ok := o.props[name]; !ok {
		return true
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// HasProperty checks own and prototype chain.
func (o *Object) HasProperty(name string) bool {
	if o.HasOwnProperty(name) {
		return true
	}
	if o.Prototype != nil {
		return o.Prototype.HasProperty(name)
	}
	return false
}

// HasOwnProperty checks only own properties.
func (o *Object) HasOwnProperty(name string) bool {
	if o.Kind == KindArray {
		if name == "length" {
			return true
		}
		if i, ok := arrayIndex(name); ok {
			return i < len(o.ArrayData)
		}
	}
	_, ok := o.props[name]
	return ok
}

// OwnKeys lists own enumerable keys: integer keys in ascending order, then
// the others in insertion order. Array elements count as integer keys.
func (o *Object) OwnKeys() []string {
	var keys []string
	if o.Kind == KindArray {
		for i := range o.ArrayData {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	var indices []int
	var named []string
	for _, k := range o.keys {
		if !o.props[k].Enumerable {
			continue
		}
		if i, ok := arrayIndex(k); ok {
			indices = append(indices, i)
			continue
		}
		named = append(named, k)
	}
	sort.Ints(indices)
	for _, i := range indices {
		keys = append(keys, strconv.Itoa(i))
	}
	return append(keys, named...)
}

// Len returns the number of own enumerable keys.
func (o *Object) Len() int {
	return len(o.OwnKeys())
}
