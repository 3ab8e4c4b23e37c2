package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("MemberExpression", decodeMember)
	Registry.MustRegister("ChainExpression", decodeChain)
	Registry.MustRegister("BindExpression", decodeBind)
}

// MemberExpression is obj.prop, obj[expr], obj?.prop or obj?.[expr]. A
// non-computed Property is an *Identifier.
type MemberExpression struct {
	Object   Node
	Property Node
	Computed bool
	Optional bool
}

func (n *MemberExpression) Type() string { return "MemberExpression" }

// staticKey returns the key of a property node known without evaluation.
func staticKey(prop Node, computed bool) (string, bool) {
	switch p := prop.(type) {
	case *Identifier:
		if !computed {
			return p.Name, true
		}
	case *Literal:
		if computed && p.Value.Type != runtime.TypeObject {
			return p.Value.ToString(), true
		}
	}
	return "", false
}

func (n *MemberExpression) key(stack *runtime.Stack) (string, error) {
	if k, ok := staticKey(n.Property, n.Computed); ok {
		return k, nil
	}
	if !n.Computed {
		return "", errors.Errorf("member property %s is not a name", n.Property)
	}
	v, err := n.Property.Get(stack)
	if err != nil {
		return "", err
	}
	return runtime.ToPropertyKey(v)
}

// base evaluates the object and key, short-circuiting optional links.
func (n *MemberExpression) base(stack *runtime.Stack) (*runtime.Value, string, error) {
	obj, err := n.Object.Get(stack)
	if err != nil {
		return nil, "", err
	}
	if n.Optional && obj.IsNullish() {
		return nil, "", errShortCircuit
	}
	key, err := n.key(stack)
	if err != nil {
		return nil, "", err
	}
	return obj, key, nil
}

func (n *MemberExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	obj, key, err := n.base(stack)
	if err != nil {
		return nil, err
	}
	return runtime.GetProperty(obj, key)
}

// Set writes the property. When the member path starts at a binding of a
// reactive scope, subscribers are notified of the change.
func (n *MemberExpression) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	obj, key, err := n.base(stack)
	if err != nil {
		return nil, err
	}
	path, static := staticPath(n)
	var rs *runtime.ReactiveScope
	old := runtime.Undefined
	if static {
		rs = stack.ReactiveScopeFor(path.Root())
		if rs != nil && obj.IsObject() {
			if cur, err := runtime.GetProperty(obj, key); err == nil {
				old = cur
			}
		}
	}
	if err := runtime.SetProperty(obj, key, v); err != nil {
		return nil, err
	}
	if rs != nil && !runtime.SameValueZero(old, v) {
		rs.Notify(path, v, old)
	}
	return v, nil
}

// Delete implements the delete operator.
func (n *MemberExpression) Delete(stack *runtime.Stack) (*runtime.Value, error) {
	obj, key, err := n.base(stack)
	if err != nil {
		return nil, err
	}
	if obj.IsNullish() {
		return nil, errors.TypeErrorf("Cannot convert undefined or null to object")
	}
	if !obj.IsObject() {
		return runtime.True, nil
	}
	path, static := staticPath(n)
	var rs *runtime.ReactiveScope
	if static {
		rs = stack.ReactiveScopeFor(path.Root())
	}
	old := obj.Object.Get(key)
	ok := obj.Object.Delete(key)
	if ok && rs != nil && !old.IsNullish() {
		rs.Notify(path, runtime.Undefined, old)
	}
	return runtime.NewBool(ok), nil
}

func (n *MemberExpression) Events() []runtime.Path {
	if p, ok := staticPath(n); ok {
		return []runtime.Path{p}
	}
	if n.Computed {
		return events(n.Object, n.Property)
	}
	return events(n.Object)
}

func (n *MemberExpression) String() string {
	obj := wrapBase(n.Object)
	if lit, ok := n.Object.(*Literal); ok && lit.Value.Type == runtime.TypeNumber && !n.Computed {
		obj = "(" + lit.String() + ")"
	}
	if n.Computed {
		if n.Optional {
			return obj + "?.[" + n.Property.String() + "]"
		}
		return obj + "[" + n.Property.String() + "]"
	}
	if n.Optional {
		return obj + "?." + n.Property.String()
	}
	return obj + "." + n.Property.String()
}

type memberJSON struct {
	Object   json.RawMessage `json:"object"`
	Property json.RawMessage `json:"property"`
	Computed bool            `json:"computed,omitempty"`
	Optional bool            `json:"optional,omitempty"`
}

func (n *MemberExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	body := memberJSON{
		Object:   e.node(n.Object),
		Property: e.node(n.Property),
		Computed: n.Computed,
		Optional: n.Optional,
	}
	return e.finish(n.Type(), body)
}

func decodeMember(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body memberJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &MemberExpression{
		Object:   d.node(body.Object),
		Property: d.node(body.Property),
		Computed: body.Computed,
		Optional: body.Optional,
	}
	if d.err == nil && (n.Object == nil || n.Property == nil) {
		return nil, errors.New("member expression needs an object and a property")
	}
	return n, d.err
}

// staticPath returns the dependency path of an identifier or of a member
// chain whose keys are all known without evaluation.
func staticPath(n Node) (runtime.Path, bool) {
	switch n := n.(type) {
	case *Identifier:
		return runtime.Path{n.Name}, true
	case *MemberExpression:
		parent, ok := staticPath(n.Object)
		if !ok {
			return nil, false
		}
		key, ok := staticKey(n.Property, n.Computed)
		if !ok {
			return nil, false
		}
		return parent.Append(key), true
	case *ChainExpression:
		return staticPath(n.Expression)
	}
	return nil, false
}

// calleeAndReceiver evaluates a call target. Calling through a member
// expression binds the object as the receiver, also when the member is a
// parenthesized optional chain such as (a?.m)().
func calleeAndReceiver(stack *runtime.Stack, callee Node) (*runtime.Value, *runtime.Value, error) {
	if c, ok := callee.(*ChainExpression); ok {
		if m, ok := c.Expression.(*MemberExpression); ok {
			fn, this, err := calleeAndReceiver(stack, m)
			if err == errShortCircuit {
				return runtime.Undefined, runtime.Undefined, nil
			}
			return fn, this, err
		}
	}
	if m, ok := callee.(*MemberExpression); ok {
		obj, key, err := m.base(stack)
		if err != nil {
			return nil, nil, err
		}
		fn, err := runtime.GetProperty(obj, key)
		if err != nil {
			return nil, nil, err
		}
		return fn, obj, nil
	}
	fn, err := callee.Get(stack)
	if err != nil {
		return nil, nil, err
	}
	return fn, runtime.Undefined, nil
}

// calleeEvents reports what a call target depends on. A method call depends
// on its receiver, not on the method name: items.map(f) watches items.
func calleeEvents(callee Node) []runtime.Path {
	if m, ok := callee.(*MemberExpression); ok {
		if m.Computed {
			return events(m.Object, m.Property)
		}
		return m.Object.Events()
	}
	return callee.Events()
}

// ChainExpression delimits an optional chain: a nullish optional link inside
// it makes the whole chain undefined.
type ChainExpression struct {
	Expression Node
}

func (n *ChainExpression) Type() string { return "ChainExpression" }

func (n *ChainExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v, err := n.Expression.Get(stack)
	if err == errShortCircuit {
		return runtime.Undefined, nil
	}
	return v, err
}

func (n *ChainExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ChainExpression) Events() []runtime.Path { return n.Expression.Events() }

func (n *ChainExpression) String() string { return n.Expression.String() }

type chainJSON struct {
	Expression json.RawMessage `json:"expression"`
}

func (n *ChainExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), chainJSON{e.node(n.Expression)})
}

func decodeChain(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body chainJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ChainExpression{Expression: d.node(body.Expression)}
	if d.err == nil && n.Expression == nil {
		return nil, errors.New("empty chain expression")
	}
	return n, d.err
}

// BindExpression is obj::fn, which binds fn's receiver to obj, or ::obj.fn,
// which binds obj.fn to obj.
type BindExpression struct {
	Object Node
	Callee Node
}

func (n *BindExpression) Type() string { return "BindExpression" }

func (n *BindExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	var fn, this *runtime.Value
	var err error
	if n.Object != nil {
		if this, err = n.Object.Get(stack); err != nil {
			return nil, err
		}
		if fn, err = n.Callee.Get(stack); err != nil {
			return nil, err
		}
	} else {
		m, ok := n.Callee.(*MemberExpression)
		if !ok {
			return nil, errors.TypeErrorf("%s is not a member expression", n.Callee)
		}
		if fn, this, err = calleeAndReceiver(stack, m); err != nil {
			return nil, err
		}
	}
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", n.Callee)
	}
	name := fn.Object.Get("name").ToString()
	arity := int(fn.Object.Get("length").ToNumber())
	return runtime.NewFunction("bound "+name, arity, func(_ *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.Call(fn, this, args)
	}), nil
}

func (n *BindExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *BindExpression) Events() []runtime.Path {
	if n.Object == nil {
		return calleeEvents(n.Callee)
	}
	return events(n.Object, n.Callee)
}

func (n *BindExpression) String() string {
	if n.Object == nil {
		return "::" + wrap(n.Callee, precCall)
	}
	return wrap(n.Object, precCall) + "::" + wrap(n.Callee, precCall)
}

type bindJSON struct {
	Object json.RawMessage `json:"object"`
	Callee json.RawMessage `json:"callee"`
}

func (n *BindExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), bindJSON{e.node(n.Object), e.node(n.Callee)})
}

func decodeBind(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body bindJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &BindExpression{Object: d.node(body.Object), Callee: d.node(body.Callee)}
	if d.err == nil && n.Callee == nil {
		return nil, errors.New("bind expression without a callee")
	}
	return n, d.err
}
