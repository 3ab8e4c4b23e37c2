package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("ArrayExpression", decodeArray)
	Registry.MustRegister("ObjectExpression", decodeObject)
	Registry.MustRegister("Property", decodeProperty)
}

// ArrayExpression is [a, , ...b]. Holes are nil elements.
type ArrayExpression struct {
	Elements []Node
}

func (n *ArrayExpression) Type() string { return "ArrayExpression" }

func (n *ArrayExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	out := make([]*runtime.Value, 0, len(n.Elements))
	for _, el := range n.Elements {
		if el == nil {
			out = append(out, runtime.Undefined)
			continue
		}
		if sp, ok := el.(*SpreadElement); ok {
			v, err := sp.Argument.Get(stack)
			if err != nil {
				return nil, err
			}
			items, err := runtime.Collect(v)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}
		v, err := el.Get(stack)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return runtime.NewArray(out), nil
}

// Set destructures v into the elements, as in [a, b] = [b, a].
func (n *ArrayExpression) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	p, err := ToPattern(n)
	if err != nil {
		return nil, err
	}
	return p.Set(stack, v)
}

func (n *ArrayExpression) Events() []runtime.Path { return events(n.Elements...) }

func (n *ArrayExpression) String() string {
	s := "[" + joinArgs(n.Elements)
	if len(n.Elements) > 0 && n.Elements[len(n.Elements)-1] == nil {
		s += ","
	}
	return s + "]"
}

type arrayJSON struct {
	Elements []json.RawMessage `json:"elements"`
}

func (n *ArrayExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), arrayJSON{e.nodes(n.Elements)})
}

func decodeArray(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body arrayJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ArrayExpression{Elements: d.nodes(body.Elements)}
	return n, d.err
}

// PropertyKind distinguishes data properties from accessors.
type PropertyKind string

const (
	PropertyInit PropertyKind = "init"
	PropertyGet  PropertyKind = "get"
	PropertySet  PropertyKind = "set"
)

// Property is one entry of an object literal or object pattern. A
// non-computed Key is an *Identifier or a string or number *Literal.
type Property struct {
	Key       Node
	Value     Node
	Kind      PropertyKind
	Computed  bool
	Shorthand bool
	Method    bool
}

func (n *Property) Type() string { return "Property" }

// KeyName resolves the property key, evaluating computed keys.
func (n *Property) KeyName(stack *runtime.Stack) (string, error) {
	if !n.Computed {
		switch k := n.Key.(type) {
		case *Identifier:
			return k.Name, nil
		case *Literal:
			return k.Value.ToString(), nil
		}
		return "", errors.Errorf("invalid property key %s", n.Key)
	}
	v, err := n.Key.Get(stack)
	if err != nil {
		return "", err
	}
	return runtime.ToPropertyKey(v)
}

// Get evaluates the property value.
func (n *Property) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.Value.Get(stack)
}

func (n *Property) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *Property) Events() []runtime.Path {
	if n.Computed {
		return events(n.Key, n.Value)
	}
	return n.Value.Events()
}

func (n *Property) keyString() string {
	if n.Computed {
		return "[" + wrap(n.Key, grammar.Assignment) + "]"
	}
	return n.Key.String()
}

func (n *Property) String() string {
	if n.Kind == PropertyGet || n.Kind == PropertySet || n.Method {
		prefix := ""
		if n.Kind != PropertyInit {
			prefix = string(n.Kind) + " "
		}
		if fn, ok := n.Value.(*FunctionExpression); ok {
			if fn.Async {
				prefix = "async " + prefix
			}
			if fn.Generator {
				prefix += "*"
			}
			return prefix + n.keyString() + fn.signature()
		}
	}
	if n.Shorthand {
		return n.Value.String()
	}
	return n.keyString() + ": " + wrap(n.Value, grammar.Assignment)
}

type propertyJSON struct {
	Key       json.RawMessage `json:"key"`
	Value     json.RawMessage `json:"value"`
	Kind      PropertyKind    `json:"kind"`
	Computed  bool            `json:"computed,omitempty"`
	Shorthand bool            `json:"shorthand,omitempty"`
	Method    bool            `json:"method,omitempty"`
}

func (n *Property) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	body := propertyJSON{
		Key:       e.node(n.Key),
		Value:     e.node(n.Value),
		Kind:      n.Kind,
		Computed:  n.Computed,
		Shorthand: n.Shorthand,
		Method:    n.Method,
	}
	return e.finish(n.Type(), body)
}

func decodeProperty(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body propertyJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &Property{
		Key:       d.node(body.Key),
		Value:     d.node(body.Value),
		Kind:      body.Kind,
		Computed:  body.Computed,
		Shorthand: body.Shorthand,
		Method:    body.Method,
	}
	if n.Kind == "" {
		n.Kind = PropertyInit
	}
	if d.err == nil && (n.Key == nil || n.Value == nil) {
		return nil, errors.New("property needs a key and a value")
	}
	return n, d.err
}

// ObjectExpression is {a: 1, b, [k]: v, ...rest, get x() {}}.
type ObjectExpression struct {
	Properties []Node
}

func (n *ObjectExpression) Type() string { return "ObjectExpression" }

func (n *ObjectExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	obj := runtime.NewPlainObject()
	self := runtime.NewObject(obj)
	for _, p := range n.Properties {
		switch p := p.(type) {
		case *SpreadElement:
			v, err := p.Argument.Get(stack)
			if err != nil {
				return nil, err
			}
			copyOwn(obj, v)
		case *Property:
			key, err := p.KeyName(stack)
			if err != nil {
				return nil, err
			}
			v, err := p.Value.Get(stack)
			if err != nil {
				return nil, err
			}
			switch p.Kind {
			case PropertyGet:
				existing, _ := obj.GetOwnProperty(key)
				var setter *runtime.Value
				if existing != nil && existing.IsAccessor {
					setter = existing.Setter
				}
				obj.DefineAccessor(key, v, setter)
			case PropertySet:
				existing, _ := obj.GetOwnProperty(key)
				var getter *runtime.Value
				if existing != nil && existing.IsAccessor {
					getter = existing.Getter
				}
				obj.DefineAccessor(key, getter, v)
			default:
				if !p.Computed {
					nameFunction(v, &Identifier{Name: key})
				}
				obj.DefineProperty(key, &runtime.Property{Value: v, Writable: true, Enumerable: true})
			}
		default:
			return nil, errors.Errorf("unexpected %s in object literal", p.Type())
		}
	}
	return self, nil
}

// copyOwn copies the enumerable own properties of v, as object spread does.
func copyOwn(dst *runtime.Object, v *runtime.Value) {
	switch v.Type {
	case runtime.TypeObject:
		for _, k := range v.Object.OwnKeys() {
			dst.Set(k, v.Object.Get(k))
		}
	case runtime.TypeString:
		for i, r := range []rune(v.Str) {
			dst.Set(runtime.FormatNumber(float64(i)), runtime.NewString(string(r)))
		}
	}
}

// Set destructures v into the properties, as in ({a, b} = obj).
func (n *ObjectExpression) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	p, err := ToPattern(n)
	if err != nil {
		return nil, err
	}
	return p.Set(stack, v)
}

func (n *ObjectExpression) Events() []runtime.Path { return events(n.Properties...) }

func (n *ObjectExpression) String() string {
	if len(n.Properties) == 0 {
		return "{}"
	}
	return "{ " + joinNodes(n.Properties, ", ") + " }"
}

type objectJSON struct {
	Properties []json.RawMessage `json:"properties"`
}

func (n *ObjectExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), objectJSON{e.nodes(n.Properties)})
}

func decodeObject(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body objectJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ObjectExpression{Properties: d.nodes(body.Properties)}
	return n, d.err
}
