package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("Identifier", decodeIdentifier)
	Registry.MustRegister("ThisExpression", decodeThis)
}

// Identifier is a name resolved through the scope chain.
type Identifier struct {
	Name string
}

func (n *Identifier) Type() string { return "Identifier" }

func (n *Identifier) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v, ok := stack.Lookup(n.Name)
	if !ok {
		return nil, errors.ReferenceErrorf("%s is not defined", n.Name)
	}
	return v, nil
}

func (n *Identifier) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	if err := stack.Assign(n.Name, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *Identifier) Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error {
	return stack.Declare(n.Name, kind, v)
}

func (n *Identifier) BoundNames() []string { return []string{n.Name} }

func (n *Identifier) Events() []runtime.Path {
	return []runtime.Path{{n.Name}}
}

func (n *Identifier) String() string { return n.Name }

type identifierJSON struct {
	Name string `json:"name"`
}

func (n *Identifier) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), identifierJSON{n.Name})
}

func decodeIdentifier(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body identifierJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if body.Name == "" {
		return nil, errors.New("identifier without a name")
	}
	return &Identifier{Name: body.Name}, nil
}

// ThisExpression reads the receiver bound by the nearest non-arrow function.
type ThisExpression struct{}

func (n *ThisExpression) Type() string { return "ThisExpression" }

func (n *ThisExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	if v, ok := stack.Lookup("this"); ok {
		return v, nil
	}
	return runtime.Undefined, nil
}

func (n *ThisExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ThisExpression) Events() []runtime.Path { return nil }

func (n *ThisExpression) String() string { return "this" }

func (n *ThisExpression) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), struct{}{})
}

func decodeThis(json.RawMessage, registry.Decoder[Node]) (Node, error) {
	return &ThisExpression{}, nil
}
