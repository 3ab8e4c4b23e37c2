package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("ArrayPattern", decodeArrayPattern)
	Registry.MustRegister("ObjectPattern", decodeObjectPattern)
	Registry.MustRegister("AssignmentPattern", decodeAssignmentPattern)
	Registry.MustRegister("RestElement", decodeRest)
}

var errPatternGet = &errors.EvaluationError{Kind: "SyntaxError", Msg: "destructuring pattern used as a value"}

// bindFunc stores one destructured value into a leaf target.
type bindFunc func(target Node, v *runtime.Value) error

func declareLeaf(stack *runtime.Stack, kind runtime.DeclKind) bindFunc {
	return func(target Node, v *runtime.Value) error {
		id, ok := target.(*Identifier)
		if !ok {
			return &errors.EvaluationError{Kind: "SyntaxError", Msg: "Invalid destructuring target " + target.String()}
		}
		return stack.Declare(id.Name, kind, v)
	}
}

func assignLeaf(stack *runtime.Stack) bindFunc {
	return func(target Node, v *runtime.Value) error {
		_, err := target.Set(stack, v)
		return err
	}
}

// Bind declares target, an identifier or pattern, with value v.
func Bind(stack *runtime.Stack, target Node, kind runtime.DeclKind, v *runtime.Value) error {
	if id, ok := target.(*Identifier); ok {
		return stack.Declare(id.Name, kind, v)
	}
	if v == nil {
		v = runtime.Undefined
	}
	return destructure(stack, target, v, declareLeaf(stack, kind))
}

func destructure(stack *runtime.Stack, target Node, v *runtime.Value, bind bindFunc) error {
	if v == nil {
		v = runtime.Undefined
	}
	switch t := target.(type) {
	case *ArrayPattern:
		return t.destructure(stack, v, bind)
	case *ObjectPattern:
		return t.destructure(stack, v, bind)
	case *AssignmentPattern:
		if v.Type == runtime.TypeUndefined {
			d, err := t.Right.Get(stack)
			if err != nil {
				return err
			}
			nameFunction(d, t.Left)
			v = d
		}
		return destructure(stack, t.Left, v, bind)
	case *RestElement:
		return destructure(stack, t.Argument, v, bind)
	}
	return bind(target, v)
}

// BoundNames lists the names a declaration target binds.
func BoundNames(target Node) []string {
	switch t := target.(type) {
	case *Identifier:
		return []string{t.Name}
	case *ArrayPattern:
		var out []string
		for _, el := range t.Elements {
			out = append(out, BoundNames(el)...)
		}
		return out
	case *ObjectPattern:
		var out []string
		for _, p := range t.Properties {
			if prop, ok := p.(*Property); ok {
				out = append(out, BoundNames(prop.Value)...)
			} else {
				out = append(out, BoundNames(p)...)
			}
		}
		return out
	case *AssignmentPattern:
		return BoundNames(t.Left)
	case *RestElement:
		return BoundNames(t.Argument)
	}
	return nil
}

// ToPattern converts an array or object literal on the left of = into the
// equivalent pattern. Identifiers, member expressions and patterns are
// returned unchanged; anything else is not assignable.
func ToPattern(n Node) (Node, error) {
	switch t := n.(type) {
	case *Identifier, *MemberExpression, *ArrayPattern, *ObjectPattern, *AssignmentPattern, *RestElement:
		return n, nil
	case *ArrayExpression:
		p := &ArrayPattern{Elements: make([]Node, len(t.Elements))}
		for i, el := range t.Elements {
			if el == nil {
				continue
			}
			if sp, ok := el.(*SpreadElement); ok {
				if i != len(t.Elements)-1 {
					return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Rest element must be last element"}
				}
				arg, err := ToPattern(sp.Argument)
				if err != nil {
					return nil, err
				}
				p.Elements[i] = &RestElement{Argument: arg}
				continue
			}
			conv, err := ToPattern(el)
			if err != nil {
				return nil, err
			}
			p.Elements[i] = conv
		}
		return p, nil
	case *ObjectExpression:
		p := &ObjectPattern{Properties: make([]Node, len(t.Properties))}
		for i, prop := range t.Properties {
			switch prop := prop.(type) {
			case *SpreadElement:
				if i != len(t.Properties)-1 {
					return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Rest element must be last element"}
				}
				arg, err := ToPattern(prop.Argument)
				if err != nil {
					return nil, err
				}
				p.Properties[i] = &RestElement{Argument: arg}
			case *Property:
				if prop.Kind != PropertyInit || prop.Method {
					return nil, errors.NotAssignable(prop.String())
				}
				val, err := ToPattern(prop.Value)
				if err != nil {
					return nil, err
				}
				p.Properties[i] = &Property{Key: prop.Key, Value: val, Kind: PropertyInit, Computed: prop.Computed, Shorthand: prop.Shorthand}
			default:
				return nil, errors.NotAssignable(prop.String())
			}
		}
		return p, nil
	case *AssignmentExpression:
		if t.Operator != "=" {
			return nil, errors.NotAssignable(t.String())
		}
		left, err := ToPattern(t.Left)
		if err != nil {
			return nil, err
		}
		return &AssignmentPattern{Left: left, Right: t.Right}, nil
	}
	return nil, errors.NotAssignable(n.String())
}

// targetEvents reports what assigning through target reads: computed keys
// and default values, but not the target binding itself.
func targetEvents(target Node) []runtime.Path {
	switch t := target.(type) {
	case *MemberExpression:
		if t.Computed {
			return t.Property.Events()
		}
		return nil
	case *ArrayPattern, *ObjectPattern, *AssignmentPattern, *RestElement:
		return t.Events()
	}
	return nil
}

// ArrayPattern is [a, , b = 1, ...rest] in a declaration or assignment.
type ArrayPattern struct {
	Elements []Node
}

func (n *ArrayPattern) Type() string { return "ArrayPattern" }

func (n *ArrayPattern) destructure(stack *runtime.Stack, v *runtime.Value, bind bindFunc) error {
	if v.IsNullish() {
		return errors.TypeErrorf("%s is not iterable", v.ToString())
	}
	next, err := runtime.Iterate(v)
	if err != nil {
		return err
	}
	for _, el := range n.Elements {
		if rest, ok := el.(*RestElement); ok {
			var items []*runtime.Value
			for {
				item, ok, err := next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				items = append(items, item)
			}
			return destructure(stack, rest.Argument, runtime.NewArray(items), bind)
		}
		item, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			item = runtime.Undefined
		}
		if el == nil {
			continue
		}
		if err := destructure(stack, el, item, bind); err != nil {
			return err
		}
	}
	return nil
}

func (n *ArrayPattern) Get(*runtime.Stack) (*runtime.Value, error) { return nil, errPatternGet }

func (n *ArrayPattern) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	if err := destructure(stack, n, v, assignLeaf(stack)); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *ArrayPattern) Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error {
	return Bind(stack, n, kind, v)
}

func (n *ArrayPattern) BoundNames() []string { return BoundNames(n) }

func (n *ArrayPattern) Events() []runtime.Path {
	var out []runtime.Path
	for _, el := range n.Elements {
		if el != nil {
			out = append(out, targetEvents(el)...)
		}
	}
	return runtime.DedupPaths(out)
}

func (n *ArrayPattern) String() string {
	s := "[" + joinNodes(n.Elements, ", ")
	if len(n.Elements) > 0 && n.Elements[len(n.Elements)-1] == nil {
		s += ","
	}
	return s + "]"
}

func (n *ArrayPattern) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), arrayJSON{e.nodes(n.Elements)})
}

func decodeArrayPattern(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body arrayJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ArrayPattern{Elements: d.nodes(body.Elements)}
	return n, d.err
}

// ObjectPattern is {a, b: c, d = 1, ...rest} in a declaration or assignment.
type ObjectPattern struct {
	Properties []Node
}

func (n *ObjectPattern) Type() string { return "ObjectPattern" }

func (n *ObjectPattern) destructure(stack *runtime.Stack, v *runtime.Value, bind bindFunc) error {
	if v.IsNullish() {
		return errors.TypeErrorf("Cannot destructure '%s' as it is %s.", v.ToString(), v.ToString())
	}
	used := make(map[string]bool)
	for _, p := range n.Properties {
		switch p := p.(type) {
		case *Property:
			key, err := p.KeyName(stack)
			if err != nil {
				return err
			}
			used[key] = true
			val, err := runtime.GetProperty(v, key)
			if err != nil {
				return err
			}
			if err := destructure(stack, p.Value, val, bind); err != nil {
				return err
			}
		case *RestElement:
			rest := runtime.NewPlainObject()
			if v.IsObject() {
				for _, k := range v.Object.OwnKeys() {
					if !used[k] {
						rest.Set(k, v.Object.Get(k))
					}
				}
			}
			if err := destructure(stack, p.Argument, runtime.NewObject(rest), bind); err != nil {
				return err
			}
		default:
			return errors.Errorf("unexpected %s in object pattern", p.Type())
		}
	}
	return nil
}

func (n *ObjectPattern) Get(*runtime.Stack) (*runtime.Value, error) { return nil, errPatternGet }

func (n *ObjectPattern) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	if err := destructure(stack, n, v, assignLeaf(stack)); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *ObjectPattern) Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error {
	return Bind(stack, n, kind, v)
}

func (n *ObjectPattern) BoundNames() []string { return BoundNames(n) }

func (n *ObjectPattern) Events() []runtime.Path {
	var out []runtime.Path
	for _, p := range n.Properties {
		switch p := p.(type) {
		case *Property:
			if p.Computed {
				out = append(out, p.Key.Events()...)
			}
			out = append(out, targetEvents(p.Value)...)
		case *RestElement:
			out = append(out, targetEvents(p.Argument)...)
		}
	}
	return runtime.DedupPaths(out)
}

func (n *ObjectPattern) String() string {
	if len(n.Properties) == 0 {
		return "{}"
	}
	return "{ " + joinNodes(n.Properties, ", ") + " }"
}

func (n *ObjectPattern) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), objectJSON{e.nodes(n.Properties)})
}

func decodeObjectPattern(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body objectJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ObjectPattern{Properties: d.nodes(body.Properties)}
	return n, d.err
}

// AssignmentPattern is target = default inside a pattern or parameter list.
type AssignmentPattern struct {
	Left  Node
	Right Node
}

func (n *AssignmentPattern) Type() string { return "AssignmentPattern" }

func (n *AssignmentPattern) Get(*runtime.Stack) (*runtime.Value, error) { return nil, errPatternGet }

func (n *AssignmentPattern) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	if err := destructure(stack, n, v, assignLeaf(stack)); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *AssignmentPattern) Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error {
	return Bind(stack, n, kind, v)
}

func (n *AssignmentPattern) BoundNames() []string { return BoundNames(n) }

func (n *AssignmentPattern) Events() []runtime.Path {
	return mergePaths(targetEvents(n.Left), n.Right.Events())
}

func (n *AssignmentPattern) String() string {
	return n.Left.String() + " = " + wrap(n.Right, grammar.Assignment)
}

func (n *AssignmentPattern) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), binaryJSON{"=", e.node(n.Left), e.node(n.Right)})
}

func decodeAssignmentPattern(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	_, l, r, err := decodeOperands(raw, dec)
	if err != nil {
		return nil, err
	}
	return &AssignmentPattern{Left: l, Right: r}, nil
}

// RestElement is ...target, last in a pattern or parameter list.
type RestElement struct {
	Argument Node
}

func (n *RestElement) Type() string { return "RestElement" }

func (n *RestElement) Get(*runtime.Stack) (*runtime.Value, error) { return nil, errPatternGet }

func (n *RestElement) Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	return n.Argument.Set(stack, v)
}

func (n *RestElement) Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error {
	return Bind(stack, n.Argument, kind, v)
}

func (n *RestElement) BoundNames() []string { return BoundNames(n.Argument) }

func (n *RestElement) Events() []runtime.Path { return targetEvents(n.Argument) }

func (n *RestElement) String() string { return "..." + n.Argument.String() }

func (n *RestElement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), spreadJSON{e.node(n.Argument)})
}

func decodeRest(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body spreadJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &RestElement{Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.New("rest element without a target")
	}
	return n, d.err
}
