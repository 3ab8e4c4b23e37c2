package ast

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("Literal", decodeLiteral)
	Registry.MustRegister("RegExpLiteral", decodeRegExpLiteral)
	Registry.MustRegister("TemplateLiteral", decodeTemplateLiteral)
	Registry.MustRegister("TaggedTemplateExpression", decodeTaggedTemplate)
}

// Literal is a constant: number, string, boolean, bigint, null or undefined.
type Literal struct {
	Value *runtime.Value
}

// NewLiteral wraps a constant value.
func NewLiteral(v *runtime.Value) *Literal {
	return &Literal{Value: v}
}

func (n *Literal) Type() string { return "Literal" }

func (n *Literal) Get(*runtime.Stack) (*runtime.Value, error) {
	return n.Value, nil
}

func (n *Literal) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *Literal) Events() []runtime.Path { return nil }

func (n *Literal) String() string {
	v := n.Value
	switch v.Type {
	case runtime.TypeString:
		return Quote(v.Str)
	case runtime.TypeBigInt:
		return v.BigInt.String() + "n"
	case runtime.TypeNumber:
		s := runtime.FormatNumber(v.Number)
		if strings.HasPrefix(s, "-") {
			return "(" + s + ")"
		}
		return s
	}
	return v.ToString()
}

type literalJSON struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

func (n *Literal) MarshalJSON() ([]byte, error) {
	body := literalJSON{Kind: n.Value.Type.String()}
	switch n.Value.Type {
	case runtime.TypeString:
		body.Value = n.Value.Str
	case runtime.TypeNumber, runtime.TypeBoolean:
		body.Value = n.Value.ToString()
	case runtime.TypeBigInt:
		body.Value = n.Value.BigInt.String()
	case runtime.TypeObject:
		return nil, errors.Errorf("literal holds an object")
	}
	return registry.Marshal(n.Type(), body)
}

func decodeLiteral(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body literalJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	switch body.Kind {
	case "undefined":
		return NewLiteral(runtime.Undefined), nil
	case "null":
		return NewLiteral(runtime.Null), nil
	case "boolean":
		return NewLiteral(runtime.NewBool(body.Value == "true")), nil
	case "number":
		return NewLiteral(runtime.NewNumber(runtime.StringToNumber(body.Value))), nil
	case "string":
		return NewLiteral(runtime.NewString(body.Value)), nil
	case "bigint":
		b, ok := new(big.Int).SetString(body.Value, 10)
		if !ok {
			return nil, errors.Errorf("invalid bigint literal %q", body.Value)
		}
		return NewLiteral(runtime.NewBigInt(b)), nil
	}
	return nil, errors.Errorf("unknown literal kind %q", body.Kind)
}

// Quote renders s as a double-quoted script string.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// RegExpLiteral is /pattern/flags. Each evaluation creates a new object.
type RegExpLiteral struct {
	Pattern string
	Flags   string
}

func (n *RegExpLiteral) Type() string { return "RegExpLiteral" }

func (n *RegExpLiteral) Get(*runtime.Stack) (*runtime.Value, error) {
	return runtime.NewRegExp(n.Pattern, n.Flags)
}

func (n *RegExpLiteral) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *RegExpLiteral) Events() []runtime.Path { return nil }

func (n *RegExpLiteral) String() string {
	return "/" + n.Pattern + "/" + n.Flags
}

type regexpJSON struct {
	Pattern string `json:"pattern"`
	Flags   string `json:"flags"`
}

func (n *RegExpLiteral) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), regexpJSON{n.Pattern, n.Flags})
}

func decodeRegExpLiteral(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body regexpJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	return &RegExpLiteral{Pattern: body.Pattern, Flags: body.Flags}, nil
}

// TemplateLiteral is `a${x}b`. Quasis has one more entry than Expressions.
// Raws keeps the uncooked text for printing and tagged templates.
type TemplateLiteral struct {
	Quasis      []string
	Raws        []string
	Expressions []Node
}

func (n *TemplateLiteral) Type() string { return "TemplateLiteral" }

func (n *TemplateLiteral) Get(stack *runtime.Stack) (*runtime.Value, error) {
	var b strings.Builder
	for i, q := range n.Quasis {
		b.WriteString(q)
		if i >= len(n.Expressions) {
			continue
		}
		v, err := n.Expressions[i].Get(stack)
		if err != nil {
			return nil, err
		}
		p, err := runtime.ToPrimitive(v, runtime.HintString)
		if err != nil {
			return nil, err
		}
		b.WriteString(p.ToString())
	}
	return runtime.NewString(b.String()), nil
}

func (n *TemplateLiteral) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *TemplateLiteral) Events() []runtime.Path {
	return events(n.Expressions...)
}

func (n *TemplateLiteral) raw(i int) string {
	if i < len(n.Raws) {
		return n.Raws[i]
	}
	r := strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")
	return r.Replace(n.Quasis[i])
}

func (n *TemplateLiteral) String() string {
	var b strings.Builder
	b.WriteByte('`')
	for i := range n.Quasis {
		b.WriteString(n.raw(i))
		if i < len(n.Expressions) {
			b.WriteString("${")
			b.WriteString(n.Expressions[i].String())
			b.WriteString("}")
		}
	}
	b.WriteByte('`')
	return b.String()
}

type templateJSON struct {
	Quasis      []string          `json:"quasis"`
	Raws        []string          `json:"raws,omitempty"`
	Expressions []json.RawMessage `json:"expressions"`
}

func (n *TemplateLiteral) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	body := templateJSON{Quasis: n.Quasis, Raws: n.Raws, Expressions: e.nodes(n.Expressions)}
	return e.finish(n.Type(), body)
}

func decodeTemplateLiteral(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body templateJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if len(body.Quasis) != len(body.Expressions)+1 {
		return nil, errors.Errorf("template has %d quasis for %d expressions", len(body.Quasis), len(body.Expressions))
	}
	d := newDecoder(dec)
	n := &TemplateLiteral{Quasis: body.Quasis, Raws: body.Raws, Expressions: d.nodes(body.Expressions)}
	return n, d.err
}

// TaggedTemplateExpression is tag`a${x}b`: the tag is called with the
// cooked strings, which carry a raw property, followed by the values.
type TaggedTemplateExpression struct {
	Tag   Node
	Quasi *TemplateLiteral
}

func (n *TaggedTemplateExpression) Type() string { return "TaggedTemplateExpression" }

func (n *TaggedTemplateExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	fn, this, err := calleeAndReceiver(stack, n.Tag)
	if err != nil {
		return nil, err
	}
	cooked := make([]*runtime.Value, len(n.Quasi.Quasis))
	raws := make([]*runtime.Value, len(n.Quasi.Quasis))
	for i, q := range n.Quasi.Quasis {
		cooked[i] = runtime.NewString(q)
		raws[i] = runtime.NewString(n.Quasi.raw(i))
	}
	strs := runtime.NewArray(cooked)
	strs.Object.DefineHidden("raw", runtime.NewArray(raws))
	args := []*runtime.Value{strs}
	for _, expr := range n.Quasi.Expressions {
		v, err := expr.Get(stack)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", n.Tag)
	}
	return runtime.Call(fn, this, args)
}

func (n *TaggedTemplateExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *TaggedTemplateExpression) Events() []runtime.Path {
	return mergePaths(calleeEvents(n.Tag), n.Quasi.Events())
}

func (n *TaggedTemplateExpression) String() string {
	return wrapBase(n.Tag) + n.Quasi.String()
}

type taggedJSON struct {
	Tag   json.RawMessage `json:"tag"`
	Quasi json.RawMessage `json:"quasi"`
}

func (n *TaggedTemplateExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	body := taggedJSON{Tag: e.node(n.Tag), Quasi: e.node(n.Quasi)}
	return e.finish(n.Type(), body)
}

func decodeTaggedTemplate(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body taggedJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &TaggedTemplateExpression{Tag: d.node(body.Tag)}
	if q, ok := d.node(body.Quasi).(*TemplateLiteral); ok {
		n.Quasi = q
	} else if d.err == nil {
		return nil, errors.New("tagged template without a TemplateLiteral")
	}
	return n, d.err
}
