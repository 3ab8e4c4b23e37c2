package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("CallExpression", decodeCall)
	Registry.MustRegister("NewExpression", decodeNew)
	Registry.MustRegister("SpreadElement", decodeSpread)
}

// CallExpression is callee(args). Optional marks callee?.(args).
type CallExpression struct {
	Callee    Node
	Arguments []Node
	Optional  bool
}

func (n *CallExpression) Type() string { return "CallExpression" }

func (n *CallExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	fn, this, err := calleeAndReceiver(stack, n.Callee)
	if err != nil {
		return nil, err
	}
	if n.Optional && fn.IsNullish() {
		return nil, errShortCircuit
	}
	args, err := evalArguments(stack, n.Arguments)
	if err != nil {
		return nil, err
	}
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", n.Callee)
	}
	return runtime.Call(fn, this, args)
}

func (n *CallExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *CallExpression) Events() []runtime.Path {
	return mergePaths(calleeEvents(n.Callee), events(n.Arguments...))
}

func (n *CallExpression) String() string {
	open := "("
	if n.Optional {
		open = "?.("
	}
	return wrapBase(n.Callee) + open + joinArgs(n.Arguments) + ")"
}

type callJSON struct {
	Callee    json.RawMessage   `json:"callee"`
	Arguments []json.RawMessage `json:"arguments"`
	Optional  bool              `json:"optional,omitempty"`
}

func (n *CallExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	body := callJSON{Callee: e.node(n.Callee), Arguments: e.nodes(n.Arguments), Optional: n.Optional}
	return e.finish(n.Type(), body)
}

func decodeCall(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body callJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &CallExpression{Callee: d.node(body.Callee), Arguments: d.nodes(body.Arguments), Optional: body.Optional}
	if d.err == nil && n.Callee == nil {
		return nil, errors.New("call expression without a callee")
	}
	return n, d.err
}

// evalArguments evaluates call arguments left to right, expanding spreads.
func evalArguments(stack *runtime.Stack, nodes []Node) ([]*runtime.Value, error) {
	args := make([]*runtime.Value, 0, len(nodes))
	for _, a := range nodes {
		if sp, ok := a.(*SpreadElement); ok {
			v, err := sp.Argument.Get(stack)
			if err != nil {
				return nil, err
			}
			items, err := runtime.Collect(v)
			if err != nil {
				return nil, err
			}
			args = append(args, items...)
			continue
		}
		v, err := a.Get(stack)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// NewExpression is new callee(args).
type NewExpression struct {
	Callee    Node
	Arguments []Node
}

func (n *NewExpression) Type() string { return "NewExpression" }

func (n *NewExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	fn, err := n.Callee.Get(stack)
	if err != nil {
		return nil, err
	}
	args, err := evalArguments(stack, n.Arguments)
	if err != nil {
		return nil, err
	}
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a constructor", n.Callee)
	}
	return runtime.Construct(fn, args)
}

func (n *NewExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *NewExpression) Events() []runtime.Path {
	return events(append([]Node{n.Callee}, n.Arguments...)...)
}

func (n *NewExpression) String() string {
	callee := wrapBase(n.Callee)
	if _, ok := n.Callee.(*CallExpression); ok {
		callee = "(" + n.Callee.String() + ")"
	}
	return "new " + callee + "(" + joinArgs(n.Arguments) + ")"
}

type newJSON struct {
	Callee    json.RawMessage   `json:"callee"`
	Arguments []json.RawMessage `json:"arguments"`
}

func (n *NewExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), newJSON{e.node(n.Callee), e.nodes(n.Arguments)})
}

func decodeNew(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body newJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &NewExpression{Callee: d.node(body.Callee), Arguments: d.nodes(body.Arguments)}
	if d.err == nil && n.Callee == nil {
		return nil, errors.New("new expression without a callee")
	}
	return n, d.err
}

// SpreadElement is ...expr inside an array literal, object literal or
// argument list. On its own it evaluates to its argument.
type SpreadElement struct {
	Argument Node
}

func (n *SpreadElement) Type() string { return "SpreadElement" }

func (n *SpreadElement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.Argument.Get(stack)
}

func (n *SpreadElement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *SpreadElement) Events() []runtime.Path { return n.Argument.Events() }

func (n *SpreadElement) String() string {
	return "..." + wrap(n.Argument, grammar.Assignment)
}

type spreadJSON struct {
	Argument json.RawMessage `json:"argument"`
}

func (n *SpreadElement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), spreadJSON{e.node(n.Argument)})
}

func decodeSpread(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body spreadJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &SpreadElement{Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.New("spread without an argument")
	}
	return n, d.err
}
