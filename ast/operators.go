package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("UnaryExpression", decodeUnary)
	Registry.MustRegister("UpdateExpression", decodeUpdate)
	Registry.MustRegister("BinaryExpression", decodeBinary)
	Registry.MustRegister("LogicalExpression", decodeLogical)
	Registry.MustRegister("ConditionalExpression", decodeConditional)
	Registry.MustRegister("AssignmentExpression", decodeAssignment)
	Registry.MustRegister("SequenceExpression", decodeSequence)
	Registry.MustRegister("PipelineExpression", decodePipeline)
	Registry.MustRegister("AwaitExpression", decodeAwait)
	Registry.MustRegister("YieldExpression", decodeYield)
}

// UnaryExpression is a prefix operator: ! ~ + - typeof void delete.
type UnaryExpression struct {
	Operator string
	Argument Node
}

func (n *UnaryExpression) Type() string { return "UnaryExpression" }

func (n *UnaryExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	switch n.Operator {
	case "delete":
		switch arg := n.Argument.(type) {
		case *MemberExpression:
			return arg.Delete(stack)
		case *ChainExpression:
			if m, ok := arg.Expression.(*MemberExpression); ok {
				v, err := m.Delete(stack)
				if err == errShortCircuit {
					return runtime.True, nil
				}
				return v, err
			}
		case *Identifier:
			return runtime.False, nil
		}
		if _, err := n.Argument.Get(stack); err != nil {
			return nil, err
		}
		return runtime.True, nil
	case "typeof":
		// typeof tolerates unbound names.
		if id, ok := n.Argument.(*Identifier); ok {
			v, found := stack.Lookup(id.Name)
			if !found {
				return runtime.NewString("undefined"), nil
			}
			return runtime.NewString(v.TypeOf()), nil
		}
	}
	v, err := n.Argument.Get(stack)
	if err != nil {
		return nil, err
	}
	return runtime.UnaryOp(n.Operator, v)
}

func (n *UnaryExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *UnaryExpression) Events() []runtime.Path { return n.Argument.Events() }

func (n *UnaryExpression) String() string {
	arg := wrap(n.Argument, precUnary)
	switch n.Operator {
	case "typeof", "void", "delete":
		return n.Operator + " " + arg
	}
	// Keep - -x and + +x from printing as a decrement or increment.
	if inner, ok := n.Argument.(*UnaryExpression); ok && len(inner.Operator) == 1 && inner.Operator == n.Operator {
		return n.Operator + " " + arg
	}
	if inner, ok := n.Argument.(*UpdateExpression); ok && inner.Prefix && inner.Operator[:1] == n.Operator {
		return n.Operator + " " + arg
	}
	return n.Operator + arg
}

type unaryJSON struct {
	Operator string          `json:"operator"`
	Argument json.RawMessage `json:"argument"`
	Prefix   bool            `json:"prefix,omitempty"`
}

func (n *UnaryExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), unaryJSON{Operator: n.Operator, Argument: e.node(n.Argument)})
}

func decodeUnary(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body unaryJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &UnaryExpression{Operator: body.Operator, Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.Errorf("unary %s without an argument", body.Operator)
	}
	return n, d.err
}

// UpdateExpression is ++x, --x, x++ or x--.
type UpdateExpression struct {
	Operator string
	Prefix   bool
	Argument Node
}

func (n *UpdateExpression) Type() string { return "UpdateExpression" }

func (n *UpdateExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	cur, err := n.Argument.Get(stack)
	if err != nil {
		return nil, err
	}
	old, err := runtime.ToNumeric(cur)
	if err != nil {
		return nil, err
	}
	delta := int64(1)
	if n.Operator == "--" {
		delta = -1
	}
	next, err := runtime.Increment(old, delta)
	if err != nil {
		return nil, err
	}
	if _, err := n.Argument.Set(stack, next); err != nil {
		return nil, err
	}
	if n.Prefix {
		return next, nil
	}
	return old, nil
}

func (n *UpdateExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *UpdateExpression) Events() []runtime.Path { return n.Argument.Events() }

func (n *UpdateExpression) String() string {
	if n.Prefix {
		return n.Operator + wrap(n.Argument, precUnary)
	}
	return wrap(n.Argument, precPostfix) + n.Operator
}

func (n *UpdateExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), unaryJSON{Operator: n.Operator, Argument: e.node(n.Argument), Prefix: n.Prefix})
}

func decodeUpdate(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body unaryJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if body.Operator != "++" && body.Operator != "--" {
		return nil, errors.Errorf("invalid update operator %q", body.Operator)
	}
	d := newDecoder(dec)
	n := &UpdateExpression{Operator: body.Operator, Prefix: body.Prefix, Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.New("update without an argument")
	}
	return n, d.err
}

// BinaryExpression applies an arithmetic, bitwise, comparison or relational
// operator to two operands, both always evaluated.
type BinaryExpression struct {
	Operator string
	Left     Node
	Right    Node
}

func (n *BinaryExpression) Type() string { return "BinaryExpression" }

func (n *BinaryExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	l, err := n.Left.Get(stack)
	if err != nil {
		return nil, err
	}
	r, err := n.Right.Get(stack)
	if err != nil {
		return nil, err
	}
	return runtime.BinaryOp(n.Operator, l, r)
}

func (n *BinaryExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *BinaryExpression) Events() []runtime.Path { return events(n.Left, n.Right) }

func (n *BinaryExpression) String() string {
	return binaryOperands(n.Left, n.Operator, n.Right, operatorLevel(n.Operator))
}

type binaryJSON struct {
	Operator string          `json:"operator"`
	Left     json.RawMessage `json:"left"`
	Right    json.RawMessage `json:"right"`
}

func (n *BinaryExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), binaryJSON{n.Operator, e.node(n.Left), e.node(n.Right)})
}

func decodeOperands(raw json.RawMessage, dec registry.Decoder[Node]) (binaryJSON, Node, Node, error) {
	var body binaryJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return body, nil, nil, err
	}
	d := newDecoder(dec)
	l, r := d.node(body.Left), d.node(body.Right)
	if d.err != nil {
		return body, nil, nil, d.err
	}
	if l == nil || r == nil {
		return body, nil, nil, errors.Errorf("operator %s needs two operands", body.Operator)
	}
	return body, l, r, nil
}

func decodeBinary(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	body, l, r, err := decodeOperands(raw, dec)
	if err != nil {
		return nil, err
	}
	return &BinaryExpression{Operator: body.Operator, Left: l, Right: r}, nil
}

// LogicalExpression is &&, || or ??. The right side is evaluated only when
// the left side does not decide the result.
type LogicalExpression struct {
	Operator string
	Left     Node
	Right    Node
}

func (n *LogicalExpression) Type() string { return "LogicalExpression" }

func (n *LogicalExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	l, err := n.Left.Get(stack)
	if err != nil {
		return nil, err
	}
	if shortCircuits(n.Operator, l) {
		return l, nil
	}
	return n.Right.Get(stack)
}

// shortCircuits reports whether a logical operator is decided by its left value.
func shortCircuits(op string, l *runtime.Value) bool {
	switch op {
	case "&&":
		return !l.ToBoolean()
	case "||":
		return l.ToBoolean()
	default:
		return !l.IsNullish()
	}
}

func (n *LogicalExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *LogicalExpression) Events() []runtime.Path { return events(n.Left, n.Right) }

func (n *LogicalExpression) String() string {
	return binaryOperands(n.Left, n.Operator, n.Right, operatorLevel(n.Operator))
}

func (n *LogicalExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), binaryJSON{n.Operator, e.node(n.Left), e.node(n.Right)})
}

func decodeLogical(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	body, l, r, err := decodeOperands(raw, dec)
	if err != nil {
		return nil, err
	}
	switch body.Operator {
	case "&&", "||", "??":
	default:
		return nil, errors.Errorf("invalid logical operator %q", body.Operator)
	}
	return &LogicalExpression{Operator: body.Operator, Left: l, Right: r}, nil
}

// ConditionalExpression is test ? consequent : alternate.
type ConditionalExpression struct {
	Test       Node
	Consequent Node
	Alternate  Node
}

func (n *ConditionalExpression) Type() string { return "ConditionalExpression" }

func (n *ConditionalExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	t, err := n.Test.Get(stack)
	if err != nil {
		return nil, err
	}
	if t.ToBoolean() {
		return n.Consequent.Get(stack)
	}
	return n.Alternate.Get(stack)
}

func (n *ConditionalExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ConditionalExpression) Events() []runtime.Path {
	return events(n.Test, n.Consequent, n.Alternate)
}

func (n *ConditionalExpression) String() string {
	return wrap(n.Test, grammar.Conditional+1) + " ? " +
		wrap(n.Consequent, grammar.Assignment) + " : " +
		wrap(n.Alternate, grammar.Assignment)
}

type conditionalJSON struct {
	Test       json.RawMessage `json:"test"`
	Consequent json.RawMessage `json:"consequent"`
	Alternate  json.RawMessage `json:"alternate"`
}

func (n *ConditionalExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), conditionalJSON{e.node(n.Test), e.node(n.Consequent), e.node(n.Alternate)})
}

func decodeConditional(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body conditionalJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ConditionalExpression{Test: d.node(body.Test), Consequent: d.node(body.Consequent), Alternate: d.node(body.Alternate)}
	if d.err == nil && (n.Test == nil || n.Consequent == nil || n.Alternate == nil) {
		return nil, errors.New("conditional expression needs three operands")
	}
	return n, d.err
}

// AssignmentExpression is target = value or a compound form such as +=,
// **= or ??=. Array and object targets destructure.
type AssignmentExpression struct {
	Operator string
	Left     Node
	Right    Node
}

func (n *AssignmentExpression) Type() string { return "AssignmentExpression" }

func (n *AssignmentExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	if n.Operator == "=" {
		v, err := n.Right.Get(stack)
		if err != nil {
			return nil, err
		}
		nameFunction(v, n.Left)
		if _, err := n.Left.Set(stack, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	op := grammar.CompoundOperator(n.Operator)
	l, err := n.Left.Get(stack)
	if err != nil {
		return nil, err
	}
	var v *runtime.Value
	switch op {
	case "&&", "||", "??":
		if shortCircuits(op, l) {
			return l, nil
		}
		if v, err = n.Right.Get(stack); err != nil {
			return nil, err
		}
	default:
		r, err := n.Right.Get(stack)
		if err != nil {
			return nil, err
		}
		if v, err = runtime.BinaryOp(op, l, r); err != nil {
			return nil, err
		}
	}
	if _, err := n.Left.Set(stack, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (n *AssignmentExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

// Events of an assignment are what it reads: the right side, the keys and
// bases of a member target, and the target itself for compound operators.
func (n *AssignmentExpression) Events() []runtime.Path {
	if n.Operator != "=" {
		return events(n.Left, n.Right)
	}
	return mergePaths(targetEvents(n.Left), n.Right.Events())
}

func (n *AssignmentExpression) String() string {
	return wrap(n.Left, precCall) + " " + n.Operator + " " + wrap(n.Right, grammar.Assignment)
}

func (n *AssignmentExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), binaryJSON{n.Operator, e.node(n.Left), e.node(n.Right)})
}

func decodeAssignment(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	body, l, r, err := decodeOperands(raw, dec)
	if err != nil {
		return nil, err
	}
	return &AssignmentExpression{Operator: body.Operator, Left: l, Right: r}, nil
}

// nameFunction gives an anonymous function the name of the binding it is
// assigned to.
func nameFunction(v *runtime.Value, target Node) {
	id, ok := target.(*Identifier)
	if !ok || !v.IsCallable() {
		return
	}
	if name := v.Object.Get("name"); name.Type == runtime.TypeString && name.Str == "" {
		v.Object.DefineHidden("name", runtime.NewString(id.Name))
	}
}

// SequenceExpression is a, b, c. It evaluates to the last value.
type SequenceExpression struct {
	Expressions []Node
}

func (n *SequenceExpression) Type() string { return "SequenceExpression" }

func (n *SequenceExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v := runtime.Undefined
	for _, e := range n.Expressions {
		var err error
		if v, err = e.Get(stack); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (n *SequenceExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *SequenceExpression) Events() []runtime.Path { return events(n.Expressions...) }

func (n *SequenceExpression) String() string { return joinArgs(n.Expressions) }

type sequenceJSON struct {
	Expressions []json.RawMessage `json:"expressions"`
}

func (n *SequenceExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), sequenceJSON{e.nodes(n.Expressions)})
}

func decodeSequence(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body sequenceJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if len(body.Expressions) == 0 {
		return nil, errors.New("empty sequence expression")
	}
	d := newDecoder(dec)
	n := &SequenceExpression{Expressions: d.nodes(body.Expressions)}
	return n, d.err
}

// PipelineExpression is value |> fn, which calls fn(value).
type PipelineExpression struct {
	Left  Node
	Right Node
}

func (n *PipelineExpression) Type() string { return "PipelineExpression" }

func (n *PipelineExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	arg, err := n.Left.Get(stack)
	if err != nil {
		return nil, err
	}
	fn, err := n.Right.Get(stack)
	if err != nil {
		return nil, err
	}
	if !fn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", n.Right)
	}
	return runtime.Call(fn, runtime.Undefined, []*runtime.Value{arg})
}

func (n *PipelineExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *PipelineExpression) Events() []runtime.Path { return events(n.Left, n.Right) }

func (n *PipelineExpression) String() string {
	return binaryOperands(n.Left, "|>", n.Right, grammar.Pipeline)
}

func (n *PipelineExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), binaryJSON{"|>", e.node(n.Left), e.node(n.Right)})
}

func decodePipeline(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	_, l, r, err := decodeOperands(raw, dec)
	if err != nil {
		return nil, err
	}
	return &PipelineExpression{Left: l, Right: r}, nil
}

// AwaitExpression unwraps a future. Inside an async function a pending
// future suspends the function; elsewhere it yields a PendingError so the
// host can wait and evaluate again.
type AwaitExpression struct {
	Argument Node
}

func (n *AwaitExpression) Type() string { return "AwaitExpression" }

func (n *AwaitExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v, err := n.Argument.Get(stack)
	if err != nil {
		return nil, err
	}
	return awaitValue(stack, v)
}

// awaitValue unwraps v if it is a future. A pending future suspends the
// running async body, or fails with a PendingError outside of one.
func awaitValue(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error) {
	f, ok := runtime.AsFuture(v)
	if !ok {
		return v, nil
	}
	if f.State() == runtime.Pending {
		if await := stack.Awaiter(); await != nil {
			return await(f)
		}
		return nil, &runtime.PendingError{Future: f}
	}
	return settled(f)
}

func settled(f *runtime.Future) (*runtime.Value, error) {
	val, reason, state := f.Result()
	if state == runtime.Rejected {
		return nil, &runtime.ThrowError{Value: reason}
	}
	if val == nil {
		return runtime.Undefined, nil
	}
	return val, nil
}

func (n *AwaitExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *AwaitExpression) Events() []runtime.Path { return n.Argument.Events() }

func (n *AwaitExpression) String() string {
	return "await " + wrap(n.Argument, precUnary)
}

func (n *AwaitExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), spreadJSON{e.node(n.Argument)})
}

func decodeAwait(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body spreadJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &AwaitExpression{Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.New("await without an argument")
	}
	return n, d.err
}

// YieldExpression parses and prints, but generators are not evaluated.
type YieldExpression struct {
	Argument Node
	Delegate bool
}

func (n *YieldExpression) Type() string { return "YieldExpression" }

func (n *YieldExpression) Get(*runtime.Stack) (*runtime.Value, error) {
	return nil, errors.NotImplemented("yield")
}

func (n *YieldExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *YieldExpression) Events() []runtime.Path { return events(n.Argument) }

func (n *YieldExpression) String() string {
	s := "yield"
	if n.Delegate {
		s += "*"
	}
	if n.Argument != nil {
		s += " " + wrap(n.Argument, grammar.Assignment)
	}
	return s
}

type yieldJSON struct {
	Argument json.RawMessage `json:"argument"`
	Delegate bool            `json:"delegate,omitempty"`
}

func (n *YieldExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), yieldJSON{e.node(n.Argument), n.Delegate})
}

func decodeYield(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body yieldJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &YieldExpression{Argument: d.node(body.Argument), Delegate: body.Delegate}
	return n, d.err
}
