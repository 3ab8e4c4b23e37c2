package ast

import (
	"encoding/json"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("WhileStatement", decodeWhile)
	Registry.MustRegister("DoWhileStatement", decodeDoWhile)
	Registry.MustRegister("ForStatement", decodeFor)
	Registry.MustRegister("ForInStatement", decodeForIn)
	Registry.MustRegister("ForOfStatement", decodeForOf)
}

// looper is implemented by loop statements. LabeledStatement hands its
// labels down so that labeled continue targets the right loop.
type looper interface {
	loop(stack *runtime.Stack, labels []string) (*runtime.Value, error)
}

// iteration records the completion value of one loop body run and
// classifies the error it returned.
func iteration(last **runtime.Value, v *runtime.Value, err error, labels []string) (bool, error) {
	if err == nil && v != nil {
		*last = v
	}
	if s, ok := asSignal(err); ok && s.kind != sigReturn && s.value != nil {
		*last = s.value
	}
	stop, _, err := loopControl(err, labels)
	return stop, err
}

// WhileStatement is while (test) body.
type WhileStatement struct {
	Test Node
	Body Node
}

func (n *WhileStatement) Type() string { return "WhileStatement" }

func (n *WhileStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

func (n *WhileStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	last := runtime.Undefined
	for {
		t, err := n.Test.Get(stack)
		if err != nil {
			return nil, err
		}
		if !t.ToBoolean() {
			return last, nil
		}
		v, err := n.Body.Get(stack)
		stop, err := iteration(&last, v, err, labels)
		if err != nil {
			return nil, err
		}
		if stop {
			return last, nil
		}
	}
}

func (n *WhileStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *WhileStatement) Events() []runtime.Path { return events(n.Test, n.Body) }

func (n *WhileStatement) String() string {
	return "while (" + n.Test.String() + ") " + n.Body.String()
}

type whileJSON struct {
	Test json.RawMessage `json:"test"`
	Body json.RawMessage `json:"body"`
}

func (n *WhileStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), whileJSON{e.node(n.Test), e.node(n.Body)})
}

func decodeWhile(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body whileJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &WhileStatement{Test: d.node(body.Test), Body: d.node(body.Body)}
	if d.err == nil && (n.Test == nil || n.Body == nil) {
		return nil, errors.New("while statement needs a test and a body")
	}
	return n, d.err
}

// DoWhileStatement is do body while (test).
type DoWhileStatement struct {
	Body Node
	Test Node
}

func (n *DoWhileStatement) Type() string { return "DoWhileStatement" }

func (n *DoWhileStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

func (n *DoWhileStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	last := runtime.Undefined
	for {
		v, err := n.Body.Get(stack)
		stop, err := iteration(&last, v, err, labels)
		if err != nil {
			return nil, err
		}
		if stop {
			return last, nil
		}
		t, err := n.Test.Get(stack)
		if err != nil {
			return nil, err
		}
		if !t.ToBoolean() {
			return last, nil
		}
	}
}

func (n *DoWhileStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *DoWhileStatement) Events() []runtime.Path { return events(n.Body, n.Test) }

func (n *DoWhileStatement) String() string {
	return "do " + n.Body.String() + " while (" + n.Test.String() + ");"
}

func (n *DoWhileStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), whileJSON{e.node(n.Test), e.node(n.Body)})
}

func decodeDoWhile(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body whileJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &DoWhileStatement{Test: d.node(body.Test), Body: d.node(body.Body)}
	if d.err == nil && (n.Test == nil || n.Body == nil) {
		return nil, errors.New("do-while statement needs a test and a body")
	}
	return n, d.err
}

// ForStatement is for (init; test; update) body. Any part may be nil.
type ForStatement struct {
	Init   Node
	Test   Node
	Update Node
	Body   Node
}

func (n *ForStatement) Type() string { return "ForStatement" }

func (n *ForStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

// lexicalInit returns the names bound by a let or const init.
func (n *ForStatement) lexicalInit() ([]string, runtime.DeclKind) {
	d, ok := n.Init.(*VariableDeclaration)
	if !ok {
		return nil, 0
	}
	kind, _ := runtime.ParseDeclKind(d.Kind)
	if !kind.Lexical() {
		return nil, 0
	}
	return d.BoundNames(), kind
}

func (n *ForStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	cp := stack.Len()
	defer stack.ClearTo(cp)
	names, kind := n.lexicalInit()
	if names != nil {
		stack.PushBlock()
	}
	if n.Init != nil {
		if _, err := n.Init.Get(stack); err != nil {
			return nil, err
		}
	}
	// Each iteration gets its own copy of the loop bindings, so closures
	// created in the body see the value of their own iteration.
	fresh := func() error {
		if names == nil {
			return nil
		}
		prev := stack.Top()
		next := runtime.NewScope(runtime.BlockScope, nil)
		for _, name := range names {
			v, _ := prev.Get(name)
			if err := next.Declare(name, kind, v); err != nil {
				return err
			}
		}
		stack.ClearTo(cp)
		stack.Push(next)
		return nil
	}
	if err := fresh(); err != nil {
		return nil, err
	}
	last := runtime.Undefined
	for {
		if n.Test != nil {
			t, err := n.Test.Get(stack)
			if err != nil {
				return nil, err
			}
			if !t.ToBoolean() {
				return last, nil
			}
		}
		v, err := n.Body.Get(stack)
		stop, err := iteration(&last, v, err, labels)
		if err != nil {
			return nil, err
		}
		if stop {
			return last, nil
		}
		if err := fresh(); err != nil {
			return nil, err
		}
		if n.Update != nil {
			if _, err := n.Update.Get(stack); err != nil {
				return nil, err
			}
		}
	}
}

func (n *ForStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ForStatement) Events() []runtime.Path {
	return events(n.Init, n.Test, n.Update, n.Body)
}

func (n *ForStatement) String() string {
	init := ""
	switch i := n.Init.(type) {
	case nil:
	case *VariableDeclaration:
		init = i.head()
	default:
		init = i.String()
	}
	test, update := "", ""
	if n.Test != nil {
		test = " " + n.Test.String()
	}
	if n.Update != nil {
		update = " " + n.Update.String()
	}
	return "for (" + init + ";" + test + ";" + update + ") " + n.Body.String()
}

type forJSON struct {
	Init   json.RawMessage `json:"init"`
	Test   json.RawMessage `json:"test"`
	Update json.RawMessage `json:"update"`
	Body   json.RawMessage `json:"body"`
}

func (n *ForStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), forJSON{e.node(n.Init), e.node(n.Test), e.node(n.Update), e.node(n.Body)})
}

func decodeFor(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body forJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ForStatement{
		Init:   d.node(body.Init),
		Test:   d.node(body.Test),
		Update: d.node(body.Update),
		Body:   d.node(body.Body),
	}
	if d.err == nil && n.Body == nil {
		return nil, errors.New("for statement without a body")
	}
	return n, d.err
}

// bindLoopTarget assigns the current item of a for-in or for-of loop. A
// lexical declaration gets a fresh block scope per iteration.
func bindLoopTarget(stack *runtime.Stack, left Node, v *runtime.Value) error {
	if d, ok := left.(*VariableDeclaration); ok {
		if len(d.Declarations) != 1 {
			return &errors.EvaluationError{Kind: "SyntaxError", Msg: "Invalid left-hand side in for loop: must have a single binding"}
		}
		kind, _ := runtime.ParseDeclKind(d.Kind)
		if kind.Lexical() {
			stack.PushBlock()
		}
		return Bind(stack, d.Declarations[0].ID, kind, v)
	}
	_, err := left.Set(stack, v)
	return err
}

func loopHead(left Node) string {
	if d, ok := left.(*VariableDeclaration); ok {
		return d.head()
	}
	return left.String()
}

// ForInStatement is for (left in right) body. It visits the enumerable own
// keys of objects and the indices of strings.
type ForInStatement struct {
	Left  Node
	Right Node
	Body  Node
}

func (n *ForInStatement) Type() string { return "ForInStatement" }

func (n *ForInStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

func forInKeys(v *runtime.Value) []string {
	switch {
	case v.IsObject():
		return v.Object.OwnKeys()
	case v.Type == runtime.TypeString:
		keys := make([]string, runtime.StringLength(v.Str))
		for i := range keys {
			keys[i] = runtime.FormatNumber(float64(i))
		}
		return keys
	}
	return nil
}

func (n *ForInStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	right, err := n.Right.Get(stack)
	if err != nil {
		return nil, err
	}
	cp := stack.Len()
	defer stack.ClearTo(cp)
	last := runtime.Undefined
	for _, key := range forInKeys(right) {
		if right.IsObject() && !right.Object.HasOwnProperty(key) {
			continue // deleted during iteration
		}
		stack.ClearTo(cp)
		if err := bindLoopTarget(stack, n.Left, runtime.NewString(key)); err != nil {
			return nil, err
		}
		v, err := n.Body.Get(stack)
		stop, err := iteration(&last, v, err, labels)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	return last, nil
}

func (n *ForInStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ForInStatement) Events() []runtime.Path {
	return mergePaths(targetEvents(n.Left), events(n.Right, n.Body))
}

func (n *ForInStatement) String() string {
	return "for (" + loopHead(n.Left) + " in " + n.Right.String() + ") " + n.Body.String()
}

type forEachJSON struct {
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
	Body  json.RawMessage `json:"body"`
	Await bool            `json:"await,omitempty"`
}

func (n *ForInStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), forEachJSON{Left: e.node(n.Left), Right: e.node(n.Right), Body: e.node(n.Body)})
}

func decodeForEach(raw json.RawMessage, dec registry.Decoder[Node]) (forEachJSON, Node, Node, Node, error) {
	var body forEachJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return body, nil, nil, nil, err
	}
	d := newDecoder(dec)
	left, right, stmt := d.node(body.Left), d.node(body.Right), d.node(body.Body)
	if d.err == nil && (left == nil || right == nil || stmt == nil) {
		return body, nil, nil, nil, errors.New("for-in/of statement needs a target, a subject and a body")
	}
	return body, left, right, stmt, d.err
}

func decodeForIn(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	_, left, right, body, err := decodeForEach(raw, dec)
	if err != nil {
		return nil, err
	}
	return &ForInStatement{Left: left, Right: right, Body: body}, nil
}

// ForOfStatement is for [await] (left of right) body.
type ForOfStatement struct {
	Left  Node
	Right Node
	Body  Node
	Await bool
}

func (n *ForOfStatement) Type() string { return "ForOfStatement" }

func (n *ForOfStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

func (n *ForOfStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	right, err := n.Right.Get(stack)
	if err != nil {
		return nil, err
	}
	next, err := runtime.Iterate(right)
	if err != nil {
		return nil, err
	}
	cp := stack.Len()
	defer stack.ClearTo(cp)
	last := runtime.Undefined
	for {
		item, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return last, nil
		}
		if n.Await {
			if item, err = awaitValue(stack, item); err != nil {
				return nil, err
			}
		}
		stack.ClearTo(cp)
		if err := bindLoopTarget(stack, n.Left, item); err != nil {
			return nil, err
		}
		v, err := n.Body.Get(stack)
		stop, err := iteration(&last, v, err, labels)
		if err != nil {
			return nil, err
		}
		if stop {
			return last, nil
		}
	}
}

func (n *ForOfStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ForOfStatement) Events() []runtime.Path {
	return mergePaths(targetEvents(n.Left), events(n.Right, n.Body))
}

func (n *ForOfStatement) String() string {
	head := "for ("
	if n.Await {
		head = "for await ("
	}
	return head + loopHead(n.Left) + " of " + wrap(n.Right, grammar.Assignment) + ") " + n.Body.String()
}

func (n *ForOfStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), forEachJSON{e.node(n.Left), e.node(n.Right), e.node(n.Body), n.Await})
}

func decodeForOf(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	body, left, right, stmt, err := decodeForEach(raw, dec)
	if err != nil {
		return nil, err
	}
	return &ForOfStatement{Left: left, Right: right, Body: stmt, Await: body.Await}, nil
}
