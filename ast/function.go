package ast

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("FunctionExpression", decodeFunctionExpression)
	Registry.MustRegister("FunctionDeclaration", decodeFunctionDeclaration)
	Registry.MustRegister("ArrowFunctionExpression", decodeArrow)
}

// closure is what every function form instantiates.
type closure struct {
	name      string
	bindName  bool
	params    []Node
	body      *BlockStatement
	expr      Node
	arrow     bool
	async     bool
	generator bool
	source    string
}

func (c *closure) arity() int {
	n := 0
	for _, p := range c.params {
		switch p.(type) {
		case *AssignmentPattern, *RestElement:
			return n
		}
		n++
	}
	return n
}

// instantiate creates the function object. The current scope chain is
// captured by value, so later pushes on stack do not leak into the closure.
func (c *closure) instantiate(stack *runtime.Stack) *runtime.Value {
	captured := stack.Fork()
	var self *runtime.Value
	call := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if c.generator {
			return nil, errors.NotImplemented("generator function %s", c.name)
		}
		if c.async {
			fut := runAsync(func(await runtime.Awaiter) (*runtime.Value, error) {
				return c.invoke(captured, self, this, args, await)
			})
			return runtime.NewFutureValue(fut), nil
		}
		return c.invoke(captured, self, this, args, nil)
	}
	obj := runtime.NewFunctionObject(c.name, c.arity(), call)
	obj.Source = c.source
	if c.arrow || c.async || c.generator {
		obj.NoConstruct = true
	} else {
		proto := runtime.NewPlainObject()
		self = runtime.NewObject(obj)
		proto.DefineHidden("constructor", self)
		obj.DefineHidden("prototype", runtime.NewObject(proto))
	}
	if self == nil {
		self = runtime.NewObject(obj)
	}
	return self
}

func (c *closure) invoke(captured *runtime.Stack, self, this *runtime.Value, args []*runtime.Value, await runtime.Awaiter) (*runtime.Value, error) {
	st := captured.Fork()
	st.SetAwaiter(await)
	scope := st.PushFunction()
	ctx := scope.Context()
	if !c.arrow {
		ctx.DefineHidden("this", this)
		ctx.DefineHidden("arguments", runtime.NewArray(args))
		if c.bindName && c.name != "" {
			ctx.DefineHidden(c.name, self)
		}
	}
	for i, p := range c.params {
		if rest, ok := p.(*RestElement); ok {
			var restArgs []*runtime.Value
			if i < len(args) {
				restArgs = append(restArgs, args[i:]...)
			}
			if err := Bind(st, rest.Argument, runtime.DeclParam, runtime.NewArray(restArgs)); err != nil {
				return nil, err
			}
			break
		}
		if err := Bind(st, p, runtime.DeclParam, runtime.Arg(args, i)); err != nil {
			return nil, err
		}
	}
	if c.body == nil {
		return c.expr.Get(st)
	}
	if err := hoist(st, c.body.Body); err != nil {
		return nil, err
	}
	_, err := runStatements(st, c.body.Body)
	if s, ok := asSignal(err); ok && s.kind == sigReturn {
		if s.value == nil {
			return runtime.Undefined, nil
		}
		return s.value, nil
	}
	if err != nil {
		return nil, escaped(err)
	}
	return runtime.Undefined, nil
}

// runAsync runs body as a coroutine on its own goroutine. Control is handed
// back and forth so that the body and its caller never run at the same time:
// the caller blocks until the body finishes or parks on a pending future, and
// the goroutine that settles that future drives the body to its next park.
func runAsync(body func(await runtime.Awaiter) (*runtime.Value, error)) *runtime.Future {
	result := runtime.NewFuture()
	resume := make(chan struct{})
	yield := make(chan struct{})

	await := func(f *runtime.Future) (*runtime.Value, error) {
		var mu sync.Mutex
		parked, early := false, false
		f.OnSettle(func() {
			mu.Lock()
			if !parked {
				early = true
				mu.Unlock()
				return
			}
			mu.Unlock()
			resume <- struct{}{}
			<-yield
		})
		mu.Lock()
		if early {
			mu.Unlock()
			return settled(f)
		}
		parked = true
		mu.Unlock()
		yield <- struct{}{}
		<-resume
		return settled(f)
	}

	go func() {
		<-resume
		v, err := body(await)
		if err != nil {
			result.Reject(runtime.ErrorValue(err))
		} else {
			result.Resolve(v)
		}
		yield <- struct{}{}
	}()
	resume <- struct{}{}
	<-yield
	return result
}

// Async evaluates n as the body of an async function: await parks instead
// of failing with a PendingError. The returned future settles with the value
// of n or with the error it raised.
func Async(stack *runtime.Stack, n Node) *runtime.Future {
	return runAsync(func(await runtime.Awaiter) (*runtime.Value, error) {
		st := stack.Fork()
		st.SetAwaiter(await)
		return n.Get(st)
	})
}

// freeEvents drops paths rooted at names the function binds itself.
func freeEvents(paths []runtime.Path, params []Node, body []Node) []runtime.Path {
	bound := map[string]bool{"this": true, "arguments": true}
	for _, p := range params {
		for _, name := range BoundNames(p) {
			bound[name] = true
		}
	}
	for _, name := range declaredNames(body) {
		bound[name] = true
	}
	var out []runtime.Path
	for _, p := range paths {
		if !bound[p.Root()] {
			out = append(out, p)
		}
	}
	return out
}

func paramEvents(params []Node) []runtime.Path {
	var out []runtime.Path
	for _, p := range params {
		out = append(out, targetEvents(p)...)
	}
	return out
}

// FunctionExpression is function [name](params) { body }.
type FunctionExpression struct {
	ID        *Identifier
	Params    []Node
	Body      *BlockStatement
	Async     bool
	Generator bool
}

func (n *FunctionExpression) Type() string { return "FunctionExpression" }

func (n *FunctionExpression) closure() *closure {
	c := &closure{
		params:    n.Params,
		body:      n.Body,
		async:     n.Async,
		generator: n.Generator,
		source:    n.String(),
	}
	if n.ID != nil {
		c.name = n.ID.Name
		c.bindName = true
	}
	return c
}

func (n *FunctionExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.closure().instantiate(stack), nil
}

func (n *FunctionExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

// Events reports the free variables the body reads.
func (n *FunctionExpression) Events() []runtime.Path {
	paths := mergePaths(paramEvents(n.Params), n.Body.Events())
	out := freeEvents(paths, n.Params, n.Body.Body)
	if n.ID == nil {
		return out
	}
	var filtered []runtime.Path
	for _, p := range out {
		if p.Root() != n.ID.Name {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// signature prints (params) { body }.
func (n *FunctionExpression) signature() string {
	return "(" + joinNodes(n.Params, ", ") + ") " + n.Body.String()
}

func (n *FunctionExpression) String() string {
	var b strings.Builder
	if n.Async {
		b.WriteString("async ")
	}
	b.WriteString("function")
	if n.Generator {
		b.WriteString("*")
	}
	if n.ID != nil {
		b.WriteString(" " + n.ID.Name)
	}
	b.WriteString(n.signature())
	return b.String()
}

type functionJSON struct {
	ID        json.RawMessage   `json:"id"`
	Params    []json.RawMessage `json:"params"`
	Body      json.RawMessage   `json:"body"`
	Async     bool              `json:"async,omitempty"`
	Generator bool              `json:"generator,omitempty"`
}

func (n *FunctionExpression) body(e *encoder) functionJSON {
	return functionJSON{
		ID:        e.ident(n.ID),
		Params:    e.nodes(n.Params),
		Body:      e.block(n.Body),
		Async:     n.Async,
		Generator: n.Generator,
	}
}

func (n *FunctionExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), n.body(e))
}

func decodeFunction(raw json.RawMessage, dec registry.Decoder[Node]) (*FunctionExpression, error) {
	var body functionJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &FunctionExpression{
		ID:        d.ident(body.ID),
		Params:    d.nodes(body.Params),
		Body:      d.block(body.Body),
		Async:     body.Async,
		Generator: body.Generator,
	}
	if d.err == nil && n.Body == nil {
		return nil, errors.New("function without a body")
	}
	return n, d.err
}

func decodeFunctionExpression(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	n, err := decodeFunction(raw, dec)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FunctionDeclaration is a hoisted function statement.
type FunctionDeclaration struct {
	FunctionExpression
}

func (n *FunctionDeclaration) Type() string { return "FunctionDeclaration" }

// instantiate creates the function for hoisting.
func (n *FunctionDeclaration) instantiate(stack *runtime.Stack) *runtime.Value {
	c := n.closure()
	c.bindName = false
	c.source = n.String()
	return c.instantiate(stack)
}

// Get declares the function when it was not hoisted, then completes empty.
func (n *FunctionDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	if n.ID != nil && stack.FindScope(n.ID.Name) == nil {
		if err := stack.Declare(n.ID.Name, runtime.DeclFunction, n.instantiate(stack)); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

func (n *FunctionDeclaration) BoundNames() []string {
	if n.ID == nil {
		return nil
	}
	return []string{n.ID.Name}
}

func (n *FunctionDeclaration) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), n.body(e))
}

func decodeFunctionDeclaration(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	fn, err := decodeFunction(raw, dec)
	if err != nil {
		return nil, err
	}
	return &FunctionDeclaration{FunctionExpression: *fn}, nil
}

// ArrowFunctionExpression is (params) => body. Body is a *BlockStatement or
// an expression. Arrows see the this and arguments of their definition.
type ArrowFunctionExpression struct {
	Params []Node
	Body   Node
	Async  bool
}

func (n *ArrowFunctionExpression) Type() string { return "ArrowFunctionExpression" }

func (n *ArrowFunctionExpression) Get(stack *runtime.Stack) (*runtime.Value, error) {
	c := &closure{params: n.Params, arrow: true, async: n.Async, source: n.String()}
	if b, ok := n.Body.(*BlockStatement); ok {
		c.body = b
	} else {
		c.expr = n.Body
	}
	return c.instantiate(stack), nil
}

func (n *ArrowFunctionExpression) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ArrowFunctionExpression) Events() []runtime.Path {
	paths := mergePaths(paramEvents(n.Params), n.Body.Events())
	var body []Node
	if b, ok := n.Body.(*BlockStatement); ok {
		body = b.Body
	}
	out := freeEvents(paths, n.Params, body)
	// Arrows read this and arguments from the enclosing function.
	for _, p := range paths {
		if r := p.Root(); r == "this" || r == "arguments" {
			out = append(out, p)
		}
	}
	return runtime.DedupPaths(out)
}

func (n *ArrowFunctionExpression) String() string {
	var b strings.Builder
	if n.Async {
		b.WriteString("async ")
	}
	if len(n.Params) == 1 {
		if id, ok := n.Params[0].(*Identifier); ok {
			b.WriteString(id.Name)
		} else {
			b.WriteString("(" + n.Params[0].String() + ")")
		}
	} else {
		b.WriteString("(" + joinNodes(n.Params, ", ") + ")")
	}
	b.WriteString(" => ")
	switch body := n.Body.(type) {
	case *BlockStatement:
		b.WriteString(body.String())
	case *ObjectExpression:
		b.WriteString("(" + body.String() + ")")
	default:
		b.WriteString(wrap(body, grammar.Assignment))
	}
	return b.String()
}

type arrowJSON struct {
	Params []json.RawMessage `json:"params"`
	Body   json.RawMessage   `json:"body"`
	Async  bool              `json:"async,omitempty"`
}

func (n *ArrowFunctionExpression) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), arrowJSON{e.nodes(n.Params), e.node(n.Body), n.Async})
}

func decodeArrow(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body arrowJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ArrowFunctionExpression{Params: d.nodes(body.Params), Body: d.node(body.Body), Async: body.Async}
	if d.err == nil && n.Body == nil {
		return nil, errors.New("arrow function without a body")
	}
	return n, d.err
}
