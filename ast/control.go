package ast

import (
	"encoding/json"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("SwitchStatement", decodeSwitch)
	Registry.MustRegister("SwitchCase", decodeSwitchCase)
	Registry.MustRegister("TryStatement", decodeTry)
	Registry.MustRegister("CatchClause", decodeCatch)
}

// SwitchStatement compares Discriminant against each case test with strict
// equality and falls through from the first match. The cases share one
// block scope.
type SwitchStatement struct {
	Discriminant Node
	Cases        []*SwitchCase
}

func (n *SwitchStatement) Type() string { return "SwitchStatement" }

func (n *SwitchStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.loop(stack, nil)
}

// loop lets a labeled switch consume breaks carrying its label.
func (n *SwitchStatement) loop(stack *runtime.Stack, labels []string) (*runtime.Value, error) {
	d, err := n.Discriminant.Get(stack)
	if err != nil {
		return nil, err
	}
	cp := stack.Len()
	stack.PushBlock()
	defer stack.ClearTo(cp)
	var body []Node
	for _, c := range n.Cases {
		body = append(body, c.Consequent...)
	}
	if err := hoistFunctions(stack, body, runtime.DeclLet); err != nil {
		return nil, err
	}

	start := -1
	for i, c := range n.Cases {
		if c.Test == nil {
			continue
		}
		t, err := c.Test.Get(stack)
		if err != nil {
			return nil, err
		}
		if runtime.StrictEquals(d, t) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range n.Cases {
			if c.Test == nil {
				start = i
				break
			}
		}
	}
	last := runtime.Undefined
	if start < 0 {
		return last, nil
	}
	for _, c := range n.Cases[start:] {
		v, err := runStatements(stack, c.Consequent)
		if err == nil {
			last = v
			continue
		}
		if s, ok := asSignal(err); ok && s.kind == sigBreak && (s.label == "" || hasLabel(labels, s.label)) {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

func (n *SwitchStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *SwitchStatement) Events() []runtime.Path {
	out := n.Discriminant.Events()
	for _, c := range n.Cases {
		out = append(out, c.Events()...)
	}
	return runtime.DedupPaths(out)
}

func (n *SwitchStatement) String() string {
	var b strings.Builder
	b.WriteString("switch (" + n.Discriminant.String() + ") {\n")
	for _, c := range n.Cases {
		for _, line := range strings.Split(c.String(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("}")
	return b.String()
}

type switchJSON struct {
	Discriminant json.RawMessage   `json:"discriminant"`
	Cases        []json.RawMessage `json:"cases"`
}

func (n *SwitchStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	cases := make([]json.RawMessage, len(n.Cases))
	for i, c := range n.Cases {
		cases[i] = e.node(c)
	}
	return e.finish(n.Type(), switchJSON{e.node(n.Discriminant), cases})
}

func decodeSwitch(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body switchJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &SwitchStatement{Discriminant: d.node(body.Discriminant)}
	defaults := 0
	for _, node := range d.nodes(body.Cases) {
		c, ok := node.(*SwitchCase)
		if !ok {
			d.fail(errors.New("switch holds a non-case clause"))
			break
		}
		if c.Test == nil {
			defaults++
		}
		n.Cases = append(n.Cases, c)
	}
	if d.err == nil && n.Discriminant == nil {
		return nil, errors.New("switch without a discriminant")
	}
	if d.err == nil && defaults > 1 {
		return nil, errors.New("more than one default clause in switch")
	}
	return n, d.err
}

// SwitchCase is one case or default clause. Test is nil for default.
type SwitchCase struct {
	Test       Node
	Consequent []Node
}

func (n *SwitchCase) Type() string { return "SwitchCase" }

func (n *SwitchCase) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return runStatements(stack, n.Consequent)
}

func (n *SwitchCase) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *SwitchCase) Events() []runtime.Path {
	return mergePaths(events(n.Test), events(n.Consequent...))
}

func (n *SwitchCase) String() string {
	head := "default:"
	if n.Test != nil {
		head = "case " + n.Test.String() + ":"
	}
	if len(n.Consequent) == 0 {
		return head
	}
	var b strings.Builder
	b.WriteString(head)
	for _, s := range n.Consequent {
		for _, line := range strings.Split(s.String(), "\n") {
			b.WriteString("\n  " + line)
		}
	}
	return b.String()
}

type switchCaseJSON struct {
	Test       json.RawMessage   `json:"test"`
	Consequent []json.RawMessage `json:"consequent"`
}

func (n *SwitchCase) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), switchCaseJSON{e.node(n.Test), e.nodes(n.Consequent)})
}

func decodeSwitchCase(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body switchCaseJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &SwitchCase{Test: d.node(body.Test), Consequent: d.nodes(body.Consequent)}
	return n, d.err
}

// TryStatement is try block [catch (param) handler] [finally finalizer].
// Control signals pass through the handler untouched; a failing finalizer
// replaces the outcome of the block.
type TryStatement struct {
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

func (n *TryStatement) Type() string { return "TryStatement" }

func (n *TryStatement) handlerBody() *BlockStatement {
	if n.Handler == nil {
		return nil
	}
	return n.Handler.Body
}

func (n *TryStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v, err := n.Block.Get(stack)
	if err != nil && n.Handler != nil && catchable(err) {
		v, err = n.Handler.run(stack, runtime.ErrorValue(err))
	}
	if n.Finalizer != nil {
		if _, ferr := n.Finalizer.Get(stack); ferr != nil {
			return nil, ferr
		}
	}
	return v, err
}

func (n *TryStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *TryStatement) Events() []runtime.Path {
	out := n.Block.Events()
	if n.Handler != nil {
		out = append(out, n.Handler.Events()...)
	}
	if n.Finalizer != nil {
		out = append(out, n.Finalizer.Events()...)
	}
	return runtime.DedupPaths(out)
}

func (n *TryStatement) String() string {
	s := "try " + n.Block.String()
	if n.Handler != nil {
		s += " " + n.Handler.String()
	}
	if n.Finalizer != nil {
		s += " finally " + n.Finalizer.String()
	}
	return s
}

type tryJSON struct {
	Block     json.RawMessage `json:"block"`
	Handler   json.RawMessage `json:"handler"`
	Finalizer json.RawMessage `json:"finalizer"`
}

func (n *TryStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	handler := json.RawMessage("null")
	if n.Handler != nil {
		handler = e.node(n.Handler)
	}
	return e.finish(n.Type(), tryJSON{e.block(n.Block), handler, e.block(n.Finalizer)})
}

func decodeTry(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body tryJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &TryStatement{Block: d.block(body.Block), Finalizer: d.block(body.Finalizer)}
	if h := d.node(body.Handler); h != nil {
		c, ok := h.(*CatchClause)
		if !ok {
			d.fail(errors.Errorf("expected CatchClause, got %s", h.Type()))
		}
		n.Handler = c
	}
	if d.err == nil && n.Block == nil {
		return nil, errors.New("try statement without a block")
	}
	if d.err == nil && n.Handler == nil && n.Finalizer == nil {
		return nil, errors.New("try statement needs a catch or finally clause")
	}
	return n, d.err
}

// CatchClause is catch [(param)] body. The parameter and the body share a
// block scope.
type CatchClause struct {
	Param Node
	Body  *BlockStatement
}

func (n *CatchClause) Type() string { return "CatchClause" }

func (n *CatchClause) run(stack *runtime.Stack, thrown *runtime.Value) (*runtime.Value, error) {
	cp := stack.Len()
	stack.PushBlock()
	defer stack.ClearTo(cp)
	if n.Param != nil {
		if err := Bind(stack, n.Param, runtime.DeclLet, thrown); err != nil {
			return nil, err
		}
	}
	if err := hoistFunctions(stack, n.Body.Body, runtime.DeclLet); err != nil {
		return nil, err
	}
	return runStatements(stack, n.Body.Body)
}

// Get runs the handler with an undefined exception.
func (n *CatchClause) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.run(stack, runtime.Undefined)
}

func (n *CatchClause) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *CatchClause) Events() []runtime.Path {
	bound := make(map[string]bool)
	for _, name := range BoundNames(n.Param) {
		bound[name] = true
	}
	var out []runtime.Path
	for _, p := range mergePaths(targetEvents(n.Param), n.Body.Events()) {
		if !bound[p.Root()] {
			out = append(out, p)
		}
	}
	return out
}

func (n *CatchClause) String() string {
	if n.Param == nil {
		return "catch " + n.Body.String()
	}
	return "catch (" + n.Param.String() + ") " + n.Body.String()
}

type catchJSON struct {
	Param json.RawMessage `json:"param"`
	Body  json.RawMessage `json:"body"`
}

func (n *CatchClause) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), catchJSON{e.node(n.Param), e.block(n.Body)})
}

func decodeCatch(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body catchJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &CatchClause{Param: d.node(body.Param), Body: d.block(body.Body)}
	if d.err == nil && n.Body == nil {
		return nil, errors.New("catch clause without a body")
	}
	return n, d.err
}
