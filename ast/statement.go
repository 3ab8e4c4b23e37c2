package ast

import (
	"encoding/json"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("Program", decodeProgram)
	Registry.MustRegister("ExpressionStatement", decodeExpressionStatement)
	Registry.MustRegister("BlockStatement", decodeBlock)
	Registry.MustRegister("EmptyStatement", decodeEmpty)
	Registry.MustRegister("DebuggerStatement", decodeDebugger)
	Registry.MustRegister("VariableDeclaration", decodeVariableDeclaration)
	Registry.MustRegister("VariableDeclarator", decodeVariableDeclarator)
	Registry.MustRegister("IfStatement", decodeIf)
	Registry.MustRegister("ReturnStatement", decodeReturn)
	Registry.MustRegister("BreakStatement", decodeBreak)
	Registry.MustRegister("ContinueStatement", decodeContinue)
	Registry.MustRegister("ThrowStatement", decodeThrow)
	Registry.MustRegister("LabeledStatement", decodeLabeled)
}

// Program is a parsed script or module.
type Program struct {
	Body   []Node
	Module bool
}

func (n *Program) Type() string { return "Program" }

// Get hoists declarations into the innermost function scope of stack and
// runs the body. The result is the completion value of the last statement
// that produced one; a top-level return ends the program with its value.
func (n *Program) Get(stack *runtime.Stack) (*runtime.Value, error) {
	if err := hoist(stack, n.Body); err != nil {
		return nil, err
	}
	v, err := runStatements(stack, n.Body)
	if s, ok := asSignal(err); ok && s.kind == sigReturn {
		if s.value == nil {
			return runtime.Undefined, nil
		}
		return s.value, nil
	}
	if err != nil {
		return nil, escaped(err)
	}
	return v, nil
}

func (n *Program) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

// Events reports the bindings the program reads but does not declare.
func (n *Program) Events() []runtime.Path {
	bound := make(map[string]bool)
	for _, name := range declaredNames(n.Body) {
		bound[name] = true
	}
	var out []runtime.Path
	for _, p := range events(n.Body...) {
		if !bound[p.Root()] {
			out = append(out, p)
		}
	}
	return out
}

func (n *Program) String() string {
	parts := make([]string, len(n.Body))
	for i, s := range n.Body {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

type programJSON struct {
	Body   []json.RawMessage `json:"body"`
	Module bool              `json:"module,omitempty"`
}

func (n *Program) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), programJSON{e.nodes(n.Body), n.Module})
}

func decodeProgram(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body programJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &Program{Body: d.nodes(body.Body), Module: body.Module}
	return n, d.err
}

// ExpressionStatement is an expression followed by a semicolon.
type ExpressionStatement struct {
	Expression Node
}

func (n *ExpressionStatement) Type() string { return "ExpressionStatement" }

func (n *ExpressionStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	return n.Expression.Get(stack)
}

func (n *ExpressionStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ExpressionStatement) Events() []runtime.Path { return n.Expression.Events() }

func (n *ExpressionStatement) String() string {
	return wrapStatementStart(n.Expression) + ";"
}

// wrapStatementStart prints an expression in statement position. A leading
// brace or function keyword would start a different statement.
func wrapStatementStart(n Node) string {
	s := n.String()
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "function") || strings.HasPrefix(s, "class") ||
		strings.HasPrefix(s, "async function") || strings.HasPrefix(s, "let [") {
		return "(" + s + ")"
	}
	return s
}

type expressionStatementJSON struct {
	Expression json.RawMessage `json:"expression"`
}

func (n *ExpressionStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), expressionStatementJSON{e.node(n.Expression)})
}

func decodeExpressionStatement(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body expressionStatementJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ExpressionStatement{Expression: d.node(body.Expression)}
	if d.err == nil && n.Expression == nil {
		return nil, errors.New("expression statement without an expression")
	}
	return n, d.err
}

// BlockStatement is { ... }. It runs in its own block scope.
type BlockStatement struct {
	Body []Node
}

func (n *BlockStatement) Type() string { return "BlockStatement" }

func (n *BlockStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	cp := stack.Len()
	stack.PushBlock()
	defer stack.ClearTo(cp)
	if err := hoistFunctions(stack, n.Body, runtime.DeclLet); err != nil {
		return nil, err
	}
	return runStatements(stack, n.Body)
}

func (n *BlockStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *BlockStatement) Events() []runtime.Path { return events(n.Body...) }

func (n *BlockStatement) String() string {
	if len(n.Body) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range n.Body {
		for _, line := range strings.Split(s.String(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("}")
	return b.String()
}

type blockJSON struct {
	Body []json.RawMessage `json:"body"`
}

func (n *BlockStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), blockJSON{e.nodes(n.Body)})
}

func decodeBlock(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body blockJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &BlockStatement{Body: d.nodes(body.Body)}
	return n, d.err
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct{}

func (n *EmptyStatement) Type() string { return "EmptyStatement" }
func (n *EmptyStatement) Get(*runtime.Stack) (*runtime.Value, error) {
	return runtime.Undefined, nil
}
func (n *EmptyStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}
func (n *EmptyStatement) Events() []runtime.Path { return nil }
func (n *EmptyStatement) String() string         { return ";" }
func (n *EmptyStatement) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), struct{}{})
}

func decodeEmpty(json.RawMessage, registry.Decoder[Node]) (Node, error) {
	return &EmptyStatement{}, nil
}

// DebuggerStatement is accepted and ignored.
type DebuggerStatement struct{}

func (n *DebuggerStatement) Type() string { return "DebuggerStatement" }
func (n *DebuggerStatement) Get(*runtime.Stack) (*runtime.Value, error) {
	return runtime.Undefined, nil
}
func (n *DebuggerStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}
func (n *DebuggerStatement) Events() []runtime.Path { return nil }
func (n *DebuggerStatement) String() string         { return "debugger;" }
func (n *DebuggerStatement) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), struct{}{})
}

func decodeDebugger(json.RawMessage, registry.Decoder[Node]) (Node, error) {
	return &DebuggerStatement{}, nil
}

// VariableDeclaration is var, let or const with one or more declarators.
type VariableDeclaration struct {
	Kind         string
	Declarations []*VariableDeclarator
}

func (n *VariableDeclaration) Type() string { return "VariableDeclaration" }

func (n *VariableDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	kind, ok := runtime.ParseDeclKind(n.Kind)
	if !ok {
		return nil, errors.Errorf("invalid declaration kind %q", n.Kind)
	}
	for _, d := range n.Declarations {
		if d.Init == nil {
			if kind == runtime.DeclConst {
				return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Missing initializer in const declaration"}
			}
			var v *runtime.Value
			if kind != runtime.DeclVar {
				v = runtime.Undefined
			}
			if err := Bind(stack, d.ID, kind, v); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.Init.Get(stack)
		if err != nil {
			return nil, err
		}
		nameFunction(v, d.ID)
		if err := Bind(stack, d.ID, kind, v); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

func (n *VariableDeclaration) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

// BoundNames lists the declared names.
func (n *VariableDeclaration) BoundNames() []string {
	var names []string
	for _, d := range n.Declarations {
		names = append(names, BoundNames(d.ID)...)
	}
	return names
}

func (n *VariableDeclaration) Events() []runtime.Path {
	var out []runtime.Path
	for _, d := range n.Declarations {
		out = append(out, d.Events()...)
	}
	return runtime.DedupPaths(out)
}

// head prints the declaration without the trailing semicolon, as used in
// for statement heads.
func (n *VariableDeclaration) head() string {
	parts := make([]string, len(n.Declarations))
	for i, d := range n.Declarations {
		parts[i] = d.String()
	}
	return n.Kind + " " + strings.Join(parts, ", ")
}

func (n *VariableDeclaration) String() string { return n.head() + ";" }

type variableDeclarationJSON struct {
	Kind         string            `json:"kind"`
	Declarations []json.RawMessage `json:"declarations"`
}

func (n *VariableDeclaration) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	decls := make([]json.RawMessage, len(n.Declarations))
	for i, d := range n.Declarations {
		decls[i] = e.node(d)
	}
	return e.finish(n.Type(), variableDeclarationJSON{n.Kind, decls})
}

func decodeVariableDeclaration(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body variableDeclarationJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if _, ok := runtime.ParseDeclKind(body.Kind); !ok {
		return nil, errors.Errorf("invalid declaration kind %q", body.Kind)
	}
	d := newDecoder(dec)
	n := &VariableDeclaration{Kind: body.Kind}
	for _, node := range d.nodes(body.Declarations) {
		decl, ok := node.(*VariableDeclarator)
		if !ok {
			if d.err == nil {
				return nil, errors.New("declaration list holds a non-declarator")
			}
			break
		}
		n.Declarations = append(n.Declarations, decl)
	}
	return n, d.err
}

// VariableDeclarator is one name = init of a declaration. It only runs as
// part of its VariableDeclaration.
type VariableDeclarator struct {
	ID   Node
	Init Node
}

func (n *VariableDeclarator) Type() string { return "VariableDeclarator" }

func (n *VariableDeclarator) Get(*runtime.Stack) (*runtime.Value, error) {
	return nil, errors.New("declarator evaluated outside its declaration")
}

func (n *VariableDeclarator) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *VariableDeclarator) Events() []runtime.Path {
	return mergePaths(targetEvents(n.ID), events(n.Init))
}

func (n *VariableDeclarator) String() string {
	if n.Init == nil {
		return n.ID.String()
	}
	return n.ID.String() + " = " + wrap(n.Init, grammar.Assignment)
}

type declaratorJSON struct {
	ID   json.RawMessage `json:"id"`
	Init json.RawMessage `json:"init"`
}

func (n *VariableDeclarator) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), declaratorJSON{e.node(n.ID), e.node(n.Init)})
}

func decodeVariableDeclarator(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body declaratorJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &VariableDeclarator{ID: d.node(body.ID), Init: d.node(body.Init)}
	if d.err == nil && n.ID == nil {
		return nil, errors.New("declarator without a target")
	}
	return n, d.err
}

// IfStatement is if (test) consequent [else alternate].
type IfStatement struct {
	Test       Node
	Consequent Node
	Alternate  Node
}

func (n *IfStatement) Type() string { return "IfStatement" }

func (n *IfStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	t, err := n.Test.Get(stack)
	if err != nil {
		return nil, err
	}
	if t.ToBoolean() {
		return n.Consequent.Get(stack)
	}
	if n.Alternate != nil {
		return n.Alternate.Get(stack)
	}
	return runtime.Undefined, nil
}

func (n *IfStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *IfStatement) Events() []runtime.Path {
	return events(n.Test, n.Consequent, n.Alternate)
}

func (n *IfStatement) String() string {
	s := "if (" + n.Test.String() + ") " + n.Consequent.String()
	if n.Alternate != nil {
		s += " else " + n.Alternate.String()
	}
	return s
}

type ifJSON struct {
	Test       json.RawMessage `json:"test"`
	Consequent json.RawMessage `json:"consequent"`
	Alternate  json.RawMessage `json:"alternate"`
}

func (n *IfStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), ifJSON{e.node(n.Test), e.node(n.Consequent), e.node(n.Alternate)})
}

func decodeIf(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body ifJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &IfStatement{Test: d.node(body.Test), Consequent: d.node(body.Consequent), Alternate: d.node(body.Alternate)}
	if d.err == nil && (n.Test == nil || n.Consequent == nil) {
		return nil, errors.New("if statement needs a test and a consequent")
	}
	return n, d.err
}

// ReturnStatement leaves the enclosing function.
type ReturnStatement struct {
	Argument Node
}

func (n *ReturnStatement) Type() string { return "ReturnStatement" }

func (n *ReturnStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v := runtime.Undefined
	if n.Argument != nil {
		var err error
		if v, err = n.Argument.Get(stack); err != nil {
			return nil, err
		}
	}
	return nil, &signal{kind: sigReturn, value: v}
}

func (n *ReturnStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ReturnStatement) Events() []runtime.Path { return events(n.Argument) }

func (n *ReturnStatement) String() string {
	if n.Argument == nil {
		return "return;"
	}
	return "return " + n.Argument.String() + ";"
}

func (n *ReturnStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), spreadJSON{e.node(n.Argument)})
}

func decodeReturn(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body spreadJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ReturnStatement{Argument: d.node(body.Argument)}
	return n, d.err
}

type labelJSON struct {
	Label string `json:"label,omitempty"`
}

// BreakStatement leaves the innermost loop or switch, or the labeled
// statement named by Label.
type BreakStatement struct {
	Label string
}

func (n *BreakStatement) Type() string { return "BreakStatement" }

func (n *BreakStatement) Get(*runtime.Stack) (*runtime.Value, error) {
	return nil, &signal{kind: sigBreak, label: n.Label}
}

func (n *BreakStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *BreakStatement) Events() []runtime.Path { return nil }

func (n *BreakStatement) String() string {
	if n.Label == "" {
		return "break;"
	}
	return "break " + n.Label + ";"
}

func (n *BreakStatement) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), labelJSON{n.Label})
}

func decodeBreak(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body labelJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	return &BreakStatement{Label: body.Label}, nil
}

// ContinueStatement starts the next iteration of the innermost loop, or of
// the loop named by Label.
type ContinueStatement struct {
	Label string
}

func (n *ContinueStatement) Type() string { return "ContinueStatement" }

func (n *ContinueStatement) Get(*runtime.Stack) (*runtime.Value, error) {
	return nil, &signal{kind: sigContinue, label: n.Label}
}

func (n *ContinueStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ContinueStatement) Events() []runtime.Path { return nil }

func (n *ContinueStatement) String() string {
	if n.Label == "" {
		return "continue;"
	}
	return "continue " + n.Label + ";"
}

func (n *ContinueStatement) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), labelJSON{n.Label})
}

func decodeContinue(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body labelJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	return &ContinueStatement{Label: body.Label}, nil
}

// ThrowStatement raises a value as a runtime.ThrowError.
type ThrowStatement struct {
	Argument Node
}

func (n *ThrowStatement) Type() string { return "ThrowStatement" }

func (n *ThrowStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	v, err := n.Argument.Get(stack)
	if err != nil {
		return nil, err
	}
	return nil, &runtime.ThrowError{Value: v}
}

func (n *ThrowStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ThrowStatement) Events() []runtime.Path { return n.Argument.Events() }

func (n *ThrowStatement) String() string { return "throw " + n.Argument.String() + ";" }

func (n *ThrowStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), spreadJSON{e.node(n.Argument)})
}

func decodeThrow(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body spreadJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ThrowStatement{Argument: d.node(body.Argument)}
	if d.err == nil && n.Argument == nil {
		return nil, errors.New("throw without an argument")
	}
	return n, d.err
}

// LabeledStatement is label: body. Loops receive the label so that labeled
// continue reaches them; any other body only consumes labeled breaks.
type LabeledStatement struct {
	Label string
	Body  Node
}

func (n *LabeledStatement) Type() string { return "LabeledStatement" }

func (n *LabeledStatement) Get(stack *runtime.Stack) (*runtime.Value, error) {
	labels := []string{n.Label}
	body := n.Body
	for {
		inner, ok := body.(*LabeledStatement)
		if !ok {
			break
		}
		labels = append(labels, inner.Label)
		body = inner.Body
	}
	var v *runtime.Value
	var err error
	if l, ok := body.(looper); ok {
		v, err = l.loop(stack, labels)
	} else {
		v, err = body.Get(stack)
	}
	if s, ok := asSignal(err); ok && s.kind == sigBreak && hasLabel(labels, s.label) {
		return runtime.Undefined, nil
	}
	return v, err
}

func (n *LabeledStatement) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *LabeledStatement) Events() []runtime.Path { return n.Body.Events() }

func (n *LabeledStatement) String() string { return n.Label + ": " + n.Body.String() }

type labeledJSON struct {
	Label string          `json:"label"`
	Body  json.RawMessage `json:"body"`
}

func (n *LabeledStatement) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), labeledJSON{n.Label, e.node(n.Body)})
}

func decodeLabeled(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body labeledJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &LabeledStatement{Label: body.Label, Body: d.node(body.Body)}
	if d.err == nil && (n.Label == "" || n.Body == nil) {
		return nil, errors.New("labeled statement needs a label and a body")
	}
	return n, d.err
}
