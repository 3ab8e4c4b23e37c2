// Package ast defines the expression tree produced by the parser. Every node
// evaluates itself against a runtime.Stack, reports the dependency paths it
// reads, prints itself back to source and round-trips through tagged JSON.
package ast

import (
	"encoding/json"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

// Node is the interface all tree nodes implement.
type Node interface {
	// Type is the node's registry tag, e.g. "BinaryExpression".
	Type() string
	// Get evaluates the node.
	Get(stack *runtime.Stack) (*runtime.Value, error)
	// Set assigns v through the node. Only identifiers, member expressions
	// and patterns are assignable.
	Set(stack *runtime.Stack, v *runtime.Value) (*runtime.Value, error)
	// Events lists the dependency paths the node reads.
	Events() []runtime.Path
	// String prints the node as source text that parses back to an
	// equivalent tree.
	String() string
	json.Marshaler
}

// Declarer is implemented by nodes that can be the target of a declaration:
// identifiers and destructuring patterns.
type Declarer interface {
	Node
	Declare(stack *runtime.Stack, kind runtime.DeclKind, v *runtime.Value) error
	BoundNames() []string
}

// Registry holds the decoders of every node type. Each node file registers
// its own tag from init.
var Registry = registry.New[Node]("ast")

// Deserialize rebuilds a tree from the JSON produced by MarshalJSON.
func Deserialize(data []byte) (Node, error) {
	return Registry.Decode(data)
}

// Tags lists the registered node types.
func Tags() []string {
	return Registry.Tags()
}

func notAssignable(n Node) (*runtime.Value, error) {
	return nil, errors.NotAssignable(n.String())
}

// events merges the dependency paths of the given children.
func events(nodes ...Node) []runtime.Path {
	var out []runtime.Path
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, n.Events()...)
	}
	return runtime.DedupPaths(out)
}

func mergePaths(groups ...[]runtime.Path) []runtime.Path {
	var out []runtime.Path
	for _, g := range groups {
		out = append(out, g...)
	}
	return runtime.DedupPaths(out)
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		if n != nil {
			parts[i] = n.String()
		}
	}
	return strings.Join(parts, sep)
}

// encoder marshals child nodes and keeps the first error.
type encoder struct {
	err error
}

func (e *encoder) node(n Node) json.RawMessage {
	if n == nil {
		return json.RawMessage("null")
	}
	b, err := n.MarshalJSON()
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return json.RawMessage("null")
	}
	return b
}

func (e *encoder) nodes(ns []Node) []json.RawMessage {
	out := make([]json.RawMessage, len(ns))
	for i, n := range ns {
		out[i] = e.node(n)
	}
	return out
}

func (e *encoder) ident(id *Identifier) json.RawMessage {
	if id == nil {
		return json.RawMessage("null")
	}
	return e.node(id)
}

func (e *encoder) block(b *BlockStatement) json.RawMessage {
	if b == nil {
		return json.RawMessage("null")
	}
	return e.node(b)
}

func (e *encoder) finish(tag string, body interface{}) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return registry.Marshal(tag, body)
}

// decoder rebuilds child nodes and keeps the first error.
type decoder struct {
	d   registry.Decoder[Node]
	err error
}

func newDecoder(d registry.Decoder[Node]) *decoder {
	return &decoder{d: d}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) node(raw json.RawMessage) Node {
	if d.err != nil {
		return nil
	}
	n, err := d.d.Decode(raw)
	if err != nil {
		d.fail(err)
		return nil
	}
	return n
}

func (d *decoder) nodes(raws []json.RawMessage) []Node {
	if raws == nil {
		return nil
	}
	out := make([]Node, len(raws))
	for i, raw := range raws {
		out[i] = d.node(raw)
	}
	return out
}

func (d *decoder) ident(raw json.RawMessage) *Identifier {
	n := d.node(raw)
	if n == nil {
		return nil
	}
	id, ok := n.(*Identifier)
	if !ok {
		d.fail(errors.Errorf("expected Identifier, got %s", n.Type()))
	}
	return id
}

func (d *decoder) block(raw json.RawMessage) *BlockStatement {
	n := d.node(raw)
	if n == nil {
		return nil
	}
	b, ok := n.(*BlockStatement)
	if !ok {
		d.fail(errors.Errorf("expected BlockStatement, got %s", n.Type()))
	}
	return b
}

func unmarshalBody(raw json.RawMessage, body interface{}) error {
	if err := json.Unmarshal(raw, body); err != nil {
		return errors.Wrap(err, "malformed node body")
	}
	return nil
}
