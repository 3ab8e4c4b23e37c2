package ast

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/registry"
	"github.com/example/jsexpr/runtime"
)

func init() {
	Registry.MustRegister("ImportDeclaration", decodeImport)
	Registry.MustRegister("ExportNamedDeclaration", decodeExportNamed)
	Registry.MustRegister("ExportDefaultDeclaration", decodeExportDefault)
	Registry.MustRegister("ExportAllDeclaration", decodeExportAll)
}

// ImportKind tells how an import specifier binds the module namespace.
type ImportKind string

const (
	ImportDefault   ImportKind = "default"
	ImportNamespace ImportKind = "namespace"
	ImportNamed     ImportKind = "named"
)

// ImportSpecifier binds Local to a member of the imported module. Imported
// is empty for default and namespace imports.
type ImportSpecifier struct {
	Kind     ImportKind `json:"kind"`
	Imported string     `json:"imported,omitempty"`
	Local    string     `json:"local"`
}

// ExportSpecifier exports Local under the name Exported.
type ExportSpecifier struct {
	Local    string `json:"local"`
	Exported string `json:"exported"`
}

func resolveModule(stack *runtime.Stack, source string) (*runtime.Value, error) {
	r := stack.Resolver()
	if r == nil {
		return nil, errors.NotImplemented("import of %q without a module resolver", source)
	}
	ns, err := r.Resolve(source)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve module %q", source)
	}
	if ns == nil {
		return runtime.Undefined, nil
	}
	return ns, nil
}

// ImportDeclaration is import ... from "source". Bindings are constants in
// the current scope.
type ImportDeclaration struct {
	Specifiers []*ImportSpecifier
	Source     string
}

func (n *ImportDeclaration) Type() string { return "ImportDeclaration" }

func (n *ImportDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	ns, err := resolveModule(stack, n.Source)
	if err != nil {
		return nil, err
	}
	for _, sp := range n.Specifiers {
		var v *runtime.Value
		switch sp.Kind {
		case ImportNamespace:
			v = ns
		case ImportDefault:
			v, err = runtime.GetProperty(ns, "default")
		default:
			v, err = runtime.GetProperty(ns, sp.Imported)
		}
		if err != nil {
			return nil, err
		}
		if err := stack.Declare(sp.Local, runtime.DeclConst, v); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

func (n *ImportDeclaration) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ImportDeclaration) Events() []runtime.Path { return nil }

func (n *ImportDeclaration) String() string {
	var parts, named []string
	for _, sp := range n.Specifiers {
		switch sp.Kind {
		case ImportDefault:
			parts = append(parts, sp.Local)
		case ImportNamespace:
			parts = append(parts, "* as "+sp.Local)
		default:
			if sp.Imported == sp.Local {
				named = append(named, sp.Local)
			} else {
				named = append(named, sp.Imported+" as "+sp.Local)
			}
		}
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(parts) == 0 {
		return "import " + strconv.Quote(n.Source) + ";"
	}
	return "import " + strings.Join(parts, ", ") + " from " + strconv.Quote(n.Source) + ";"
}

type importJSON struct {
	Specifiers []*ImportSpecifier `json:"specifiers"`
	Source     string             `json:"source"`
}

func (n *ImportDeclaration) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), importJSON{n.Specifiers, n.Source})
}

func decodeImport(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body importJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	for _, sp := range body.Specifiers {
		if sp == nil || sp.Local == "" {
			return nil, errors.New("import specifier without a local name")
		}
		if sp.Kind == ImportNamed && sp.Imported == "" {
			sp.Imported = sp.Local
		}
	}
	return &ImportDeclaration{Specifiers: body.Specifiers, Source: body.Source}, nil
}

// ExportNamedDeclaration is export <declaration>, export { a as b } or
// export { a } from "source".
type ExportNamedDeclaration struct {
	Declaration Node
	Specifiers  []*ExportSpecifier
	Source      string
}

func (n *ExportNamedDeclaration) Type() string { return "ExportNamedDeclaration" }

func (n *ExportNamedDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	if n.Declaration != nil {
		if _, err := n.Declaration.Get(stack); err != nil {
			return nil, err
		}
		var names []string
		switch d := n.Declaration.(type) {
		case *VariableDeclaration:
			names = d.BoundNames()
		case *FunctionDeclaration:
			names = d.BoundNames()
		}
		for _, name := range names {
			v, _ := stack.Lookup(name)
			if err := stack.Export(name, v); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	}
	var ns *runtime.Value
	if n.Source != "" {
		var err error
		if ns, err = resolveModule(stack, n.Source); err != nil {
			return nil, err
		}
	}
	for _, sp := range n.Specifiers {
		var v *runtime.Value
		if ns != nil {
			var err error
			if v, err = runtime.GetProperty(ns, sp.Local); err != nil {
				return nil, err
			}
		} else {
			var ok bool
			if v, ok = stack.Lookup(sp.Local); !ok {
				return nil, errors.ReferenceErrorf("%s is not defined", sp.Local)
			}
		}
		if err := stack.Export(sp.Exported, v); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

func (n *ExportNamedDeclaration) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ExportNamedDeclaration) Events() []runtime.Path {
	if n.Declaration != nil {
		return n.Declaration.Events()
	}
	return nil
}

func (n *ExportNamedDeclaration) String() string {
	if n.Declaration != nil {
		return "export " + n.Declaration.String()
	}
	parts := make([]string, len(n.Specifiers))
	for i, sp := range n.Specifiers {
		if sp.Local == sp.Exported {
			parts[i] = sp.Local
		} else {
			parts[i] = sp.Local + " as " + sp.Exported
		}
	}
	s := "export { " + strings.Join(parts, ", ") + " }"
	if len(parts) == 0 {
		s = "export {}"
	}
	if n.Source != "" {
		s += " from " + strconv.Quote(n.Source)
	}
	return s + ";"
}

type exportNamedJSON struct {
	Declaration json.RawMessage    `json:"declaration"`
	Specifiers  []*ExportSpecifier `json:"specifiers,omitempty"`
	Source      string             `json:"source,omitempty"`
}

func (n *ExportNamedDeclaration) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), exportNamedJSON{e.node(n.Declaration), n.Specifiers, n.Source})
}

func decodeExportNamed(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body exportNamedJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ExportNamedDeclaration{Declaration: d.node(body.Declaration), Specifiers: body.Specifiers, Source: body.Source}
	for _, sp := range n.Specifiers {
		if sp == nil || sp.Local == "" {
			d.fail(errors.New("export specifier without a local name"))
			break
		}
		if sp.Exported == "" {
			sp.Exported = sp.Local
		}
	}
	return n, d.err
}

// ExportDefaultDeclaration is export default <expression or function>.
type ExportDefaultDeclaration struct {
	Declaration Node
}

func (n *ExportDefaultDeclaration) Type() string { return "ExportDefaultDeclaration" }

func (n *ExportDefaultDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	var v *runtime.Value
	if fd, ok := n.Declaration.(*FunctionDeclaration); ok {
		if fd.ID != nil {
			// Hoisted with the rest of the body.
			v, _ = stack.Lookup(fd.ID.Name)
		} else {
			v = fd.instantiate(stack)
			nameFunction(v, &Identifier{Name: "default"})
		}
	} else {
		var err error
		if v, err = n.Declaration.Get(stack); err != nil {
			return nil, err
		}
		nameFunction(v, &Identifier{Name: "default"})
	}
	if err := stack.Export("default", v); err != nil {
		return nil, err
	}
	return runtime.Undefined, nil
}

func (n *ExportDefaultDeclaration) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ExportDefaultDeclaration) Events() []runtime.Path { return n.Declaration.Events() }

func (n *ExportDefaultDeclaration) String() string {
	if _, ok := n.Declaration.(*FunctionDeclaration); ok {
		return "export default " + n.Declaration.String()
	}
	return "export default " + wrapStatementStart(n.Declaration) + ";"
}

func (n *ExportDefaultDeclaration) MarshalJSON() ([]byte, error) {
	e := &encoder{}
	return e.finish(n.Type(), exportDefaultJSON{e.node(n.Declaration)})
}

type exportDefaultJSON struct {
	Declaration json.RawMessage `json:"declaration"`
}

func decodeExportDefault(raw json.RawMessage, dec registry.Decoder[Node]) (Node, error) {
	var body exportDefaultJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	d := newDecoder(dec)
	n := &ExportDefaultDeclaration{Declaration: d.node(body.Declaration)}
	if d.err == nil && n.Declaration == nil {
		return nil, errors.New("export default without a declaration")
	}
	return n, d.err
}

// ExportAllDeclaration is export * from "source" or, with Exported set,
// export * as name from "source".
type ExportAllDeclaration struct {
	Source   string
	Exported string
}

func (n *ExportAllDeclaration) Type() string { return "ExportAllDeclaration" }

func (n *ExportAllDeclaration) Get(stack *runtime.Stack) (*runtime.Value, error) {
	ns, err := resolveModule(stack, n.Source)
	if err != nil {
		return nil, err
	}
	if n.Exported != "" {
		return runtime.Undefined, stack.Export(n.Exported, ns)
	}
	if !ns.IsObject() {
		return runtime.Undefined, nil
	}
	for _, k := range ns.Object.OwnKeys() {
		if k == "default" {
			continue
		}
		if err := stack.Export(k, ns.Object.Get(k)); err != nil {
			return nil, err
		}
	}
	return runtime.Undefined, nil
}

func (n *ExportAllDeclaration) Set(*runtime.Stack, *runtime.Value) (*runtime.Value, error) {
	return notAssignable(n)
}

func (n *ExportAllDeclaration) Events() []runtime.Path { return nil }

func (n *ExportAllDeclaration) String() string {
	if n.Exported != "" {
		return "export * as " + n.Exported + " from " + strconv.Quote(n.Source) + ";"
	}
	return "export * from " + strconv.Quote(n.Source) + ";"
}

type exportAllJSON struct {
	Source   string `json:"source"`
	Exported string `json:"exported,omitempty"`
}

func (n *ExportAllDeclaration) MarshalJSON() ([]byte, error) {
	return registry.Marshal(n.Type(), exportAllJSON{n.Source, n.Exported})
}

func decodeExportAll(raw json.RawMessage, _ registry.Decoder[Node]) (Node, error) {
	var body exportAllJSON
	if err := unmarshalBody(raw, &body); err != nil {
		return nil, err
	}
	if body.Source == "" {
		return nil, errors.New("export * without a source")
	}
	return &ExportAllDeclaration{Source: body.Source, Exported: body.Exported}, nil
}
