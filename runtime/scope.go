package runtime

import "github.com/example/jsexpr/errors"

// ScopeKind distinguishes block scopes (let/const) from function scopes (var).
type ScopeKind int

const (
	BlockScope ScopeKind = iota
	FunctionScope
)

func (k ScopeKind) String() string {
	if k == FunctionScope {
		return "function"
	}
	return "block"
}

// DeclKind is the kind of declaration that created a binding.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
	DeclFunction
	DeclParam
)

var declKindNames = map[DeclKind]string{
	DeclVar:      "var",
	DeclLet:      "let",
	DeclConst:    "const",
	DeclFunction: "function",
	DeclParam:    "param",
}

func (k DeclKind) String() string {
	return declKindNames[k]
}

// ParseDeclKind maps var/let/const to a DeclKind.
func ParseDeclKind(s string) (DeclKind, bool) {
	for k, name := range declKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Lexical reports whether bindings of this kind live in the innermost block.
func (k DeclKind) Lexical() bool {
	return k == DeclLet || k == DeclConst
}

// Scope is one binding frame on a Stack. Bindings are the properties of a
// backing context object.
type Scope interface {
	Kind() ScopeKind
	Context() *Object
	Has(name string) bool
	Get(name string) (*Value, bool)
	Set(name string, v *Value) error
	Declare(name string, kind DeclKind, v *Value) error
	IsConst(name string) bool
}

// BaseScope is the plain block or function scope.
type BaseScope struct {
	kind    ScopeKind
	context *Object
	consts  map[string]bool
	lexical map[string]bool
	exports *Object
}

// NewScope creates a scope over context. A nil context gets a fresh object.
func NewScope(kind ScopeKind, context *Object) *BaseScope {
	if context == nil {
		context = NewPlainObject()
	}
	return &BaseScope{
		kind:    kind,
		context: context,
	}
}

func (s *BaseScope) Kind() ScopeKind  { return s.kind }
func (s *BaseScope) Context() *Object { return s.context }

func (s *BaseScope) Has(name string) bool {
	return s.context.HasOwnProperty(name)
}

func (s *BaseScope) Get(name string) (*Value, bool) {
	if !s.context.HasOwnProperty(name) {
		return nil, false
	}
	v, err := s.context.GetE(name)
	if err != nil {
		return Undefined, true
	}
	return v, true
}

func (s *BaseScope) Set(name string, v *Value) error {
	if s.consts[name] {
		return errors.ConstAssignment(name)
	}
	return s.context.SetE(name, v)
}

func (s *BaseScope) Declare(name string, kind DeclKind, v *Value) error {
	if kind.Lexical() {
		if s.lexical[name] {
			return errors.Redeclaration(name)
		}
		if s.lexical == nil {
			s.lexical = make(map[string]bool)
		}
		s.lexical[name] = true
		if kind == DeclConst {
			if s.consts == nil {
				s.consts = make(map[string]bool)
			}
			s.consts[name] = true
		}
	} else if s.lexical[name] {
		return errors.Redeclaration(name)
	}
	if v == nil {
		// var x; keeps an existing value.
		if s.context.HasOwnProperty(name) {
			return nil
		}
		v = Undefined
	}
	s.context.DefineProperty(name, &Property{Value: v, Writable: true, Enumerable: true})
	return nil
}

func (s *BaseScope) IsConst(name string) bool {
	return s.consts[name]
}

// Export records an exported binding on this scope.
func (s *BaseScope) Export(name string, v *Value) {
	if s.exports == nil {
		s.exports = NewPlainObject()
	}
	s.exports.Set(name, v)
}

// Exports returns the export table, or nil when nothing was exported.
func (s *BaseScope) Exports() *Object {
	return s.exports
}

// exporter is implemented by scopes that keep an export table.
type exporter interface {
	Export(name string, v *Value)
	Exports() *Object
}
