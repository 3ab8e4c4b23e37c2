package runtime

import "github.com/example/jsexpr/errors"

// ModuleResolver supplies module namespace objects to import declarations.
type ModuleResolver interface {
	Resolve(specifier string) (*Value, error)
}

// Awaiter suspends the running async function until f settles.
type Awaiter func(f *Future) (*Value, error)

// Stack is the chain of scopes an expression is evaluated against, outermost
// first. A Stack is owned by one evaluation; Fork gives nested evaluations
// their own list while sharing the scopes themselves.
type Stack struct {
	scopes   []Scope
	resolver ModuleResolver
	awaiter  Awaiter
}

// NewStack creates a stack from outermost to innermost scope.
func NewStack(scopes ...Scope) *Stack {
	return &Stack{scopes: append([]Scope(nil), scopes...)}
}

// Fork copies the scope list. Pushes on the fork do not affect s.
func (s *Stack) Fork() *Stack {
	return &Stack{
		scopes:   append(make([]Scope, 0, len(s.scopes)+2), s.scopes...),
		resolver: s.resolver,
		awaiter:  s.awaiter,
	}
}

// Push enters a scope.
func (s *Stack) Push(scope Scope) {
	s.scopes = append(s.scopes, scope)
}

// PushBlock enters a fresh block scope and returns it.
func (s *Stack) PushBlock() Scope {
	sc := NewScope(BlockScope, nil)
	s.Push(sc)
	return sc
}

// PushFunction enters a fresh function scope and returns it.
func (s *Stack) PushFunction() *BaseScope {
	sc := NewScope(FunctionScope, nil)
	s.Push(sc)
	return sc
}

// Pop leaves the innermost scope.
func (s *Stack) Pop() Scope {
	if len(s.scopes) == 0 {
		return nil
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return top
}

// Len returns the number of scopes, usable as a checkpoint for ClearTo.
func (s *Stack) Len() int {
	return len(s.scopes)
}

// ClearTo pops scopes until n remain.
func (s *Stack) ClearTo(n int) {
	if n < len(s.scopes) {
		s.scopes = s.scopes[:n]
	}
}

// Top returns the innermost scope.
func (s *Stack) Top() Scope {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1]
}

// Scopes returns the scopes outermost first.
func (s *Stack) Scopes() []Scope {
	return s.scopes
}

// FindScope returns the innermost scope binding name, or nil.
func (s *Stack) FindScope(name string) Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Has(name) {
			return s.scopes[i]
		}
	}
	return nil
}

// FunctionScope returns the innermost function scope. An empty stack gets one.
func (s *Stack) FunctionScope() Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Kind() == FunctionScope {
			return s.scopes[i]
		}
	}
	if len(s.scopes) > 0 {
		return s.scopes[0]
	}
	return s.PushFunction()
}

// Lookup resolves a name through the chain.
func (s *Stack) Lookup(name string) (*Value, bool) {
	if sc := s.FindScope(name); sc != nil {
		return sc.Get(name)
	}
	return nil, false
}

// Assign writes to the scope that binds name. Unbound names are a ReferenceError.
func (s *Stack) Assign(name string, v *Value) error {
	sc := s.FindScope(name)
	if sc == nil {
		return errors.ReferenceErrorf("%s is not defined", name)
	}
	return sc.Set(name, v)
}

// Declare binds name: var and function declarations go to the nearest
// function scope, everything else to the innermost scope.
func (s *Stack) Declare(name string, kind DeclKind, v *Value) error {
	var target Scope
	switch kind {
	case DeclVar, DeclFunction:
		target = s.FunctionScope()
	default:
		target = s.Top()
		if target == nil {
			target = s.PushFunction()
		}
	}
	return target.Declare(name, kind, v)
}

// Export records an exported binding on the nearest function scope that
// keeps an export table.
func (s *Stack) Export(name string, v *Value) error {
	if ex, ok := s.FunctionScope().(exporter); ok {
		ex.Export(name, v)
		return nil
	}
	return errors.NotImplemented("export from a %T scope", s.FunctionScope())
}

// Exports returns the export table of the nearest function scope.
func (s *Stack) Exports() *Object {
	if ex, ok := s.FunctionScope().(exporter); ok {
		return ex.Exports()
	}
	return nil
}

// ReactiveScopeFor returns the reactive scope that binds name, if any.
func (s *Stack) ReactiveScopeFor(name string) *ReactiveScope {
	rs, _ := s.FindScope(name).(*ReactiveScope)
	return rs
}

// SetResolver installs the module resolver used by import declarations.
func (s *Stack) SetResolver(r ModuleResolver) {
	s.resolver = r
}

// Resolver returns the installed module resolver, or nil.
func (s *Stack) Resolver() ModuleResolver {
	return s.resolver
}

// SetAwaiter installs the suspension point used by await. Plain function
// calls clear it; async calls install their own.
func (s *Stack) SetAwaiter(a Awaiter) {
	s.awaiter = a
}

// Awaiter returns the installed suspension point, or nil outside async code.
func (s *Stack) Awaiter() Awaiter {
	return s.awaiter
}
