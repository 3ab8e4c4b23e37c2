package runtime

// ScopeBuilder creates scopes and stacks seeded with host data.
type ScopeBuilder struct{}

// Scopes is the package-level ScopeBuilder.
var Scopes ScopeBuilder

// ContextObject turns a host context into the object backing a scope. A
// *Object is used as is, so host and script share it. Maps and structs are
// copied by FromGo. Anything that is not an object gets an empty context.
func ContextObject(context interface{}) *Object {
	if context == nil {
		return NewPlainObject()
	}
	v := FromGo(context)
	if v.IsObject() && v.Object.Kind == KindOrdinary {
		return v.Object
	}
	return NewPlainObject()
}

// For returns a function scope over context.
func (ScopeBuilder) For(context interface{}) *BaseScope {
	return NewScope(FunctionScope, ContextObject(context))
}

// ReactiveScopeFor returns a reactive scope over context.
func (ScopeBuilder) ReactiveScopeFor(context interface{}) *ReactiveScope {
	return NewReactiveScope(ContextObject(context))
}

// BlockScope returns an empty block scope.
func (ScopeBuilder) BlockScope() *BaseScope {
	return NewScope(BlockScope, nil)
}

// FunctionScope returns an empty function scope.
func (ScopeBuilder) FunctionScope() *BaseScope {
	return NewScope(FunctionScope, nil)
}

// StackFor builds a stack with one function scope per context, outermost first.
func (b ScopeBuilder) StackFor(contexts ...interface{}) *Stack {
	st := NewStack()
	for _, c := range contexts {
		st.Push(b.For(c))
	}
	if st.Len() == 0 {
		st.Push(b.FunctionScope())
	}
	return st
}

// ReactiveStackFor builds a single-scope reactive stack.
func (b ScopeBuilder) ReactiveStackFor(context interface{}) (*Stack, *ReactiveScope) {
	rs := b.ReactiveScopeFor(context)
	return NewStack(rs), rs
}
