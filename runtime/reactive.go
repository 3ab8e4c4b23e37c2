package runtime

// Listener receives the new and old value at a subscribed path.
type Listener func(newValue, oldValue *Value)

// Subscription is a registration on a ReactiveScope.
type Subscription struct {
	scope  *ReactiveScope
	path   Path
	fn     Listener
	paused bool
	closed bool
}

// Path returns the subscribed dependency path.
func (s *Subscription) Path() Path { return s.path }

// Pause stops delivery without dropping the registration.
func (s *Subscription) Pause() { s.paused = true }

// Resume restarts delivery. Changes made while paused are not replayed.
func (s *Subscription) Resume() { s.paused = false }

// Paused reports whether delivery is paused.
func (s *Subscription) Paused() bool { return s.paused }

// Unsubscribe removes the registration. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.closed {
		return
	}
	s.closed = true
	s.scope.remove(s)
}

// ReactiveScope is a function scope that notifies subscribers when a binding
// or a property below it changes. Listeners run synchronously inside the Set
// that caused the change.
type ReactiveScope struct {
	*BaseScope
	subs []*Subscription
}

// NewReactiveScope creates a reactive function scope over context.
func NewReactiveScope(context *Object) *ReactiveScope {
	return &ReactiveScope{BaseScope: NewScope(FunctionScope, context)}
}

// Subscribe registers fn for changes that overlap path.
func (s *ReactiveScope) Subscribe(path Path, fn Listener) *Subscription {
	sub := &Subscription{scope: s, path: append(Path(nil), path...), fn: fn}
	s.subs = append(s.subs, sub)
	return sub
}

// SubscribeAll registers fn for every path, as produced by a node's Events.
func (s *ReactiveScope) SubscribeAll(paths []Path, fn Listener) []*Subscription {
	subs := make([]*Subscription, 0, len(paths))
	for _, p := range paths {
		subs = append(subs, s.Subscribe(p, fn))
	}
	return subs
}

// Subscriptions returns the number of live registrations.
func (s *ReactiveScope) Subscriptions() int {
	return len(s.subs)
}

func (s *ReactiveScope) remove(sub *Subscription) {
	for i, cur := range s.subs {
		if cur == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Set assigns a binding and notifies when the value changed.
func (s *ReactiveScope) Set(name string, v *Value) error {
	old, _ := s.BaseScope.Get(name)
	if err := s.BaseScope.Set(name, v); err != nil {
		return err
	}
	if old == nil {
		old = Undefined
	}
	if !SameValueZero(old, v) {
		s.Notify(Path{name}, v, old)
	}
	return nil
}

// Declare binds a name and notifies when it replaces a different value.
func (s *ReactiveScope) Declare(name string, kind DeclKind, v *Value) error {
	old, _ := s.BaseScope.Get(name)
	if err := s.BaseScope.Declare(name, kind, v); err != nil {
		return err
	}
	if old == nil {
		old = Undefined
	}
	cur, _ := s.BaseScope.Get(name)
	if !SameValueZero(old, cur) {
		s.Notify(Path{name}, cur, old)
	}
	return nil
}

// Notify reports that the value at changed went from oldValue to newValue.
// Subscribers on the same path receive those values. Subscribers below it
// receive the values resolved along their own path, and only when those
// differ. Subscribers above it receive their current value twice, since the
// object they watch was mutated in place.
func (s *ReactiveScope) Notify(changed Path, newValue, oldValue *Value) {
	subs := append([]*Subscription(nil), s.subs...)
	for _, sub := range subs {
		if sub.closed || sub.paused || !sub.path.Overlaps(changed) {
			continue
		}
		switch {
		case sub.path.Equal(changed):
			sub.fn(newValue, oldValue)
		case sub.path.HasPrefix(changed):
			rest := sub.path[len(changed):]
			n, o := rest.Resolve(newValue), rest.Resolve(oldValue)
			if !SameValueZero(n, o) {
				sub.fn(n, o)
			}
		default:
			cur := sub.path.Resolve(NewObject(s.context))
			sub.fn(cur, cur)
		}
	}
}
