package runtime

import "sync"

// FutureState is the settlement state of a Future.
type FutureState int

const (
	Pending FutureState = iota
	Fulfilled
	Rejected
)

func (s FutureState) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Future is the value behind promises and await. It is settled once, by
// Resolve or Reject, and is safe to wait on from another goroutine.
type Future struct {
	mu        sync.Mutex
	state     FutureState
	value     *Value
	reason    *Value
	callbacks []func()
	done      chan struct{}
}

// NewFuture creates a pending future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// ResolvedFuture creates a future fulfilled with v.
func ResolvedFuture(v *Value) *Future {
	f := NewFuture()
	f.Resolve(v)
	return f
}

// RejectedFuture creates a future rejected with reason.
func RejectedFuture(reason *Value) *Future {
	f := NewFuture()
	f.Reject(reason)
	return f
}

// NewFutureValue wraps f in a promise-like object.
func NewFutureValue(f *Future) *Value {
	obj := NewOrdinaryObject(FuturePrototype)
	obj.Kind = KindFuture
	obj.Internal = f
	return NewObject(obj)
}

// AsFuture unwraps a promise-like object.
func AsFuture(v *Value) (*Future, bool) {
	if !v.IsObject() || v.Object.Kind != KindFuture {
		return nil, false
	}
	f, ok := v.Object.Internal.(*Future)
	return f, ok
}

// Resolve fulfils the future. Resolving with another future adopts its outcome.
func (f *Future) Resolve(v *Value) {
	if other, ok := AsFuture(v); ok && other != f {
		other.OnSettle(func() {
			val, reason, state := other.Result()
			if state == Rejected {
				f.Reject(reason)
				return
			}
			f.Resolve(val)
		})
		return
	}
	f.settle(Fulfilled, v, nil)
}

// Reject rejects the future with reason.
func (f *Future) Reject(reason *Value) {
	f.settle(Rejected, nil, reason)
}

func (f *Future) settle(state FutureState, value, reason *Value) {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return
	}
	f.state, f.value, f.reason = state, value, reason
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
}

// State returns the current settlement state.
func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the fulfilment value, the rejection reason and the state.
func (f *Future) Result() (*Value, *Value, FutureState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.reason, f.state
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// OnSettle runs fn when the future settles, on the settling goroutine, or
// immediately when it already has.
func (f *Future) OnSettle(fn func()) {
	f.mu.Lock()
	if f.state == Pending {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn()
}
