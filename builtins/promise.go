package builtins

import (
	"sync"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

// Promises are Futures. Only the combinators that settle from values are
// provided; then, catch and finally would run script callbacks on whichever
// goroutine settles the future.
func createPromiseConstructor() *runtime.Object {
	ctor := newConstructor("Promise", 1, runtime.FuturePrototype, promiseCall, promiseConstruct)
	setMethod(ctor, "resolve", 1, promiseResolve)
	setMethod(ctor, "reject", 1, promiseReject)
	setMethod(ctor, "all", 1, promiseAll)
	setMethod(ctor, "allSettled", 1, promiseAllSettled)
	setMethod(ctor, "race", 1, promiseRace)
	return ctor
}

func promiseCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return nil, errors.TypeErrorf("Promise constructor cannot be invoked without 'new'")
}

// promiseConstruct runs the executor synchronously. An executor that
// throws rejects the promise.
func promiseConstruct(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	executor, err := callback(args, 0)
	if err != nil {
		return nil, err
	}
	f := runtime.NewFuture()
	resolve := runtime.NewFunction("resolve", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		f.Resolve(runtime.Arg(args, 0))
		return runtime.Undefined, nil
	})
	reject := runtime.NewFunction("reject", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		f.Reject(runtime.Arg(args, 0))
		return runtime.Undefined, nil
	})
	if _, err := runtime.Call(executor, runtime.Undefined, []*runtime.Value{resolve, reject}); err != nil {
		if !runtime.IsCatchable(err) {
			return nil, err
		}
		f.Reject(runtime.ErrorValue(err))
	}
	return runtime.NewFutureValue(f), nil
}

// toFuture adopts v when it is already a promise.
func toFuture(v *runtime.Value) *runtime.Future {
	if f, ok := runtime.AsFuture(v); ok {
		return f
	}
	return runtime.ResolvedFuture(v)
}

func promiseResolve(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := runtime.Arg(args, 0)
	if _, ok := runtime.AsFuture(v); ok {
		return v, nil
	}
	return runtime.NewFutureValue(runtime.ResolvedFuture(v)), nil
}

func promiseReject(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewFutureValue(runtime.RejectedFuture(runtime.Arg(args, 0))), nil
}

// settleEach calls onSettle for each input future as it settles, with its
// position. The callbacks may run on other goroutines and are serialized.
func settleEach(iterable *runtime.Value, onSettle func(i, n int, f *runtime.Future)) (int, error) {
	items, err := runtime.Collect(iterable)
	if err != nil {
		return 0, err
	}
	var mu sync.Mutex
	for i, item := range items {
		i, f := i, toFuture(item)
		f.OnSettle(func() {
			mu.Lock()
			defer mu.Unlock()
			onSettle(i, len(items), f)
		})
	}
	return len(items), nil
}

func promiseAll(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	out := runtime.NewFuture()
	var values []*runtime.Value
	remaining := -1
	n, err := settleEach(runtime.Arg(args, 0), func(i, n int, f *runtime.Future) {
		if values == nil {
			values, remaining = make([]*runtime.Value, n), n
		}
		v, reason, state := f.Result()
		if state == runtime.Rejected {
			out.Reject(reason)
			return
		}
		values[i] = v
		if remaining--; remaining == 0 {
			out.Resolve(runtime.NewArray(values))
		}
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out.Resolve(runtime.NewArray(nil))
	}
	return runtime.NewFutureValue(out), nil
}

func promiseAllSettled(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	out := runtime.NewFuture()
	var results []*runtime.Value
	remaining := -1
	n, err := settleEach(runtime.Arg(args, 0), func(i, n int, f *runtime.Future) {
		if results == nil {
			results, remaining = make([]*runtime.Value, n), n
		}
		v, reason, state := f.Result()
		entry := runtime.NewPlainObject()
		entry.Set("status", runtime.NewString(state.String()))
		if state == runtime.Rejected {
			entry.Set("reason", reason)
		} else {
			entry.Set("value", v)
		}
		results[i] = runtime.NewObject(entry)
		if remaining--; remaining == 0 {
			out.Resolve(runtime.NewArray(results))
		}
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out.Resolve(runtime.NewArray(nil))
	}
	return runtime.NewFutureValue(out), nil
}

// promiseRace settles with the first input to settle. An empty input never
// settles.
func promiseRace(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	out := runtime.NewFuture()
	_, err := settleEach(runtime.Arg(args, 0), func(i, n int, f *runtime.Future) {
		v, reason, state := f.Result()
		if state == runtime.Rejected {
			out.Reject(reason)
			return
		}
		out.Resolve(v)
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewFutureValue(out), nil
}
