package builtins

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/runtime"
)

// settled waits for the promise src evaluates to.
func settled(t *testing.T, src string) (*runtime.Value, *runtime.Value, runtime.FutureState) {
	t.Helper()
	f, ok := runtime.AsFuture(eval(t, src))
	require.True(t, ok, "%s did not produce a promise", src)
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatalf("%s never settled", src)
	}
	return f.Result()
}

func TestPromiseCombinators(t *testing.T) {
	v, _, state := settled(t, "Promise.resolve(3)")
	assert.Equal(t, runtime.Fulfilled, state)
	assert.Equal(t, 3.0, v.Number)

	_, reason, state := settled(t, "Promise.reject('no')")
	assert.Equal(t, runtime.Rejected, state)
	assert.Equal(t, "no", reason.Str)

	v, _, state = settled(t, "Promise.all([1, Promise.resolve(2), new Promise(r => r(3))])")
	assert.Equal(t, runtime.Fulfilled, state)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, runtime.Export(v))

	v, _, _ = settled(t, "Promise.all([])")
	assert.Equal(t, []interface{}{}, runtime.Export(v))

	_, reason, state = settled(t, "Promise.all([1, Promise.reject('e')])")
	assert.Equal(t, runtime.Rejected, state)
	assert.Equal(t, "e", reason.Str)

	v, _, _ = settled(t, "Promise.allSettled([1, Promise.reject('e')])")
	assert.Equal(t, []interface{}{
		map[string]interface{}{"status": "fulfilled", "value": 1.0},
		map[string]interface{}{"status": "rejected", "reason": "e"},
	}, runtime.Export(v))

	v, _, _ = settled(t, "Promise.race([Promise.resolve('first'), 'second'])")
	assert.Equal(t, "first", v.Str)
}

func TestPromiseExecutor(t *testing.T) {
	_, reason, state := settled(t, "new Promise(() => { throw new Error('x') })")
	assert.Equal(t, runtime.Rejected, state)
	assert.Equal(t, "Error: x", runtime.ErrorString(reason.Object))

	_, reason, state = settled(t, "new Promise((resolve, reject) => reject(1))")
	assert.Equal(t, runtime.Rejected, state)
	assert.Equal(t, 1.0, reason.Number)

	assert.Equal(t, "TypeError", evalError(t, "Promise(() => {})").Kind)
	assert.Equal(t, "TypeError", evalError(t, "new Promise(1)").Kind)
}

func TestPromiseAllSettlesAcrossGoroutines(t *testing.T) {
	pending := runtime.NewFuture()
	res, err := promiseAll(runtime.Undefined, []*runtime.Value{
		runtime.NewArray([]*runtime.Value{runtime.NewFutureValue(pending), runtime.NewNumber(1)}),
	})
	require.NoError(t, err)
	out, _ := runtime.AsFuture(res)
	assert.Equal(t, runtime.Pending, out.State())

	go pending.Resolve(runtime.NewString("late"))
	<-out.Done()
	v, _, _ := out.Result()
	assert.Equal(t, []interface{}{"late", 1.0}, runtime.Export(v))
}
