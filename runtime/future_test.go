package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureSettlesOnce(t *testing.T) {
	f := NewFuture()
	assert.Equal(t, Pending, f.State())

	f.Resolve(NewNumber(1))
	f.Reject(NewString("late"))
	f.Resolve(NewNumber(2))

	v, reason, state := f.Result()
	assert.Equal(t, Fulfilled, state)
	assert.Equal(t, 1.0, v.Number)
	assert.Nil(t, reason)
	assert.Equal(t, "fulfilled", state.String())
}

func TestFutureAdoptsFuture(t *testing.T) {
	inner := NewFuture()
	outer := NewFuture()
	outer.Resolve(NewFutureValue(inner))
	assert.Equal(t, Pending, outer.State())

	inner.Reject(NewString("boom"))
	_, reason, state := outer.Result()
	assert.Equal(t, Rejected, state)
	assert.Equal(t, "boom", reason.Str)
}

func TestFutureAcrossGoroutines(t *testing.T) {
	f := NewFuture()
	var wg sync.WaitGroup
	var mu sync.Mutex
	calls := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		f.OnSettle(func() {
			defer wg.Done()
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}
	go f.Resolve(NewString("done"))

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not settle")
	}
	wg.Wait()
	assert.Equal(t, 4, calls)

	ran := false
	f.OnSettle(func() { ran = true })
	assert.True(t, ran, "callbacks on a settled future run immediately")
}

func TestFutureValue(t *testing.T) {
	v := NewFutureValue(RejectedFuture(NewString("no")))
	f, ok := AsFuture(v)
	require.True(t, ok)
	assert.Equal(t, Rejected, f.State())
	assert.Equal(t, "Promise { rejected }", Inspect(v))

	_, ok = AsFuture(NewObject(NewPlainObject()))
	assert.False(t, ok)

	assert.Same(t, v, FromGo(v))
	_, ok = AsFuture(FromGo(ResolvedFuture(Null)))
	assert.True(t, ok)
}
