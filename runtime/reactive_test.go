package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct{ newValue, oldValue interface{} }

func record(changes *[]change) Listener {
	return func(newValue, oldValue *Value) {
		*changes = append(*changes, change{Export(newValue), Export(oldValue)})
	}
}

func TestReactiveSet(t *testing.T) {
	st, rs := Scopes.ReactiveStackFor(map[string]interface{}{"count": 1})
	var got []change
	rs.Subscribe(Path{"count"}, record(&got))

	require.NoError(t, st.Assign("count", NewNumber(2)))
	require.NoError(t, st.Assign("count", NewNumber(2)))
	require.NoError(t, st.Assign("count", NewNumber(3)))
	assert.Equal(t, []change{{2.0, 1.0}, {3.0, 2.0}}, got)
}

func TestReactiveDeclare(t *testing.T) {
	st, rs := Scopes.ReactiveStackFor(nil)
	var got []change
	rs.Subscribe(ParsePath("total"), record(&got))

	require.NoError(t, st.Declare("total", DeclVar, NewNumber(5)))
	assert.Equal(t, []change{{5.0, nil}}, got)
	assert.Same(t, rs, st.ReactiveScopeFor("total"))
}

func TestNotifyPaths(t *testing.T) {
	_, rs := Scopes.ReactiveStackFor(map[string]interface{}{
		"user": map[string]interface{}{"name": "ada", "age": 36},
	})
	var exact, below, above, unrelated []change
	rs.Subscribe(ParsePath("user.name"), record(&exact))
	rs.Subscribe(ParsePath("user.name.length"), record(&below))
	rs.Subscribe(ParsePath("user"), record(&above))
	rs.Subscribe(ParsePath("username"), record(&unrelated))

	user := rs.Context().Get("user")
	user.Object.Set("name", NewString("grace"))
	rs.Notify(ParsePath("user.name"), NewString("grace"), NewString("ada"))

	assert.Equal(t, []change{{"grace", "ada"}}, exact)
	assert.Equal(t, []change{{5.0, 3.0}}, below)
	require.Len(t, above, 1)
	assert.Equal(t, map[string]interface{}{"name": "grace", "age": 36.0}, above[0].newValue)
	assert.Equal(t, above[0].newValue, above[0].oldValue)
	assert.Empty(t, unrelated)
}

func TestNotifyBelow(t *testing.T) {
	_, rs := Scopes.ReactiveStackFor(nil)
	var got []change
	rs.Subscribe(ParsePath("cfg.theme"), record(&got))

	oldCfg := FromGo(map[string]interface{}{"theme": "dark", "size": 1})
	newCfg := FromGo(map[string]interface{}{"theme": "light", "size": 1})
	rs.Notify(ParsePath("cfg"), newCfg, oldCfg)
	rs.Notify(ParsePath("cfg"), newCfg, newCfg)

	assert.Equal(t, []change{{"light", "dark"}}, got)
}

func TestSubscriptionLifecycle(t *testing.T) {
	st, rs := Scopes.ReactiveStackFor(map[string]interface{}{"x": 0})
	var got []change
	subs := rs.SubscribeAll([]Path{{"x"}, {"y"}}, record(&got))
	require.Len(t, subs, 2)
	assert.Equal(t, 2, rs.Subscriptions())
	assert.Equal(t, "y", subs[1].Path().String())

	subs[0].Pause()
	assert.True(t, subs[0].Paused())
	require.NoError(t, st.Assign("x", NewNumber(1)))
	subs[0].Resume()
	require.NoError(t, st.Assign("x", NewNumber(2)))
	assert.Equal(t, []change{{2.0, 1.0}}, got)

	subs[0].Unsubscribe()
	subs[0].Unsubscribe()
	assert.Equal(t, 1, rs.Subscriptions())
	require.NoError(t, st.Assign("x", NewNumber(3)))
	assert.Len(t, got, 1)
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	st, rs := Scopes.ReactiveStackFor(map[string]interface{}{"x": 0})
	calls := 0
	var sub *Subscription
	sub = rs.Subscribe(Path{"x"}, func(newValue, oldValue *Value) {
		calls++
		sub.Unsubscribe()
	})
	rs.Subscribe(Path{"x"}, func(newValue, oldValue *Value) { calls++ })

	require.NoError(t, st.Assign("x", NewNumber(1)))
	require.NoError(t, st.Assign("x", NewNumber(2)))
	assert.Equal(t, 3, calls)
}
