package registry

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/jsexpr/errors"
)

type shape interface{ area() float64 }

type square struct{ Side float64 }

func (s square) area() float64 { return s.Side * s.Side }

type group struct{ Items []shape }

func (g group) area() float64 {
	var total float64
	for _, s := range g.Items {
		total += s.area()
	}
	return total
}

func newShapes(t *testing.T) *Registry[shape] {
	r := New[shape]("shape")
	require.NoError(t, r.Register("square", func(node json.RawMessage, d Decoder[shape]) (shape, error) {
		var s square
		err := json.Unmarshal(node, &s)
		return s, err
	}))
	require.NoError(t, r.Register("group", func(node json.RawMessage, d Decoder[shape]) (shape, error) {
		var raw []json.RawMessage
		if err := json.Unmarshal(node, &raw); err != nil {
			return nil, err
		}
		var g group
		for _, item := range raw {
			s, err := d.Decode(item)
			if err != nil {
				return nil, err
			}
			g.Items = append(g.Items, s)
		}
		return g, nil
	}))
	return r
}

func TestDecodeNested(t *testing.T) {
	r := newShapes(t)
	sq, err := Marshal("square", square{Side: 2})
	require.NoError(t, err)
	data, err := Marshal("group", []json.RawMessage{sq, sq})
	require.NoError(t, err)

	s, err := r.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 8.0, s.area())
	assert.Equal(t, []string{"group", "square"}, r.Tags())
}

func TestDecodeNull(t *testing.T) {
	r := newShapes(t)
	for _, data := range []string{"null", "", "  "} {
		s, err := r.Decode(json.RawMessage(data))
		assert.NoError(t, err)
		assert.Nil(t, s)
	}
}

func TestDecodeErrors(t *testing.T) {
	r := newShapes(t)

	_, err := r.Decode(json.RawMessage(`{"type":"circle","node":{}}`))
	assert.True(t, errors.Is(err, errors.ErrUnknownTag))
	var regErr *errors.RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "circle", regErr.Tag)
	assert.Equal(t, `shape registry: decode "circle": unknown tag`, err.Error())

	_, err = r.Decode(json.RawMessage(`{"node":{}}`))
	assert.Contains(t, err.Error(), "missing type tag")

	_, err = r.Decode(json.RawMessage(`[1`))
	assert.Contains(t, err.Error(), "malformed envelope")

	_, err = r.Decode(json.RawMessage(`{"type":"square","node":"wide"}`))
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "square", regErr.Tag)

	// A nested failure keeps the innermost tag.
	_, err = r.Decode(json.RawMessage(`{"type":"group","node":[{"type":"hexagon","node":{}}]}`))
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "hexagon", regErr.Tag)
}

func TestRegisterDuplicate(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := newShapes(t)
	r.SetLogger(zap.New(core))

	err := r.Register("square", func(json.RawMessage, Decoder[shape]) (shape, error) { return nil, nil })
	assert.True(t, errors.Is(err, errors.ErrDuplicateTag))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "duplicate registration", entry.Message)
	assert.Equal(t, "square", entry.ContextMap()["tag"])
	assert.Equal(t, "shape", entry.ContextMap()["registry"])

	assert.Error(t, r.Register("", nil))
	assert.Panics(t, func() {
		r.MustRegister("group", func(json.RawMessage, Decoder[shape]) (shape, error) { return nil, nil })
	})
}

func TestConcurrentLookup(t *testing.T) {
	r := newShapes(t)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			_, ok := r.Lookup("square")
			assert.True(t, ok)
			_, ok = r.Lookup("tag" + strconv.Itoa(i))
			assert.False(t, ok)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
