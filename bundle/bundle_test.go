package bundle

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/parser"
	"github.com/example/jsexpr/runtime"
)

func compile(src string) (ast.Node, error) {
	if n, err := parser.Parse(src); err == nil {
		return n, nil
	}
	return parser.ParseProgram(src)
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"user.first + ' ' + user.last",
		"items.map(x => x * 2)",
		"let n = 0; for (const x of items) n += x; n",
		"/a+b/gi.test(s)",
	}
	trees, err := Build(compile, sources)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, trees))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(sources))
	for _, src := range sources {
		require.Contains(t, got, src)
		assert.Equal(t, trees[src].String(), got[src].String(), src)
	}

	data := map[string]interface{}{
		"user":  map[string]interface{}{"first": "Ada", "last": "Lovelace"},
		"items": []interface{}{1, 2},
	}
	v, err := got[sources[0]].Get(runtime.Scopes.StackFor(data))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", v.Str)

	v, err = got[sources[2]].Get(runtime.Scopes.StackFor(data))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Number)
}

func TestBuildStopsOnSyntaxError(t *testing.T) {
	_, err := Build(compile, []string{"a +"})
	require.Error(t, err)
	var syntax *errors.SyntaxError
	assert.True(t, errors.As(err, &syntax))
}

func TestReadRejects(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not snappy")))
	assert.Error(t, err)

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"version": 99}))
	require.NoError(t, w.Close())
	_, err = Read(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 99")

	buf.Reset()
	w = snappy.NewBufferedWriter(&buf)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"version": Version,
		"entries": []interface{}{map[string]interface{}{"source": "x", "tree": map[string]interface{}{"type": "NoSuchNode", "node": map[string]interface{}{}}}},
	}))
	require.NoError(t, w.Close())
	_, err = Read(&buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownTag), "%v", err)
}
