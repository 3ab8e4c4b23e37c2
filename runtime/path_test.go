package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath(t *testing.T) {
	p := ParsePath("user.address.city")
	assert.Equal(t, Path{"user", "address", "city"}, p)
	assert.Equal(t, "user", p.Root())
	assert.Equal(t, "user.address.city", p.String())
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, "", Path(nil).Root())

	assert.True(t, p.HasPrefix(Path{"user"}))
	assert.False(t, Path{"user"}.HasPrefix(p))
	assert.True(t, Path{"user"}.Overlaps(p))
	assert.True(t, p.Overlaps(Path{"user", "address"}))
	assert.False(t, ParsePath("time").Overlaps(ParsePath("timestamp")))
	assert.False(t, p.Overlaps(ParsePath("user.name")))

	q := p.Append("zip")
	assert.Equal(t, "user.address.city.zip", q.String())
	assert.Equal(t, 3, len(p), "Append copies")
}

func TestPathResolve(t *testing.T) {
	v := FromGo(map[string]interface{}{
		"a": map[string]interface{}{"b": []interface{}{10, 20}},
	})
	assert.Equal(t, 20.0, ParsePath("a.b.1").Resolve(v).Number)
	assert.Equal(t, 2.0, ParsePath("a.b.length").Resolve(v).Number)
	assert.Equal(t, Undefined, ParsePath("a.x.y").Resolve(v))
	assert.Equal(t, Undefined, ParsePath("a").Resolve(Null))
	assert.Same(t, v, Path(nil).Resolve(v))
}

func TestDedupPaths(t *testing.T) {
	got := DedupPaths([]Path{{"a"}, {"b", "c"}, nil, {"a"}, {"b", "c"}, {"b"}})
	assert.Equal(t, []Path{{"a"}, {"b", "c"}, {"b"}}, got)
}
