package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/errors"
)

func TestNewRegExpFlags(t *testing.T) {
	cases := []struct {
		pattern, flags, input string
		want                  bool
	}{
		{"abc", "", "xabcx", true},
		{"ABC", "", "abc", false},
		{"ABC", "i", "abc", true},
		{"^b", "", "a\nb", false},
		{"^b", "m", "a\nb", true},
		{"a.c", "", "a\nc", false},
		{"a.c", "s", "a\nc", true},
		{"(a)\\1", "g", "aa", true},
	}
	for _, tc := range cases {
		v, err := NewRegExp(tc.pattern, tc.flags)
		require.NoError(t, err, tc.pattern)
		re, ok := AsRegExp(v)
		require.True(t, ok)
		assert.Equal(t, tc.flags, re.Flags)
		got, err := re.Re.MatchString(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "/%s/%s on %q", tc.pattern, tc.flags, tc.input)
	}
}

func TestNewRegExpErrors(t *testing.T) {
	for _, flags := range []string{"gg", "x"} {
		_, err := NewRegExp("a", flags)
		var evalErr *errors.EvaluationError
		require.True(t, errors.As(err, &evalErr), flags)
		assert.Equal(t, "SyntaxError", evalErr.Kind)
	}
	_, err := NewRegExp("(", "")
	assert.Error(t, err)
}
