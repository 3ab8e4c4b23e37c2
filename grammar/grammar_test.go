package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/token"
)

func TestPunctuatorsLongestFirst(t *testing.T) {
	for i := 1; i < len(Punctuators); i++ {
		assert.GreaterOrEqual(t, len(Punctuators[i-1]), len(Punctuators[i]),
			"%q listed before %q", Punctuators[i-1], Punctuators[i])
	}
	assert.Equal(t, ">>>=", Punctuators[0])
	assert.Equal(t, token.NullishAssign, PunctuatorTypes["??="])
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, token.Typeof, LookupKeyword("typeof"))
	assert.Equal(t, token.Await, LookupKeyword("await"))
	assert.Equal(t, token.Identifier, LookupKeyword("of"))
	assert.Equal(t, token.Identifier, LookupKeyword("Typeof"))
	_, ok := PunctuatorTypes["typeof"]
	assert.False(t, ok)
}

func TestPrecedence(t *testing.T) {
	cases := []struct {
		tt   token.TokenType
		want int
	}{
		{token.Comma, Comma},
		{token.PlusAssign, Assignment},
		{token.QuestionMark, Conditional},
		{token.NullishCoalesce, Nullish},
		{token.Or, LogicalOr},
		{token.StrictEqual, Equality},
		{token.Instanceof, Relational},
		{token.UnsignedRightShift, Shift},
		{token.Percent, Multiplicative},
		{token.Exponent, Exponent},
	}
	for _, c := range cases {
		got, ok := Precedence(c.tt)
		assert.True(t, ok, c.tt.String())
		assert.Equal(t, c.want, got, c.tt.String())
	}

	_, ok := Precedence(token.Not)
	assert.False(t, ok)

	mul, _ := Precedence(token.Asterisk)
	add, _ := Precedence(token.Plus)
	assert.Greater(t, mul, add)
}

func TestAssociativity(t *testing.T) {
	assert.Equal(t, Right, Levels[Exponent].Assoc)
	assert.Equal(t, Right, Levels[Assignment].Assoc)
	assert.Equal(t, Left, Levels[Additive].Assoc)
	assert.Equal(t, "right", Right.String())
}

func TestOperatorHelpers(t *testing.T) {
	assert.True(t, IsAssignment(token.Assign))
	assert.True(t, IsAssignment(token.OrAssign))
	assert.False(t, IsAssignment(token.Equal))
	assert.True(t, IsLogical(token.NullishCoalesce))
	assert.False(t, IsLogical(token.BitwiseOr))

	assert.Equal(t, "+", CompoundOperator("+="))
	assert.Equal(t, "&&", CompoundOperator("&&="))
	assert.Equal(t, ">>>", CompoundOperator(">>>="))
	assert.Equal(t, "", CompoundOperator("="))
}
