package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/grammar"
)

func TestPrintLevels(t *testing.T) {
	assert.Equal(t, len(grammar.Levels), precUnary)
	assert.True(t, precUnary < precPostfix && precPostfix < precCall && precCall < precPrimary)
	assert.Equal(t, precUnary, precedence(&UnaryExpression{Operator: "-", Argument: &Identifier{Name: "a"}}))
	assert.Equal(t, grammar.Exponent, operatorLevel("**"))
}
