// Package grammar holds the operator precedence and keyword tables shared by
// the lexer and the parser. It is data only.
package grammar

import (
	"sort"

	"github.com/example/jsexpr/token"
)

// Assoc is the associativity of an operator level.
type Assoc int

const (
	Left Assoc = iota
	Right
)

func (a Assoc) String() string {
	if a == Right {
		return "right"
	}
	return "left"
}

// Level is one row of the precedence table.
type Level struct {
	Name  string
	Assoc Assoc
	Ops   []token.TokenType
}

// Level indices, loosest binding first.
const (
	Comma = iota
	Assignment
	Conditional
	Pipeline
	Nullish
	LogicalOr
	LogicalAnd
	BitwiseOr
	BitwiseXor
	BitwiseAnd
	Equality
	Relational
	Shift
	Additive
	Multiplicative
	Exponent
)

// Levels mirrors the standard precedence table from loosest to tightest.
// Unary, postfix, call and member access bind tighter than every level here
// and are reduced before the table is consulted.
var Levels = []Level{
	Comma: {"comma", Left, []token.TokenType{token.Comma}},
	Assignment: {"assignment", Right, []token.TokenType{
		token.Assign, token.PlusAssign, token.MinusAssign, token.AsteriskAssign,
		token.SlashAssign, token.PercentAssign, token.ExponentAssign,
		token.LeftShiftAssign, token.RightShiftAssign, token.UnsignedRightShiftAssign,
		token.AmpersandAssign, token.PipeAssign, token.CaretAssign,
		token.AndAssign, token.OrAssign, token.NullishAssign,
	}},
	Conditional:    {"conditional", Right, []token.TokenType{token.QuestionMark}},
	Pipeline:       {"pipeline", Left, []token.TokenType{token.Pipeline}},
	Nullish:        {"nullish", Left, []token.TokenType{token.NullishCoalesce}},
	LogicalOr:      {"logical-or", Left, []token.TokenType{token.Or}},
	LogicalAnd:     {"logical-and", Left, []token.TokenType{token.And}},
	BitwiseOr:      {"bitwise-or", Left, []token.TokenType{token.BitwiseOr}},
	BitwiseXor:     {"bitwise-xor", Left, []token.TokenType{token.BitwiseXor}},
	BitwiseAnd:     {"bitwise-and", Left, []token.TokenType{token.BitwiseAnd}},
	Equality:       {"equality", Left, []token.TokenType{token.Equal, token.NotEqual, token.StrictEqual, token.StrictNotEqual}},
	Relational:     {"relational", Left, []token.TokenType{token.LessThan, token.GreaterThan, token.LessThanOrEqual, token.GreaterThanOrEqual, token.Instanceof, token.In}},
	Shift:          {"shift", Left, []token.TokenType{token.LeftShift, token.RightShift, token.UnsignedRightShift}},
	Additive:       {"additive", Left, []token.TokenType{token.Plus, token.Minus}},
	Multiplicative: {"multiplicative", Left, []token.TokenType{token.Asterisk, token.Slash, token.Percent}},
	Exponent:       {"exponent", Right, []token.TokenType{token.Exponent}},
}

// UnaryOperators are the prefix operators. They bind tighter than any level.
var UnaryOperators = map[token.TokenType]bool{
	token.Not:        true,
	token.BitwiseNot: true,
	token.Plus:       true,
	token.Minus:      true,
	token.Typeof:     true,
	token.Void:       true,
	token.Delete:     true,
	token.Await:      true,
}

// UpdateOperators are ++ and --, usable as prefix or postfix.
var UpdateOperators = map[token.TokenType]bool{
	token.Increment: true,
	token.Decrement: true,
}

// StatementKeywords start a dedicated statement rule instead of an expression.
var StatementKeywords = map[token.TokenType]bool{
	token.Var:      true,
	token.Let:      true,
	token.Const:    true,
	token.Function: true,
	token.Return:   true,
	token.If:       true,
	token.While:    true,
	token.For:      true,
	token.Do:       true,
	token.Break:    true,
	token.Continue: true,
	token.Switch:   true,
	token.Throw:    true,
	token.Try:      true,
	token.Import:   true,
	token.Export:   true,
	token.Debugger: true,
}

// Keywords maps reserved words to their token types.
var Keywords = map[string]token.TokenType{}

// Punctuators lists operator and punctuation spellings, longest first, so a
// scan that takes the first match is a longest match.
var Punctuators []string

// PunctuatorTypes maps each punctuator spelling to its token type.
var PunctuatorTypes = map[string]token.TokenType{}

var levelOf = map[token.TokenType]int{}

func init() {
	for typ, s := range token.Spellings {
		if typ.IsKeyword() {
			Keywords[s] = typ
			continue
		}
		Punctuators = append(Punctuators, s)
		PunctuatorTypes[s] = typ
	}
	sort.Slice(Punctuators, func(i, j int) bool {
		if len(Punctuators[i]) != len(Punctuators[j]) {
			return len(Punctuators[i]) > len(Punctuators[j])
		}
		return Punctuators[i] < Punctuators[j]
	})
	for i, lvl := range Levels {
		for _, op := range lvl.Ops {
			levelOf[op] = i
		}
	}
}

// LookupKeyword returns the keyword type for ident, or Identifier.
func LookupKeyword(ident string) token.TokenType {
	if t, ok := Keywords[ident]; ok {
		return t
	}
	return token.Identifier
}

// Precedence returns the level index of a binary, logical, conditional,
// assignment or comma operator.
func Precedence(t token.TokenType) (int, bool) {
	lvl, ok := levelOf[t]
	return lvl, ok
}

// IsAssignment reports whether t is = or a compound assignment.
func IsAssignment(t token.TokenType) bool {
	lvl, ok := levelOf[t]
	return ok && lvl == Assignment
}

// IsLogical reports whether t short-circuits.
func IsLogical(t token.TokenType) bool {
	return t == token.And || t == token.Or || t == token.NullishCoalesce
}

// CompoundOperator returns the binary operator behind a compound assignment:
// "+" for "+=", "&&" for "&&=". Plain "=" returns "".
func CompoundOperator(op string) string {
	if op == "=" || len(op) < 2 {
		return ""
	}
	return op[:len(op)-1]
}
