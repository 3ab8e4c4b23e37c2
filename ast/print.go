package ast

import (
	"strings"

	"github.com/example/jsexpr/grammar"
)

// Binding strength above the binary levels of grammar.Levels.
const (
	precUnary = grammar.Exponent + 1 + iota
	precPostfix
	precCall
	precPrimary
)

// operatorLevel maps a binary, logical or assignment operator spelling to its
// grammar level.
func operatorLevel(op string) int {
	if t, ok := grammar.PunctuatorTypes[op]; ok {
		if lvl, ok := grammar.Precedence(t); ok {
			return lvl
		}
	}
	if t, ok := grammar.Keywords[op]; ok {
		if lvl, ok := grammar.Precedence(t); ok {
			return lvl
		}
	}
	return precPrimary
}

// precedence returns how tightly n binds when printed.
func precedence(n Node) int {
	switch n := n.(type) {
	case *SequenceExpression:
		return grammar.Comma
	case *AssignmentExpression, *ArrowFunctionExpression, *YieldExpression:
		return grammar.Assignment
	case *ConditionalExpression:
		return grammar.Conditional
	case *PipelineExpression:
		return grammar.Pipeline
	case *BinaryExpression:
		return operatorLevel(n.Operator)
	case *LogicalExpression:
		return operatorLevel(n.Operator)
	case *UnaryExpression, *AwaitExpression:
		return precUnary
	case *UpdateExpression:
		if n.Prefix {
			return precUnary
		}
		return precPostfix
	case *MemberExpression, *CallExpression, *NewExpression, *ChainExpression,
		*TaggedTemplateExpression, *BindExpression:
		return precCall
	}
	return precPrimary
}

// wrap prints n, parenthesized when it binds looser than min.
func wrap(n Node, min int) string {
	if n == nil {
		return ""
	}
	if precedence(n) < min {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// wrapBase prints the object or callee of a member, call or tagged template.
// An optional chain there keeps its parentheses: (a?.b).c is not a?.b.c.
func wrapBase(n Node) string {
	if _, ok := n.(*ChainExpression); ok {
		return "(" + n.String() + ")"
	}
	return wrap(n, precCall)
}

// binaryOperands prints both sides of a binary operator at level lvl.
func binaryOperands(left Node, op string, right Node, lvl int) string {
	l, r := lvl, lvl+1
	if grammar.Levels[lvl].Assoc == grammar.Right {
		l, r = lvl+1, lvl
	}
	if lvl == grammar.Exponent && precedence(left) == precUnary {
		// -2 ** 2 does not parse
		l = precPostfix
	}
	return wrap(left, l) + " " + op + " " + wrap(right, r)
}

// joinArgs prints a comma separated list whose items are assignment
// expressions. Nil items print empty, as array holes do.
func joinArgs(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = wrap(n, grammar.Assignment)
	}
	return strings.Join(parts, ", ")
}
