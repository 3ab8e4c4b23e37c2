// Package parser turns token lists into ast trees. Operator expressions are
// parsed by collecting a flat buffer of operands and operators and reducing
// it one precedence level at a time, following grammar.Levels.
package parser

import (
	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/lexer"
	"github.com/example/jsexpr/token"
)

// Option configures a Parser.
type Option func(*Parser)

// WithConstantFolding turns folding of literal-only binary expressions on or
// off. It is on by default.
func WithConstantFolding(on bool) Option {
	return func(p *Parser) { p.fold = on }
}

// Parser holds the token list and the read position. A Parser is used for a
// single parse.
type Parser struct {
	tokens []token.Token
	pos    int
	fold   bool
	// noIn stops the expression buffer at 'in', for for-in heads.
	noIn bool
	// coverInit records object literals holding {a = 1} shorthands. They are
	// only valid once converted to patterns.
	coverInit map[*ast.ObjectExpression]token.Token
}

// New returns a parser over tokens, which must end with an EOF token.
func New(tokens []token.Token, opts ...Option) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	p := &Parser{
		tokens:    tokens,
		fold:      true,
		coverInit: make(map[*ast.ObjectExpression]token.Token),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a single expression. Comma sequences are allowed and a
// trailing semicolon is tolerated.
func Parse(src string, opts ...Option) (ast.Node, error) {
	return New(lexer.Tokenize(src), opts...).ParseExpression()
}

// ParseProgram parses a list of statements.
func ParseProgram(src string, opts ...Option) (*ast.Program, error) {
	return New(lexer.Tokenize(src), opts...).ParseProgram()
}

// ParseExpression parses the whole token list as one expression.
func (p *Parser) ParseExpression() (n ast.Node, err error) {
	defer p.recover(&err)
	n = p.parseExpression()
	if p.at(token.Semicolon) {
		p.next()
	}
	if !p.at(token.EOF) {
		p.unexpected()
	}
	p.checkCoverInit()
	return n, nil
}

// ParseProgram parses the whole token list as a program.
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer p.recover(&err)
	prog = &ast.Program{}
	for !p.at(token.EOF) {
		stmt := p.parseStatement()
		switch stmt.(type) {
		case *ast.ImportDeclaration, *ast.ExportNamedDeclaration,
			*ast.ExportDefaultDeclaration, *ast.ExportAllDeclaration:
			prog.Module = true
		}
		prog.Body = append(prog.Body, stmt)
	}
	p.checkCoverInit()
	return prog, nil
}

// bailout carries the first syntax error up to the entry point.
type bailout struct {
	err *errors.SyntaxError
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

// fail aborts the parse with a syntax error at tok.
func (p *Parser) failAt(tok token.Token, format string, args ...interface{}) {
	near := tok.Literal
	if near == "" && tok.Type != token.EOF {
		near = token.Spellings[tok.Type]
	}
	panic(bailout{&errors.SyntaxError{
		Msg:    errors.Errorf(format, args...).Error(),
		Near:   near,
		Line:   tok.Line,
		Column: tok.Column,
	}})
}

func (p *Parser) fail(format string, args ...interface{}) {
	p.failAt(p.cur(), format, args...)
}

func (p *Parser) unexpected() {
	tok := p.cur()
	switch tok.Type {
	case token.EOF:
		p.fail("Unexpected end of input")
	case token.NotSupported:
		p.fail("Invalid or unexpected token")
	}
	p.fail("Unexpected token %s", tok.Type)
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) at(t token.TokenType) bool {
	return p.tokens[p.pos].Type == t
}

// atWord reports whether the current token is the contextual word w.
func (p *Parser) atWord(w string) bool {
	return p.cur().Is(w)
}

func (p *Parser) next() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t token.TokenType) token.Token {
	if !p.at(t) {
		if p.at(token.EOF) || p.at(token.NotSupported) {
			p.unexpected()
		}
		p.fail("Unexpected token %s, expected %s", p.cur().Type, t)
	}
	return p.next()
}

func (p *Parser) expectWord(w string) {
	if !p.atWord(w) {
		p.fail("Unexpected token %s, expected '%s'", p.cur().Type, w)
	}
	p.next()
}

// consumeSemicolon applies automatic semicolon insertion: a statement ends at
// ';', before '}', at the end of input or at a line break.
func (p *Parser) consumeSemicolon() {
	switch {
	case p.at(token.Semicolon):
		p.next()
	case p.at(token.RightBrace), p.at(token.EOF), p.cur().NewlineBefore:
	default:
		p.unexpected()
	}
}

// matching returns the index of the token closing the bracket at index open.
func (p *Parser) matching(open int) int {
	depth := 0
	for i := open; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LeftParen, token.LeftBracket, token.LeftBrace:
			depth++
		case token.RightParen, token.RightBracket, token.RightBrace:
			depth--
			if depth == 0 {
				return i
			}
		case token.EOF:
			return -1
		}
	}
	return -1
}

// arrowAfter reports whether the parenthesis at index open closes right
// before an arrow on the same line.
func (p *Parser) arrowAfter(open int) bool {
	end := p.matching(open)
	if end < 0 || end+1 >= len(p.tokens) {
		return false
	}
	next := p.tokens[end+1]
	return next.Type == token.Arrow && !next.NewlineBefore
}

func (p *Parser) checkCoverInit() {
	for _, tok := range p.coverInit {
		p.failAt(tok, "Invalid shorthand property initializer")
	}
}

// converted forgets the cover initializers of literals that became patterns.
func (p *Parser) converted(n ast.Node) {
	switch n := n.(type) {
	case *ast.ObjectExpression:
		delete(p.coverInit, n)
		for _, prop := range n.Properties {
			switch prop := prop.(type) {
			case *ast.Property:
				p.converted(prop.Value)
			case *ast.SpreadElement:
				p.converted(prop.Argument)
			}
		}
	case *ast.ArrayExpression:
		for _, el := range n.Elements {
			p.converted(el)
		}
	case *ast.SpreadElement:
		p.converted(n.Argument)
	case *ast.AssignmentExpression:
		p.converted(n.Left)
	}
}

// toPattern converts an assignment or loop target, failing on anything that
// cannot be assigned to.
func (p *Parser) toPattern(n ast.Node, at token.Token) ast.Node {
	switch n.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		return n
	case *ast.ArrayExpression, *ast.ObjectExpression:
		pat, err := ast.ToPattern(n)
		if err != nil {
			p.failAt(at, "Invalid destructuring assignment target")
		}
		p.converted(n)
		return pat
	}
	p.failAt(at, "Invalid left-hand side in assignment")
	return nil
}
