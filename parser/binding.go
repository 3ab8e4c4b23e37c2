package parser

import (
	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/runtime"
	"github.com/example/jsexpr/token"
)

// parseFunction parses function [*] [name] (params) { body }, with the
// async keyword already consumed when async is set.
func (p *Parser) parseFunction(declaration, async bool) *ast.FunctionExpression {
	p.expect(token.Function)
	fn := &ast.FunctionExpression{Async: async}
	if p.at(token.Asterisk) {
		p.next()
		fn.Generator = true
	}
	if p.at(token.Identifier) {
		fn.ID = &ast.Identifier{Name: p.next().Literal}
	} else if declaration {
		p.fail("Function statements require a function name")
	}
	fn.Params = p.parseParams()
	fn.Body = p.parseFunctionBody()
	return fn
}

func (p *Parser) parseFunctionBody() *ast.BlockStatement {
	p.expect(token.LeftBrace)
	body := &ast.BlockStatement{}
	for !p.at(token.RightBrace) {
		if p.at(token.EOF) {
			p.unexpected()
		}
		body.Body = append(body.Body, p.parseStatement())
	}
	p.expect(token.RightBrace)
	return body
}

// parseParams parses a parenthesized parameter list.
func (p *Parser) parseParams() []ast.Node {
	p.expect(token.LeftParen)
	var params []ast.Node
	for !p.at(token.RightParen) {
		if p.at(token.Spread) {
			p.next()
			params = append(params, &ast.RestElement{Argument: p.parseBindingTarget()})
			if !p.at(token.RightParen) {
				p.fail("Rest parameter must be last formal parameter")
			}
			break
		}
		params = append(params, p.parseBindingElement())
		if !p.at(token.RightParen) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightParen)
	return params
}

// parseArrow parses the arrow and body after the parameters.
func (p *Parser) parseArrow(params []ast.Node, async bool) ast.Node {
	arrow := p.expect(token.Arrow)
	if arrow.NewlineBefore {
		p.failAt(arrow, "Unexpected token %s", arrow.Type)
	}
	fn := &ast.ArrowFunctionExpression{Params: params, Async: async}
	if p.at(token.LeftBrace) {
		fn.Body = p.parseFunctionBody()
	} else {
		fn.Body = p.expression(grammar.Assignment)
	}
	return fn
}

// parseBindingTarget parses a name or a destructuring pattern.
func (p *Parser) parseBindingTarget() ast.Node {
	switch p.cur().Type {
	case token.Identifier, token.Let:
		return &ast.Identifier{Name: p.next().Literal}
	case token.LeftBracket:
		return p.parseArrayPattern()
	case token.LeftBrace:
		return p.parseObjectPattern()
	}
	p.unexpected()
	return nil
}

// parseBindingElement parses a binding target with an optional default.
func (p *Parser) parseBindingElement() ast.Node {
	target := p.parseBindingTarget()
	if !p.at(token.Assign) {
		return target
	}
	p.next()
	return &ast.AssignmentPattern{Left: target, Right: p.parseAssign()}
}

func (p *Parser) parseArrayPattern() ast.Node {
	p.expect(token.LeftBracket)
	pat := &ast.ArrayPattern{}
	for !p.at(token.RightBracket) {
		switch {
		case p.at(token.Comma):
			p.next()
			pat.Elements = append(pat.Elements, nil)
			continue
		case p.at(token.Spread):
			p.next()
			pat.Elements = append(pat.Elements, &ast.RestElement{Argument: p.parseBindingTarget()})
			if !p.at(token.RightBracket) {
				p.fail("Rest element must be last element")
			}
			continue
		}
		pat.Elements = append(pat.Elements, p.parseBindingElement())
		if !p.at(token.RightBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBracket)
	return pat
}

func (p *Parser) parseObjectPattern() ast.Node {
	p.expect(token.LeftBrace)
	pat := &ast.ObjectPattern{}
	for !p.at(token.RightBrace) {
		if p.at(token.Spread) {
			p.next()
			tok := p.expect(token.Identifier)
			pat.Properties = append(pat.Properties, &ast.RestElement{Argument: &ast.Identifier{Name: tok.Literal}})
			if !p.at(token.RightBrace) {
				p.fail("Rest element must be last element")
			}
			continue
		}
		keyTok := p.cur()
		key, computed := p.parsePropertyKey()
		prop := &ast.Property{Key: key, Kind: ast.PropertyInit, Computed: computed}
		if p.at(token.Colon) {
			p.next()
			prop.Value = p.parseBindingElement()
		} else {
			id, ok := key.(*ast.Identifier)
			if !ok || computed || keyTok.Type != token.Identifier {
				p.failAt(keyTok, "Unexpected token %s", keyTok.Type)
			}
			prop.Shorthand = true
			prop.Value = &ast.Identifier{Name: id.Name}
			if p.at(token.Assign) {
				p.next()
				prop.Value = &ast.AssignmentPattern{Left: prop.Value, Right: p.parseAssign()}
			}
		}
		pat.Properties = append(pat.Properties, prop)
		if !p.at(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)
	return pat
}

// parsePropertyKey parses an identifier, keyword, string, number or
// [computed] key.
func (p *Parser) parsePropertyKey() (ast.Node, bool) {
	tok := p.cur()
	switch {
	case tok.Type == token.LeftBracket:
		p.next()
		key := p.parseAssign()
		p.expect(token.RightBracket)
		return key, true
	case tok.Type == token.String:
		p.next()
		return ast.NewLiteral(runtime.NewString(tok.Literal)), false
	case tok.Type == token.Number:
		p.next()
		f, ok := numberValue(tok.Literal)
		if !ok {
			p.failAt(tok, "Invalid or unexpected token")
		}
		return ast.NewLiteral(runtime.NewNumber(f)), false
	case tok.Type == token.Identifier, tok.Type.IsKeyword():
		p.next()
		return &ast.Identifier{Name: tok.Literal}, false
	}
	p.unexpected()
	return nil, false
}

// startsKey reports whether tok can begin a property key, which tells
// get, set and async prefixes apart from plain keys of those names.
func startsKey(tok token.Token) bool {
	switch tok.Type {
	case token.Identifier, token.String, token.Number, token.LeftBracket, token.Asterisk:
		return true
	}
	return tok.Type.IsKeyword()
}

func (p *Parser) parseObject() ast.Node {
	p.expect(token.LeftBrace)
	obj := &ast.ObjectExpression{}
	for !p.at(token.RightBrace) {
		obj.Properties = append(obj.Properties, p.parseObjectMember(obj))
		if !p.at(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)
	return obj
}

func (p *Parser) parseObjectMember(obj *ast.ObjectExpression) ast.Node {
	if p.at(token.Spread) {
		p.next()
		return &ast.SpreadElement{Argument: p.parseAssign()}
	}

	// get x() {}, set x(v) {}
	if (p.atWord("get") || p.atWord("set")) && startsKey(p.peek(1)) && p.peek(1).Type != token.Asterisk {
		kind := ast.PropertyKind(p.next().Literal)
		key, computed := p.parsePropertyKey()
		fn := &ast.FunctionExpression{Params: p.parseParams(), Body: p.parseFunctionBody()}
		return &ast.Property{Key: key, Value: fn, Kind: kind, Computed: computed}
	}

	fn := &ast.FunctionExpression{}
	method := false
	if p.atWord("async") && startsKey(p.peek(1)) && !p.peek(1).NewlineBefore {
		p.next()
		fn.Async = true
		method = true
	}
	if p.at(token.Asterisk) {
		p.next()
		fn.Generator = true
		method = true
	}

	keyTok := p.cur()
	key, computed := p.parsePropertyKey()
	prop := &ast.Property{Key: key, Kind: ast.PropertyInit, Computed: computed}
	switch {
	case p.at(token.LeftParen):
		fn.Params = p.parseParams()
		fn.Body = p.parseFunctionBody()
		prop.Value = fn
		prop.Method = true
		return prop
	case method:
		p.unexpected()
	case p.at(token.Colon):
		p.next()
		prop.Value = p.parseAssign()
		return prop
	}

	// shorthand
	id, ok := key.(*ast.Identifier)
	if !ok || computed || keyTok.Type != token.Identifier {
		p.unexpected()
	}
	prop.Shorthand = true
	prop.Value = &ast.Identifier{Name: id.Name}
	if p.at(token.Assign) {
		tok := p.next()
		prop.Value = &ast.AssignmentExpression{Operator: "=", Left: prop.Value, Right: p.parseAssign()}
		if _, seen := p.coverInit[obj]; !seen {
			p.coverInit[obj] = tok
		}
	}
	return prop
}
