package parser

import (
	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/token"
)

func (p *Parser) parseStatement() ast.Node {
	tok := p.cur()
	switch tok.Type {
	case token.LeftBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.next()
		return &ast.EmptyStatement{}
	case token.Var, token.Const:
		return p.parseVariableStatement()
	case token.Let:
		if p.letDeclaration() {
			return p.parseVariableStatement()
		}
	case token.Function:
		return &ast.FunctionDeclaration{FunctionExpression: *p.parseFunction(true, false)}
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Do:
		return p.parseDoWhile()
	case token.For:
		return p.parseFor()
	case token.Return:
		return p.parseReturn()
	case token.Break, token.Continue:
		return p.parseJump()
	case token.Throw:
		return p.parseThrow()
	case token.Try:
		return p.parseTry()
	case token.Switch:
		return p.parseSwitch()
	case token.Debugger:
		p.next()
		p.consumeSemicolon()
		return &ast.DebuggerStatement{}
	case token.Import:
		if p.peek(1).Type != token.LeftParen && p.peek(1).Type != token.Dot {
			return p.parseImport()
		}
	case token.Export:
		return p.parseExport()
	case token.Class:
		p.fail("'class' is not supported")
	case token.Identifier:
		if tok.Is("async") && p.peek(1).Type == token.Function && !p.peek(1).NewlineBefore {
			p.next()
			return &ast.FunctionDeclaration{FunctionExpression: *p.parseFunction(true, true)}
		}
		if p.peek(1).Type == token.Colon {
			return p.parseLabeled()
		}
	}

	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Expression: expr}
}

// letDeclaration tells let x from an expression using a variable named let.
func (p *Parser) letDeclaration() bool {
	switch p.peek(1).Type {
	case token.Identifier, token.LeftBracket, token.LeftBrace, token.Let:
		return true
	}
	return false
}

func (p *Parser) parseBlock() *ast.BlockStatement {
	p.expect(token.LeftBrace)
	block := &ast.BlockStatement{}
	for !p.at(token.RightBrace) {
		if p.at(token.EOF) {
			p.unexpected()
		}
		block.Body = append(block.Body, p.parseStatement())
	}
	p.next() // consume }
	return block
}

func (p *Parser) parseVariableStatement() ast.Node {
	decl := p.parseVariableDeclaration(false)
	p.consumeSemicolon()
	return decl
}

// parseVariableDeclaration parses var, let or const declarators. In a for
// head the initializers may be left out; the loop parser checks the rest.
func (p *Parser) parseVariableDeclaration(inFor bool) *ast.VariableDeclaration {
	kind := p.next()
	decl := &ast.VariableDeclaration{Kind: kind.Literal}
	for {
		d := &ast.VariableDeclarator{ID: p.parseBindingTarget()}
		if p.at(token.Assign) {
			p.next()
			d.Init = p.expression(grammar.Assignment)
		} else if !inFor {
			p.checkInitializer(decl.Kind, d)
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.at(token.Comma) {
			return decl
		}
		p.next()
	}
}

func (p *Parser) checkInitializer(kind string, d *ast.VariableDeclarator) {
	if d.Init != nil {
		return
	}
	if kind == "const" {
		p.fail("Missing initializer in const declaration")
	}
	if _, ok := d.ID.(*ast.Identifier); !ok {
		p.fail("Missing initializer in destructuring declaration")
	}
}

func (p *Parser) parseIf() ast.Node {
	p.next() // consume if
	p.expect(token.LeftParen)
	n := &ast.IfStatement{Test: p.nested(grammar.Comma)}
	p.expect(token.RightParen)
	n.Consequent = p.parseStatement()
	if p.at(token.Else) {
		p.next()
		n.Alternate = p.parseStatement()
	}
	return n
}

func (p *Parser) parseWhile() ast.Node {
	p.next() // consume while
	p.expect(token.LeftParen)
	n := &ast.WhileStatement{Test: p.nested(grammar.Comma)}
	p.expect(token.RightParen)
	n.Body = p.parseStatement()
	return n
}

func (p *Parser) parseDoWhile() ast.Node {
	p.next() // consume do
	n := &ast.DoWhileStatement{Body: p.parseStatement()}
	p.expect(token.While)
	p.expect(token.LeftParen)
	n.Test = p.nested(grammar.Comma)
	p.expect(token.RightParen)
	// the semicolon after do-while is always optional
	if p.at(token.Semicolon) {
		p.next()
	}
	return n
}

func (p *Parser) parseFor() ast.Node {
	forTok := p.next()
	await := false
	if p.at(token.Await) {
		p.next()
		await = true
	}
	p.expect(token.LeftParen)

	var init ast.Node
	var decl *ast.VariableDeclaration
	saved := p.noIn
	p.noIn = true
	switch {
	case p.at(token.Semicolon):
	case p.at(token.Var), p.at(token.Const), p.at(token.Let) && p.letDeclaration():
		decl = p.parseVariableDeclaration(true)
		init = decl
	default:
		init = p.expression(grammar.Comma)
	}
	p.noIn = saved

	if init != nil && (p.at(token.In) || p.atWord("of")) {
		of := p.atWord("of")
		opTok := p.next()
		left := init
		if decl != nil {
			if len(decl.Declarations) != 1 {
				p.failAt(opTok, "Invalid left-hand side in for-%s loop: Must have a single binding.", opTok.Literal)
			}
			if decl.Declarations[0].Init != nil {
				p.failAt(opTok, "for-%s loop variable declaration may not have an initializer.", opTok.Literal)
			}
		} else {
			left = p.toPattern(init, opTok)
		}
		var right ast.Node
		if of {
			right = p.parseAssign()
		} else {
			right = p.nested(grammar.Comma)
		}
		p.expect(token.RightParen)
		body := p.parseStatement()
		if of {
			return &ast.ForOfStatement{Left: left, Right: right, Body: body, Await: await}
		}
		if await {
			p.failAt(forTok, "for await requires an of clause")
		}
		return &ast.ForInStatement{Left: left, Right: right, Body: body}
	}
	if await {
		p.failAt(forTok, "for await requires an of clause")
	}
	if decl != nil {
		for _, d := range decl.Declarations {
			p.checkInitializer(decl.Kind, d)
		}
	}

	n := &ast.ForStatement{Init: init}
	p.expect(token.Semicolon)
	if !p.at(token.Semicolon) {
		n.Test = p.nested(grammar.Comma)
	}
	p.expect(token.Semicolon)
	if !p.at(token.RightParen) {
		n.Update = p.nested(grammar.Comma)
	}
	p.expect(token.RightParen)
	n.Body = p.parseStatement()
	return n
}

// endsStatement reports whether an optional operand is absent: return,
// break and continue stop at a line break.
func (p *Parser) endsStatement() bool {
	switch p.cur().Type {
	case token.Semicolon, token.RightBrace, token.EOF:
		return true
	}
	return p.cur().NewlineBefore
}

func (p *Parser) parseReturn() ast.Node {
	p.next() // consume return
	n := &ast.ReturnStatement{}
	if !p.endsStatement() {
		n.Argument = p.parseExpression()
	}
	p.consumeSemicolon()
	return n
}

func (p *Parser) parseJump() ast.Node {
	tok := p.next()
	label := ""
	if p.at(token.Identifier) && !p.cur().NewlineBefore {
		label = p.next().Literal
	}
	p.consumeSemicolon()
	if tok.Type == token.Break {
		return &ast.BreakStatement{Label: label}
	}
	return &ast.ContinueStatement{Label: label}
}

func (p *Parser) parseThrow() ast.Node {
	p.next() // consume throw
	if p.cur().NewlineBefore {
		p.fail("Illegal newline after throw")
	}
	n := &ast.ThrowStatement{Argument: p.parseExpression()}
	p.consumeSemicolon()
	return n
}

func (p *Parser) parseTry() ast.Node {
	tryTok := p.next()
	n := &ast.TryStatement{Block: p.parseBlock()}
	if p.at(token.Catch) {
		p.next()
		c := &ast.CatchClause{}
		if p.at(token.LeftParen) {
			p.next()
			c.Param = p.parseBindingTarget()
			p.expect(token.RightParen)
		}
		c.Body = p.parseBlock()
		n.Handler = c
	}
	if p.at(token.Finally) {
		p.next()
		n.Finalizer = p.parseBlock()
	}
	if n.Handler == nil && n.Finalizer == nil {
		p.failAt(tryTok, "Missing catch or finally after try")
	}
	return n
}

func (p *Parser) parseSwitch() ast.Node {
	p.next() // consume switch
	p.expect(token.LeftParen)
	n := &ast.SwitchStatement{Discriminant: p.nested(grammar.Comma)}
	p.expect(token.RightParen)
	p.expect(token.LeftBrace)
	seenDefault := false
	for !p.at(token.RightBrace) {
		c := &ast.SwitchCase{}
		switch tok := p.cur(); tok.Type {
		case token.Case:
			p.next()
			c.Test = p.nested(grammar.Comma)
		case token.Default:
			if seenDefault {
				p.fail("More than one default clause in switch statement")
			}
			seenDefault = true
			p.next()
		default:
			p.unexpected()
		}
		p.expect(token.Colon)
		for !p.at(token.Case) && !p.at(token.Default) && !p.at(token.RightBrace) {
			if p.at(token.EOF) {
				p.unexpected()
			}
			c.Consequent = append(c.Consequent, p.parseStatement())
		}
		n.Cases = append(n.Cases, c)
	}
	p.next() // consume }
	return n
}

func (p *Parser) parseLabeled() ast.Node {
	label := p.next().Literal
	p.expect(token.Colon)
	if p.at(token.Function) {
		p.fail("Labeled function declarations are not supported")
	}
	return &ast.LabeledStatement{Label: label, Body: p.parseStatement()}
}

// moduleName parses a specifier name, where keywords such as default are
// allowed.
func (p *Parser) moduleName() string {
	tok := p.cur()
	if tok.Type != token.Identifier && !tok.Type.IsKeyword() {
		p.unexpected()
	}
	p.next()
	return tok.Literal
}

func (p *Parser) moduleSource() string {
	return p.expect(token.String).Literal
}

func (p *Parser) parseImport() ast.Node {
	p.next() // consume import
	n := &ast.ImportDeclaration{}
	if p.at(token.String) {
		n.Source = p.moduleSource()
		p.consumeSemicolon()
		return n
	}
	if p.at(token.Identifier) {
		n.Specifiers = append(n.Specifiers, &ast.ImportSpecifier{Kind: ast.ImportDefault, Local: p.next().Literal})
		if !p.at(token.Comma) {
			p.expectWord("from")
			n.Source = p.moduleSource()
			p.consumeSemicolon()
			return n
		}
		p.next()
	}
	switch {
	case p.at(token.Asterisk):
		p.next()
		p.expectWord("as")
		local := p.expect(token.Identifier).Literal
		n.Specifiers = append(n.Specifiers, &ast.ImportSpecifier{Kind: ast.ImportNamespace, Local: local})
	case p.at(token.LeftBrace):
		p.next()
		for !p.at(token.RightBrace) {
			imported := p.moduleName()
			local := imported
			if p.atWord("as") {
				p.next()
				local = p.expect(token.Identifier).Literal
			}
			n.Specifiers = append(n.Specifiers, &ast.ImportSpecifier{Kind: ast.ImportNamed, Imported: imported, Local: local})
			if !p.at(token.RightBrace) {
				p.expect(token.Comma)
			}
		}
		p.next() // consume }
	default:
		p.unexpected()
	}
	p.expectWord("from")
	n.Source = p.moduleSource()
	p.consumeSemicolon()
	return n
}

func (p *Parser) parseExport() ast.Node {
	p.next() // consume export
	switch tok := p.cur(); {
	case tok.Type == token.Default:
		p.next()
		return p.parseExportDefault()
	case tok.Type == token.Asterisk:
		p.next()
		n := &ast.ExportAllDeclaration{}
		if p.atWord("as") {
			p.next()
			n.Exported = p.moduleName()
		}
		p.expectWord("from")
		n.Source = p.moduleSource()
		p.consumeSemicolon()
		return n
	case tok.Type == token.LeftBrace:
		p.next()
		n := &ast.ExportNamedDeclaration{Specifiers: []*ast.ExportSpecifier{}}
		for !p.at(token.RightBrace) {
			local := p.moduleName()
			exported := local
			if p.atWord("as") {
				p.next()
				exported = p.moduleName()
			}
			n.Specifiers = append(n.Specifiers, &ast.ExportSpecifier{Local: local, Exported: exported})
			if !p.at(token.RightBrace) {
				p.expect(token.Comma)
			}
		}
		p.next() // consume }
		if p.atWord("from") {
			p.next()
			n.Source = p.moduleSource()
		}
		p.consumeSemicolon()
		return n
	case tok.Type == token.Var, tok.Type == token.Const, tok.Type == token.Let:
		return &ast.ExportNamedDeclaration{Declaration: p.parseVariableStatement()}
	case tok.Type == token.Function:
		return &ast.ExportNamedDeclaration{Declaration: &ast.FunctionDeclaration{FunctionExpression: *p.parseFunction(true, false)}}
	case tok.Is("async") && p.peek(1).Type == token.Function:
		p.next()
		return &ast.ExportNamedDeclaration{Declaration: &ast.FunctionDeclaration{FunctionExpression: *p.parseFunction(true, true)}}
	}
	p.unexpected()
	return nil
}

func (p *Parser) parseExportDefault() ast.Node {
	async := p.atWord("async") && p.peek(1).Type == token.Function && !p.peek(1).NewlineBefore
	if async {
		p.next()
	}
	if p.at(token.Function) {
		fn := p.parseFunction(false, async)
		return &ast.ExportDefaultDeclaration{Declaration: &ast.FunctionDeclaration{FunctionExpression: *fn}}
	}
	n := &ast.ExportDefaultDeclaration{Declaration: p.parseAssign()}
	p.consumeSemicolon()
	return n
}
