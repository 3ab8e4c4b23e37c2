package parser

import (
	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/lexer"
	"github.com/example/jsexpr/runtime"
	"github.com/example/jsexpr/token"
)

// item is one entry of the work buffer: an operand, a binary operator, or a
// conditional tail (? consequent : alternate) that applies to the operand
// before it.
type item struct {
	node  ast.Node
	paren bool
	// unary marks a prefix operator result, folded or not.
	unary bool
	op    token.Token
	level int
	cond  *conditional
}

type conditional struct {
	consequent, alternate ast.Node
}

func (it item) isOperand() bool { return it.node != nil }

// parseExpression parses a full expression, comma sequences included.
func (p *Parser) parseExpression() ast.Node {
	return p.expression(grammar.Comma)
}

// parseAssign parses one assignment expression with 'in' allowed.
func (p *Parser) parseAssign() ast.Node {
	return p.nested(grammar.Assignment)
}

// nested parses inside brackets, where 'in' is always an operator.
func (p *Parser) nested(minLevel int) ast.Node {
	saved := p.noIn
	p.noIn = false
	n := p.expression(minLevel)
	p.noIn = saved
	return n
}

// expression collects operands and operators binding at minLevel or tighter
// and reduces them to a single node.
func (p *Parser) expression(minLevel int) ast.Node {
	buf := []item{p.parseOperand()}
	for {
		tok := p.cur()
		if tok.Type == token.QuestionMark {
			if grammar.Conditional < minLevel {
				break
			}
			p.next()
			cons := p.nested(grammar.Assignment)
			p.expect(token.Colon)
			alt := p.expression(grammar.Assignment)
			buf = append(buf, item{op: tok, level: grammar.Conditional, cond: &conditional{cons, alt}})
			continue
		}
		lvl, ok := grammar.Precedence(tok.Type)
		if !ok || lvl < minLevel || (tok.Type == token.In && p.noIn) {
			break
		}
		p.next()
		buf = append(buf, item{op: tok, level: lvl}, p.parseOperand())
	}
	return p.reduce(buf, minLevel)
}

// reduce folds the buffer one level at a time, tightest first. Each pass
// returns a new, shorter buffer.
func (p *Parser) reduce(buf []item, minLevel int) ast.Node {
	for lvl := len(grammar.Levels) - 1; lvl >= minLevel && len(buf) > 1; lvl-- {
		switch {
		case lvl == grammar.Conditional:
			buf = p.reduceConditional(buf)
		case grammar.Levels[lvl].Assoc == grammar.Right:
			buf = p.reduceRight(buf, lvl)
		default:
			buf = p.reduceLeft(buf, lvl)
		}
	}
	if len(buf) != 1 || !buf[0].isOperand() {
		p.fail("Unexpected token %s", p.cur().Type)
	}
	return buf[0].node
}

func (p *Parser) reduceLeft(buf []item, lvl int) []item {
	out := make([]item, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		it := buf[i]
		if it.isOperand() || it.cond != nil || it.level != lvl {
			out = append(out, it)
			continue
		}
		left := out[len(out)-1]
		right := buf[i+1]
		i++
		out[len(out)-1] = item{node: p.combine(left, it.op, right)}
	}
	return out
}

func (p *Parser) reduceRight(buf []item, lvl int) []item {
	out := make([]item, 0, len(buf))
	for i := len(buf) - 1; i >= 0; i-- {
		it := buf[i]
		if it.isOperand() || it.cond != nil || it.level != lvl {
			out = append(out, it)
			continue
		}
		right := out[len(out)-1]
		left := buf[i-1]
		if !left.isOperand() {
			p.failAt(it.op, "Unexpected token %s", it.op.Type)
		}
		i--
		out[len(out)-1] = item{node: p.combine(left, it.op, right)}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// reduceConditional attaches each conditional tail to the operand before it.
// The alternate was parsed whole, so tails never nest inside one buffer.
func (p *Parser) reduceConditional(buf []item) []item {
	out := make([]item, 0, len(buf))
	for _, it := range buf {
		if it.cond == nil {
			out = append(out, it)
			continue
		}
		test := out[len(out)-1]
		out[len(out)-1] = item{node: &ast.ConditionalExpression{
			Test:       test.node,
			Consequent: it.cond.consequent,
			Alternate:  it.cond.alternate,
		}}
	}
	return out
}

// combine builds the node for left op right.
func (p *Parser) combine(left item, op token.Token, right item) ast.Node {
	lvl, _ := grammar.Precedence(op.Type)
	switch {
	case lvl == grammar.Comma:
		if seq, ok := left.node.(*ast.SequenceExpression); ok && !left.paren {
			seq.Expressions = append(seq.Expressions, right.node)
			return seq
		}
		return &ast.SequenceExpression{Expressions: []ast.Node{left.node, right.node}}
	case lvl == grammar.Assignment:
		target := left.node
		if op.Type == token.Assign {
			target = p.toPattern(target, op)
		} else if !assignable(target) {
			p.failAt(op, "Invalid left-hand side in assignment")
		}
		return &ast.AssignmentExpression{Operator: op.Literal, Left: target, Right: right.node}
	case lvl == grammar.Pipeline:
		return &ast.PipelineExpression{Left: left.node, Right: right.node}
	case grammar.IsLogical(op.Type):
		if op.Type == token.NullishCoalesce && (mixesLogical(left) || mixesLogical(right)) {
			p.failAt(op, "Unexpected token %s", op.Type)
		}
		if op.Type != token.NullishCoalesce && (isNullish(left) || isNullish(right)) {
			p.failAt(op, "Unexpected token %s", op.Type)
		}
		return &ast.LogicalExpression{Operator: op.Literal, Left: left.node, Right: right.node}
	}
	if lvl == grammar.Exponent && left.unary {
		p.failAt(op, "Unary operator used immediately before exponentiation expression. Parenthesis must be used to disambiguate operator precedence")
	}
	return p.foldBinary(&ast.BinaryExpression{Operator: op.Literal, Left: left.node, Right: right.node})
}

// ?? cannot be mixed with || or && without parentheses.
func mixesLogical(it item) bool {
	l, ok := it.node.(*ast.LogicalExpression)
	return ok && !it.paren && l.Operator != "??"
}

func isNullish(it item) bool {
	l, ok := it.node.(*ast.LogicalExpression)
	return ok && !it.paren && l.Operator == "??"
}

func assignable(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Identifier:
		return true
	case *ast.MemberExpression:
		return !n.Optional
	}
	return false
}

// foldBinary replaces an operator over two literals by its result.
func (p *Parser) foldBinary(b *ast.BinaryExpression) ast.Node {
	if !p.fold || b.Operator == "in" || b.Operator == "instanceof" {
		return b
	}
	l, lok := b.Left.(*ast.Literal)
	r, rok := b.Right.(*ast.Literal)
	if !lok || !rok {
		return b
	}
	v, err := runtime.BinaryOp(b.Operator, l.Value, r.Value)
	if err != nil || v.IsObject() {
		return b
	}
	return ast.NewLiteral(v)
}

// parseOperand parses a unary expression: prefix operators, a left-hand side
// expression and an optional postfix update.
func (p *Parser) parseOperand() item {
	tok := p.cur()
	switch {
	case tok.Type == token.Await:
		p.next()
		return item{node: &ast.AwaitExpression{Argument: p.parseOperand().node}, unary: true}
	case grammar.UnaryOperators[tok.Type]:
		p.next()
		arg := p.parseOperand()
		if lit, ok := arg.node.(*ast.Literal); ok && p.fold && tok.Type == token.Minus &&
			lit.Value.Type == runtime.TypeNumber && lit.Value.Number != 0 {
			return item{node: ast.NewLiteral(runtime.NewNumber(-lit.Value.Number)), unary: true}
		}
		return item{node: &ast.UnaryExpression{Operator: tok.Literal, Argument: arg.node}, unary: true}
	case grammar.UpdateOperators[tok.Type]:
		p.next()
		arg := p.parseOperand()
		if !assignable(arg.node) {
			p.failAt(tok, "Invalid left-hand side expression in prefix operation")
		}
		return item{node: &ast.UpdateExpression{Operator: tok.Literal, Prefix: true, Argument: arg.node}}
	case tok.Type == token.Yield:
		return item{node: p.parseYield()}
	}

	n, paren := p.parseLeftHandSide()
	if next := p.cur(); grammar.UpdateOperators[next.Type] && !next.NewlineBefore {
		if !assignable(n) {
			p.failAt(next, "Invalid left-hand side expression in postfix operation")
		}
		p.next()
		return item{node: &ast.UpdateExpression{Operator: next.Literal, Argument: n}}
	}
	return item{node: n, paren: paren}
}

func (p *Parser) parseYield() ast.Node {
	p.next() // consume yield
	y := &ast.YieldExpression{}
	if p.at(token.Asterisk) && !p.cur().NewlineBefore {
		p.next()
		y.Delegate = true
		y.Argument = p.expression(grammar.Assignment)
		return y
	}
	switch p.cur().Type {
	case token.RightParen, token.RightBracket, token.RightBrace, token.Comma,
		token.Semicolon, token.Colon, token.EOF, token.TemplateMiddle, token.TemplateTail:
		return y
	}
	if p.cur().NewlineBefore {
		return y
	}
	y.Argument = p.expression(grammar.Assignment)
	return y
}

// parseLeftHandSide parses a primary or new expression followed by member
// accesses and calls. paren reports a bare parenthesized expression.
func (p *Parser) parseLeftHandSide() (ast.Node, bool) {
	var n ast.Node
	paren := false
	if p.at(token.New) {
		n = p.parseNew()
	} else {
		n, paren = p.parsePrimary()
	}
	out := p.parseCallTail(n, true)
	return out, paren && out == n
}

// parseNew parses new Callee(args). The callee takes member accesses but no
// calls; the arguments are optional.
func (p *Parser) parseNew() ast.Node {
	p.next() // consume new
	var callee ast.Node
	if p.at(token.New) {
		callee = p.parseNew()
	} else {
		callee, _ = p.parsePrimary()
	}
	callee = p.parseCallTail(callee, false)
	n := &ast.NewExpression{Callee: callee}
	if p.at(token.LeftParen) {
		n.Arguments = p.parseArguments()
	}
	return n
}

// parseCallTail applies member accesses, calls, tagged templates and binds.
// With calls false it stops before '(' and optional chains.
func (p *Parser) parseCallTail(n ast.Node, calls bool) ast.Node {
	chain := false
	for {
		tok := p.cur()
		switch tok.Type {
		case token.Dot:
			p.next()
			n = &ast.MemberExpression{Object: n, Property: p.parsePropertyIdentifier()}
		case token.LeftBracket:
			p.next()
			prop := p.nested(grammar.Comma)
			p.expect(token.RightBracket)
			n = &ast.MemberExpression{Object: n, Property: prop, Computed: true}
		case token.NoSubstitutionTemplate, token.TemplateHead:
			if chain {
				p.fail("Invalid tagged template on optional chain")
			}
			n = &ast.TaggedTemplateExpression{Tag: n, Quasi: p.parseTemplate()}
		case token.LeftParen:
			if !calls {
				return n
			}
			n = &ast.CallExpression{Callee: n, Arguments: p.parseArguments()}
		case token.OptionalChain:
			if !calls {
				return n
			}
			p.next()
			chain = true
			switch p.cur().Type {
			case token.LeftParen:
				n = &ast.CallExpression{Callee: n, Arguments: p.parseArguments(), Optional: true}
			case token.LeftBracket:
				p.next()
				prop := p.nested(grammar.Comma)
				p.expect(token.RightBracket)
				n = &ast.MemberExpression{Object: n, Property: prop, Computed: true, Optional: true}
			default:
				n = &ast.MemberExpression{Object: n, Property: p.parsePropertyIdentifier(), Optional: true}
			}
		case token.DoubleColon:
			if !calls {
				return n
			}
			p.next()
			n = &ast.BindExpression{Object: n, Callee: p.parseBindCallee()}
		default:
			if chain {
				return &ast.ChainExpression{Expression: n}
			}
			return n
		}
	}
}

// parseBindCallee parses the function side of obj::fn or ::obj.fn.
func (p *Parser) parseBindCallee() ast.Node {
	callee, _ := p.parsePrimary()
	return p.parseCallTail(callee, false)
}

// parsePropertyIdentifier parses the name after '.' or '?.'. Keywords were
// already retagged as identifiers by the lexer.
func (p *Parser) parsePropertyIdentifier() *ast.Identifier {
	tok := p.cur()
	if tok.Type != token.Identifier {
		p.unexpected()
	}
	p.next()
	return &ast.Identifier{Name: tok.Literal}
}

func (p *Parser) parseArguments() []ast.Node {
	p.expect(token.LeftParen)
	var args []ast.Node
	for !p.at(token.RightParen) {
		if p.at(token.Spread) {
			p.next()
			args = append(args, &ast.SpreadElement{Argument: p.parseAssign()})
		} else {
			args = append(args, p.parseAssign())
		}
		if !p.at(token.RightParen) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightParen)
	return args
}

// parsePrimary parses literals, names, groups and function expressions.
// paren is set for a parenthesized group.
func (p *Parser) parsePrimary() (ast.Node, bool) {
	tok := p.cur()
	switch tok.Type {
	case token.Number:
		p.next()
		f, ok := numberValue(tok.Literal)
		if !ok {
			p.failAt(tok, "Invalid or unexpected token")
		}
		return ast.NewLiteral(runtime.NewNumber(f)), false
	case token.BigInt:
		p.next()
		n, ok := runtime.ParseBigInt(tok.Literal)
		if !ok {
			p.failAt(tok, "Invalid or unexpected token")
		}
		return ast.NewLiteral(runtime.NewBigInt(n)), false
	case token.String:
		p.next()
		return ast.NewLiteral(runtime.NewString(tok.Literal)), false
	case token.True:
		p.next()
		return ast.NewLiteral(runtime.True), false
	case token.False:
		p.next()
		return ast.NewLiteral(runtime.False), false
	case token.Null:
		p.next()
		return ast.NewLiteral(runtime.Null), false
	case token.Undefined:
		p.next()
		return ast.NewLiteral(runtime.Undefined), false
	case token.This:
		p.next()
		return &ast.ThisExpression{}, false
	case token.RegExp:
		p.next()
		pattern, flags := lexer.SplitRegExp(tok.Literal)
		return &ast.RegExpLiteral{Pattern: pattern, Flags: flags}, false
	case token.NoSubstitutionTemplate, token.TemplateHead:
		return p.parseTemplate(), false
	case token.LeftParen:
		if p.arrowAfter(p.pos) {
			return p.parseArrow(p.parseParams(), false), false
		}
		p.next() // consume (
		n := p.nested(grammar.Comma)
		p.expect(token.RightParen)
		return n, true
	case token.LeftBracket:
		return p.parseArray(), false
	case token.LeftBrace:
		return p.parseObject(), false
	case token.Function:
		return p.parseFunction(false, false), false
	case token.DoubleColon:
		p.next()
		return &ast.BindExpression{Callee: p.parseBindCallee()}, false
	case token.Let:
		p.next()
		return &ast.Identifier{Name: tok.Literal}, false
	case token.Identifier:
		return p.parseIdentifierExpression(), false
	case token.Class, token.Super, token.With, token.Import:
		p.fail("'%s' is not supported", tok.Literal)
	}
	p.unexpected()
	return nil, false
}

// parseIdentifierExpression parses a name, an arrow function with a single
// parameter, or one of the async function forms.
func (p *Parser) parseIdentifierExpression() ast.Node {
	tok := p.cur()
	next := p.peek(1)
	if tok.Is("async") && !next.NewlineBefore {
		switch {
		case next.Type == token.Function:
			p.next()
			return p.parseFunction(false, true)
		case next.Type == token.Identifier && p.peek(2).Type == token.Arrow && !p.peek(2).NewlineBefore:
			p.next()
			param := p.next()
			return p.parseArrow([]ast.Node{&ast.Identifier{Name: param.Literal}}, true)
		case next.Type == token.LeftParen && p.arrowAfter(p.pos+1):
			p.next()
			return p.parseArrow(p.parseParams(), true)
		}
	}
	p.next()
	id := &ast.Identifier{Name: tok.Literal}
	if p.at(token.Arrow) && !p.cur().NewlineBefore {
		return p.parseArrow([]ast.Node{id}, false)
	}
	return id
}

func (p *Parser) parseArray() ast.Node {
	p.expect(token.LeftBracket)
	arr := &ast.ArrayExpression{}
	for !p.at(token.RightBracket) {
		switch {
		case p.at(token.Comma):
			p.next()
			arr.Elements = append(arr.Elements, nil)
			continue
		case p.at(token.Spread):
			p.next()
			arr.Elements = append(arr.Elements, &ast.SpreadElement{Argument: p.parseAssign()})
		default:
			arr.Elements = append(arr.Elements, p.parseAssign())
		}
		if !p.at(token.RightBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBracket)
	return arr
}

func (p *Parser) parseTemplate() *ast.TemplateLiteral {
	tok := p.next()
	t := &ast.TemplateLiteral{Quasis: []string{tok.Literal}, Raws: []string{tok.Raw}}
	if tok.Type == token.NoSubstitutionTemplate {
		return t
	}
	for {
		t.Expressions = append(t.Expressions, p.nested(grammar.Comma))
		tok = p.cur()
		switch tok.Type {
		case token.TemplateMiddle:
			p.next()
			t.Quasis = append(t.Quasis, tok.Literal)
			t.Raws = append(t.Raws, tok.Raw)
		case token.TemplateTail:
			p.next()
			t.Quasis = append(t.Quasis, tok.Literal)
			t.Raws = append(t.Raws, tok.Raw)
			return t
		default:
			p.unexpected()
		}
	}
}
