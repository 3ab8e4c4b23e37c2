package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/jsexpr/grammar"
	"github.com/example/jsexpr/token"
)

type Lexer struct {
	input   string
	pos     int // current position in input (points to current char)
	readPos int // current reading position (after current char)
	ch      rune
	line    int
	col     int

	// For template literal interpolation tracking
	braceDepth    int
	templateStack []int // stack of brace depths where template interpolations started

	sawNewline bool
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	if l.ch == '#' && l.peekChar() == '!' {
		l.skipLineComment()
	}
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		l.readPos++
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.ch == 0 && l.pos >= len(l.input)
}

func (l *Lexer) newline() {
	l.line++
	l.col = 0
	l.sawNewline = true
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == '\v' || l.ch == '\f' ||
		l.ch == '\u00a0' || l.ch == '\ufeff' || l.ch == '\u2028' || l.ch == '\u2029' {
		if l.ch == '\n' || l.ch == '\u2028' || l.ch == '\u2029' {
			l.newline()
		}
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	// skip past /*
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '\n' {
			l.newline()
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		l.skipWhitespace()
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}
		break
	}
}

// regexForbiddenAfter lists token types after which '/' is division: the
// previous token ends an operand.
var regexForbiddenAfter = map[token.TokenType]bool{
	token.Identifier:             true,
	token.Number:                 true,
	token.BigInt:                 true,
	token.String:                 true,
	token.RegExp:                 true,
	token.True:                   true,
	token.False:                  true,
	token.Null:                   true,
	token.Undefined:              true,
	token.This:                   true,
	token.Super:                  true,
	token.RightParen:             true,
	token.RightBracket:           true,
	token.Increment:              true,
	token.Decrement:              true,
	token.NoSubstitutionTemplate: true,
	token.TemplateTail:           true,
}

// CanPrecedeRegex reports whether a '/' after a token of type tt starts a
// regular expression literal.
func CanPrecedeRegex(tt token.TokenType) bool {
	return !regexForbiddenAfter[tt]
}

func (l *Lexer) notSupported(start, line, col int) token.Token {
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	return token.Token{Type: token.NotSupported, Literal: l.input[start:end], Line: line, Column: col}
}

// NextToken scans one token. A '/' is read as division.
func (l *Lexer) NextToken() token.Token {
	return l.next(false)
}

// NextTokenWithRegex scans one token, reading a '/' as the start of a
// regular expression when a token of type prevType may precede one.
func (l *Lexer) NextTokenWithRegex(prevType token.TokenType) token.Token {
	return l.next(CanPrecedeRegex(prevType))
}

func (l *Lexer) next(regexAllowed bool) token.Token {
	l.sawNewline = false
	l.skipWhitespaceAndComments()
	tok := l.scan(regexAllowed)
	tok.NewlineBefore = l.sawNewline
	return tok
}

func (l *Lexer) scan(regexAllowed bool) token.Token {
	line := l.line
	col := l.col

	// Check for template middle/tail when closing a template interpolation
	if l.ch == '}' && len(l.templateStack) > 0 && l.braceDepth-1 == l.templateStack[len(l.templateStack)-1] {
		l.templateStack = l.templateStack[:len(l.templateStack)-1]
		return l.readTemplateContinuation(line, col)
	}

	switch {
	case l.atEOF():
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case l.ch == '`':
		return l.readTemplateLiteral(line, col)
	case l.ch == '"' || l.ch == '\'':
		return l.readString(line, col)
	case isDigit(l.ch), l.ch == '.' && isDigit(l.peekChar()):
		return l.readNumber(line, col)
	case isIdentStart(l.ch), l.ch == '\\' && l.peekChar() == 'u':
		return l.readIdentifier(line, col)
	case l.ch == '/' && regexAllowed:
		return l.readRegExp(line, col)
	}

	if tt, lit, ok := l.matchPunctuator(); ok {
		for range lit {
			l.readChar()
		}
		switch tt {
		case token.LeftBrace:
			l.braceDepth++
		case token.RightBrace:
			l.braceDepth--
		}
		return token.Token{Type: tt, Literal: lit, Line: line, Column: col}
	}

	start := l.pos
	l.readChar()
	return l.notSupported(start, line, col)
}

// matchPunctuator tries the punctuator table longest first.
func (l *Lexer) matchPunctuator() (token.TokenType, string, bool) {
	rest := l.input[l.pos:]
	for _, p := range grammar.Punctuators {
		if !strings.HasPrefix(rest, p) {
			continue
		}
		// a?.5:1 is a conditional, not an optional chain
		if p == "?." && len(rest) > 2 && isDigit(rune(rest[2])) {
			continue
		}
		return grammar.PunctuatorTypes[p], p, true
	}
	return 0, "", false
}

func (l *Lexer) readIdentifier(line, col int) token.Token {
	start := l.pos
	var buf strings.Builder
	hasEscape := false

	for isIdentPart(l.ch) || l.ch == '\\' {
		if l.ch == '\\' {
			hasEscape = true
			l.readChar() // consume backslash
			if l.ch != 'u' {
				return l.notSupported(start, line, col)
			}
			l.readChar() // consume 'u'
			r := l.readUnicodeEscape()
			if r < 0 {
				return l.notSupported(start, line, col)
			}
			buf.WriteRune(rune(r))
		} else {
			buf.WriteRune(l.ch)
			l.readChar()
		}
	}

	literal := l.input[start:l.pos]
	if hasEscape {
		literal = buf.String()
	}
	return token.Token{Type: grammar.LookupKeyword(literal), Literal: literal, Line: line, Column: col}
}

func (l *Lexer) readUnicodeEscape() int {
	if l.ch == '{' {
		// \u{XXXX} form
		l.readChar()
		val := 0
		digits := 0
		for l.ch != '}' && !l.atEOF() {
			d := hexVal(l.ch)
			if d < 0 {
				return -1
			}
			val = val*16 + d
			digits++
			l.readChar()
		}
		if l.ch != '}' || digits == 0 || val > 0x10FFFF {
			return -1
		}
		l.readChar() // consume '}'
		return val
	}
	// \uXXXX form (exactly 4 hex digits)
	val := 0
	for i := 0; i < 4; i++ {
		d := hexVal(l.ch)
		if d < 0 {
			return -1
		}
		val = val*16 + d
		l.readChar()
	}
	return val
}

// readEscape decodes one escape sequence after the backslash. It returns
// false on a malformed escape.
func (l *Lexer) readEscape(buf *strings.Builder) bool {
	switch l.ch {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case 'v':
		buf.WriteByte('\v')
	case '0':
		buf.WriteByte(0)
	case 'x':
		l.readChar()
		d1 := hexVal(l.ch)
		l.readChar()
		d2 := hexVal(l.ch)
		if d1 < 0 || d2 < 0 {
			return false
		}
		buf.WriteRune(rune(d1*16 + d2))
	case 'u':
		l.readChar()
		r := l.readUnicodeEscape()
		if r < 0 {
			return false
		}
		// combine a \uD8xx\uDCxx surrogate pair
		if r >= 0xD800 && r <= 0xDBFF && l.ch == '\\' && l.peekChar() == 'u' {
			savedPos, savedReadPos, savedCh, savedCol := l.pos, l.readPos, l.ch, l.col
			l.readChar()
			l.readChar()
			r2 := l.readUnicodeEscape()
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				buf.WriteRune(rune(0x10000 + (r-0xD800)*0x400 + (r2 - 0xDC00)))
				return true
			}
			l.pos, l.readPos, l.ch, l.col = savedPos, savedReadPos, savedCh, savedCol
		}
		buf.WriteRune(rune(r))
		return true
	case '\r':
		if l.peekChar() == '\n' {
			l.readChar()
		}
		l.newline()
	case '\n':
		// line continuation
		l.newline()
	default:
		buf.WriteRune(l.ch)
	}
	l.readChar()
	return true
}

func (l *Lexer) readString(line, col int) token.Token {
	start := l.pos
	quote := l.ch
	l.readChar() // skip opening quote
	var buf strings.Builder

	for l.ch != quote && !l.atEOF() && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			if !l.readEscape(&buf) {
				return l.notSupported(start, line, col)
			}
			continue
		}
		buf.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch != quote {
		return l.notSupported(start, line, col)
	}
	l.readChar() // skip closing quote
	return token.Token{Type: token.String, Literal: buf.String(), Line: line, Column: col}
}

// readNumber scans a numeric literal. Digits followed directly by n form a
// BigInt token whose literal omits the suffix.
func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.pos
	integer := true

	if l.ch == '0' && strings.ContainsRune("xXoObB", l.peekChar()) {
		l.readChar() // 0
		prefix := unicode.ToLower(l.ch)
		l.readChar()
		valid := isHexDigit
		if prefix == 'o' {
			valid = isOctalDigit
		} else if prefix == 'b' {
			valid = func(ch rune) bool { return ch == '0' || ch == '1' }
		}
		if !valid(l.ch) {
			return l.notSupported(start, line, col)
		}
		for valid(l.ch) || l.ch == '_' {
			l.readChar()
		}
	} else {
		// Decimal: integer part
		l.readDecimalDigits()

		// Fractional part
		if l.ch == '.' {
			integer = false
			l.readChar()
			l.readDecimalDigits()
		}

		// Exponent
		if l.ch == 'e' || l.ch == 'E' {
			integer = false
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			if !isDigit(l.ch) {
				return l.notSupported(start, line, col)
			}
			l.readDecimalDigits()
		}
	}

	lit := l.input[start:l.pos]
	if l.ch == 'n' && integer {
		l.readChar()
		return token.Token{Type: token.BigInt, Literal: lit, Line: line, Column: col}
	}
	if isIdentStart(l.ch) {
		// 3in, 1.5px
		l.readChar()
		return l.notSupported(start, line, col)
	}
	return token.Token{Type: token.Number, Literal: lit, Line: line, Column: col}
}

func (l *Lexer) readDecimalDigits() {
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
}

func (l *Lexer) readTemplateLiteral(line, col int) token.Token {
	start := l.pos
	l.readChar() // skip opening backtick
	return l.readTemplatePart(start, line, col, token.NoSubstitutionTemplate, token.TemplateHead)
}

func (l *Lexer) readTemplateContinuation(line, col int) token.Token {
	start := l.pos
	l.readChar() // skip closing }
	l.braceDepth--
	return l.readTemplatePart(start, line, col, token.TemplateTail, token.TemplateMiddle)
}

func (l *Lexer) readTemplatePart(start, line, col int, closed, open token.TokenType) token.Token {
	var buf strings.Builder
	body := l.pos
	for {
		if l.atEOF() {
			return l.notSupported(start, line, col)
		}
		if l.ch == '`' {
			raw := l.input[body:l.pos]
			l.readChar()
			return token.Token{Type: closed, Literal: buf.String(), Raw: raw, Line: line, Column: col}
		}
		if l.ch == '$' && l.peekChar() == '{' {
			raw := l.input[body:l.pos]
			l.readChar() // skip $
			l.readChar() // skip {
			l.templateStack = append(l.templateStack, l.braceDepth)
			l.braceDepth++
			return token.Token{Type: open, Literal: buf.String(), Raw: raw, Line: line, Column: col}
		}
		if l.ch == '\\' {
			l.readChar()
			if !l.readEscape(&buf) {
				return l.notSupported(start, line, col)
			}
			continue
		}
		if l.ch == '\n' {
			l.newline()
		}
		buf.WriteRune(l.ch)
		l.readChar()
	}
}

func (l *Lexer) readRegExp(line, col int) token.Token {
	start := l.pos
	l.readChar() // skip opening /

	inCharClass := false
	for {
		if l.atEOF() || l.ch == '\n' || l.ch == '\r' {
			return l.notSupported(start, line, col)
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() || l.ch == '\n' || l.ch == '\r' {
				return l.notSupported(start, line, col)
			}
			l.readChar()
			continue
		}
		if l.ch == '[' {
			inCharClass = true
		} else if l.ch == ']' {
			inCharClass = false
		}
		if l.ch == '/' && !inCharClass {
			l.readChar()
			break
		}
		l.readChar()
	}

	// Read flags
	for isIdentPart(l.ch) {
		l.readChar()
	}

	return token.Token{Type: token.RegExp, Literal: l.input[start:l.pos], Line: line, Column: col}
}

// SplitRegExp splits a regular expression literal into pattern and flags.
func SplitRegExp(lit string) (pattern, flags string) {
	end := strings.LastIndexByte(lit, '/')
	if end <= 0 {
		return lit, ""
	}
	return lit[1:end], lit[end+1:]
}

// Tokenize returns all tokens from the input, terminated by EOF. Regex
// detection uses the previous token; keywords after '.', '?.' or '::' are
// returned as identifiers.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	prevType := token.EOF // EOF means "start of input" - regex is valid here

	for {
		tok := l.NextTokenWithRegex(prevType)
		if tok.Type.IsKeyword() && (prevType == token.Dot || prevType == token.OptionalChain || prevType == token.DoubleColon) {
			tok.Type = token.Identifier
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
		prevType = tok.Type
	}
	return tokens
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isOctalDigit(ch rune) bool {
	return ch >= '0' && ch <= '7'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch > 127 && unicode.IsLetter(ch))
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '\u200C' || ch == '\u200D'
}

func hexVal(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	default:
		return -1
	}
}
