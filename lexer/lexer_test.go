package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsexpr/token"
)

type lexed struct {
	typ token.TokenType
	lit string
}

func lex(input string) []lexed {
	var out []lexed
	for _, tok := range Tokenize(input) {
		out = append(out, lexed{tok.Type, tok.Literal})
	}
	return out
}

func TestPunctuators(t *testing.T) {
	got := lex(`( ) { } [ ] ; : , ~ ... => ?. ?? ??= ** **= >>>= >>> !== === |> ::`)
	assert.Equal(t, []lexed{
		{token.LeftParen, "("},
		{token.RightParen, ")"},
		{token.LeftBrace, "{"},
		{token.RightBrace, "}"},
		{token.LeftBracket, "["},
		{token.RightBracket, "]"},
		{token.Semicolon, ";"},
		{token.Colon, ":"},
		{token.Comma, ","},
		{token.BitwiseNot, "~"},
		{token.Spread, "..."},
		{token.Arrow, "=>"},
		{token.OptionalChain, "?."},
		{token.NullishCoalesce, "??"},
		{token.NullishAssign, "??="},
		{token.Exponent, "**"},
		{token.ExponentAssign, "**="},
		{token.UnsignedRightShiftAssign, ">>>="},
		{token.UnsignedRightShift, ">>>"},
		{token.StrictNotEqual, "!=="},
		{token.StrictEqual, "==="},
		{token.Pipeline, "|>"},
		{token.DoubleColon, "::"},
		{token.EOF, ""},
	}, got)
}

func TestOptionalChainBeforeDigit(t *testing.T) {
	got := lex(`a?.5:1`)
	assert.Equal(t, []lexed{
		{token.Identifier, "a"},
		{token.QuestionMark, "?"},
		{token.Number, ".5"},
		{token.Colon, ":"},
		{token.Number, "1"},
		{token.EOF, ""},
	}, got)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	got := lex(`let x = typeof y instanceof Z; of async $a _b café`)
	assert.Equal(t, []lexed{
		{token.Let, "let"},
		{token.Identifier, "x"},
		{token.Assign, "="},
		{token.Typeof, "typeof"},
		{token.Identifier, "y"},
		{token.Instanceof, "instanceof"},
		{token.Identifier, "Z"},
		{token.Semicolon, ";"},
		{token.Identifier, "of"},
		{token.Identifier, "async"},
		{token.Identifier, "$a"},
		{token.Identifier, "_b"},
		{token.Identifier, "café"},
		{token.EOF, ""},
	}, got)
}

func TestKeywordAfterDot(t *testing.T) {
	got := lex(`a.new?.class`)
	assert.Equal(t, token.Identifier, got[2].typ)
	assert.Equal(t, token.Identifier, got[4].typ)
}

func TestIdentifierEscape(t *testing.T) {
	toks := Tokenize(`ab \u{62}`)
	assert.Equal(t, "ab", toks[0].Literal)
	assert.Equal(t, "b", toks[1].Literal)
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		input string
		typ   token.TokenType
		lit   string
	}{
		{"42", token.Number, "42"},
		{"3.14", token.Number, "3.14"},
		{".5", token.Number, ".5"},
		{"1e10", token.Number, "1e10"},
		{"2.5E-3", token.Number, "2.5E-3"},
		{"0xff", token.Number, "0xff"},
		{"0o17", token.Number, "0o17"},
		{"0b101", token.Number, "0b101"},
		{"1_000", token.Number, "1_000"},
		{"10n", token.BigInt, "10"},
		{"0x1fn", token.BigInt, "0x1f"},
		{"1e", token.NotSupported, "1e"},
		{"0x", token.NotSupported, "0x"},
		{"3in", token.NotSupported, "3i"},
	}
	for _, c := range cases {
		tok := Tokenize(c.input)[0]
		assert.Equal(t, c.typ, tok.Type, c.input)
		assert.Equal(t, c.lit, tok.Literal, c.input)
	}
}

func TestStrings(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'single'`, "single"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"\x41B\u{43}"`, "ABC"},
		{`"😀"`, "\U0001F600"},
		{`"it\'s"`, "it's"},
		{"\"line\\\ncontinued\"", "linecontinued"},
	}
	for _, c := range cases {
		tok := Tokenize(c.input)[0]
		assert.Equal(t, token.String, tok.Type, c.input)
		assert.Equal(t, c.want, tok.Literal, c.input)
	}
}

func TestMalformedStrings(t *testing.T) {
	for _, input := range []string{`"open`, "\"a\nb\"", `"\xZZ"`, `"\u12"`} {
		assert.Equal(t, token.NotSupported, Tokenize(input)[0].Type, input)
	}
}

func TestTemplates(t *testing.T) {
	got := lex("`a${x}b${ {y} }c`")
	assert.Equal(t, []lexed{
		{token.TemplateHead, "a"},
		{token.Identifier, "x"},
		{token.TemplateMiddle, "b"},
		{token.LeftBrace, "{"},
		{token.Identifier, "y"},
		{token.RightBrace, "}"},
		{token.TemplateTail, "c"},
		{token.EOF, ""},
	}, got)

	toks := Tokenize("`tab\\t`")
	assert.Equal(t, token.NoSubstitutionTemplate, toks[0].Type)
	assert.Equal(t, "tab\t", toks[0].Literal)
	assert.Equal(t, `tab\t`, toks[0].Raw)

	assert.Equal(t, token.NotSupported, Tokenize("`open")[0].Type)
}

func TestNestedTemplate(t *testing.T) {
	got := lex("`a${`b${c}`}d`")
	assert.Equal(t, []lexed{
		{token.TemplateHead, "a"},
		{token.TemplateHead, "b"},
		{token.Identifier, "c"},
		{token.TemplateTail, ""},
		{token.TemplateTail, "d"},
		{token.EOF, ""},
	}, got)
}

func TestRegExpOrDivision(t *testing.T) {
	cases := []struct {
		input string
		want  []token.TokenType
	}{
		{`/ab+c/gi`, []token.TokenType{token.RegExp}},
		{`a / b`, []token.TokenType{token.Identifier, token.Slash, token.Identifier}},
		{`x = /[/]/`, []token.TokenType{token.Identifier, token.Assign, token.RegExp}},
		{`(a) / 2`, []token.TokenType{token.LeftParen, token.Identifier, token.RightParen, token.Slash, token.Number}},
		{`return /x/`, []token.TokenType{token.Return, token.RegExp}},
		{`a++ / 2`, []token.TokenType{token.Identifier, token.Increment, token.Slash, token.Number}},
	}
	for _, c := range cases {
		var got []token.TokenType
		for _, tok := range Tokenize(c.input) {
			if tok.Type != token.EOF {
				got = append(got, tok.Type)
			}
		}
		assert.Equal(t, c.want, got, c.input)
	}

	pattern, flags := SplitRegExp(`/a\/b/gu`)
	assert.Equal(t, `a\/b`, pattern)
	assert.Equal(t, "gu", flags)
}

func TestCommentsAndPositions(t *testing.T) {
	toks := Tokenize("// line\na /* block\nspans */ b\n  c")
	require.Len(t, toks, 4)

	assert.Equal(t, "a", toks[0].Literal)
	assert.Equal(t, 2, toks[0].Line)
	assert.Equal(t, 1, toks[0].Column)
	assert.True(t, toks[0].NewlineBefore)

	assert.Equal(t, "b", toks[1].Literal)
	assert.Equal(t, 3, toks[1].Line)
	assert.True(t, toks[1].NewlineBefore)

	assert.Equal(t, "c", toks[2].Literal)
	assert.Equal(t, 4, toks[2].Line)
	assert.Equal(t, 3, toks[2].Column)

	assert.Equal(t, token.EOF, toks[3].Type)
}

func TestHashbang(t *testing.T) {
	got := lex("#!/usr/bin/env node\nx")
	assert.Equal(t, []lexed{{token.Identifier, "x"}, {token.EOF, ""}}, got)
}

func TestEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t ", "/* only */"} {
		assert.Equal(t, []lexed{{token.EOF, ""}}, lex(input), "%q", input)
	}
}

func TestNotSupportedCharacter(t *testing.T) {
	toks := Tokenize("a @ b")
	assert.Equal(t, token.NotSupported, toks[1].Type)
	assert.Equal(t, "@", toks[1].Literal)
	assert.Equal(t, token.Identifier, toks[2].Type)
}

func TestTokenClass(t *testing.T) {
	cases := map[token.TokenType]token.Category{
		token.Number:          token.ClassNumber,
		token.BigInt:          token.ClassBigInt,
		token.String:          token.ClassString,
		token.TemplateHead:    token.ClassTemplate,
		token.True:            token.ClassBoolean,
		token.Null:            token.ClassNullish,
		token.Undefined:       token.ClassNullish,
		token.Identifier:      token.ClassIdentifier,
		token.Typeof:          token.ClassKeyword,
		token.Plus:            token.ClassOperator,
		token.QuestionMark:    token.ClassOperator,
		token.NullishCoalesce: token.ClassOperator,
		token.LeftParen:       token.ClassPunctuation,
		token.Comma:           token.ClassPunctuation,
		token.RegExp:          token.ClassRegExp,
		token.EOF:             token.ClassEOF,
	}
	for tt, want := range cases {
		assert.Equal(t, want, tt.Class(), tt.String())
	}
	assert.Equal(t, "'+'", token.Plus.String())
	assert.Equal(t, "end of input", token.EOF.String())
}
