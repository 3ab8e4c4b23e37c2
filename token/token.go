package token

type TokenType int

const (
	// Literals
	NotSupported TokenType = iota
	EOF
	Identifier
	Number
	BigInt
	String
	RegExp

	// Operators
	Plus
	Minus
	Asterisk
	Slash
	Percent
	Exponent // **
	Assign
	PlusAssign
	MinusAssign
	AsteriskAssign
	SlashAssign
	PercentAssign
	ExponentAssign
	AmpersandAssign
	PipeAssign
	CaretAssign
	LeftShiftAssign
	RightShiftAssign
	UnsignedRightShiftAssign
	NullishAssign // ??=
	AndAssign     // &&=
	OrAssign      // ||=
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Not
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	BitwiseNot
	LeftShift
	RightShift
	UnsignedRightShift
	Increment
	Decrement
	Pipeline    // |>
	DoubleColon // ::

	// Delimiters
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Colon
	Comma
	Dot
	Spread // ...
	Arrow  // =>
	QuestionMark
	OptionalChain   // ?.
	NullishCoalesce // ??

	// Keywords
	Var
	Let
	Const
	Function
	Return
	If
	Else
	While
	For
	Do
	Break
	Continue
	Switch
	Case
	Default
	Throw
	Try
	Catch
	Finally
	New
	Delete
	Typeof
	Void
	In
	Instanceof
	This
	Class
	Extends
	Super
	Import
	Export
	Yield
	Await
	True
	False
	Null
	Undefined
	Debugger
	With

	// Template literal parts
	TemplateHead
	TemplateMiddle
	TemplateTail
	NoSubstitutionTemplate
)

type Token struct {
	Type    TokenType
	Literal string
	// Raw is the uncooked source of a template part, escapes left as written.
	Raw    string
	Line   int
	Column int
	// NewlineBefore is set when a line terminator separates this token from
	// the previous one.
	NewlineBefore bool
}

// Is reports whether the token is an identifier spelled lit. Contextual words
// such as of, as, from, async, get and set are plain identifiers.
func (t Token) Is(lit string) bool {
	return t.Type == Identifier && t.Literal == lit
}

// Category is the coarse class of a token.
type Category int

const (
	ClassNotSupported Category = iota
	ClassEOF
	ClassNumber
	ClassBigInt
	ClassString
	ClassTemplate
	ClassBoolean
	ClassNullish
	ClassIdentifier
	ClassKeyword
	ClassOperator
	ClassPunctuation
	ClassRegExp
)

var classNames = [...]string{
	ClassNotSupported: "NOT_SUPPORTED",
	ClassEOF:          "EOF",
	ClassNumber:       "NUMBER",
	ClassBigInt:       "BIGINT",
	ClassString:       "STRING",
	ClassTemplate:     "TEMPLATE",
	ClassBoolean:      "BOOLEAN",
	ClassNullish:      "NULLISH",
	ClassIdentifier:   "IDENTIFIER",
	ClassKeyword:      "KEYWORD",
	ClassOperator:     "OPERATOR",
	ClassPunctuation:  "PUNCTUATION",
	ClassRegExp:       "REGEXP",
}

func (c Category) String() string {
	return classNames[c]
}

// Class returns the coarse category of t.
func (t TokenType) Class() Category {
	switch {
	case t == NotSupported:
		return ClassNotSupported
	case t == EOF:
		return ClassEOF
	case t == Number:
		return ClassNumber
	case t == BigInt:
		return ClassBigInt
	case t == String:
		return ClassString
	case t == RegExp:
		return ClassRegExp
	case t == Identifier:
		return ClassIdentifier
	case t == True || t == False:
		return ClassBoolean
	case t == Null || t == Undefined:
		return ClassNullish
	case t >= TemplateHead:
		return ClassTemplate
	case t >= Var:
		return ClassKeyword
	case t >= LeftParen && t != QuestionMark && t != NullishCoalesce && t != Spread && t != Arrow:
		return ClassPunctuation
	default:
		return ClassOperator
	}
}

var names = map[TokenType]string{
	NotSupported:           "unsupported character",
	EOF:                    "end of input",
	Identifier:             "identifier",
	Number:                 "number",
	BigInt:                 "bigint",
	String:                 "string",
	RegExp:                 "regular expression",
	TemplateHead:           "template",
	TemplateMiddle:         "template",
	TemplateTail:           "template",
	NoSubstitutionTemplate: "template",
}

// String names a token type for error messages. Operators, punctuation and
// keywords are named by their spelling.
func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	if s, ok := Spellings[t]; ok {
		return "'" + s + "'"
	}
	return "token"
}

// Spellings maps fixed-spelling token types to their source text. The lexer
// builds its operator table and the grammar its keyword table from it.
var Spellings = map[TokenType]string{
	Plus:                     "+",
	Minus:                    "-",
	Asterisk:                 "*",
	Slash:                    "/",
	Percent:                  "%",
	Exponent:                 "**",
	Assign:                   "=",
	PlusAssign:               "+=",
	MinusAssign:              "-=",
	AsteriskAssign:           "*=",
	SlashAssign:              "/=",
	PercentAssign:            "%=",
	ExponentAssign:           "**=",
	AmpersandAssign:          "&=",
	PipeAssign:               "|=",
	CaretAssign:              "^=",
	LeftShiftAssign:          "<<=",
	RightShiftAssign:         ">>=",
	UnsignedRightShiftAssign: ">>>=",
	NullishAssign:            "??=",
	AndAssign:                "&&=",
	OrAssign:                 "||=",
	Equal:                    "==",
	NotEqual:                 "!=",
	StrictEqual:              "===",
	StrictNotEqual:           "!==",
	LessThan:                 "<",
	GreaterThan:              ">",
	LessThanOrEqual:          "<=",
	GreaterThanOrEqual:       ">=",
	And:                      "&&",
	Or:                       "||",
	Not:                      "!",
	BitwiseAnd:               "&",
	BitwiseOr:                "|",
	BitwiseXor:               "^",
	BitwiseNot:               "~",
	LeftShift:                "<<",
	RightShift:               ">>",
	UnsignedRightShift:       ">>>",
	Increment:                "++",
	Decrement:                "--",
	Pipeline:                 "|>",
	DoubleColon:              "::",
	LeftParen:                "(",
	RightParen:               ")",
	LeftBrace:                "{",
	RightBrace:               "}",
	LeftBracket:              "[",
	RightBracket:             "]",
	Semicolon:                ";",
	Colon:                    ":",
	Comma:                    ",",
	Dot:                      ".",
	Spread:                   "...",
	Arrow:                    "=>",
	QuestionMark:             "?",
	OptionalChain:            "?.",
	NullishCoalesce:          "??",
	Var:                      "var",
	Let:                      "let",
	Const:                    "const",
	Function:                 "function",
	Return:                   "return",
	If:                       "if",
	Else:                     "else",
	While:                    "while",
	For:                      "for",
	Do:                       "do",
	Break:                    "break",
	Continue:                 "continue",
	Switch:                   "switch",
	Case:                     "case",
	Default:                  "default",
	Throw:                    "throw",
	Try:                      "try",
	Catch:                    "catch",
	Finally:                  "finally",
	New:                      "new",
	Delete:                   "delete",
	Typeof:                   "typeof",
	Void:                     "void",
	In:                       "in",
	Instanceof:               "instanceof",
	This:                     "this",
	Class:                    "class",
	Extends:                  "extends",
	Super:                    "super",
	Import:                   "import",
	Export:                   "export",
	Yield:                    "yield",
	Await:                    "await",
	True:                     "true",
	False:                    "false",
	Null:                     "null",
	Undefined:                "undefined",
	Debugger:                 "debugger",
	With:                     "with",
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= Var && t < TemplateHead
}
