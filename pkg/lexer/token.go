// Package lexer implements the teascript tokenizer: UTF-8 source scanning,
// string interpolation, full escape-sequence handling, nested block
// comments, and the full keyword set. Grounded structurally on the
// teacher's pkg/lexer (position/readPosition/readChar/peekChar fields,
// switch-based NextToken), generalized to teascript's richer token set per
// SPEC_FULL.md §4.3.
package lexer

// TokenType enumerates every token kind the parser's Pratt table indexes by.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError

	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenSemicolon
	TokenDot
	TokenColon
	TokenQuestion

	TokenMinus
	TokenPlus
	TokenSlash
	TokenStar
	TokenPercent
	TokenStarStar

	TokenPlusPlus
	TokenMinusMinus
	TokenPlusEqual
	TokenMinusEqual
	TokenStarEqual
	TokenSlashEqual
	TokenPercentEqual
	TokenStarStarEqual
	TokenAmpersandEqual
	TokenPipeEqual
	TokenCaretEqual

	TokenBang
	TokenBangEqual
	TokenEqual
	TokenEqualEqual
	TokenGreater
	TokenGreaterEqual
	TokenLess
	TokenLessEqual

	TokenAmpersand
	TokenPipe
	TokenCaret
	TokenTilde
	TokenGreaterGreater
	TokenLessLess

	TokenDotDot
	TokenDotDotDot
	TokenArrow

	TokenName
	TokenString
	TokenInterpolation
	TokenNumber

	TokenAnd
	TokenClass
	TokenStatic
	TokenElse
	TokenFalse
	TokenFor
	TokenFunction
	TokenCase
	TokenSwitch
	TokenDefault
	TokenIf
	TokenNull
	TokenOr
	TokenIs
	TokenNot
	TokenImport
	TokenFrom
	TokenAs
	TokenEnum
	TokenReturn
	TokenSuper
	TokenThis
	TokenContinue
	TokenBreak
	TokenIn
	TokenTrue
	TokenVar
	TokenConst
	TokenWhile
	TokenDo
)

var keywords = map[string]TokenType{
	"and": TokenAnd, "class": TokenClass, "static": TokenStatic, "else": TokenElse,
	"false": TokenFalse, "for": TokenFor, "function": TokenFunction,
	"case": TokenCase, "switch": TokenSwitch, "default": TokenDefault,
	"if": TokenIf, "null": TokenNull, "or": TokenOr, "is": TokenIs, "not": TokenNot,
	"import": TokenImport, "from": TokenFrom, "as": TokenAs, "enum": TokenEnum,
	"return": TokenReturn, "super": TokenSuper, "this": TokenThis,
	"continue": TokenContinue, "break": TokenBreak, "in": TokenIn,
	"true": TokenTrue, "var": TokenVar, "const": TokenConst,
	"while": TokenWhile, "do": TokenDo,
}

// Token is one lexical unit: type, a pointer+length into the source
// (carried here as the substring itself, which is cheap given Go string
// slicing shares the backing array), a source line, and for number/string
// tokens a pre-built value left to the compiler to interpret.
type Token struct {
	Type    TokenType
	Lexeme  string
	Line    int
	Message string // set for TokenError
}
