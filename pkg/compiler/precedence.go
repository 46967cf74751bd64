package compiler

import "github.com/teascript/tea/pkg/lexer"

// Precedence levels, low to high, exactly as SPEC_FULL.md §4.4 orders them.
// Assignment and exponent (**) are right-associative; every other binary
// operator is left-associative (parsePrecedence requests precedence+1 for
// the right operand of a left-associative infix rule).
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecTernary
	PrecOr
	PrecAnd
	PrecEquality
	PrecIs
	PrecComparison
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecShift
	PrecRange
	PrecTerm
	PrecFactor
	PrecExponent
	PrecUnary
	PrecSubscript
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		lexer.TokenLeftBracket:  {prefix: (*Compiler).list, infix: (*Compiler).subscript, precedence: PrecSubscript},
		lexer.TokenLeftBrace:    {prefix: (*Compiler).mapLiteral},
		lexer.TokenDot:          {infix: (*Compiler).dot, precedence: PrecCall},
		lexer.TokenQuestion:     {infix: (*Compiler).ternary, precedence: PrecAssignment},
		lexer.TokenMinus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokenPlus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokenSlash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokenStar:         {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokenPercent:      {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokenStarStar:     {infix: (*Compiler).binary, precedence: PrecExponent},
		lexer.TokenBang:         {prefix: (*Compiler).unary},
		lexer.TokenNot:          {prefix: (*Compiler).unary},
		lexer.TokenBangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokenEqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokenGreater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenGreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenLess:         {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenLessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenIn:           {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenIs:           {infix: (*Compiler).isExpr, precedence: PrecIs},
		lexer.TokenAmpersand:    {infix: (*Compiler).binary, precedence: PrecBitAnd},
		lexer.TokenPipe:         {infix: (*Compiler).binary, precedence: PrecBitOr},
		lexer.TokenCaret:        {infix: (*Compiler).binary, precedence: PrecBitXor},
		lexer.TokenTilde:        {prefix: (*Compiler).unary},
		lexer.TokenGreaterGreater: {infix: (*Compiler).binary, precedence: PrecShift},
		lexer.TokenLessLess:     {infix: (*Compiler).binary, precedence: PrecShift},
		lexer.TokenDotDot:       {infix: (*Compiler).rangeExpr, precedence: PrecRange},
		lexer.TokenDotDotDot:    {infix: (*Compiler).rangeExpr, precedence: PrecRange},
		lexer.TokenName:         {prefix: (*Compiler).variable},
		lexer.TokenString:       {prefix: (*Compiler).stringLiteral},
		lexer.TokenInterpolation: {prefix: (*Compiler).interpolation},
		lexer.TokenNumber:       {prefix: (*Compiler).number},
		lexer.TokenAnd:          {infix: (*Compiler).and, precedence: PrecAnd},
		lexer.TokenOr:           {infix: (*Compiler).or, precedence: PrecOr},
		lexer.TokenStatic:       {prefix: (*Compiler).staticAnonymous},
		lexer.TokenFalse:        {prefix: (*Compiler).literal},
		lexer.TokenTrue:         {prefix: (*Compiler).literal},
		lexer.TokenNull:         {prefix: (*Compiler).literal},
		lexer.TokenFunction:     {prefix: (*Compiler).anonymousFunction},
		lexer.TokenSuper:        {prefix: (*Compiler).super},
		lexer.TokenThis:         {prefix: (*Compiler).this},
	}
}

func getRule(t lexer.TokenType) parseRule {
	return rules[t]
}
