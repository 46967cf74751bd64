package compiler

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
)

var compoundAssignTokens = []lexer.TokenType{
	lexer.TokenPlusEqual, lexer.TokenMinusEqual, lexer.TokenStarEqual,
	lexer.TokenSlashEqual, lexer.TokenPercentEqual, lexer.TokenStarStarEqual,
	lexer.TokenAmpersandEqual, lexer.TokenPipeEqual, lexer.TokenCaretEqual,
}

func (c *Compiler) matchCompoundAssign() bool {
	for _, t := range compoundAssignTokens {
		if c.parser.match(t) {
			return true
		}
	}
	return false
}

// emitCompoundOp emits the arithmetic/bitwise instruction corresponding to
// a `+= -= *= /= %= **= &= |= ^=` token already consumed into p.previous.
func (c *Compiler) emitCompoundOp(t lexer.TokenType) {
	switch t {
	case lexer.TokenPlusEqual:
		c.emitOp(chunk.OpAdd)
	case lexer.TokenMinusEqual:
		c.emitOp(chunk.OpSubtract)
	case lexer.TokenStarEqual:
		c.emitOp(chunk.OpMultiply)
	case lexer.TokenSlashEqual:
		c.emitOp(chunk.OpDivide)
	case lexer.TokenPercentEqual:
		c.emitOp(chunk.OpMod)
	case lexer.TokenStarStarEqual:
		c.emitOp(chunk.OpPow)
	case lexer.TokenAmpersandEqual:
		c.emitOp(chunk.OpBAnd)
	case lexer.TokenPipeEqual:
		c.emitOp(chunk.OpBOr)
	case lexer.TokenCaretEqual:
		c.emitOp(chunk.OpBXor)
	}
}
