package compiler

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
	"github.com/teascript/tea/pkg/value"
)

var numberOne = value.NumberVal(1)

// parseVariable consumes a name token, declares it (locally if scopeDepth>0),
// and returns the constant-pool index to use with a DEFINE_* instruction at
// module/global scope (0 at local scope, where no constant is needed).
func (c *Compiler) parseVariable(errMsg string, isConst bool) byte {
	c.parser.consume(lexer.TokenName, errMsg)
	name := c.parser.previous.Lexeme
	c.declareVariable(name, isConst)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// defineVariable emits the definition instruction for the variable whose
// name constant is global (global==0xFF sentinel unused; caller passes the
// identifierConstant index at depth 0, ignored at depth>0).
func (c *Compiler) defineVariable(global byte, name string) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	if _, ok := c.globals.GetStr(name); ok {
		c.emitOpByte(chunk.OpDefineGlobal, global)
		return
	}
	c.emitOpByte(chunk.OpDefineModule, global)
}

// namedVariable compiles a read or, if canAssign and an assignment operator
// follows, a write of the variable name.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte
	isConst := false

	if slot := c.resolveLocal(name); slot != -1 {
		getOp, setOp, arg = chunk.OpGetLocal, chunk.OpSetLocal, byte(slot)
		isConst = c.localIsConst(slot)
	} else if up := c.resolveUpvalue(name); up != -1 {
		getOp, setOp, arg = chunk.OpGetUpvalue, chunk.OpSetUpvalue, byte(up)
	} else if _, ok := c.globals.GetStr(name); ok {
		getOp, setOp, arg = chunk.OpGetGlobal, chunk.OpSetGlobal, c.identifierConstant(name)
	} else {
		getOp, setOp, arg = chunk.OpGetModule, chunk.OpSetModule, c.identifierConstant(name)
	}

	if canAssign && c.parser.match(lexer.TokenEqual) {
		if isConst {
			c.parser.error("cannot assign to a const variable")
		}
		c.expression()
		c.emitOpByte(setOp, arg)
		return
	}
	if canAssign && c.matchCompoundAssign() {
		op := c.parser.previous.Type
		if isConst {
			c.parser.error("cannot assign to a const variable")
		}
		c.emitOpByte(getOp, arg)
		c.expression()
		c.emitCompoundOp(op)
		c.emitOpByte(setOp, arg)
		return
	}
	if canAssign && (c.parser.check(lexer.TokenPlusPlus) || c.parser.check(lexer.TokenMinusMinus)) {
		incr := c.parser.current.Type == lexer.TokenPlusPlus
		c.parser.advance()
		if isConst {
			c.parser.error("cannot assign to a const variable")
		}
		c.emitOpByte(getOp, arg)
		c.emitConstant(numberOne)
		if incr {
			c.emitOp(chunk.OpAdd)
		} else {
			c.emitOp(chunk.OpSubtract)
		}
		c.emitOpByte(setOp, arg)
		return
	}
	c.emitOpByte(getOp, arg)
}
