package compiler

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
	"github.com/teascript/tea/pkg/value"
)

func (c *Compiler) declaration() {
	switch {
	case c.parser.match(lexer.TokenClass):
		c.classDeclaration()
	case c.parser.match(lexer.TokenFunction):
		c.funDeclaration()
	case c.parser.match(lexer.TokenVar):
		c.varDeclaration(false)
	case c.parser.match(lexer.TokenConst):
		c.varDeclaration(true)
	case c.parser.match(lexer.TokenImport):
		c.importStatement()
	case c.parser.match(lexer.TokenFrom):
		c.fromImportStatement()
	default:
		c.statement()
	}
	if c.parser.panicMode {
		c.parser.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.parser.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	case c.parser.match(lexer.TokenIf):
		c.ifStatement()
	case c.parser.match(lexer.TokenSwitch):
		c.switchStatement()
	case c.parser.match(lexer.TokenWhile):
		c.whileStatement()
	case c.parser.match(lexer.TokenDo):
		c.doWhileStatement()
	case c.parser.match(lexer.TokenFor):
		c.forStatement()
	case c.parser.match(lexer.TokenReturn):
		c.returnStatement()
	case c.parser.match(lexer.TokenBreak):
		c.breakStatement()
	case c.parser.match(lexer.TokenContinue):
		c.continueStatement()
	case c.parser.match(lexer.TokenSemicolon):
		// empty statement
	default:
		c.expressionStatement()
	}
}

// block compiles statements up to (and consuming) the closing `}`. The
// caller is responsible for begin/endScope.
func (c *Compiler) block() {
	for !c.parser.check(lexer.TokenRightBrace) && !c.parser.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.parser.consume(lexer.TokenRightBrace, "expected '}' after block")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.parser.match(lexer.TokenSemicolon)
	// The script's final top-level expression statement is its result.
	if c.enclosing == nil && c.scopeDepth == 0 && c.parser.check(lexer.TokenEOF) {
		c.emitOp(chunk.OpReturn)
		return
	}
	if c.replTopLevel() {
		c.emitOp(chunk.OpPopRepl)
	} else {
		c.emitOp(chunk.OpPop)
	}
}

// replTopLevel reports whether this is a bare expression statement directly
// in the script's top-level body in REPL mode, where the result should be
// auto-printed rather than discarded.
func (c *Compiler) replTopLevel() bool {
	return c.replMode && c.enclosing == nil && c.scopeDepth == 0
}

// --- variable declarations --------------------------------------------------

func (c *Compiler) varDeclaration(isConst bool) {
	c.parser.consume(lexer.TokenName, "expected variable name")
	first := c.parser.previous.Lexeme

	if c.parser.check(lexer.TokenComma) {
		c.destructuringDeclaration(first, isConst)
		return
	}

	c.declareVariable(first, isConst)
	global := byte(0)
	if c.scopeDepth == 0 {
		global = c.identifierConstant(first)
	}

	if c.parser.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNull)
	}
	c.parser.match(lexer.TokenSemicolon)
	c.defineVariable(global, first)
}

// destructuringDeclaration handles `var a, b, ... = expr` and
// `var a, ..., c = expr`: the first name has already been consumed.
func (c *Compiler) destructuringDeclaration(first string, isConst bool) {
	names := []string{first}
	restIndex := -1
	for c.parser.match(lexer.TokenComma) {
		if c.parser.match(lexer.TokenDotDotDot) {
			restIndex = len(names)
			c.parser.consume(lexer.TokenName, "expected variable name after '...'")
			names = append(names, c.parser.previous.Lexeme)
			continue
		}
		c.parser.consume(lexer.TokenName, "expected variable name")
		names = append(names, c.parser.previous.Lexeme)
	}
	c.parser.consume(lexer.TokenEqual, "expected '=' after destructuring variable list")
	c.expression()
	c.parser.match(lexer.TokenSemicolon)

	if restIndex >= 0 {
		c.emitOp(chunk.OpUnpackRestList)
		c.emitByte(byte(len(names)))
		c.emitByte(byte(restIndex))
	} else {
		c.emitOpByte(chunk.OpUnpackList, byte(len(names)))
	}

	// UNPACK_LIST/UNPACK_REST_LIST push `len(names)` values, first name first.
	for _, n := range names {
		c.declareVariable(n, isConst)
		global := byte(0)
		if c.scopeDepth == 0 {
			global = c.identifierConstant(n)
		}
		c.defineVariable(global, n)
	}
}

// --- if / switch -------------------------------------------------------------

func (c *Compiler) ifStatement() {
	c.parser.consume(lexer.TokenLeftParen, "expected '(' after 'if'")
	c.expression()
	c.parser.consume(lexer.TokenRightParen, "expected ')' after condition")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()
	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)

	if c.parser.match(lexer.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

// switchStatement lowers to a chain of COMPARE_JUMP tests against the
// switch subject, each guarding one case's body; multiple comma-separated
// values per case share one body via successive COMPARE_JUMP tests that all
// target the same case entry point.
func (c *Compiler) switchStatement() {
	c.parser.consume(lexer.TokenLeftParen, "expected '(' after 'switch'")
	c.expression()
	c.parser.consume(lexer.TokenRightParen, "expected ')' after switch subject")
	c.parser.consume(lexer.TokenLeftBrace, "expected '{' before switch body")

	var endJumps []int
	for c.parser.match(lexer.TokenCase) {
		var bodyJumps []int
		for {
			c.emitOp(chunk.OpDup)
			c.expression()
			bodyJumps = append(bodyJumps, c.emitJump(chunk.OpCompareJump))
			if !c.parser.match(lexer.TokenComma) {
				break
			}
		}
		skip := c.emitJump(chunk.OpJump)
		for _, j := range bodyJumps {
			c.patchJump(j)
		}
		c.emitOp(chunk.OpPop) // discard the switch subject's duplicate
		c.parser.consume(lexer.TokenColon, "expected ':' after case value(s)")
		for !c.parser.check(lexer.TokenCase) && !c.parser.check(lexer.TokenDefault) && !c.parser.check(lexer.TokenRightBrace) {
			c.declaration()
		}
		endJumps = append(endJumps, c.emitJump(chunk.OpJump))
		c.patchJump(skip)
	}

	c.emitOp(chunk.OpPop) // discard the switch subject
	if c.parser.match(lexer.TokenDefault) {
		c.parser.consume(lexer.TokenColon, "expected ':' after 'default'")
		for !c.parser.check(lexer.TokenRightBrace) {
			c.declaration()
		}
	}
	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.parser.consume(lexer.TokenRightBrace, "expected '}' after switch body")
}

// --- loops -------------------------------------------------------------------

func (c *Compiler) pushLoop() *LoopCompiler {
	l := &LoopCompiler{enclosing: c.loop, scopeDepth: c.scopeDepth}
	c.loop = l
	return l
}

func (c *Compiler) popLoop() {
	for _, j := range c.loop.breakJumps {
		c.chunk.Code[j] = byte(chunk.OpJump)
		c.patchJump(j + 1)
	}
	c.loop = c.loop.enclosing
}

func (c *Compiler) whileStatement() {
	loop := c.pushLoop()
	loopStart := len(c.chunk.Code)
	loop.continueAt = loopStart

	c.parser.consume(lexer.TokenLeftParen, "expected '(' after 'while'")
	c.expression()
	c.parser.consume(lexer.TokenRightParen, "expected ')' after condition")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
	c.popLoop()
}

func (c *Compiler) doWhileStatement() {
	loop := c.pushLoop()
	loopStart := len(c.chunk.Code)

	c.statement()

	c.parser.consume(lexer.TokenWhile, "expected 'while' after 'do' body")
	c.parser.consume(lexer.TokenLeftParen, "expected '(' after 'while'")
	loop.continueAt = len(c.chunk.Code)
	c.expression()
	c.parser.consume(lexer.TokenRightParen, "expected ')' after condition")
	c.parser.match(lexer.TokenSemicolon)

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
	c.popLoop()
}

// forStatement handles both C-style `for (init; cond; step)` and
// `for (var x in expr)` / `for (var a, b in expr)`.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.parser.consume(lexer.TokenLeftParen, "expected '(' after 'for'")

	if c.parser.check(lexer.TokenVar) && c.looksLikeForIn() {
		c.forInStatement()
		c.endScope()
		return
	}

	if c.parser.match(lexer.TokenSemicolon) {
		// no initializer
	} else if c.parser.match(lexer.TokenVar) {
		c.varDeclaration(false)
	} else {
		c.expressionStatement()
	}

	loop := c.pushLoop()
	loopStart := len(c.chunk.Code)
	loop.continueAt = loopStart

	exitJump := -1
	if !c.parser.match(lexer.TokenSemicolon) {
		c.expression()
		c.parser.consume(lexer.TokenSemicolon, "expected ';' after loop condition")
		exitJump = c.emitJump(chunk.OpJumpIfFalse)
		c.emitOp(chunk.OpPop)
	}

	if !c.parser.check(lexer.TokenRightParen) {
		bodyJump := c.emitJump(chunk.OpJump)
		incrementStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(chunk.OpPop)
		c.parser.consume(lexer.TokenRightParen, "expected ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		loop.continueAt = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.parser.consume(lexer.TokenRightParen, "expected ')' after for clauses")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.OpPop)
	}
	c.popLoop()
	c.endScope()
}

// looksLikeForIn performs a bounded lookahead past `var name[, name]` to see
// whether `in` follows, without committing to either parse path.
func (c *Compiler) looksLikeForIn() bool {
	m := c.parser.mark()
	c.parser.advance() // 'var'
	if !c.parser.check(lexer.TokenName) {
		c.parser.rewind(m)
		return false
	}
	c.parser.advance()
	for c.parser.match(lexer.TokenComma) {
		if !c.parser.check(lexer.TokenName) {
			c.parser.rewind(m)
			return false
		}
		c.parser.advance()
	}
	isIn := c.parser.check(lexer.TokenIn)
	c.parser.rewind(m)
	return isIn
}

// forInStatement lowers `for (var x in expr) body` / `for (var a, b in expr)
// body` per §4.4: hidden locals `seq` and `iter`. GET_ITER advances `iter`
// to the next cursor state (or null when exhausted, tested by FOR_ITER);
// ITER_VALUE then converts that cursor into the actual item(s) bound to the
// loop variable(s) — the two-step iterate/iteratorvalue protocol the spec
// describes, kept as two opcodes so `iter` can keep holding an unambiguous
// cursor (a list index, a map slot, a range number) across iterations even
// when the sequence holds duplicate values.
func (c *Compiler) forInStatement() {
	c.parser.consume(lexer.TokenVar, "expected 'var'")
	var names []string
	c.parser.consume(lexer.TokenName, "expected loop variable name")
	names = append(names, c.parser.previous.Lexeme)
	for c.parser.match(lexer.TokenComma) {
		c.parser.consume(lexer.TokenName, "expected loop variable name")
		names = append(names, c.parser.previous.Lexeme)
	}
	c.parser.consume(lexer.TokenIn, "expected 'in' in for-in loop")

	c.expression() // sequence
	c.addLocal("@seq", false)
	c.markInitialized()
	seqSlot := len(c.locals) - 1

	c.emitOp(chunk.OpNull)
	c.addLocal("@iter", false)
	c.markInitialized()
	iterSlot := len(c.locals) - 1

	c.parser.consume(lexer.TokenRightParen, "expected ')' after for-in sequence")

	loop := c.pushLoop()
	loopStart := len(c.chunk.Code)
	loop.continueAt = loopStart

	c.emitOpByte(chunk.OpGetLocal, byte(seqSlot))
	c.emitOpByte(chunk.OpGetLocal, byte(iterSlot))
	c.emitOp(chunk.OpGetIter)
	exitJump := c.emitJump(chunk.OpForIter)
	c.emitOpByte(chunk.OpSetLocal, byte(iterSlot))
	c.emitOp(chunk.OpPop)

	c.emitOpByte(chunk.OpGetLocal, byte(seqSlot))
	c.emitOpByte(chunk.OpGetLocal, byte(iterSlot))
	c.emitOp(chunk.OpIterValue)

	c.beginScope()
	if len(names) == 1 {
		c.addLocal(names[0], false)
		c.markInitialized()
	} else {
		c.emitOpByte(chunk.OpUnpackList, byte(len(names)))
		for _, n := range names {
			c.addLocal(n, false)
			c.markInitialized()
		}
	}
	c.statement()
	c.endScope()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
	c.popLoop()
}

func (c *Compiler) breakStatement() {
	if c.loop == nil {
		c.parser.error("cannot use 'break' outside of a loop")
		return
	}
	c.discardLocalsTo(c.loop.scopeDepth)
	j := c.emitJump(chunk.OpEnd)
	c.loop.breakJumps = append(c.loop.breakJumps, j)
	c.parser.match(lexer.TokenSemicolon)
}

func (c *Compiler) continueStatement() {
	if c.loop == nil {
		c.parser.error("cannot use 'continue' outside of a loop")
		return
	}
	c.discardLocalsTo(c.loop.scopeDepth)
	c.emitLoop(c.loop.continueAt)
	c.parser.match(lexer.TokenSemicolon)
}

func (c *Compiler) discardLocalsTo(depth int) {
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].Depth > depth; i-- {
		if c.locals[i].IsCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
	}
}

// --- return ------------------------------------------------------------------

func (c *Compiler) returnStatement() {
	if c.kind == value.FuncScript {
		c.parser.error("cannot return from top-level code")
	}
	if c.parser.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.kind == value.FuncConstructor {
		c.parser.error("cannot return a value from a constructor")
	}
	c.expression()
	c.parser.match(lexer.TokenSemicolon)
	c.emitOp(chunk.OpReturn)
}

// --- imports -------------------------------------------------------------

func (c *Compiler) importStatement() {
	for {
		if c.parser.check(lexer.TokenString) {
			c.parser.advance()
			path := c.parser.previous.Lexeme
			c.emitConstant(value.ObjectVal(value.Intern(path)))
			c.emitOp(chunk.OpImportString)
			c.emitOp(chunk.OpPop)
			c.importAliasOrDefine(path)
		} else {
			c.parser.consume(lexer.TokenName, "expected module name or path")
			name := c.parser.previous.Lexeme
			c.emitOpByte(chunk.OpImportName, c.identifierConstant(name))
			c.emitOp(chunk.OpPop)
			c.importAliasOrDefine(name)
		}
		c.emitOp(chunk.OpImportEnd)
		if !c.parser.match(lexer.TokenComma) {
			break
		}
	}
	c.parser.match(lexer.TokenSemicolon)
}

func (c *Compiler) importAliasOrDefine(defaultName string) {
	name := defaultName
	if c.parser.match(lexer.TokenAs) {
		c.parser.consume(lexer.TokenName, "expected alias name after 'as'")
		name = c.parser.previous.Lexeme
	}
	// IMPORT_STRING/IMPORT_NAME already pushed and discarded the resolved
	// module (the POP above), mirroring the from-import lowering. IMPORT_ALIAS
	// re-pushes it from the VM's current-import register under whichever name
	// this binding uses, explicit alias or the bare import's default name, so
	// DEFINE_GLOBAL/DEFINE_MODULE/the local's markInitialized have a value.
	c.emitOpByte(chunk.OpImportAlias, c.identifierConstant(name))
	c.declareVariable(name, false)
	global := byte(0)
	if c.scopeDepth == 0 {
		global = c.identifierConstant(name)
	}
	c.defineVariable(global, name)
}

func (c *Compiler) fromImportStatement() {
	var path string
	isStringPath := c.parser.check(lexer.TokenString)
	if isStringPath {
		c.parser.advance()
		path = c.parser.previous.Lexeme
		c.emitConstant(value.ObjectVal(value.Intern(path)))
		c.emitOp(chunk.OpImportString)
	} else {
		c.parser.consume(lexer.TokenName, "expected module name or path")
		path = c.parser.previous.Lexeme
		c.emitOpByte(chunk.OpImportName, c.identifierConstant(path))
	}
	// OpImportVariable below reads the module just resolved from VM-side
	// "current import" state, not this stack slot — unlike the plain
	// import statement, nothing here binds a variable to the module
	// itself, so drop it now rather than leaking a slot past the loop.
	c.emitOp(chunk.OpPop)
	c.parser.consume(lexer.TokenImport, "expected 'import' after module path")

	for {
		c.parser.consume(lexer.TokenName, "expected imported name")
		member := c.parser.previous.Lexeme
		alias := member
		if c.parser.match(lexer.TokenAs) {
			c.parser.consume(lexer.TokenName, "expected alias name after 'as'")
			alias = c.parser.previous.Lexeme
		}
		c.emitOpByte(chunk.OpImportVariable, c.identifierConstant(member))
		c.declareVariable(alias, false)
		global := byte(0)
		if c.scopeDepth == 0 {
			global = c.identifierConstant(alias)
		}
		c.defineVariable(global, alias)
		if !c.parser.match(lexer.TokenComma) {
			break
		}
	}
	c.emitOp(chunk.OpImportEnd)
	c.parser.match(lexer.TokenSemicolon)
}
