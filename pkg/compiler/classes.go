package compiler

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
	"github.com/teascript/tea/pkg/value"
)

// operatorTokens lists every token that may introduce an operator-method
// declaration in a class body (anything not matched by `var`/`static`/a
// plain name falls through to here), per SPEC_FULL.md §4.4.
var operatorTokens = []lexer.TokenType{
	lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash,
	lexer.TokenPercent, lexer.TokenStarStar,
	lexer.TokenAmpersand, lexer.TokenPipe, lexer.TokenCaret,
	lexer.TokenLessLess, lexer.TokenGreaterGreater,
	lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual,
	lexer.TokenEqualEqual, lexer.TokenTilde,
	lexer.TokenLeftBracket,
}

func (c *Compiler) classDeclaration() {
	c.parser.consume(lexer.TokenName, "expected class name")
	className := c.parser.previous.Lexeme
	nameConstant := c.identifierConstant(className)
	c.declareVariable(className, false)

	c.emitOpByte(chunk.OpClass, nameConstant)
	global := byte(0)
	if c.scopeDepth == 0 {
		global = nameConstant
	}
	c.defineVariable(global, className)

	cc := &ClassCompiler{enclosing: c.class, name: className}
	c.class = cc

	if c.parser.match(lexer.TokenColon) {
		c.expression() // superclass expression
		c.beginScope()
		c.addLocal("super", false)
		c.markInitialized()

		c.namedVariable(className, false)
		c.emitOp(chunk.OpInherit)
		cc.hasSuper = true
	}

	c.namedVariable(className, false)
	c.parser.consume(lexer.TokenLeftBrace, "expected '{' before class body")
	c.classBody()
	c.parser.consume(lexer.TokenRightBrace, "expected '}' after class body")
	c.emitOp(chunk.OpPop)

	if cc.hasSuper {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) classBody() {
	for !c.parser.check(lexer.TokenRightBrace) && !c.parser.check(lexer.TokenEOF) {
		switch {
		case c.parser.match(lexer.TokenVar):
			c.classField()
		case c.parser.match(lexer.TokenStatic):
			c.parser.consume(lexer.TokenName, "expected method name after 'static'")
			c.classMethod(value.FuncStatic)
		case c.parser.match(lexer.TokenName):
			c.classMethod(value.FuncMethod)
		default:
			c.classOperatorMethod()
		}
	}
}

func (c *Compiler) classField() {
	c.parser.consume(lexer.TokenName, "expected class variable name")
	name := c.identifierConstant(c.parser.previous.Lexeme)
	if c.parser.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNull)
	}
	c.parser.match(lexer.TokenSemicolon)
	c.emitOpByte(chunk.OpSetClassVar, name)
}

func (c *Compiler) classMethod(kind value.FunctionKind) {
	name := c.parser.previous.Lexeme
	constant := c.identifierConstant(name)
	if name == "constructor" {
		kind = value.FuncConstructor
	}
	c.functionBody(kind, name)
	c.emitOpByte(chunk.OpMethod, constant)
}

func (c *Compiler) classOperatorMethod() {
	matched := false
	for _, t := range operatorTokens {
		if c.parser.match(t) {
			matched = true
			break
		}
	}
	if !matched {
		c.parser.errorAtCurrent("expected method, field, or operator declaration in class body")
		c.parser.advance()
		return
	}
	var name string
	if c.parser.previous.Type == lexer.TokenLeftBracket {
		c.parser.consume(lexer.TokenRightBracket, "expected ']' after '[' operator method")
		name = "[]"
	} else {
		name = c.parser.previous.Lexeme
	}
	constant := c.identifierConstant(name)
	c.functionBody(value.FuncMethod, name)
	c.emitOpByte(chunk.OpMethod, constant)
}
