package compiler

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
	"github.com/teascript/tea/pkg/value"
)

// functionBody compiles a function's `(params) { body }` after `function`
// (and, for named declarations, the name) has already been consumed. kind
// selects script/function/method/constructor/static; name is used only for
// the compiled Function's display name (may be "" for anonymous).
func (c *Compiler) functionBody(kind value.FunctionKind, name string) {
	fc := newCompiler(c.parser, c, kind, name, c.globals, c.module)
	fc.beginScope()

	fc.parser.consume(lexer.TokenLeftParen, "expected '(' after function name")
	fc.parameterList()
	fc.parser.consume(lexer.TokenRightParen, "expected ')' after parameters")

	if fc.parser.match(lexer.TokenArrow) {
		fc.arrowBody()
	} else {
		fc.parser.consume(lexer.TokenLeftBrace, "expected '{' before function body")
		fc.block()
	}

	c.emitClosure(fc)
}

// arrowFunction compiles `(params) => expr` / `(params) => { ... }` once
// tryArrowParams has confirmed the syntax; the opening `(` was already
// consumed by grouping().
func (c *Compiler) arrowFunction() {
	fc := newCompiler(c.parser, c, value.FuncFunction, "", c.globals, c.module)
	fc.beginScope()

	fc.parameterList()
	fc.parser.consume(lexer.TokenRightParen, "expected ')' after parameters")
	fc.parser.consume(lexer.TokenArrow, "expected '=>' after parameter list")
	fc.arrowBody()

	c.emitClosure(fc)
}

// emitClosure ends fc's compilation and emits the CLOSURE instruction plus
// its trailing (is_local, index) upvalue descriptor pairs into c's chunk.
func (c *Compiler) emitClosure(fc *Compiler) {
	fn := fc.endCompiler()
	c.emitOpByte(chunk.OpClosure, c.makeConstant(value.ObjectVal(fn)))
	for _, up := range fc.upvalues {
		if up.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(up.Index)
	}
}

// arrowBody compiles the `=>` right-hand side: a bare expression (implicit
// return) or a `{ ... }` block (explicit returns only).
func (c *Compiler) arrowBody() {
	if c.parser.match(lexer.TokenLeftBrace) {
		c.block()
		return
	}
	c.expression()
	c.emitOp(chunk.OpReturn)
}

// parameterList parses and declares `(` already-consumed function
// parameters: positional, `name = default` (evaluated unconditionally and
// shuffled into place at call time by DEFINE_OPTIONAL), and a single
// trailing `...name` variadic. A positional parameter may not follow a
// defaulted one.
func (c *Compiler) parameterList() {
	if c.parser.check(lexer.TokenRightParen) {
		return
	}
	optional := false
	for {
		variadic := c.parser.match(lexer.TokenDotDotDot)
		constant := c.parseVariable("expected parameter name", false)
		name := c.parser.previous.Lexeme
		c.defineVariable(constant, name)

		if variadic {
			c.function.IsVariadic = true
		}

		if c.parser.match(lexer.TokenEqual) {
			if variadic {
				c.parser.error("variadic parameter cannot have a default value")
			}
			c.function.ArityOptional++
			optional = true
			c.expression()
		} else if !variadic {
			c.function.Arity++
			if optional {
				c.parser.error("cannot have a non-optional parameter after an optional one")
			}
		}

		if c.function.Arity+c.function.ArityOptional > 255 {
			c.parser.error("cannot have more than 255 parameters")
		}
		if variadic {
			break
		}
		if !c.parser.match(lexer.TokenComma) {
			break
		}
	}
	if c.function.ArityOptional > 0 {
		c.emitOpByte(chunk.OpDefineOptional, byte(c.function.Arity))
		c.emitByte(byte(c.function.ArityOptional))
	}
}

// funDeclaration compiles `function name(...) { ... }`, plus two sugars
// grounded on the original source's function_declaration: `function
// obj.prop(...) { ... }` (sugar for `obj.prop = function(...) {...}`,
// chainable through further `.prop`s) and `function Existing:method(...) {
// ... }` (an extension method attached to an already-declared class).
func (c *Compiler) funDeclaration() {
	c.parser.consume(lexer.TokenName, "expected function name")
	name := c.parser.previous.Lexeme

	if c.parser.check(lexer.TokenDot) {
		c.namedVariable(name, false)
		c.functionPropertyAssignment()
		return
	}
	if c.parser.match(lexer.TokenColon) {
		c.namedVariable(name, false)
		c.parser.consume(lexer.TokenName, "expected method name")
		methodName := c.parser.previous.Lexeme
		constant := c.identifierConstant(methodName)
		c.functionBody(value.FuncMethod, methodName)
		c.emitOpByte(chunk.OpExtensionMethod, constant)
		c.emitOp(chunk.OpPop)
		return
	}

	c.declareVariable(name, false)
	global := byte(0)
	if c.scopeDepth == 0 {
		global = c.identifierConstant(name)
	}
	c.markInitialized()
	c.functionBody(value.FuncFunction, name)
	c.defineVariable(global, name)
}

// functionPropertyAssignment compiles the `.prop` chain after the base
// object expression has been pushed: each segment not immediately followed
// by `(` is an intermediate GET_PROPERTY hop; the segment directly followed
// by `(` is the final one, assigned a function literal via SET_PROPERTY.
func (c *Compiler) functionPropertyAssignment() {
	if !c.parser.match(lexer.TokenDot) {
		return
	}
	c.parser.consume(lexer.TokenName, "expected property name")
	propName := c.identifierConstant(c.parser.previous.Lexeme)
	if !c.parser.check(lexer.TokenLeftParen) {
		c.emitOpByte(chunk.OpGetProperty, propName)
		c.functionPropertyAssignment()
		return
	}
	c.functionBody(value.FuncFunction, "")
	c.emitOpByte(chunk.OpSetProperty, propName)
	c.emitOp(chunk.OpPop)
}
