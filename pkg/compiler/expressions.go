package compiler

import (
	"strconv"
	"strings"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/lexer"
	"github.com/teascript/tea/pkg/value"
)

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt engine: consume a prefix rule for the
// current token, then keep consuming infix rules whose precedence is at
// least prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.parser.advance()
	rule := getRule(c.parser.previous.Type)
	if rule.prefix == nil {
		c.parser.error("expected expression")
		return
	}
	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.parser.current.Type).precedence {
		c.parser.advance()
		infix := getRule(c.parser.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.parser.match(lexer.TokenEqual) {
		c.parser.error("invalid assignment target")
	}
}

// grouping handles a `(` in prefix position. Teascript allows no tuple
// syntax, so `(...)` is either a parenthesized expression or the parameter
// list of an arrow function (`(a,b) => expr` / `(a,b) => { ... }`),
// disambiguated by lookahead: try to parse it as a param list, and if that
// fails or isn't followed by `=>`, rewind and parse a plain expression.
func (c *Compiler) grouping(canAssign bool) {
	if c.tryArrowParams() {
		c.arrowFunction()
		return
	}
	c.expression()
	c.parser.consume(lexer.TokenRightParen, "expected ')' after expression")
}

// tryArrowParams is a pure lookahead: does the token stream from right after
// the already-consumed `(` look like `name(,name)*|...name ) =>`? It
// consumes nothing for real — params are reparsed (and actually compiled)
// by arrowFunction once this confirms the syntax. On any mismatch it
// rewinds to the point right after the already-consumed `(`.
func (c *Compiler) tryArrowParams() bool {
	m := c.parser.mark()
	ok := func() bool {
		if c.parser.check(lexer.TokenRightParen) {
			return true
		}
		seenDefault := false
		for {
			variadic := c.parser.match(lexer.TokenDotDotDot)
			if !c.parser.check(lexer.TokenName) {
				return false
			}
			c.parser.advance()
			if !variadic && c.parser.match(lexer.TokenEqual) {
				seenDefault = true
				if !c.skipExpressionLookahead() {
					return false
				}
			} else if seenDefault && !variadic {
				return false
			}
			if variadic {
				break
			}
			if !c.parser.match(lexer.TokenComma) {
				break
			}
		}
		return c.parser.check(lexer.TokenRightParen)
	}()
	if ok {
		c.parser.advance() // consume ')'
		if c.parser.check(lexer.TokenArrow) {
			c.parser.rewind(m)
			return true
		}
	}
	c.parser.rewind(m)
	return false
}

// skipExpressionLookahead advances past a default-value expression during
// tryArrowParams's lookahead, stopping at the next top-level `,` or `)`.
// It tracks nesting depth for (), [], {} so commas inside a nested call or
// literal don't terminate the scan early.
func (c *Compiler) skipExpressionLookahead() bool {
	depth := 0
	for {
		switch c.parser.current.Type {
		case lexer.TokenEOF, lexer.TokenError:
			return false
		case lexer.TokenLeftParen, lexer.TokenLeftBracket, lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightParen:
			if depth == 0 {
				return true
			}
			depth--
		case lexer.TokenRightBracket, lexer.TokenRightBrace:
			if depth > 0 {
				depth--
			}
		case lexer.TokenComma:
			if depth == 0 {
				return true
			}
		}
		c.parser.advance()
	}
}

func (c *Compiler) unary(canAssign bool) {
	op := c.parser.previous.Type
	c.parsePrecedence(PrecUnary)
	switch op {
	case lexer.TokenMinus:
		c.emitOp(chunk.OpNegate)
	case lexer.TokenBang, lexer.TokenNot:
		c.emitOp(chunk.OpNot)
	case lexer.TokenTilde:
		c.emitOp(chunk.OpBNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	op := c.parser.previous.Type
	rule := getRule(op)
	nextPrec := rule.precedence + 1
	if op == lexer.TokenStarStar {
		nextPrec = rule.precedence // right-associative: same precedence on the right
	}
	c.parsePrecedence(nextPrec)

	switch op {
	case lexer.TokenBangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case lexer.TokenEqualEqual:
		c.emitOp(chunk.OpEqual)
	case lexer.TokenGreater:
		c.emitOp(chunk.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(chunk.OpGreaterEqual)
	case lexer.TokenLess:
		c.emitOp(chunk.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(chunk.OpLessEqual)
	case lexer.TokenPlus:
		c.emitOp(chunk.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(chunk.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(chunk.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(chunk.OpDivide)
	case lexer.TokenPercent:
		c.emitOp(chunk.OpMod)
	case lexer.TokenStarStar:
		c.emitOp(chunk.OpPow)
	case lexer.TokenAmpersand:
		c.emitOp(chunk.OpBAnd)
	case lexer.TokenPipe:
		c.emitOp(chunk.OpBOr)
	case lexer.TokenCaret:
		c.emitOp(chunk.OpBXor)
	case lexer.TokenGreaterGreater:
		c.emitOp(chunk.OpRShift)
	case lexer.TokenLessLess:
		c.emitOp(chunk.OpLShift)
	case lexer.TokenIn:
		c.emitOp(chunk.OpIn)
	}
}

func (c *Compiler) isExpr(canAssign bool) {
	notForm := false
	if c.parser.match(lexer.TokenNot) {
		notForm = true
	}
	c.parsePrecedence(PrecComparison)
	c.emitOp(chunk.OpIs)
	if notForm {
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(chunk.OpAnd)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	endJump := c.emitJump(chunk.OpOr)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) ternary(canAssign bool) {
	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecAssignment)
	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)
	c.parser.consume(lexer.TokenColon, "expected ':' in ternary expression")
	c.parsePrecedence(PrecAssignment)
	c.patchJump(elseJump)
}

func (c *Compiler) rangeExpr(canAssign bool) {
	inclusive := c.parser.previous.Type == lexer.TokenDotDotDot
	c.parsePrecedence(PrecTerm)
	c.emitOp(chunk.OpRange)
	if inclusive {
		c.emitByte(1)
	} else {
		c.emitByte(0)
	}
}

func (c *Compiler) literal(canAssign bool) {
	switch c.parser.previous.Type {
	case lexer.TokenFalse:
		c.emitOp(chunk.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(chunk.OpTrue)
	case lexer.TokenNull:
		c.emitOp(chunk.OpNull)
	}
}

func (c *Compiler) number(canAssign bool) {
	lex := strings.ReplaceAll(c.parser.previous.Lexeme, "_", "")
	n, err := parseNumberLiteral(lex)
	if err != nil {
		c.parser.error("invalid number literal")
		return
	}
	c.emitConstant(value.NumberVal(n))
}

func parseNumberLiteral(lex string) (float64, error) {
	switch {
	case strings.HasPrefix(lex, "0x") || strings.HasPrefix(lex, "0X"):
		i, err := strconv.ParseInt(lex[2:], 16, 64)
		return float64(i), err
	case strings.HasPrefix(lex, "0b") || strings.HasPrefix(lex, "0B"):
		i, err := strconv.ParseInt(lex[2:], 2, 64)
		return float64(i), err
	case strings.HasPrefix(lex, "0c") || strings.HasPrefix(lex, "0C"):
		i, err := strconv.ParseInt(lex[2:], 8, 64)
		return float64(i), err
	default:
		return strconv.ParseFloat(lex, 64)
	}
}

func (c *Compiler) stringLiteral(canAssign bool) {
	s := c.parser.previous.Lexeme
	c.emitConstant(value.ObjectVal(value.Intern(s)))
}

// interpolation compiles an interpolated string: a leading TokenInterpolation
// segment has already been consumed as previous; each expression segment is
// followed either by another TokenInterpolation (more text + another `{..}`)
// or the closing TokenString segment. Pieces are concatenated with ADD,
// which the VM's string case implements as concatenation.
func (c *Compiler) interpolation(canAssign bool) {
	c.emitConstant(value.ObjectVal(value.Intern(c.parser.previous.Lexeme)))
	for {
		c.expression()
		c.emitOp(chunk.OpAdd)
		if c.parser.match(lexer.TokenInterpolation) {
			c.emitConstant(value.ObjectVal(value.Intern(c.parser.previous.Lexeme)))
			c.emitOp(chunk.OpAdd)
			continue
		}
		c.parser.consume(lexer.TokenString, "expected end of interpolated string")
		c.emitConstant(value.ObjectVal(value.Intern(c.parser.previous.Lexeme)))
		c.emitOp(chunk.OpAdd)
		break
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.parser.previous.Lexeme, canAssign)
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.parser.error("cannot use 'this' outside of a class")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.parser.error("cannot use 'super' outside of a class")
		return
	} else if !c.class.hasSuper {
		c.parser.error("cannot use 'super' in a class with no superclass")
	}
	c.parser.consume(lexer.TokenDot, "expected '.' after 'super'")
	c.parser.consume(lexer.TokenName, "expected superclass method name")
	name := c.identifierConstant(c.parser.previous.Lexeme)

	c.namedVariable("this", false)
	if c.parser.match(lexer.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitOp(chunk.OpSuperInvoke)
		c.emitByte(name)
		c.emitByte(argCount)
		return
	}
	c.namedVariable("super", false)
	c.emitOpByte(chunk.OpGetSuper, name)
}

func (c *Compiler) list(canAssign bool) {
	c.emitOp(chunk.OpList)
	if !c.parser.check(lexer.TokenRightBracket) {
		for {
			if c.parser.check(lexer.TokenRightBracket) {
				break
			}
			c.expression()
			c.emitOp(chunk.OpPushListItem)
			if !c.parser.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.parser.consume(lexer.TokenRightBracket, "expected ']' after list elements")
}

func (c *Compiler) mapLiteral(canAssign bool) {
	c.emitOp(chunk.OpMap)
	if !c.parser.check(lexer.TokenRightBrace) {
		for {
			if c.parser.check(lexer.TokenRightBrace) {
				break
			}
			if c.parser.match(lexer.TokenLeftBracket) {
				c.expression()
				c.parser.consume(lexer.TokenRightBracket, "expected ']' after computed map key")
			} else if c.parser.match(lexer.TokenString) {
				c.emitConstant(value.ObjectVal(value.Intern(c.parser.previous.Lexeme)))
			} else {
				c.parser.consume(lexer.TokenName, "expected map key")
				c.emitConstant(value.ObjectVal(value.Intern(c.parser.previous.Lexeme)))
			}
			c.parser.consume(lexer.TokenColon, "expected ':' after map key")
			c.expression()
			c.emitOp(chunk.OpPushMapField)
			if !c.parser.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.parser.consume(lexer.TokenRightBrace, "expected '}' after map entries")
}

// subscript compiles the `[` infix form. A bare index (`s[i]`) has no
// colon at all; any colon switches to slice mode, where the start, end and
// step operands are each independently omissible (`s[:3]`, `s[3:]`,
// `s[::-1]`, `s[:]`), each omission emitting OpNull in that operand's slot.
func (c *Compiler) subscript(canAssign bool) {
	if c.parser.check(lexer.TokenColon) {
		c.emitOp(chunk.OpNull)
	} else {
		c.expression()
	}
	if c.parser.match(lexer.TokenColon) {
		if c.parser.check(lexer.TokenRightBracket) || c.parser.check(lexer.TokenColon) {
			c.emitOp(chunk.OpNull)
		} else {
			c.expression()
		}
		if c.parser.match(lexer.TokenColon) {
			if c.parser.check(lexer.TokenRightBracket) {
				c.emitOp(chunk.OpNull)
			} else {
				c.expression()
			}
		} else {
			c.emitOp(chunk.OpNull)
		}
		c.parser.consume(lexer.TokenRightBracket, "expected ']' after slice")
		c.emitOp(chunk.OpSlice)
		return
	}
	c.parser.consume(lexer.TokenRightBracket, "expected ']' after subscript")

	if canAssign && c.parser.match(lexer.TokenEqual) {
		c.expression()
		c.emitOp(chunk.OpSubscriptStore)
		return
	}
	if canAssign && c.matchCompoundAssign() {
		op := c.parser.previous.Type
		c.emitOp(chunk.OpSubscriptPush)
		c.expression()
		c.emitCompoundOp(op)
		c.emitOp(chunk.OpSubscriptStore)
		return
	}
	c.emitOp(chunk.OpSubscript)
}

func (c *Compiler) dot(canAssign bool) {
	c.parser.consume(lexer.TokenName, "expected property name after '.'")
	name := c.identifierConstant(c.parser.previous.Lexeme)

	switch {
	case canAssign && c.parser.match(lexer.TokenEqual):
		c.expression()
		c.emitOpByte(chunk.OpSetProperty, name)
	case canAssign && c.matchCompoundAssign():
		op := c.parser.previous.Type
		c.emitOpByte(chunk.OpGetPropertyNoPop, name)
		c.expression()
		c.emitCompoundOp(op)
		c.emitOpByte(chunk.OpSetProperty, name)
	case c.parser.match(lexer.TokenLeftParen):
		argCount := c.argumentList()
		c.emitOp(chunk.OpInvoke)
		c.emitByte(name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(chunk.OpGetProperty, name)
	}
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.parser.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.parser.error("cannot pass more than 255 arguments")
			}
			count++
			if !c.parser.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.parser.consume(lexer.TokenRightParen, "expected ')' after arguments")
	return byte(count)
}

// staticAnonymous handles a `static` used as a prefix in expression
// position — an anonymous static function literal, e.g. inside a map/list
// value. A `static name(...)` member inside a class body is handled by
// classBody (classes.go) instead.
func (c *Compiler) staticAnonymous(canAssign bool) {
	c.parser.consume(lexer.TokenFunction, "expected 'function' after 'static'")
	c.functionBody(value.FuncStatic, "")
}

func (c *Compiler) anonymousFunction(canAssign bool) {
	c.functionBody(value.FuncFunction, "")
}
