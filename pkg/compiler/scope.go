package compiler

import "github.com/teascript/tea/pkg/chunk"

// beginScope/endScope bracket a lexical block. Locals that are captured by
// a nested closure get CLOSE_UPVALUE instead of POP so their heap-promoted
// storage survives the block's exit.
func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.IsCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

const maxLocals = 256
const maxUpvalues = 256

func (c *Compiler) addLocal(name string, isConst bool) {
	if len(c.locals) >= maxLocals {
		c.parser.error("too many local variables in one function")
		return
	}
	c.locals = append(c.locals, Local{Name: name, Depth: -1, IsConst: isConst})
}

// declareVariable registers the just-consumed identifier token as a new
// local (no-op at global/module scope, where variables live in the globals
// or module table instead of a stack slot).
func (c *Compiler) declareVariable(name string, isConst bool) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.Depth != -1 && l.Depth < c.scopeDepth {
			break
		}
		if l.Name == name {
			c.parser.error("variable with this name already declared in this scope")
		}
	}
	c.addLocal(name, isConst)
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].Depth = c.scopeDepth
}

// resolveLocal returns the slot index of name in this function, or -1.
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			if c.locals[i].Depth == -1 {
				c.parser.error("cannot read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) localIsConst(slot int) bool { return c.locals[slot].IsConst }

// resolveUpvalue walks outward through enclosing compilers, adding an
// upvalue chain entry at each level, to capture a local declared further
// out than the immediate enclosing function.
func (c *Compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if slot := c.enclosing.resolveLocal(name); slot != -1 {
		c.enclosing.locals[slot].IsCaptured = true
		return c.addUpvalue(byte(slot), true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(index byte, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.Index == index && u.IsLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		c.parser.error("too many closure variables in one function")
		return 0
	}
	c.upvalues = append(c.upvalues, Upvalue{Index: index, IsLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}
