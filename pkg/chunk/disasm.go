package chunk

import (
	"fmt"
	"strings"

	"github.com/teascript/tea/pkg/value"
)

// Disassemble renders every instruction in c as human-readable text, for the
// `tea disasm` CLI command and VM debug tracing. Grounded on the teacher's
// cmd/smog disassembleFile formatting conventions.
func Disassemble(c *Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	offset := 0
	for offset < len(c.Code) {
		offset = disassembleInstruction(&sb, c, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, c *Chunk, offset int) int {
	fmt.Fprintf(sb, "%04d %4d ", offset, c.Line(offset))
	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpDefineModule, OpGetModule, OpSetModule,
		OpGetProperty, OpGetPropertyNoPop, OpSetProperty, OpGetSuper, OpSetClassVar,
		OpClass, OpMethod, OpExtensionMethod,
		OpImportString, OpImportName, OpImportVariable, OpImportAlias:
		return constantInstruction(sb, op, c, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall, OpUnpackList, OpRange:
		return byteInstruction(sb, op, c, offset)
	case OpDefineOptional, OpUnpackRestList:
		return twoByteInstruction(sb, op, c, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(sb, op, c, offset)
	case OpJump, OpJumpIfFalse, OpJumpIfNull, OpAnd, OpOr, OpCompareJump, OpForIter, OpEnd:
		return jumpInstruction(sb, op, c, offset, 1)
	case OpLoop:
		return jumpInstruction(sb, op, c, offset, -1)
	case OpClosure:
		return closureInstruction(sb, c, offset)
	default:
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(sb *strings.Builder, op OpCode, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(sb, "%-18s %4d '%s'\n", op, idx, value.Stringify(c.Constants[idx]))
	return offset + 2
}

func byteInstruction(sb *strings.Builder, op OpCode, c *Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(sb, "%-18s %4d\n", op, slot)
	return offset + 2
}

func twoByteInstruction(sb *strings.Builder, op OpCode, c *Chunk, offset int) int {
	a := c.Code[offset+1]
	b := c.Code[offset+2]
	fmt.Fprintf(sb, "%-18s %4d %4d\n", op, a, b)
	return offset + 3
}

func invokeInstruction(sb *strings.Builder, op OpCode, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	argc := c.Code[offset+2]
	fmt.Fprintf(sb, "%-18s (%d args) %4d '%s'\n", op, argc, idx, value.Stringify(c.Constants[idx]))
	return offset + 3
}

func jumpInstruction(sb *strings.Builder, op OpCode, c *Chunk, offset int, sign int) int {
	jump := c.ReadUint16(offset + 1)
	target := offset + 3 + sign*jump
	fmt.Fprintf(sb, "%-18s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func closureInstruction(sb *strings.Builder, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(sb, "%-18s %4d '%s'\n", OpClosure, idx, value.Stringify(c.Constants[idx]))
	offset += 2
	if fn, ok := c.Constants[idx].AsObject().(*value.Function); ok {
		for i := 0; i < fn.UpvalueCount; i++ {
			isLocal := c.Code[offset]
			index := c.Code[offset+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(sb, "%04d      |                     %s %d\n", offset, kind, index)
			offset += 2
		}
	}
	return offset
}
