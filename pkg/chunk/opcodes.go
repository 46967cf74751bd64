// Package chunk defines the bytecode format the compiler emits and the VM
// executes: single-byte opcodes, raw-byte operands, 16-bit big-endian jump
// offsets, 8-bit constant indices (SPEC_FULL.md §4.5). Grounded on the
// teacher's pkg/bytecode, generalized from its small Smalltalk-style opcode
// set to the full opcode list this spec names.
package chunk

// OpCode is a single bytecode instruction operation.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNull
	OpTrue
	OpFalse

	OpPop
	OpDup
	OpPopRepl // pop, but print first if the popped value is non-null (REPL convenience)

	OpGetLocal
	OpSetLocal
	OpGetUpvalue
	OpSetUpvalue
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpDefineModule
	OpGetModule
	OpSetModule
	OpDefineOptional

	OpGetProperty
	OpGetPropertyNoPop
	OpSetProperty
	OpGetSuper
	OpSetClassVar

	OpList
	OpPushListItem
	OpMap
	OpPushMapField
	OpRange
	OpSubscript
	OpSubscriptStore
	OpSubscriptPush
	OpSlice
	OpUnpackList
	OpUnpackRestList

	OpEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMod
	OpPow
	OpBAnd
	OpBOr
	OpBXor
	OpBNot
	OpLShift
	OpRShift
	OpNot
	OpNegate
	OpIs
	OpIn

	OpAnd
	OpOr

	OpJump
	OpJumpIfFalse
	OpJumpIfNull
	OpLoop
	OpCompareJump
	OpMultiCase
	OpEnd // loop-exit sentinel, patched to OpJump by the loop closer

	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod
	OpExtensionMethod

	OpImportString
	OpImportName
	OpImportVariable
	OpImportAlias
	OpImportEnd

	OpGetIter
	OpForIter
	OpIterValue // internal: seq,iter -> item; the "iteratorvalue" half of FOR_ITER's two-step protocol
)

var opNames = [...]string{
	OpConstant: "CONSTANT", OpNull: "NULL", OpTrue: "TRUE", OpFalse: "FALSE",
	OpPop: "POP", OpDup: "DUP", OpPopRepl: "POP_REPL",
	OpGetLocal: "GET_LOCAL", OpSetLocal: "SET_LOCAL",
	OpGetUpvalue: "GET_UPVALUE", OpSetUpvalue: "SET_UPVALUE",
	OpDefineGlobal: "DEFINE_GLOBAL", OpGetGlobal: "GET_GLOBAL", OpSetGlobal: "SET_GLOBAL",
	OpDefineModule: "DEFINE_MODULE", OpGetModule: "GET_MODULE", OpSetModule: "SET_MODULE",
	OpDefineOptional: "DEFINE_OPTIONAL",
	OpGetProperty: "GET_PROPERTY", OpGetPropertyNoPop: "GET_PROPERTY_NO_POP",
	OpSetProperty: "SET_PROPERTY", OpGetSuper: "GET_SUPER", OpSetClassVar: "SET_CLASS_VAR",
	OpList: "LIST", OpPushListItem: "PUSH_LIST_ITEM", OpMap: "MAP", OpPushMapField: "PUSH_MAP_FIELD",
	OpRange: "RANGE", OpSubscript: "SUBSCRIPT", OpSubscriptStore: "SUBSCRIPT_STORE",
	OpSubscriptPush: "SUBSCRIPT_PUSH", OpSlice: "SLICE",
	OpUnpackList: "UNPACK_LIST", OpUnpackRestList: "UNPACK_REST_LIST",
	OpEqual: "EQUAL", OpGreater: "GREATER", OpGreaterEqual: "GREATER_EQUAL",
	OpLess: "LESS", OpLessEqual: "LESS_EQUAL",
	OpAdd: "ADD", OpSubtract: "SUBTRACT", OpMultiply: "MULTIPLY", OpDivide: "DIVIDE",
	OpMod: "MOD", OpPow: "POW", OpBAnd: "BAND", OpBOr: "BOR", OpBXor: "BXOR", OpBNot: "BNOT",
	OpLShift: "LSHIFT", OpRShift: "RSHIFT", OpNot: "NOT", OpNegate: "NEGATE",
	OpIs: "IS", OpIn: "IN", OpAnd: "AND", OpOr: "OR",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfNull: "JUMP_IF_NULL",
	OpLoop: "LOOP", OpCompareJump: "COMPARE_JUMP", OpMultiCase: "MULTI_CASE", OpEnd: "END",
	OpCall: "CALL", OpInvoke: "INVOKE", OpSuperInvoke: "SUPER_INVOKE",
	OpClosure: "CLOSURE", OpCloseUpvalue: "CLOSE_UPVALUE", OpReturn: "RETURN",
	OpClass: "CLASS", OpInherit: "INHERIT", OpMethod: "METHOD", OpExtensionMethod: "EXTENSION_METHOD",
	OpImportString: "IMPORT_STRING", OpImportName: "IMPORT_NAME", OpImportVariable: "IMPORT_VARIABLE",
	OpImportAlias: "IMPORT_ALIAS", OpImportEnd: "IMPORT_END",
	OpGetIter: "GET_ITER", OpForIter: "FOR_ITER", OpIterValue: "ITER_VALUE",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}
