package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/value"
)

func compileOK(t *testing.T, source string) *value.Function {
	t.Helper()
	module := value.NewModule(value.Intern("test"), "test")
	fn, errs := Compile(source, module, value.NewTable())
	require.Empty(t, errs, "unexpected compile errors for %q", source)
	require.NotNil(t, fn)
	return fn
}

func disasm(t *testing.T, fn *value.Function) string {
	t.Helper()
	c, ok := fn.Chunk.(*chunk.Chunk)
	require.True(t, ok, "function chunk is not *chunk.Chunk")
	return chunk.Disassemble(c, "test")
}

func TestArithmeticPrecedence(t *testing.T) {
	fn := compileOK(t, "1 + 2 * 3;")
	out := disasm(t, fn)
	mulAt := strings.Index(out, "MULTIPLY")
	addAt := strings.Index(out, "ADD")
	require.NotEqual(t, -1, mulAt)
	require.NotEqual(t, -1, addAt)
	require.Less(t, mulAt, addAt, "* should be emitted before + per precedence")
}

func TestVarDeclarationModuleScope(t *testing.T) {
	fn := compileOK(t, "var x = 1;")
	out := disasm(t, fn)
	require.Contains(t, out, "DEFINE_MODULE")
}

func TestVarDeclarationGlobalScope(t *testing.T) {
	module := value.NewModule(value.Intern("test"), "test")
	globals := value.NewTable()
	globals.SetStr("x", value.NullVal())
	fn, errs := Compile("x = 1;", module, globals)
	require.Empty(t, errs)
	out := disasm(t, fn)
	require.Contains(t, out, "SET_GLOBAL")
}

func TestLocalVariableScoping(t *testing.T) {
	fn := compileOK(t, "{ var x = 1; var y = x + 1; }")
	out := disasm(t, fn)
	require.Contains(t, out, "GET_LOCAL")
	require.NotContains(t, out, "DEFINE_MODULE")
}

func TestFunctionWithDefaultParameter(t *testing.T) {
	fn := compileOK(t, "function greet(name = \"world\") { return name; }")
	out := disasm(t, fn)
	require.Contains(t, out, "CLOSURE")

	inner, ok := fn.Chunk.(*chunk.Chunk).Constants[1].AsObject().(*value.Function)
	require.True(t, ok)
	require.Equal(t, 0, inner.Arity)
	require.Equal(t, 1, inner.ArityOptional)

	innerOut := chunk.Disassemble(inner.Chunk.(*chunk.Chunk), "greet")
	require.Contains(t, innerOut, "DEFINE_OPTIONAL")
}

func TestArrowFunctionLiteral(t *testing.T) {
	fn := compileOK(t, "var sq = (x) => x * x;")
	out := disasm(t, fn)
	require.Contains(t, out, "CLOSURE")
}

func TestArrowFunctionDisambiguatedFromGrouping(t *testing.T) {
	// A plain parenthesized expression must NOT be compiled as a closure.
	fn := compileOK(t, "var x = (1 + 2) * 3;")
	out := disasm(t, fn)
	require.NotContains(t, out, "CLOSURE")
	require.Contains(t, out, "MULTIPLY")
}

func TestClassWithSuperclass(t *testing.T) {
	fn := compileOK(t, `
		class Animal {
			constructor(name) { this.name = name; }
		}
		class Dog : Animal {
			constructor(name) { super.constructor(name); }
		}
	`)
	out := disasm(t, fn)
	require.Contains(t, out, "CLASS")
	require.Contains(t, out, "INHERIT")
	require.Contains(t, out, "METHOD")
}

func TestForInLoopLowering(t *testing.T) {
	fn := compileOK(t, "for (var x in [1, 2, 3]) { print(x); }")
	out := disasm(t, fn)
	require.Contains(t, out, "GET_ITER")
	require.Contains(t, out, "FOR_ITER")
}

func TestSwitchStatementCompareJumpLowering(t *testing.T) {
	fn := compileOK(t, `
		switch (1) {
			case 1: print("one");
			case 2: print("two");
			default: print("other");
		}
	`)
	out := disasm(t, fn)
	require.Contains(t, out, "COMPARE_JUMP")
	require.NotContains(t, out, "MULTI_CASE")
}

func TestBreakContinueLoopPatching(t *testing.T) {
	fn := compileOK(t, `
		while (true) {
			if (true) { break; }
			continue;
		}
	`)
	out := disasm(t, fn)
	require.Contains(t, out, "JUMP")
	require.Contains(t, out, "LOOP")
}

func TestVariadicParameterArity(t *testing.T) {
	fn := compileOK(t, "function f(a, ...rest) { return a; }")
	inner, ok := fn.Chunk.(*chunk.Chunk).Constants[1].AsObject().(*value.Function)
	require.True(t, ok)
	require.Equal(t, 2, inner.Arity)
	require.True(t, inner.IsVariadic)
}

func TestCompileErrorsReported(t *testing.T) {
	module := value.NewModule(value.Intern("test"), "test")
	fn, errs := Compile("var = ;", module, value.NewTable())
	require.Nil(t, fn)
	require.NotEmpty(t, errs)
}

func TestOperatorMethodInClass(t *testing.T) {
	fn := compileOK(t, `
		class Vector {
			constructor(x) { this.x = x; }
			+(other) { return this.x + other.x; }
		}
	`)
	out := disasm(t, fn)
	require.Contains(t, out, "METHOD")
}
