package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/value"
)

func TestNumericOp(t *testing.T) {
	v, rerr := numericOp(chunk.OpAdd, 2, 3)
	require.Nil(t, rerr)
	require.Equal(t, 5.0, v.AsNumber())

	v, rerr = numericOp(chunk.OpLShift, 1, 4)
	require.Nil(t, rerr)
	require.Equal(t, 16.0, v.AsNumber())

	v, rerr = numericOp(chunk.OpGreaterEqual, 3, 3)
	require.Nil(t, rerr)
	require.True(t, v.AsBool())
}

func TestCollectionOpStringConcat(t *testing.T) {
	vm, _ := newTestVM()
	a := value.ObjectVal(value.Intern("foo"))
	b := value.ObjectVal(value.Intern("bar"))
	result, ok, rerr := vm.collectionOp(chunk.OpAdd, a, b)
	require.Nil(t, rerr)
	require.True(t, ok)
	require.Equal(t, "foobar", value.Stringify(result))
}

func TestCollectionOpStringRepeat(t *testing.T) {
	vm, _ := newTestVM()
	a := value.ObjectVal(value.Intern("ab"))
	result, ok, rerr := vm.collectionOp(chunk.OpMultiply, a, value.NumberVal(3))
	require.Nil(t, rerr)
	require.True(t, ok)
	require.Equal(t, "ababab", value.Stringify(result))
}

func TestCollectionOpListConcat(t *testing.T) {
	vm, _ := newTestVM()
	a := value.ObjectVal(&value.List{Items: []value.Value{value.NumberVal(1)}})
	b := value.ObjectVal(&value.List{Items: []value.Value{value.NumberVal(2)}})
	result, ok, rerr := vm.collectionOp(chunk.OpAdd, a, b)
	require.Nil(t, rerr)
	require.True(t, ok)
	merged := result.AsObject().(*value.List)
	require.Len(t, merged.Items, 2)
}

func TestMembershipTest(t *testing.T) {
	vm, _ := newTestVM()
	list := value.ObjectVal(&value.List{Items: []value.Value{value.NumberVal(1), value.NumberVal(2)}})
	ok, rerr := vm.membershipTest(value.NumberVal(2), list)
	require.Nil(t, rerr)
	require.True(t, ok)

	ok, rerr = vm.membershipTest(value.NumberVal(9), list)
	require.Nil(t, rerr)
	require.False(t, ok)

	str := value.ObjectVal(value.Intern("teascript"))
	ok, rerr = vm.membershipTest(value.ObjectVal(value.Intern("script")), str)
	require.Nil(t, rerr)
	require.True(t, ok)
}

func TestInterpretOperatorOverloadFull(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Money {
			constructor(cents) { this.cents = cents; }
			+(other) { return Money(this.cents + other.cents); }
			-(other) { return Money(this.cents - other.cents); }
			<(other) { return this.cents < other.cents; }
			==(other) { return this.cents == other.cents; }
		}
		var a = Money(500);
		var b = Money(300);
		var sum = a + b;
		var cmp = b < a;
		var eq = Money(100) == Money(100);
		[sum.cents, cmp, eq];
	`)
	list := result.AsObject().(*value.List)
	require.Equal(t, 800.0, list.Items[0].AsNumber())
	require.True(t, list.Items[1].AsBool())
	require.True(t, list.Items[2].AsBool())
}

func TestInterpretUnaryOverload(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Vector {
			constructor(x) { this.x = x; }
			-() { return Vector(-this.x); }
		}
		var v = -Vector(5);
		v.x;
	`)
	require.Equal(t, -5.0, result.AsNumber())
}

func TestInterpretIsOperator(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Animal {}
		class Dog : Animal {}
		var d = Dog();
		[d is Dog, d is Animal];
	`)
	list := result.AsObject().(*value.List)
	require.True(t, list.Items[0].AsBool())
	require.True(t, list.Items[1].AsBool())
}

func TestInterpretInOperator(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `[1 in [1, 2, 3], 9 in [1, 2, 3]];`)
	list := result.AsObject().(*value.List)
	require.True(t, list.Items[0].AsBool())
	require.False(t, list.Items[1].AsBool())
}
