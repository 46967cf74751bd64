package corelib_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/config"
	"github.com/teascript/tea/pkg/corelib"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
	"github.com/teascript/tea/pkg/vm"
)

func newVM(t *testing.T) *vm.VM {
	t.Helper()
	cfg := config.Default()
	v := vm.New(cfg, diag.New(cfg))
	corelib.Install(v)
	return v
}

func TestStringMethods(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`"Hello World".upper();`, "<test>")
	require.NoError(t, err)
	require.Equal(t, "HELLO WORLD", value.Stringify(result))
}

func TestStringSizeProperty(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`"hello".size;`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 5.0, result.AsNumber())
}

func TestStringSplitAndJoin(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`"a,b,c".split(",").join("-");`, "<test>")
	require.NoError(t, err)
	require.Equal(t, "a-b-c", value.Stringify(result))
}

func TestListPushPopSize(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`
		var l = [1, 2];
		l.push(3);
		l.pop();
		l.size;
	`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 2.0, result.AsNumber())
}

func TestListReverseDoesNotMutateOriginal(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`
		var a = [1, 2, 3];
		var b = a.reverse();
		b[0] + a[0] * 10;
	`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 13.0, result.AsNumber())
}

func TestMapMethods(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`
		var m = {"a": 1, "b": 2};
		m.has("a") and m.get("c", 99) == 99;
	`, "<test>")
	require.NoError(t, err)
	require.True(t, result.AsBool())
}

func TestRangeMethods(t *testing.T) {
	v := newVM(t)
	result, err := v.Interpret(`(1..5).size;`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 4.0, result.AsNumber())
}

func TestUndefinedCoreMethodIsRuntimeError(t *testing.T) {
	v := newVM(t)
	_, err := v.Interpret(`[1,2,3].nosuch();`, "<test>")
	require.Error(t, err)
}
