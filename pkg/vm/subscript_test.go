package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/value"
)

func TestNormalizeIndex(t *testing.T) {
	require.Equal(t, 0, normalizeIndex(0, 5))
	require.Equal(t, 4, normalizeIndex(-1, 5))
	require.Equal(t, 3, normalizeIndex(-2, 5))
}

func TestSubscriptGetList(t *testing.T) {
	vm, _ := newTestVM()
	list := &value.List{Items: []value.Value{value.NumberVal(10), value.NumberVal(20), value.NumberVal(30)}}

	v, rerr := vm.subscriptGet(value.ObjectVal(list), value.NumberVal(1))
	require.Nil(t, rerr)
	require.Equal(t, 20.0, v.AsNumber())

	v, rerr = vm.subscriptGet(value.ObjectVal(list), value.NumberVal(-1))
	require.Nil(t, rerr)
	require.Equal(t, 30.0, v.AsNumber())

	_, rerr = vm.subscriptGet(value.ObjectVal(list), value.NumberVal(99))
	require.NotNil(t, rerr)
}

func TestSubscriptSetList(t *testing.T) {
	vm, _ := newTestVM()
	list := &value.List{Items: []value.Value{value.NumberVal(1), value.NumberVal(2)}}
	rerr := vm.subscriptSet(value.ObjectVal(list), value.NumberVal(0), value.NumberVal(99))
	require.Nil(t, rerr)
	require.Equal(t, 99.0, list.Items[0].AsNumber())
}

func TestSubscriptStringIsImmutable(t *testing.T) {
	vm, _ := newTestVM()
	s := value.Intern("hello")
	rerr := vm.subscriptSet(value.ObjectVal(s), value.NumberVal(0), value.NumberVal(1))
	require.NotNil(t, rerr)
}

func TestSubscriptGetMap(t *testing.T) {
	vm, _ := newTestVM()
	m := value.NewMap()
	key := value.ObjectVal(value.Intern("name"))
	m.Table.Set(key, value.ObjectVal(value.Intern("tea")))

	v, rerr := vm.subscriptGet(value.ObjectVal(m), key)
	require.Nil(t, rerr)
	require.Equal(t, "tea", value.Stringify(v))

	_, rerr = vm.subscriptGet(value.ObjectVal(m), value.ObjectVal(value.Intern("missing")))
	require.NotNil(t, rerr)
}

func TestSliceGetList(t *testing.T) {
	vm, _ := newTestVM()
	list := &value.List{Items: []value.Value{
		value.NumberVal(1), value.NumberVal(2), value.NumberVal(3), value.NumberVal(4), value.NumberVal(5),
	}}
	v, rerr := vm.sliceGet(value.ObjectVal(list), value.NumberVal(1), value.NumberVal(4), value.NullVal())
	require.Nil(t, rerr)
	sliced, ok := v.AsObject().(*value.List)
	require.True(t, ok)
	require.Len(t, sliced.Items, 3)
	require.Equal(t, 2.0, sliced.Items[0].AsNumber())

	v, rerr = vm.sliceGet(value.ObjectVal(list), value.NullVal(), value.NumberVal(2), value.NullVal())
	require.Nil(t, rerr)
	sliced, _ = v.AsObject().(*value.List)
	require.Len(t, sliced.Items, 2)

	v, rerr = vm.sliceGet(value.ObjectVal(list), value.NullVal(), value.NullVal(), value.NumberVal(-1))
	require.Nil(t, rerr)
	sliced, _ = v.AsObject().(*value.List)
	require.Equal(t, []string{"5", "4", "3", "2", "1"}, stringifyAll(sliced.Items))
}

func TestSliceGetString(t *testing.T) {
	vm, _ := newTestVM()
	s := value.Intern("teascript")
	v, rerr := vm.sliceGet(value.ObjectVal(s), value.NumberVal(0), value.NumberVal(3), value.NullVal())
	require.Nil(t, rerr)
	require.Equal(t, "tea", value.Stringify(v))
}

func TestInterpretSliceExpression(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `[1, 2, 3, 4, 5][1:3];`)
	list, ok := result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"2", "3"}, stringifyAll(list.Items))
}

func TestInterpretSliceOmittedBounds(t *testing.T) {
	vm, _ := newTestVM()

	result := run(t, vm, `[1, 2, 3, 4, 5][:3];`)
	list, ok := result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"1", "2", "3"}, stringifyAll(list.Items))

	result = run(t, vm, `[1, 2, 3, 4, 5][3:];`)
	list, ok = result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"4", "5"}, stringifyAll(list.Items))

	result = run(t, vm, `[1, 2, 3, 4, 5][:];`)
	list, ok = result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, stringifyAll(list.Items))
}

func TestInterpretSliceNegativeStep(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `[1, 2, 3, 4, 5][::-1];`)
	list, ok := result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"5", "4", "3", "2", "1"}, stringifyAll(list.Items))
}
