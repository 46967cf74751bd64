package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/value"
)

func TestCollectSequenceItemsList(t *testing.T) {
	vm, _ := newTestVM()
	list := value.ObjectVal(&value.List{Items: []value.Value{value.NumberVal(1), value.NumberVal(2)}})
	items, rerr := vm.collectSequenceItems(list)
	require.Nil(t, rerr)
	require.Len(t, items, 2)
}

func TestCollectSequenceItemsRange(t *testing.T) {
	vm, _ := newTestVM()
	r := value.ObjectVal(&value.Range{Start: 1, End: 4, Step: 1})
	items, rerr := vm.collectSequenceItems(r)
	require.Nil(t, rerr)
	require.Len(t, items, 3)
	require.Equal(t, 1.0, items[0].AsNumber())
	require.Equal(t, 3.0, items[2].AsNumber())
}

func TestUnpackSequenceMismatch(t *testing.T) {
	vm, _ := newTestVM()
	list := value.ObjectVal(&value.List{Items: []value.Value{value.NumberVal(1)}})
	_, rerr := vm.unpackSequence(list, 2)
	require.NotNil(t, rerr)
}

func TestUnpackRest(t *testing.T) {
	vm, _ := newTestVM()
	list := value.ObjectVal(&value.List{Items: []value.Value{
		value.NumberVal(1), value.NumberVal(2), value.NumberVal(3), value.NumberVal(4),
	}})
	result, rerr := vm.unpackRest(list, 2, 1)
	require.Nil(t, rerr)
	require.Equal(t, 1.0, result[0].AsNumber())
	rest := result[1].AsObject().(*value.List)
	require.Equal(t, []string{"2", "3", "4"}, stringifyAll(rest.Items))
}

func TestInterpretDestructuringPlain(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var [a, b] = [10, 20];
		a + b;
	`)
	require.Equal(t, 30.0, result.AsNumber())
}

func TestInterpretDestructuringOfInstanceIterable(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Pair {
			constructor(a, b) { this.items = [a, b]; this.count = 2; }
			iterate(prev) {
				if (prev == null) { return 0; }
				if (prev + 1 >= this.count) { return null; }
				return prev + 1;
			}
			iteratorvalue(cursor) { return this.items[cursor]; }
		}
		var [x, y] = Pair(7, 8);
		x + y;
	`)
	require.Equal(t, 15.0, result.AsNumber())
}
