package vm

import (
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// collectSequenceItems fully materializes any iterable value into a slice,
// taking the List fast path directly and otherwise driving the same
// iterate/iteratorvalue protocol OP_GET_ITER/OP_ITER_VALUE use, including
// the fallback to a user-defined iterate/iteratorvalue method pair.
func (v *VM) collectSequenceItems(seq value.Value) ([]value.Value, *diag.RuntimeError) {
	if seq.IsObject() {
		if l, ok := seq.AsObject().(*value.List); ok {
			out := make([]value.Value, len(l.Items))
			copy(out, l.Items)
			return out, nil
		}
	}

	var items []value.Value
	cursor := value.NullVal()
	for {
		next, ok, rerr := v.iterateBuiltin(seq, cursor)
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			inst, isInst := asInstance(seq)
			if !isInst {
				return nil, v.runtimeError("cannot destructure %s", value.TypeName(seq))
			}
			next, rerr = v.invokeMethod(inst, "iterate", cursor)
			if rerr != nil {
				return nil, rerr
			}
		}
		if next.IsNull() {
			break
		}
		item, ok2, rerr := v.iterValueBuiltin(seq, next)
		if rerr != nil {
			return nil, rerr
		}
		if !ok2 {
			inst, isInst := asInstance(seq)
			if !isInst {
				return nil, v.runtimeError("cannot destructure %s", value.TypeName(seq))
			}
			item, rerr = v.invokeMethod(inst, "iteratorvalue", next)
			if rerr != nil {
				return nil, rerr
			}
		}
		items = append(items, item)
		cursor = next
	}
	return items, nil
}

// unpackSequence implements UNPACK_LIST: exactly n values expected, pushed
// in ascending declaration order by the caller (name0 deepest, name(n-1)
// topmost).
func (v *VM) unpackSequence(src value.Value, n int) ([]value.Value, *diag.RuntimeError) {
	items, rerr := v.collectSequenceItems(src)
	if rerr != nil {
		return nil, rerr
	}
	if len(items) != n {
		return nil, v.runtimeError("expected %d values to unpack but got %d", n, len(items))
	}
	return items, nil
}

// unpackRest implements UNPACK_REST_LIST: total names total, the one at
// restIndex captures every item not claimed by a name before or after it.
func (v *VM) unpackRest(src value.Value, total, restIndex int) ([]value.Value, *diag.RuntimeError) {
	items, rerr := v.collectSequenceItems(src)
	if rerr != nil {
		return nil, rerr
	}
	beforeCount := restIndex
	afterCount := total - 1 - restIndex
	if len(items) < beforeCount+afterCount {
		return nil, v.runtimeError("expected at least %d values to unpack but got %d", beforeCount+afterCount, len(items))
	}
	restLen := len(items) - beforeCount - afterCount

	result := make([]value.Value, total)
	copy(result[:beforeCount], items[:beforeCount])

	restItems := make([]value.Value, restLen)
	copy(restItems, items[beforeCount:beforeCount+restLen])
	rest := &value.List{Items: restItems}
	v.track(rest, sizeList)
	result[restIndex] = value.ObjectVal(rest)

	copy(result[restIndex+1:], items[beforeCount+restLen:])
	return result, nil
}
