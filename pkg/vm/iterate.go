package vm

import (
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// iterateBuiltin implements the "iterate" half of the for-in protocol for
// every core sequence type: given the previous cursor (Null to start),
// return the next cursor or Null once exhausted. The cursor is always a
// plain Number so it stays unambiguous across iterations even when the
// sequence holds duplicate values — unlike binding the loop variable
// directly, which is what the original two-call iterate/iteratorvalue
// design existed to avoid conflating.
func (v *VM) iterateBuiltin(seq value.Value, prev value.Value) (value.Value, bool, *diag.RuntimeError) {
	if !seq.IsObject() {
		return value.Value{}, false, v.runtimeError("cannot iterate over %s", value.TypeName(seq))
	}
	switch obj := seq.AsObject().(type) {
	case *value.Range:
		var next float64
		if prev.IsNull() {
			next = obj.Start
		} else {
			next = prev.AsNumber() + obj.Step
		}
		if !obj.Contains(next) {
			return value.Value{}, false, nil
		}
		return value.NumberVal(next), true, nil

	case *value.List:
		idx := -1
		if !prev.IsNull() {
			idx = int(prev.AsNumber())
		}
		idx++
		if idx >= len(obj.Items) {
			return value.Value{}, false, nil
		}
		return value.NumberVal(float64(idx)), true, nil

	case *value.String:
		chars := []rune(string(obj.Chars))
		idx := -1
		if !prev.IsNull() {
			idx = int(prev.AsNumber())
		}
		idx++
		if idx >= len(chars) {
			return value.Value{}, false, nil
		}
		return value.NumberVal(float64(idx)), true, nil

	case *value.Map:
		slot := -1
		if !prev.IsNull() {
			slot = int(prev.AsNumber())
		}
		next, ok := obj.Table.NextOccupied(slot + 1)
		if !ok {
			return value.Value{}, false, nil
		}
		return value.NumberVal(float64(next)), true, nil

	default:
		return value.Value{}, false, nil
	}
}

// iterValueBuiltin implements the "iteratorvalue" half: converting a cursor
// produced by iterateBuiltin into the value(s) bound to the loop variable.
func (v *VM) iterValueBuiltin(seq value.Value, state value.Value) (value.Value, bool, *diag.RuntimeError) {
	obj := seq.AsObject()
	idx := int(state.AsNumber())
	switch o := obj.(type) {
	case *value.Range:
		return state, true, nil

	case *value.List:
		return o.Items[idx], true, nil

	case *value.String:
		chars := []rune(string(o.Chars))
		item := value.ObjectVal(value.Intern(string(chars[idx])))
		return item, true, nil

	case *value.Map:
		key, val := o.Table.KeyValueAt(idx)
		pair := &value.List{Items: []value.Value{key, val}}
		v.track(pair, sizeList)
		return value.ObjectVal(pair), true, nil

	default:
		return value.Value{}, false, nil
	}
}
