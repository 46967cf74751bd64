package vm

import (
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// normalizeIndex resolves a possibly-negative subscript index against
// length L (negative counts from the end, as `list[-1]` etc.).
func normalizeIndex(idx float64, length int) int {
	i := int(idx)
	if i < 0 {
		i += length
	}
	return i
}

// subscriptGet implements SUBSCRIPT/SUBSCRIPT_PUSH's single-index read.
func (v *VM) subscriptGet(obj, index value.Value) (value.Value, *diag.RuntimeError) {
	if !obj.IsObject() {
		return value.Value{}, v.runtimeError("type %s does not support subscript access", value.TypeName(obj))
	}
	switch o := obj.AsObject().(type) {
	case *value.List:
		if !index.IsNumber() {
			return value.Value{}, v.runtimeError("list index must be a number")
		}
		i := normalizeIndex(index.AsNumber(), len(o.Items))
		if i < 0 || i >= len(o.Items) {
			return value.Value{}, v.runtimeError("list index out of bounds")
		}
		return o.Items[i], nil
	case *value.String:
		chars := []rune(string(o.Chars))
		if !index.IsNumber() {
			return value.Value{}, v.runtimeError("string index must be a number")
		}
		i := normalizeIndex(index.AsNumber(), len(chars))
		if i < 0 || i >= len(chars) {
			return value.Value{}, v.runtimeError("string index out of bounds")
		}
		return value.ObjectVal(value.Intern(string(chars[i]))), nil
	case *value.Map:
		if !value.Hashable(index) {
			return value.Value{}, v.runtimeError("unhashable map key: %s", value.TypeName(index))
		}
		val, ok := o.Table.Get(index)
		if !ok {
			return value.Value{}, v.runtimeError("key not found in map")
		}
		return val, nil
	case *value.Instance:
		if _, found := o.Class.FindMethod("[]"); found {
			return v.invokeMethod(o, "[]", index)
		}
		return value.Value{}, v.runtimeError("undefined operator '[]' for %s", value.TypeName(obj))
	default:
		return value.Value{}, v.runtimeError("type %s does not support subscript access", value.TypeName(obj))
	}
}

// subscriptSet implements SUBSCRIPT_STORE.
func (v *VM) subscriptSet(obj, index, val value.Value) *diag.RuntimeError {
	if !obj.IsObject() {
		return v.runtimeError("type %s does not support subscript assignment", value.TypeName(obj))
	}
	switch o := obj.AsObject().(type) {
	case *value.List:
		if !index.IsNumber() {
			return v.runtimeError("list index must be a number")
		}
		i := normalizeIndex(index.AsNumber(), len(o.Items))
		if i < 0 || i >= len(o.Items) {
			return v.runtimeError("list index out of bounds")
		}
		o.Items[i] = val
		return nil
	case *value.Map:
		if !value.Hashable(index) {
			return v.runtimeError("unhashable map key: %s", value.TypeName(index))
		}
		o.Table.Set(index, val)
		return nil
	case *value.String:
		return v.runtimeError("strings are immutable")
	case *value.Instance:
		if _, found := o.Class.FindMethod("[]"); found {
			_, rerr := v.invokeMethod(o, "[]", index, val)
			return rerr
		}
		return v.runtimeError("undefined operator '[]' for %s", value.TypeName(obj))
	default:
		return v.runtimeError("type %s does not support subscript assignment", value.TypeName(obj))
	}
}

// sliceGet implements SLICE: object[start:end:step]. Any of the three
// operands may be Null, meaning "from the beginning"/"to the end"/"1"
// respectively (Null step means a positive unit step); a negative step
// walks the sequence back to front, matching `tea_list.c`'s clamp behavior
// for the two-bound case and extending it the same way for the step.
func (v *VM) sliceGet(obj, start, end, step value.Value) (value.Value, *diag.RuntimeError) {
	if !obj.IsObject() {
		return value.Value{}, v.runtimeError("type %s does not support slicing", value.TypeName(obj))
	}
	switch o := obj.AsObject().(type) {
	case *value.List:
		idx, rerr := v.sliceIndices(start, end, step, len(o.Items))
		if rerr != nil {
			return value.Value{}, rerr
		}
		items := make([]value.Value, len(idx))
		for i, j := range idx {
			items[i] = o.Items[j]
		}
		l := &value.List{Items: items}
		v.track(l, sizeList)
		return value.ObjectVal(l), nil
	case *value.String:
		chars := []rune(string(o.Chars))
		idx, rerr := v.sliceIndices(start, end, step, len(chars))
		if rerr != nil {
			return value.Value{}, rerr
		}
		out := make([]rune, len(idx))
		for i, j := range idx {
			out[i] = chars[j]
		}
		return value.ObjectVal(value.Intern(string(out))), nil
	default:
		return value.Value{}, v.runtimeError("type %s does not support slicing", value.TypeName(obj))
	}
}

// sliceStep resolves the step operand: Null means 1, zero is an error.
func (v *VM) sliceStep(step value.Value) (int, *diag.RuntimeError) {
	if step.IsNull() {
		return 1, nil
	}
	if !step.IsNumber() {
		return 0, v.runtimeError("slice step must be a number")
	}
	s := int(step.AsNumber())
	if s == 0 {
		return 0, v.runtimeError("slice step cannot be zero")
	}
	return s, nil
}

// sliceIndices resolves start/end/step into the sequence of source indices
// a slice collects. A positive step defaults to the whole-sequence range
// [0, length) the way the original two-bound form always did; a negative
// step defaults to walking from the last element back to the first,
// clamping an explicit bound to the valid range for its direction rather
// than ever erroring on an out-of-range slice bound.
func (v *VM) sliceIndices(start, end, step value.Value, length int) ([]int, *diag.RuntimeError) {
	s, rerr := v.sliceStep(step)
	if rerr != nil {
		return nil, rerr
	}

	var lo, hi int
	if s > 0 {
		lo, hi = 0, length
	} else {
		lo, hi = length-1, -1
	}
	if !start.IsNull() {
		if !start.IsNumber() {
			return nil, v.runtimeError("slice bound must be a number")
		}
		lo = normalizeIndex(start.AsNumber(), length)
	}
	if !end.IsNull() {
		if !end.IsNumber() {
			return nil, v.runtimeError("slice bound must be a number")
		}
		hi = normalizeIndex(end.AsNumber(), length)
	}

	var indices []int
	if s > 0 {
		if lo < 0 {
			lo = 0
		}
		if hi > length {
			hi = length
		}
		for i := lo; i < hi; i += s {
			indices = append(indices, i)
		}
		return indices, nil
	}

	if lo > length-1 {
		lo = length - 1
	}
	if hi < -1 {
		hi = -1
	}
	for i := lo; i > hi; i += s {
		indices = append(indices, i)
	}
	return indices, nil
}
