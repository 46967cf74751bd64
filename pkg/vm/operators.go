package vm

import (
	"math"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// operatorName maps a binary/unary opcode to the method name a class
// declares to overload it (SPEC_FULL.md §4.4's operator-method grammar,
// grounded on pkg/compiler/classes.go's operatorTokens).
func operatorName(op chunk.OpCode) string {
	switch op {
	case chunk.OpAdd:
		return "+"
	case chunk.OpSubtract:
		return "-"
	case chunk.OpMultiply:
		return "*"
	case chunk.OpDivide:
		return "/"
	case chunk.OpMod:
		return "%"
	case chunk.OpPow:
		return "**"
	case chunk.OpBAnd:
		return "&"
	case chunk.OpBOr:
		return "|"
	case chunk.OpBXor:
		return "^"
	case chunk.OpLShift:
		return "<<"
	case chunk.OpRShift:
		return ">>"
	case chunk.OpLess:
		return "<"
	case chunk.OpLessEqual:
		return "<="
	case chunk.OpGreater:
		return ">"
	case chunk.OpGreaterEqual:
		return ">="
	case chunk.OpEqual:
		return "=="
	default:
		return "?"
	}
}

// binaryOp implements every two-operand arithmetic/comparison/bitwise
// opcode: numeric fast path, a handful of collection special cases named by
// SPEC_FULL.md's operator semantics (string/list/map `+`, string repeat
// `*`), and otherwise a fall-through to an instance's own operator-method
// overload, mirroring how GET_PROPERTY/INVOKE already dispatch user code.
func (v *VM) binaryOp(op chunk.OpCode) *diag.RuntimeError {
	t := v.thread
	b := t.pop()
	a := t.pop()

	if a.IsNumber() && b.IsNumber() {
		result, rerr := numericOp(op, a.AsNumber(), b.AsNumber())
		if rerr != nil {
			return rerr
		}
		t.push(result)
		return nil
	}

	if res, ok, rerr := v.collectionOp(op, a, b); rerr != nil {
		return rerr
	} else if ok {
		t.push(res)
		return nil
	}

	name := operatorName(op)
	if inst, ok := asInstance(a); ok {
		if _, found := inst.Class.FindMethod(name); found {
			result, rerr := v.invokeMethod(inst, name, b)
			if rerr != nil {
				return rerr
			}
			t.push(result)
			return nil
		}
	}
	if inst, ok := asInstance(b); ok {
		if _, found := inst.Class.FindMethod(name); found {
			result, rerr := v.invokeMethod(inst, name, a)
			if rerr != nil {
				return rerr
			}
			t.push(result)
			return nil
		}
	}

	return v.runtimeError("unsupported operand types for '%s': %s and %s", name, value.TypeName(a), value.TypeName(b))
}

func numericOp(op chunk.OpCode, a, b float64) (value.Value, *diag.RuntimeError) {
	switch op {
	case chunk.OpAdd:
		return value.NumberVal(a + b), nil
	case chunk.OpSubtract:
		return value.NumberVal(a - b), nil
	case chunk.OpMultiply:
		return value.NumberVal(a * b), nil
	case chunk.OpDivide:
		return value.NumberVal(a / b), nil
	case chunk.OpMod:
		return value.NumberVal(math.Mod(a, b)), nil
	case chunk.OpPow:
		return value.NumberVal(math.Pow(a, b)), nil
	case chunk.OpBAnd:
		return value.NumberVal(float64(int64(a) & int64(b))), nil
	case chunk.OpBOr:
		return value.NumberVal(float64(int64(a) | int64(b))), nil
	case chunk.OpBXor:
		return value.NumberVal(float64(int64(a) ^ int64(b))), nil
	case chunk.OpLShift:
		return value.NumberVal(float64(int64(a) << uint64(int64(b)))), nil
	case chunk.OpRShift:
		return value.NumberVal(float64(int64(a) >> uint64(int64(b)))), nil
	case chunk.OpLess:
		return value.BoolVal(a < b), nil
	case chunk.OpLessEqual:
		return value.BoolVal(a <= b), nil
	case chunk.OpGreater:
		return value.BoolVal(a > b), nil
	case chunk.OpGreaterEqual:
		return value.BoolVal(a >= b), nil
	}
	return value.Value{}, nil
}

// collectionOp implements the non-numeric operator special cases the
// spec names explicitly: string/list/map concatenation and merge via `+`,
// string repetition via `*`, and lexicographic string comparison.
func (v *VM) collectionOp(op chunk.OpCode, a, b value.Value) (value.Value, bool, *diag.RuntimeError) {
	if a.IsObject() {
		switch ao := a.AsObject().(type) {
		case *value.String:
			if bo, ok := b.AsObject().(*value.String); b.IsObject() && ok {
				switch op {
				case chunk.OpAdd:
					return value.ObjectVal(value.Intern(string(ao.Chars) + string(bo.Chars))), true, nil
				case chunk.OpLess:
					return value.BoolVal(string(ao.Chars) < string(bo.Chars)), true, nil
				case chunk.OpLessEqual:
					return value.BoolVal(string(ao.Chars) <= string(bo.Chars)), true, nil
				case chunk.OpGreater:
					return value.BoolVal(string(ao.Chars) > string(bo.Chars)), true, nil
				case chunk.OpGreaterEqual:
					return value.BoolVal(string(ao.Chars) >= string(bo.Chars)), true, nil
				}
			}
			if op == chunk.OpMultiply && b.IsNumber() {
				return value.ObjectVal(value.Intern(repeatString(string(ao.Chars), int(b.AsNumber())))), true, nil
			}
		case *value.List:
			if bo, ok := b.AsObject().(*value.List); b.IsObject() && ok && op == chunk.OpAdd {
				items := make([]value.Value, 0, len(ao.Items)+len(bo.Items))
				items = append(items, ao.Items...)
				items = append(items, bo.Items...)
				merged := &value.List{Items: items}
				v.track(merged, sizeList)
				return value.ObjectVal(merged), true, nil
			}
		case *value.Map:
			if bo, ok := b.AsObject().(*value.Map); b.IsObject() && ok && op == chunk.OpAdd {
				merged := value.NewMap()
				ao.Table.Each(func(k, v value.Value) { merged.Table.Set(k, v) })
				bo.Table.Each(func(k, v value.Value) { merged.Table.Set(k, v) })
				v.track(merged, sizeMap)
				return value.ObjectVal(merged), true, nil
			}
		}
	}
	if op == chunk.OpMultiply && a.IsNumber() && b.IsObject() {
		if bo, ok := b.AsObject().(*value.String); ok {
			return value.ObjectVal(value.Intern(repeatString(string(bo.Chars), int(a.AsNumber())))), true, nil
		}
	}
	return value.Value{}, false, nil
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// tryUnaryOverload handles NEGATE/BNOT on an instance via its `-`/`~`
// operator method; the same token doubles as both operators' name since
// the compiler's own operatorTokens list has no separate unary entries.
func (v *VM) tryUnaryOverload(name string, a value.Value) (bool, *diag.RuntimeError) {
	inst, ok := asInstance(a)
	if !ok {
		return false, nil
	}
	if _, found := inst.Class.FindMethod(name); !found {
		return false, nil
	}
	result, rerr := v.invokeMethod(inst, name)
	if rerr != nil {
		return true, rerr
	}
	v.thread.push(result)
	return true, nil
}

// isInstanceOf implements the `is` operator: true when a is an instance of
// class b or one of b's subclasses.
func (v *VM) isInstanceOf(a, b value.Value) bool {
	if !b.IsObject() {
		return false
	}
	klass, ok := b.AsObject().(*value.Class)
	if !ok {
		return false
	}
	inst, ok := asInstance(a)
	if !ok {
		return false
	}
	for c := inst.Class; c != nil; c = c.Super {
		if c == klass {
			return true
		}
	}
	return false
}

// membershipTest implements the `in` operator over lists, maps, ranges and
// strings (substring search).
func (v *VM) membershipTest(a, b value.Value) (bool, *diag.RuntimeError) {
	if !b.IsObject() {
		return false, v.runtimeError("right-hand side of 'in' must be a list, map, range, or string, got %s", value.TypeName(b))
	}
	switch o := b.AsObject().(type) {
	case *value.List:
		for _, it := range o.Items {
			if value.Equal(it, a) {
				return true, nil
			}
		}
		return false, nil
	case *value.Map:
		if !value.Hashable(a) {
			return false, nil
		}
		_, ok := o.Table.Get(a)
		return ok, nil
	case *value.Range:
		if !a.IsNumber() {
			return false, nil
		}
		return o.Contains(a.AsNumber()), nil
	case *value.String:
		as, ok := a.AsObject().(*value.String)
		if !a.IsObject() || !ok {
			return false, nil
		}
		return containsSubstring(string(o.Chars), string(as.Chars)), nil
	default:
		return false, v.runtimeError("right-hand side of 'in' must be a list, map, range, or string, got %s", value.TypeName(b))
	}
}

func containsSubstring(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// invokeMethod calls inst's method name with args, running the VM's
// dispatch loop to completion if the method is a teascript closure (rather
// than a native returning synchronously), and returns its result. Used by
// operator-overload fallbacks, for-in's instance path, and anywhere else a
// Go-level helper needs to call back into user code mid-instruction.
func (v *VM) invokeMethod(inst *value.Instance, name string, args ...value.Value) (value.Value, *diag.RuntimeError) {
	t := v.thread
	calleeSlot := len(t.stack)
	if !t.push(value.ObjectVal(inst)) {
		return value.Value{}, v.runtimeError("stack overflow")
	}
	for _, a := range args {
		if !t.push(a) {
			return value.Value{}, v.runtimeError("stack overflow")
		}
	}
	floor := len(t.frames)
	if rerr := v.invoke(calleeSlot, name, len(args)); rerr != nil {
		t.stack = t.stack[:calleeSlot]
		return value.Value{}, rerr
	}
	if len(t.frames) == floor {
		return t.pop(), nil
	}
	return v.run(floor)
}
