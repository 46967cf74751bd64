package vm

import (
	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// Interpret compiles source as a fresh module and runs its top-level code
// to completion, returning the value of its final statement when that is a
// top-level expression statement, or Null otherwise.
func (v *VM) Interpret(source, name string) (value.Value, error) {
	fn, mod, err := v.compileModule(source, name, false)
	if err != nil {
		return value.Value{}, err
	}
	return v.runFunction(fn, mod)
}

// InterpretREPL is Interpret's counterpart for one REPL line: top-level bare
// expressions auto-print via OpPopRepl instead of being discarded, except the
// line's final expression statement, which is returned as the result.
func (v *VM) InterpretREPL(source, name string) (value.Value, error) {
	fn, mod, err := v.compileModule(source, name, true)
	if err != nil {
		return value.Value{}, err
	}
	return v.runFunction(fn, mod)
}

func (v *VM) runFunction(fn *value.Function, mod *value.Module) (value.Value, error) {
	_ = mod
	closure := &value.Closure{Function: fn}
	v.track(closure, sizeClosure)

	t := v.thread
	base := len(t.stack)
	if !t.push(value.ObjectVal(closure)) {
		return value.Value{}, v.runtimeError("stack overflow")
	}
	have := len(t.stack) - base
	for have < fn.MaxSlots {
		if !t.push(value.NullVal()) {
			return value.Value{}, v.runtimeError("stack overflow")
		}
		have++
	}
	t.frames = append(t.frames, CallFrame{closure: closure, slotsBase: base})

	result, rerr := v.run(len(t.frames) - 1)
	if rerr != nil {
		t.frames = t.frames[:0]
		t.stack = t.stack[:base]
		return value.Value{}, rerr
	}
	return result, nil
}

// run executes instructions until the frame at floor (and everything above
// it) has returned, i.e. until len(t.frames) == floor. It returns the value
// left by the final OpReturn out of the floor frame.
func (v *VM) run(floor int) (value.Value, *diag.RuntimeError) {
	t := v.thread
	var lastPopped value.Value

	readByte := func(f *CallFrame) byte {
		ch := f.closure.Function.Chunk.(*chunk.Chunk)
		b := ch.Code[f.ip]
		f.ip++
		return b
	}
	readUint16 := func(f *CallFrame) int {
		ch := f.closure.Function.Chunk.(*chunk.Chunk)
		n := ch.ReadUint16(f.ip)
		f.ip += 2
		return n
	}
	readConstant := func(f *CallFrame) value.Value {
		ch := f.closure.Function.Chunk.(*chunk.Chunk)
		return ch.Constants[readByte(f)]
	}
	readString := func(f *CallFrame) string {
		s := readConstant(f).AsObject().(*value.String)
		return string(s.Chars)
	}

	for {
		f := t.frame()
		op := chunk.OpCode(readByte(f))

		switch op {
		case chunk.OpConstant:
			t.push(readConstant(f))
		case chunk.OpNull:
			t.push(value.NullVal())
		case chunk.OpTrue:
			t.push(value.BoolVal(true))
		case chunk.OpFalse:
			t.push(value.BoolVal(false))

		case chunk.OpPop:
			t.pop()
		case chunk.OpDup:
			t.push(t.peek(0))
		case chunk.OpPopRepl:
			lastPopped = t.pop()
			if !lastPopped.IsNull() {
				v.Print(value.Stringify(lastPopped))
			}

		case chunk.OpGetLocal:
			slot := int(readByte(f))
			t.push(t.stack[f.slotsBase+slot])
		case chunk.OpSetLocal:
			slot := int(readByte(f))
			t.stack[f.slotsBase+slot] = t.peek(0)

		case chunk.OpGetUpvalue:
			idx := int(readByte(f))
			t.push(f.closure.Upvalues[idx].Get())
		case chunk.OpSetUpvalue:
			idx := int(readByte(f))
			f.closure.Upvalues[idx].Set(t.peek(0))

		case chunk.OpDefineGlobal:
			name := readString(f)
			v.globals.SetStr(name, t.pop())
		case chunk.OpGetGlobal:
			name := readString(f)
			val, ok := v.globals.GetStr(name)
			if !ok {
				return value.Value{}, v.runtimeError("undefined variable '%s'", name)
			}
			t.push(val)
		case chunk.OpSetGlobal:
			name := readString(f)
			if _, ok := v.globals.GetStr(name); !ok {
				return value.Value{}, v.runtimeError("undefined variable '%s'", name)
			}
			v.globals.SetStr(name, t.peek(0))

		case chunk.OpDefineModule:
			name := readString(f)
			f.closure.Function.Module.Values.SetStr(name, t.pop())
		case chunk.OpGetModule:
			name := readString(f)
			val, ok := f.closure.Function.Module.Values.GetStr(name)
			if !ok {
				return value.Value{}, v.runtimeError("undefined variable '%s'", name)
			}
			t.push(val)
		case chunk.OpSetModule:
			name := readString(f)
			mv := f.closure.Function.Module.Values
			if _, ok := mv.GetStr(name); !ok {
				return value.Value{}, v.runtimeError("undefined variable '%s'", name)
			}
			mv.SetStr(name, t.peek(0))

		case chunk.OpDefineOptional:
			arityReq := int(readByte(f))
			arityOpt := int(readByte(f))
			v.defineOptional(arityReq, arityOpt)

		case chunk.OpGetProperty:
			name := readString(f)
			receiver := t.pop()
			val, rerr := v.getProperty(receiver, name)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpGetPropertyNoPop:
			name := readString(f)
			receiver := t.peek(0)
			val, rerr := v.getProperty(receiver, name)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpSetProperty:
			name := readString(f)
			val := t.pop()
			receiver := t.pop()
			if rerr := v.setProperty(receiver, name, val); rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpGetSuper:
			name := readString(f)
			super := t.pop()
			this := t.pop()
			klass, ok := super.AsObject().(*value.Class)
			if !super.IsObject() || !ok {
				return value.Value{}, v.runtimeError("super is not a class")
			}
			bound, ok := v.bindMethod(klass, this, name)
			if !ok {
				return value.Value{}, v.runtimeError("undefined property '%s'", name)
			}
			t.push(bound)
		case chunk.OpSetClassVar:
			name := readString(f)
			val := t.pop()
			klass, ok := t.peek(0).AsObject().(*value.Class)
			if !ok {
				return value.Value{}, v.runtimeError("class variable declared outside a class")
			}
			klass.Statics.SetStr(name, val)

		case chunk.OpList:
			l := &value.List{}
			v.track(l, sizeList)
			t.push(value.ObjectVal(l))
		case chunk.OpPushListItem:
			item := t.pop()
			l := t.peek(0).AsObject().(*value.List)
			l.Items = append(l.Items, item)
		case chunk.OpMap:
			m := value.NewMap()
			v.track(m, sizeMap)
			t.push(value.ObjectVal(m))
		case chunk.OpPushMapField:
			val := t.pop()
			key := t.pop()
			m := t.peek(0).AsObject().(*value.Map)
			if !value.Hashable(key) {
				return value.Value{}, v.runtimeError("unhashable map key: %s", value.TypeName(key))
			}
			m.Table.Set(key, val)
		case chunk.OpRange:
			inclusive := readByte(f) != 0
			end := t.pop().AsNumber()
			start := t.pop().AsNumber()
			step := 1.0
			if start > end {
				step = -1.0
			}
			if inclusive {
				end += step
			}
			r := &value.Range{Start: start, End: end, Step: step}
			v.track(r, sizeList)
			t.push(value.ObjectVal(r))

		case chunk.OpSubscript:
			index := t.pop()
			obj := t.pop()
			val, rerr := v.subscriptGet(obj, index)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpSubscriptPush:
			index := t.peek(0)
			obj := t.peek(1)
			val, rerr := v.subscriptGet(obj, index)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpSubscriptStore:
			val := t.pop()
			index := t.pop()
			obj := t.pop()
			if rerr := v.subscriptSet(obj, index, val); rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)
		case chunk.OpSlice:
			step := t.pop()
			end := t.pop()
			start := t.pop()
			obj := t.pop()
			val, rerr := v.sliceGet(obj, start, end, step)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(val)

		case chunk.OpUnpackList:
			n := int(readByte(f))
			src := t.pop()
			items, rerr := v.unpackSequence(src, n)
			if rerr != nil {
				return value.Value{}, rerr
			}
			for _, it := range items {
				t.push(it)
			}
		case chunk.OpUnpackRestList:
			total := int(readByte(f))
			restIndex := int(readByte(f))
			src := t.pop()
			items, rerr := v.unpackRest(src, total, restIndex)
			if rerr != nil {
				return value.Value{}, rerr
			}
			for _, it := range items {
				t.push(it)
			}

		case chunk.OpEqual:
			b := t.pop()
			a := t.pop()
			if inst, ok := asInstance(a); ok {
				if _, found := inst.Class.FindMethod("=="); found {
					result, rerr := v.invokeMethod(inst, "==", b)
					if rerr != nil {
						return value.Value{}, rerr
					}
					t.push(result)
					continue
				}
			}
			t.push(value.BoolVal(value.Equal(a, b)))
		case chunk.OpGreater, chunk.OpGreaterEqual, chunk.OpLess, chunk.OpLessEqual,
			chunk.OpAdd, chunk.OpSubtract, chunk.OpMultiply, chunk.OpDivide, chunk.OpMod, chunk.OpPow,
			chunk.OpBAnd, chunk.OpBOr, chunk.OpBXor, chunk.OpLShift, chunk.OpRShift:
			if rerr := v.binaryOp(op); rerr != nil {
				return value.Value{}, rerr
			}
		case chunk.OpBNot:
			a := t.pop()
			if !a.IsNumber() {
				if handled, rerr := v.tryUnaryOverload("~", a); handled {
					if rerr != nil {
						return value.Value{}, rerr
					}
					continue
				}
				return value.Value{}, v.runtimeError("operand must be a number")
			}
			t.push(value.NumberVal(float64(^int64(a.AsNumber()))))
		case chunk.OpNot:
			a := t.pop()
			t.push(value.BoolVal(value.IsFalsey(a)))
		case chunk.OpNegate:
			a := t.pop()
			if !a.IsNumber() {
				if handled, rerr := v.tryUnaryOverload("-", a); handled {
					if rerr != nil {
						return value.Value{}, rerr
					}
					continue
				}
				return value.Value{}, v.runtimeError("operand must be a number")
			}
			t.push(value.NumberVal(-a.AsNumber()))
		case chunk.OpIs:
			b := t.pop()
			a := t.pop()
			t.push(value.BoolVal(v.isInstanceOf(a, b)))
		case chunk.OpIn:
			b := t.pop()
			a := t.pop()
			res, rerr := v.membershipTest(a, b)
			if rerr != nil {
				return value.Value{}, rerr
			}
			t.push(value.BoolVal(res))

		case chunk.OpAnd:
			offset := readUint16(f)
			if value.IsFalsey(t.peek(0)) {
				f.ip += offset
			}
		case chunk.OpOr:
			offset := readUint16(f)
			if !value.IsFalsey(t.peek(0)) {
				f.ip += offset
			}

		case chunk.OpJump:
			offset := readUint16(f)
			f.ip += offset
		case chunk.OpJumpIfFalse:
			offset := readUint16(f)
			if value.IsFalsey(t.peek(0)) {
				f.ip += offset
			}
		case chunk.OpJumpIfNull:
			offset := readUint16(f)
			if t.peek(0).IsNull() {
				f.ip += offset
			}
		case chunk.OpLoop:
			offset := readUint16(f)
			f.ip -= offset
		case chunk.OpCompareJump:
			offset := readUint16(f)
			caseVal := t.pop()
			subj := t.peek(0)
			if value.Equal(subj, caseVal) {
				f.ip += offset
			} else {
				t.pop()
			}
		case chunk.OpMultiCase:
			// Like OpCompareJump, but the case tests several comma-separated
			// values: the operand count precedes the values themselves.
			count := int(readByte(f))
			subj := t.peek(int(0))
			matched := false
			for i := 0; i < count; i++ {
				caseVal := t.pop()
				if !matched && value.Equal(subj, caseVal) {
					matched = true
				}
			}
			offset := readUint16(f)
			if matched {
				f.ip += offset
			} else {
				t.pop()
			}
		case chunk.OpEnd:
			// unreachable in fully patched code; treat as a no-op.

		case chunk.OpCall:
			argCount := int(readByte(f))
			calleeSlot := len(t.stack) - 1 - argCount
			if rerr := v.callValue(calleeSlot, argCount); rerr != nil {
				return value.Value{}, rerr
			}
		case chunk.OpInvoke:
			name := readString(f)
			argCount := int(readByte(f))
			calleeSlot := len(t.stack) - 1 - argCount
			if rerr := v.invoke(calleeSlot, name, argCount); rerr != nil {
				return value.Value{}, rerr
			}
		case chunk.OpSuperInvoke:
			name := readString(f)
			argCount := int(readByte(f))
			super := t.pop()
			klass, ok := super.AsObject().(*value.Class)
			if !super.IsObject() || !ok {
				return value.Value{}, v.runtimeError("super is not a class")
			}
			calleeSlot := len(t.stack) - 1 - argCount
			if rerr := v.invokeFromClass(klass, calleeSlot, name, argCount); rerr != nil {
				return value.Value{}, rerr
			}

		case chunk.OpClosure:
			fn := readConstant(f).AsObject().(*value.Function)
			closure := &value.Closure{Function: fn, Upvalues: make([]*value.UpvalueRef, fn.UpvalueCount)}
			v.track(closure, sizeClosure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte(f) != 0
				index := int(readByte(f))
				if isLocal {
					closure.Upvalues[i] = v.captureUpvalue(f.slotsBase + index)
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
			t.push(value.ObjectVal(closure))
		case chunk.OpCloseUpvalue:
			v.closeUpvalues(len(t.stack) - 1)
			t.pop()

		case chunk.OpReturn:
			result := t.pop()
			finishedFrame := len(t.frames) - 1
			v.closeUpvalues(f.slotsBase)
			t.stack = t.stack[:f.slotsBase]
			t.frames = t.frames[:finishedFrame]
			if finishedFrame == floor {
				return result, nil
			}
			t.push(result)

		case chunk.OpClass:
			name := readConstant(f).AsObject().(*value.String)
			klass := value.NewClass(name)
			v.track(klass, sizeClass)
			t.push(value.ObjectVal(klass))
		case chunk.OpInherit:
			sub := t.pop()
			super := t.pop()
			superClass, sok := super.AsObject().(*value.Class)
			subClass, cok := sub.AsObject().(*value.Class)
			if !super.IsObject() || !sok {
				return value.Value{}, v.runtimeError("superclass must be a class")
			}
			if !sub.IsObject() || !cok {
				return value.Value{}, v.runtimeError("can only inherit into a class")
			}
			if rerr := inherit(superClass, subClass); rerr != nil {
				return value.Value{}, rerr
			}
		case chunk.OpMethod:
			name := readString(f)
			method := t.pop()
			klass, ok := t.peek(0).AsObject().(*value.Class)
			if !ok {
				return value.Value{}, v.runtimeError("method declared outside a class")
			}
			defineMethod(klass, name, method)
		case chunk.OpExtensionMethod:
			name := readString(f)
			method := t.pop()
			target := t.pop()
			klass, ok := target.AsObject().(*value.Class)
			if !target.IsObject() || !ok {
				return value.Value{}, v.runtimeError("can only extend a class")
			}
			defineMethod(klass, name, method)
			t.push(target)

		case chunk.OpImportString:
			pathVal := t.pop()
			path := string(pathVal.AsObject().(*value.String).Chars)
			mod, rerr := v.importPath(path)
			if rerr != nil {
				return value.Value{}, rerr
			}
			v.lastImportModule = mod
			t.push(value.ObjectVal(mod))
		case chunk.OpImportName:
			name := readString(f)
			mod, rerr := v.importName(name)
			if rerr != nil {
				return value.Value{}, rerr
			}
			v.lastImportModule = mod
			t.push(value.ObjectVal(mod))
		case chunk.OpImportVariable:
			name := readString(f)
			if v.lastImportModule == nil {
				return value.Value{}, v.runtimeError("no module currently being imported")
			}
			val, ok := v.lastImportModule.Values.GetStr(name)
			if !ok {
				return value.Value{}, v.runtimeError("undefined export '%s'", name)
			}
			t.push(val)
		case chunk.OpImportAlias:
			if v.lastImportModule == nil {
				return value.Value{}, v.runtimeError("no module currently being imported")
			}
			t.push(value.ObjectVal(v.lastImportModule))
		case chunk.OpImportEnd:
			v.lastImportModule = nil

		case chunk.OpGetIter:
			iter := t.pop()
			seq := t.pop()
			next, ok, rerr := v.iterateBuiltin(seq, iter)
			if rerr != nil {
				return value.Value{}, rerr
			}
			if !ok {
				inst, isInst := asInstance(seq)
				if isInst {
					next, rerr = v.invokeMethod(inst, "iterate", iter)
					if rerr != nil {
						return value.Value{}, rerr
					}
				} else {
					next = value.NullVal()
				}
			}
			t.push(next)
		case chunk.OpForIter:
			offset := readUint16(f)
			if t.peek(0).IsNull() {
				f.ip += offset
			}
		case chunk.OpIterValue:
			iter := t.pop()
			seq := t.pop()
			item, ok, rerr := v.iterValueBuiltin(seq, iter)
			if rerr != nil {
				return value.Value{}, rerr
			}
			if !ok {
				inst, isInst := asInstance(seq)
				if isInst {
					item, rerr = v.invokeMethod(inst, "iteratorvalue", iter)
					if rerr != nil {
						return value.Value{}, rerr
					}
				} else {
					return value.Value{}, v.runtimeError("cannot iterate over %s", value.TypeName(seq))
				}
			}
			t.push(item)

		default:
			return value.Value{}, v.runtimeError("unknown opcode %d", byte(op))
		}
	}
}
