package vm

import (
	"golang.org/x/exp/slices"

	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// callValue dispatches a call to calleeSlot's current value (closure,
// native, class, or bound method), mirroring call_value. calleeSlot is the
// absolute stack index holding the callee, with argCount arguments above
// it. On success the call either returns immediately (native) with the
// result already pushed, or pushes a new CallFrame for the VM's dispatch
// loop to continue into.
func (v *VM) callValue(calleeSlot int, argCount int) *diag.RuntimeError {
	t := v.thread
	callee := t.stack[calleeSlot]
	if !callee.IsObject() {
		return v.runtimeError("can only call functions and classes, got %s", value.TypeName(callee))
	}
	switch obj := callee.AsObject().(type) {
	case *value.Closure:
		return v.call(obj, calleeSlot, argCount)
	case *value.Native:
		return v.callNative(obj, calleeSlot, argCount)
	case *value.Class:
		return v.callClass(obj, calleeSlot, argCount)
	case *value.BoundMethod:
		t.stack[calleeSlot] = obj.Receiver
		if err := v.rebindCallee(obj.Method, calleeSlot, argCount); err != nil {
			return err
		}
		return nil
	default:
		return v.runtimeError("can only call functions and classes, got %s", value.TypeName(callee))
	}
}

// rebindCallee re-runs callValue logic against method with calleeSlot
// already holding the receiver (the bound-method case, which must keep
// slot 0 as the receiver rather than the method value itself).
func (v *VM) rebindCallee(method value.Value, calleeSlot, argCount int) *diag.RuntimeError {
	if !method.IsObject() {
		return v.runtimeError("can only call functions and classes, got %s", value.TypeName(method))
	}
	switch obj := method.AsObject().(type) {
	case *value.Closure:
		return v.call(obj, calleeSlot, argCount)
	case *value.Native:
		return v.callNative(obj, calleeSlot, argCount)
	default:
		return v.runtimeError("can only call functions and classes, got %s", value.TypeName(method))
	}
}

// callNative invokes n's Go callback. For NativeMethod/NativeProperty,
// calleeSlot already holds the receiver (placed there by invoke's builtin
// dispatch or callValue's BoundMethod case, mirroring where a Closure's
// receiver lives at slot 0), so it's prepended as args[0]; a plain
// NativeFunction has no receiver and calleeSlot holds the callee itself.
func (v *VM) callNative(n *value.Native, calleeSlot, argCount int) *diag.RuntimeError {
	t := v.thread
	var args []value.Value
	if n.Kind == value.NativeMethod || n.Kind == value.NativeProperty {
		args = make([]value.Value, argCount+1)
		args[0] = t.stack[calleeSlot]
		copy(args[1:], t.stack[calleeSlot+1:calleeSlot+1+argCount])
	} else {
		args = make([]value.Value, argCount)
		copy(args, t.stack[calleeSlot+1:calleeSlot+1+argCount])
	}
	result, err := n.Fn(args)
	if err != nil {
		return v.runtimeError("%s", err.Error())
	}
	t.stack = t.stack[:calleeSlot]
	t.push(result)
	return nil
}

func (v *VM) callClass(klass *value.Class, calleeSlot, argCount int) *diag.RuntimeError {
	t := v.thread
	instance := value.NewInstance(klass)
	v.track(instance, sizeInstance)
	t.stack[calleeSlot] = value.ObjectVal(instance)
	if klass.Constructor.IsNull() || !klass.Constructor.IsObject() {
		if argCount != 0 {
			return v.runtimeError("expected 0 arguments but got %d", argCount)
		}
		return nil
	}
	return v.rebindCallee(klass.Constructor, calleeSlot, argCount)
}

// call pushes a new CallFrame for closure, adjusting the stack for
// variadic rest-argument collection and validating arity. Default-value
// shuffling for optional parameters happens later, inline in the callee's
// own bytecode via OpDefineOptional.
func (v *VM) call(closure *value.Closure, calleeSlot, argCount int) *diag.RuntimeError {
	t := v.thread
	fn := closure.Function

	if fn.IsVariadic {
		if argCount < fn.Arity {
			return v.runtimeError("expected at least %d arguments but got %d", fn.Arity, argCount)
		}
		extra := argCount - fn.Arity
		items := make([]value.Value, extra)
		copy(items, t.stack[calleeSlot+1+fn.Arity:calleeSlot+1+argCount])
		rest := &value.List{Items: items}
		v.track(rest, sizeList)
		t.stack = t.stack[:calleeSlot+1+fn.Arity]
		if !t.push(value.ObjectVal(rest)) {
			return v.runtimeError("stack overflow")
		}
		argCount = fn.Arity + 1
	} else if argCount < fn.Arity || argCount > fn.Arity+fn.ArityOptional {
		return v.runtimeError("expected %d to %d arguments but got %d", fn.Arity, fn.Arity+fn.ArityOptional, argCount)
	}

	if len(t.frames) >= maxFrames {
		return v.runtimeError("stack overflow")
	}

	// Pad remaining local slots (up to MaxSlots) with null.
	have := len(t.stack) - calleeSlot
	for have < fn.MaxSlots {
		if !t.push(value.NullVal()) {
			return v.runtimeError("stack overflow")
		}
		have++
	}

	t.frames = append(t.frames, CallFrame{closure: closure, slotsBase: calleeSlot})
	return nil
}

// defineOptional executes OpDefineOptional: reshuffles the optional
// parameters' default-vs-supplied values into their final local slots.
// arityReq/arityOpt are the instruction's two operand bytes. This replaces
// the original's fixed values[255] shuffle array with a plain Go slice —
// a deliberate, simpler Go-idiomatic rendering of the same reshuffle.
func (v *VM) defineOptional(arityReq, arityOpt int) {
	t := v.thread
	f := t.frame()
	base := f.slotsBase

	total := len(t.stack) - base // includes the callee slot itself
	suppliedTotal := total - arityOpt - 1
	suppliedOptional := suppliedTotal - arityReq
	if suppliedOptional < 0 {
		suppliedOptional = 0
	}

	finals := make([]value.Value, arityOpt)
	for i := 0; i < arityOpt; i++ {
		if i < suppliedOptional {
			finals[i] = t.stack[base+arityReq+1+i]
		} else {
			defaultIdx := base + arityReq + suppliedOptional + 1 + (i - suppliedOptional)
			finals[i] = t.stack[defaultIdx]
		}
	}
	for i := 0; i < arityOpt; i++ {
		t.stack[base+arityReq+1+i] = finals[i]
	}
	newLen := base + 1 + arityReq + arityOpt
	t.stack = t.stack[:newLen]
}

// invoke resolves and calls a method by name on the value at calleeSlot in
// one step, the INVOKE fast path avoiding a separate GET_PROPERTY push.
func (v *VM) invoke(calleeSlot int, name string, argCount int) *diag.RuntimeError {
	t := v.thread
	receiver := t.stack[calleeSlot]
	instance, ok := asInstance(receiver)
	if !ok {
		table := v.builtinMethodTable(receiver)
		if table == nil {
			return v.runtimeError("only instances have methods, got %s", value.TypeName(receiver))
		}
		method, ok := table.GetStr(name)
		if !ok {
			return v.runtimeError("undefined method '%s' for %s", name, value.TypeName(receiver))
		}
		// calleeSlot already holds receiver; rebindCallee leaves it there,
		// matching the convention callNative relies on for NativeMethod.
		return v.rebindCallee(method, calleeSlot, argCount)
	}
	if field, ok := instance.Fields.GetStr(name); ok {
		t.stack[calleeSlot] = field
		return v.rebindCallee(field, calleeSlot, argCount)
	}
	method, ok := instance.Class.FindMethod(name)
	if !ok {
		return v.runtimeError("undefined property '%s'", name)
	}
	return v.rebindCallee(method, calleeSlot, argCount)
}

func (v *VM) invokeFromClass(klass *value.Class, calleeSlot int, name string, argCount int) *diag.RuntimeError {
	// Constructors live on Class.Constructor, not in the method table.
	if name == "constructor" && klass.Constructor.IsObject() {
		return v.rebindCallee(klass.Constructor, calleeSlot, argCount)
	}
	method, ok := klass.FindMethod(name)
	if !ok {
		return v.runtimeError("undefined method '%s' in superclass", name)
	}
	return v.rebindCallee(method, calleeSlot, argCount)
}

func asInstance(v value.Value) (*value.Instance, bool) {
	if !v.IsObject() {
		return nil, false
	}
	i, ok := v.AsObject().(*value.Instance)
	return i, ok
}

// bindMethod looks up name on klass, and if found, wraps it with receiver
// into a BoundMethod, pushing the result. Used by GET_PROPERTY/GET_SUPER
// when the property names a method rather than a field.
func (v *VM) bindMethod(klass *value.Class, receiver value.Value, name string) (value.Value, bool) {
	method, ok := klass.FindMethod(name)
	if !ok {
		return value.Value{}, false
	}
	bm := &value.BoundMethod{Receiver: receiver, Method: method}
	v.track(bm, sizeBoundMethod)
	return value.ObjectVal(bm), true
}

// getProperty implements GET_PROPERTY/GET_PROPERTY_NO_POP: instance fields
// take priority over methods, then the class's own statics, matching
// get_property's lookup order.
func (v *VM) getProperty(receiver value.Value, name string) (value.Value, *diag.RuntimeError) {
	instance, ok := asInstance(receiver)
	if !ok {
		if klass, ok := receiver.AsObject().(*value.Class); receiver.IsObject() && ok {
			if val, ok := klass.FindStatic(name); ok {
				return val, nil
			}
			return value.Value{}, v.runtimeError("undefined static property '%s'", name)
		}
		if table := v.builtinMethodTable(receiver); table != nil {
			method, ok := table.GetStr(name)
			if !ok {
				return value.Value{}, v.runtimeError("undefined method '%s' for %s", name, value.TypeName(receiver))
			}
			native, isNative := method.AsObject().(*value.Native)
			if isNative && native.Kind == value.NativeProperty {
				result, err := native.Fn([]value.Value{receiver})
				if err != nil {
					return value.Value{}, v.runtimeError("%s", err.Error())
				}
				return result, nil
			}
			bm := &value.BoundMethod{Receiver: receiver, Method: method}
			v.track(bm, sizeBoundMethod)
			return value.ObjectVal(bm), nil
		}
		return value.Value{}, v.runtimeError("only instances have properties, got %s", value.TypeName(receiver))
	}
	if field, ok := instance.Fields.GetStr(name); ok {
		return field, nil
	}
	if bound, ok := v.bindMethod(instance.Class, receiver, name); ok {
		return bound, nil
	}
	if val, ok := instance.Class.FindStatic(name); ok {
		return val, nil
	}
	return value.Value{}, v.runtimeError("undefined property '%s'", name)
}

// setProperty implements SET_PROPERTY: only instances hold settable
// fields; classes are not mutated this way (statics go through
// SET_CLASS_VAR, emitted only from inside a class body).
func (v *VM) setProperty(receiver value.Value, name string, val value.Value) *diag.RuntimeError {
	instance, ok := asInstance(receiver)
	if !ok {
		return v.runtimeError("only instances have settable properties, got %s", value.TypeName(receiver))
	}
	instance.Fields.SetStr(name, val)
	return nil
}

// --- upvalues --------------------------------------------------------------

// captureUpvalue returns the open UpvalueRef for the stack slot at
// absolute index slot, creating and recording one if none is open there
// yet. t.openUpvalues stays sorted by descending slot index.
func (v *VM) captureUpvalue(slot int) *value.UpvalueRef {
	t := v.thread
	for _, up := range t.openUpvalues {
		if up.slot == slot {
			return up.ref
		}
	}
	created := &value.UpvalueRef{Location: &t.stack[slot]}
	v.track(created, sizeUpvalue)

	insertAt := len(t.openUpvalues)
	for i, up := range t.openUpvalues {
		if up.slot < slot {
			insertAt = i
			break
		}
	}
	t.openUpvalues = slices.Insert(t.openUpvalues, insertAt, openUpvalue{ref: created, slot: slot})
	return created
}

// closeUpvalues closes every open upvalue at or above absolute stack index
// from, copying the stack value into the upvalue's own storage.
func (v *VM) closeUpvalues(from int) {
	t := v.thread
	i := 0
	for i < len(t.openUpvalues) && t.openUpvalues[i].slot >= from {
		t.openUpvalues[i].ref.Close()
		i++
	}
	t.openUpvalues = t.openUpvalues[i:]
}

// defineMethod implements OpMethod/OpExtensionMethod: pop the just-compiled
// closure value and store it in klass.Methods under name, special-casing
// "constructor".
func defineMethod(klass *value.Class, name string, method value.Value) {
	if name == "constructor" {
		klass.Constructor = method
		return
	}
	klass.Methods.SetStr(name, method)
}

// inherit implements OpInherit: copy super's methods and statics into
// klass (later OpMethod calls for klass overwrite inherited entries,
// achieving override semantics), and link klass.Super for FindMethod/
// FindStatic/IS to walk.
func inherit(super, klass *value.Class) *diag.RuntimeError {
	klass.Super = super
	super.Methods.Each(func(key, val value.Value) { klass.Methods.Set(key, val) })
	super.Statics.Each(func(key, val value.Value) { klass.Statics.Set(key, val) })
	if !super.Constructor.IsNull() {
		klass.Constructor = super.Constructor
	}
	return nil
}
