package vm

import (
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// importName resolves `import name` (no import produces a path-less
// native/builtin module, e.g. `import math`), caching by bare name.
func (v *VM) importName(name string) (*value.Module, *diag.RuntimeError) {
	if v.loader == nil {
		return nil, v.runtimeError("imports are not enabled")
	}
	if mod, ok := v.modules.Get(name); ok {
		return mod, nil
	}
	mod, ok := v.loader.ResolveNative(name)
	if !ok {
		return nil, v.runtimeError("unknown module '%s'", name)
	}
	v.modules.Put(name, mod)
	return mod, nil
}

// importPath resolves `import "path"`: resolve and compile the source file
// (caching by its canonical path to give repeated imports the same module
// object and to guard against re-entering an import cycle), then run its
// top-level code once before returning.
func (v *VM) importPath(path string) (*value.Module, *diag.RuntimeError) {
	if v.loader == nil {
		return nil, v.runtimeError("imports are not enabled")
	}
	source, canonical, err := v.loader.ResolveSource(path)
	if err != nil {
		return nil, v.runtimeError("cannot import '%s': %s", path, err.Error())
	}
	if mod, ok := v.modules.Get(canonical); ok {
		return mod, nil
	}
	fn, mod, cerr := v.compileModule(source, canonical, false)
	if cerr != nil {
		return nil, v.runtimeError("cannot import '%s': %s", path, cerr.Error())
	}
	// Cache before running so a cyclic import sees the (still-empty)
	// module instead of recompiling and recursing forever.
	v.modules.Put(canonical, mod)
	if rerr := v.runModuleBody(fn, mod); rerr != nil {
		return nil, rerr
	}
	return mod, nil
}

// runModuleBody pushes a CallFrame for a module's synthetic top-level
// closure onto the current thread and drives the dispatch loop through it,
// discarding its return value: a module's top-level effect is populating
// its own Values table via OpDefineModule, not producing a result.
func (v *VM) runModuleBody(fn *value.Function, mod *value.Module) *diag.RuntimeError {
	_ = mod
	closure := &value.Closure{Function: fn}
	v.track(closure, sizeClosure)

	t := v.thread
	base := len(t.stack)
	if !t.push(value.ObjectVal(closure)) {
		return v.runtimeError("stack overflow")
	}
	have := 1
	for have < fn.MaxSlots {
		if !t.push(value.NullVal()) {
			return v.runtimeError("stack overflow")
		}
		have++
	}
	floor := len(t.frames)
	t.frames = append(t.frames, CallFrame{closure: closure, slotsBase: base})
	_, rerr := v.run(floor)
	return rerr
}
