// Package vm implements the stack-based bytecode interpreter: a plain Go
// for{switch{}} dispatch loop over the opcodes pkg/compiler emits, call
// frames, upvalue capture/close, and GC root marking. Grounded on a
// line-by-line reading of the original source's tea_vm.c run_interpreter,
// translated from its computed-goto dispatch (which Go has no equivalent
// for) to an ordinary switch, and from its "call, then fall through to the
// same dispatch loop" trick to pushing a CallFrame and letting the same
// loop continue — the idiomatic Go rendering of the same idea, since Go
// has no label-jump equivalent to lean on either.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/config"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/gc"
	"github.com/teascript/tea/pkg/value"
)

const maxFrames = 1000

// CallFrame is one active call: the closure being executed, the
// instruction pointer into its chunk, and the base index into the
// thread's stack where slot 0 (the callee/receiver) lives.
type CallFrame struct {
	closure   *value.Closure
	ip        int
	slotsBase int
}

// openUpvalue pairs a live UpvalueRef with the absolute stack slot it
// currently points at, so the thread can find/close it without needing an
// index back-pointer on value.UpvalueRef itself.
type openUpvalue struct {
	ref  *value.UpvalueRef
	slot int
}

// Thread is a single cooperative execution context: its own value stack,
// call frames and open-upvalue chain. SPEC_FULL.md §5 collapses fiber
// support to a single implicit thread — nothing here prevents a second
// Thread existing, but the VM only ever drives one.
type Thread struct {
	stack  []value.Value
	frames []CallFrame
	// openUpvalues is sorted by descending stack index (golang.org/x/exp/slices),
	// the idiomatic Go rendering of the original's intrusive open-upvalue
	// linked list.
	openUpvalues []openUpvalue
	parent       *value.Thread
}

// ModuleLoader resolves imports without pkg/vm depending on pkg/module
// directly, avoiding an import cycle. The loader only finds native modules
// and source text; the VM itself compiles and runs a source module's body.
type ModuleLoader interface {
	// ResolveNative returns a pre-built native module by bare name
	// ("math", "os", ...), for `import name` where name isn't a path.
	ResolveNative(name string) (*value.Module, bool)
	// ResolveSource loads and returns the source text for a string import
	// path, plus the canonical path used to key the module cache.
	ResolveSource(path string) (source string, canonicalPath string, err error)
}

// VM owns global state shared by the (single, per §5) running thread: the
// GC collector, host-seeded globals, the module cache, and diagnostics.
type VM struct {
	cfg *config.Config
	log *diag.Logger
	gc  *gc.Collector

	globals *value.Table
	loader  ModuleLoader
	// modules caches resolved imports by canonical path/name. Unlike
	// value.Table (whose exact probing behavior is part of the observable
	// language contract, see pkg/value/table.go), this cache is pure engine
	// bookkeeping no teascript program can observe the shape of, so it uses
	// dolthub/swiss's open-addressing map instead of a hand-rolled one.
	modules *swiss.Map[string, *value.Module]

	thread *Thread

	// Built-in method tables for the five core non-instance types, consulted
	// by getProperty/invoke when the receiver isn't a *value.Instance. These
	// stay plain value.Table (not swiss), matching class Methods/Statics
	// tables: pkg/corelib populates them the same way the compiler populates
	// a user class, so the dispatch path (FindMethod-style GetStr) is
	// identical either way. Empty and unused until pkg/corelib calls
	// CoreMethods to register into them.
	stringMethods *value.Table
	listMethods   *value.Table
	mapMethods    *value.Table
	rangeMethods  *value.Table
	fileMethods   *value.Table

	// lastImportModule is the module most recently resolved by
	// OpImportString/OpImportName, consulted by OpImportVariable and
	// cleared by OpImportEnd — mirrors the original's vm->last_module.
	lastImportModule *value.Module

	// Stdout is where OpPopRepl writes;
	// defaults to os.Stdout, overridable by embedders and tests.
	Stdout io.Writer
}

// New builds a VM with its own GC collector and an empty globals table.
// SetModuleLoader may be called before Interpret to enable imports.
func New(cfg *config.Config, log *diag.Logger) *VM {
	v := &VM{
		cfg:     cfg,
		log:     log,
		globals:       value.NewTable(),
		modules:       swiss.NewMap[string, *value.Module](8),
		stringMethods: value.NewTable(),
		listMethods:   value.NewTable(),
		mapMethods:    value.NewTable(),
		rangeMethods:  value.NewTable(),
		fileMethods:   value.NewTable(),
		thread:        newThread(),
		Stdout:        os.Stdout,
	}
	v.gc = gc.New(cfg, log)
	v.gc.SetRoots(v)
	return v
}

// Print writes s followed by a newline to v.Stdout.
func (v *VM) Print(s string) {
	fmt.Fprintln(v.Stdout, s)
}

// Globals exposes the host-seeded globals table, for pkg/api/pkg/corelib
// to register native functions, classes and constants before compiling.
func (v *VM) Globals() *value.Table { return v.globals }

// SetModuleLoader installs the module resolver used by import statements.
func (v *VM) SetModuleLoader(l ModuleLoader) { v.loader = l }

// CoreMethods returns the built-in method table for one of the five core
// type names ("string", "list", "map", "range", "file"), or nil for any
// other name. pkg/corelib calls this once at startup to populate each
// table with its Native entries before any script runs.
func (v *VM) CoreMethods(typeName string) *value.Table {
	switch typeName {
	case "string":
		return v.stringMethods
	case "list":
		return v.listMethods
	case "map":
		return v.mapMethods
	case "range":
		return v.rangeMethods
	case "file":
		return v.fileMethods
	default:
		return nil
	}
}

// builtinMethodTable returns the method table backing val's type, or nil if
// val isn't one of the five core object types (or isn't an object at all).
func (v *VM) builtinMethodTable(val value.Value) *value.Table {
	if !val.IsObject() {
		return nil
	}
	switch val.AsObject().(type) {
	case *value.String:
		return v.stringMethods
	case *value.List:
		return v.listMethods
	case *value.Map:
		return v.mapMethods
	case *value.Range:
		return v.rangeMethods
	case *value.File:
		return v.fileMethods
	default:
		return nil
	}
}

// track registers a freshly built heap object with the collector,
// estimating its size from a rough per-variant constant — precise byte
// accounting isn't observable from teascript code, only the threshold
// behavior is (SPEC_FULL.md §4.2).
func (v *VM) track(obj value.Obj, size int) {
	v.gc.Track(obj, size)
}

// Track is the exported form of track, the one piece of GC bookkeeping
// pkg/api needs to hand to native functions that build new aggregates at
// runtime (e.g. a corelib method returning a new list) — see pkg/api.Builder.
func (v *VM) Track(obj value.Obj, size int) {
	v.track(obj, size)
}

const (
	sizeInstance    = 48
	sizeList        = 32
	sizeMap         = 32
	sizeClosure     = 32
	sizeUpvalue     = 24
	sizeBoundMethod = 24
	sizeClass       = 48
	sizeModule      = 40
	sizeThread      = 16
)

// --- stack primitives --------------------------------------------------

// maxStackSize is the stack's fixed capacity, preallocated once so that
// append() never reallocates the backing array for the life of a thread —
// required because open UpvalueRefs hold raw *Value pointers into this
// array (captureUpvalue), which a reallocation would silently invalidate.
// This is the Go-idiomatic equivalent of the original's fixed-size raw
// array stack.
const maxStackSize = 16384

func newThread() *Thread {
	return &Thread{stack: make([]value.Value, 0, maxStackSize)}
}

func (t *Thread) push(v value.Value) bool {
	if len(t.stack) >= maxStackSize {
		return false
	}
	t.stack = append(t.stack, v)
	return true
}

func (t *Thread) pop() value.Value {
	n := len(t.stack) - 1
	v := t.stack[n]
	t.stack = t.stack[:n]
	return v
}

func (t *Thread) peek(distance int) value.Value {
	return t.stack[len(t.stack)-1-distance]
}

func (t *Thread) drop(n int) {
	t.stack = t.stack[:len(t.stack)-n]
}

func (t *Thread) frame() *CallFrame {
	return &t.frames[len(t.frames)-1]
}

// --- errors --------------------------------------------------------------

// runtimeError builds a *diag.RuntimeError carrying the active call stack,
// innermost frame first as diag.StackFrame expects for display.
func (v *VM) runtimeError(format string, args ...any) *diag.RuntimeError {
	msg := fmt.Sprintf(format, args...)
	t := v.thread
	stack := make([]diag.StackFrame, 0, len(t.frames))
	for i := len(t.frames) - 1; i >= 0; i-- {
		f := t.frames[i]
		name := "<script>"
		if f.closure.Function.Name != nil {
			name = string(f.closure.Function.Name.Chars)
		}
		line := 0
		if ch, ok := f.closure.Function.Chunk.(*chunk.Chunk); ok {
			line = ch.Line(f.ip)
		}
		stack = append(stack, diag.StackFrame{Name: name, Line: line})
	}
	return diag.NewRuntimeError(msg, stack)
}

// --- GC roots --------------------------------------------------------------

// MarkRoots implements gc.RootMarker: the globals table, every thread's
// stack/frames/open upvalues, and any module currently mid-import.
func (v *VM) MarkRoots(c *gc.Collector) {
	v.globals.Each(func(key, val value.Value) {
		c.MarkValue(key)
		c.MarkValue(val)
	})
	for _, t := range []*value.Table{v.stringMethods, v.listMethods, v.mapMethods, v.rangeMethods, v.fileMethods} {
		t.Each(func(key, val value.Value) {
			c.MarkValue(key)
			c.MarkValue(val)
		})
	}
	v.markThread(c, v.thread)
	v.modules.Iter(func(_ string, m *value.Module) bool {
		c.MarkObject(m)
		return false
	})
	if v.lastImportModule != nil {
		c.MarkObject(v.lastImportModule)
	}
}

func (v *VM) markThread(c *gc.Collector, t *Thread) {
	if t == nil {
		return
	}
	for _, val := range t.stack {
		c.MarkValue(val)
	}
	for _, f := range t.frames {
		c.MarkObject(f.closure)
	}
	for _, up := range t.openUpvalues {
		c.MarkObject(up.ref)
	}
}
