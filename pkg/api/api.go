// Package api is the sanctioned surface pkg/corelib and pkg/module's native
// modules use to reach into the VM: declarative builder tables for classes
// and modules, typed argument checks, value producers, and the small
// GC-tracking hook aggregate-returning natives need. It stays a thin
// adapter: value.NativeFn already receives a materialized argument slice
// rather than raw stack access, so the "stack-slot push/pop/check" contract
// collapses to plain slice indexing here instead of a separate stack type.
package api

import (
	"fmt"

	"github.com/teascript/tea/pkg/value"
)

// Member declares one native function, method or property for a
// BuildModule/BuildClass table, mirroring the original's static registration
// arrays (itself mirrored by Lua's luaL_Reg idiom): a flat []Member literal
// instead of a sequence of imperative Table.SetStr calls.
type Member struct {
	Name string
	Kind value.NativeKind
	Fn   value.NativeFn
}

// BuildModule constructs a native module's Values table from members. Used
// by pkg/module's native-module registry.
func BuildModule(name, path string, members []Member) *value.Module {
	mod := value.NewModule(value.Intern(name), path)
	for _, m := range members {
		mod.Values.SetStr(m.Name, wrap(m))
	}
	return mod
}

// BuildClass constructs a core/host class from method and static member
// tables; constructor is looked up by the conventional name "constructor"
// among methods, same as a user-defined class body. Used by pkg/corelib to
// build the string/list/map/range/file core classes.
func BuildClass(name string, super *value.Class, methods, statics []Member) *value.Class {
	klass := value.NewClass(value.Intern(name))
	for _, m := range methods {
		if m.Name == "constructor" {
			klass.Constructor = wrap(m)
			continue
		}
		klass.Methods.SetStr(m.Name, wrap(m))
	}
	for _, m := range statics {
		klass.Statics.SetStr(m.Name, wrap(m))
	}
	if super != nil {
		klass.Super = super
		super.Methods.Each(func(k, v value.Value) { klass.Methods.Set(k, v) })
		super.Statics.Each(func(k, v value.Value) { klass.Statics.Set(k, v) })
	}
	return klass
}

// InstallMethods populates one of the VM's per-type core method tables
// (table obtained from vm.VM.CoreMethods) from members, the shape pkg/corelib
// uses instead of BuildClass since the five core types aren't
// value.Instance and so have no value.Class of their own.
func InstallMethods(table *value.Table, members []Member) {
	for _, m := range members {
		table.SetStr(m.Name, wrap(m))
	}
}

func wrap(m Member) value.Value {
	return value.ObjectVal(&value.Native{Name: m.Name, Kind: m.Kind, Fn: m.Fn})
}

// --- argument access and checks --------------------------------------------

// Arg returns args[i], or Null if the call omitted that optional argument.
func Arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.NullVal()
	}
	return args[i]
}

// ArgError formats the standard "bad argument #i to 'who'" message, the
// same shape across every check function below.
func ArgError(who string, i int, expected string, got value.Value) error {
	return fmt.Errorf("bad argument #%d to '%s' (expected %s, got %s)", i+1, who, expected, value.TypeName(got))
}

// CheckNumber requires args[i] to be a number.
func CheckNumber(args []value.Value, i int, who string) (float64, error) {
	v := Arg(args, i)
	if !v.IsNumber() {
		return 0, ArgError(who, i, "number", v)
	}
	return v.AsNumber(), nil
}

// CheckString requires args[i] to be a string, returning its Go string form.
func CheckString(args []value.Value, i int, who string) (string, error) {
	v := Arg(args, i)
	if v.IsObject() {
		if s, ok := v.AsObject().(*value.String); ok {
			return string(s.Chars), nil
		}
	}
	return "", ArgError(who, i, "string", v)
}

// CheckBool requires args[i] to be a bool.
func CheckBool(args []value.Value, i int, who string) (bool, error) {
	v := Arg(args, i)
	if !v.IsBool() {
		return false, ArgError(who, i, "bool", v)
	}
	return v.AsBool(), nil
}

// CheckList requires args[i] to be a list, returning the underlying *value.List.
func CheckList(args []value.Value, i int, who string) (*value.List, error) {
	v := Arg(args, i)
	if v.IsObject() {
		if l, ok := v.AsObject().(*value.List); ok {
			return l, nil
		}
	}
	return nil, ArgError(who, i, "list", v)
}

// CheckMap requires args[i] to be a map, returning the underlying *value.Map.
func CheckMap(args []value.Value, i int, who string) (*value.Map, error) {
	v := Arg(args, i)
	if v.IsObject() {
		if m, ok := v.AsObject().(*value.Map); ok {
			return m, nil
		}
	}
	return nil, ArgError(who, i, "map", v)
}

// CheckRange requires args[i] to be a range, returning the underlying *value.Range.
func CheckRange(args []value.Value, i int, who string) (*value.Range, error) {
	v := Arg(args, i)
	if v.IsObject() {
		if r, ok := v.AsObject().(*value.Range); ok {
			return r, nil
		}
	}
	return nil, ArgError(who, i, "range", v)
}

// OptionalNumber is CheckNumber, but a missing/null argument returns def
// instead of an error — the shape of an optional numeric parameter.
func OptionalNumber(args []value.Value, i int, who string, def float64) (float64, error) {
	v := Arg(args, i)
	if v.IsNull() {
		return def, nil
	}
	return CheckNumber(args, i, who)
}

// --- producers ---------------------------------------------------------

func Num(n float64) value.Value { return value.NumberVal(n) }
func Str(s string) value.Value  { return value.ObjectVal(value.Intern(s)) }
func Bool(b bool) value.Value   { return value.BoolVal(b) }
func Null() value.Value         { return value.NullVal() }

// --- aggregate construction ----------------------------------------------

// Approximate per-allocation byte costs, mirroring pkg/vm's own constants
// (SPEC_FULL.md §4.2: the exact figure isn't observable, only the
// threshold-crossing behavior is).
const (
	sizeList = 32
	sizeMap  = 32
)

// Tracker is the one piece of pkg/vm a native function that allocates new
// aggregates at runtime needs: *vm.VM itself satisfies this via its
// exported Track method.
type Tracker interface {
	Track(obj value.Obj, size int)
}

// Builder constructs GC-tracked lists/maps from inside a native function
// body. pkg/corelib holds one Builder (built over the *vm.VM it's
// installing into) and closes over it in every method that returns a new
// aggregate, e.g. list.reverse or string.split.
type Builder struct {
	vm Tracker
}

func NewBuilder(vm Tracker) *Builder { return &Builder{vm: vm} }

// List builds a new tracked list value from items.
func (b *Builder) List(items []value.Value) value.Value {
	l := &value.List{Items: items}
	b.vm.Track(l, sizeList)
	return value.ObjectVal(l)
}

// Map builds a new tracked, empty map value.
func (b *Builder) Map() value.Value {
	m := value.NewMap()
	b.vm.Track(m, sizeMap)
	return value.ObjectVal(m)
}
