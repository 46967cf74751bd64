package value

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Obj is the closed set of heap object variants (§3.2). Each variant
// implements TypeName/String for diagnostics; GC tracing is a type switch
// in pkg/gc. The GC-facing parts live on GCHeader, embedded by every
// variant so the collector can walk a single intrusive list regardless of
// concrete type.
type Obj interface {
	TypeName() string
	String() string
	gcHeader() *GCHeader
}

// GCHeader is the intrusive-list link plus mark bit every heap object
// carries, mirroring the original's "every heap allocation links into a
// single engine-wide list via a next field" (SPEC_FULL.md §9).
type GCHeader struct {
	Marked bool
	Next   Obj
	Size   int // approximate bytes, for bytesAllocated accounting
}

func (h *GCHeader) gcHeader() *GCHeader { return h }

// Header exposes the GC header to pkg/gc without making every field of Obj
// public on the interface itself.
func Header(o Obj) *GCHeader { return o.gcHeader() }

// String is an interned, immutable byte string.
type String struct {
	GCHeader
	Chars []byte
	Hash  uint32
}

func (s *String) TypeName() string { return "string" }
func (s *String) String() string   { return string(s.Chars) }

func fnv1a(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

// List is an ordered, mutable sequence of values.
type List struct {
	GCHeader
	Items []Value
}

func (l *List) TypeName() string { return "list" }
func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s, ok := v.obj.(*String); ok && v.typ == Object {
			sb.WriteByte('"')
			sb.WriteString(string(s.Chars))
			sb.WriteByte('"')
		} else {
			sb.WriteString(Stringify(v))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Map is a hash table of value -> value, keys restricted to the hashable
// predicate. Generic maps reuse the same open-addressing Table as the
// engine's internal string-keyed tables, but Table itself is key-agnostic
// (see table.go) to support this.
type Map struct {
	GCHeader
	Table *Table
}

func NewMap() *Map { return &Map{Table: NewTable()} }

func (m *Map) TypeName() string { return "map" }
func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for _, e := range m.Table.entries {
		if e.Key.IsEmpty() || e.Key.IsNull() {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(Stringify(e.Key))
		sb.WriteString(": ")
		sb.WriteString(Stringify(e.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Range is a half-open (or reversed, per sign of step) numeric range.
type Range struct {
	GCHeader
	Start, End, Step float64
}

func (r *Range) TypeName() string { return "range" }
func (r *Range) String() string {
	return fmt.Sprintf("%s..%s", formatNumber(r.Start), formatNumber(r.End))
}

// Contains implements `in` membership for ranges.
func (r *Range) Contains(n float64) bool {
	if r.Step > 0 {
		return n >= r.Start && n < r.End
	}
	return n <= r.Start && n > r.End
}

// FunctionKind distinguishes the compiled-function role, used by the
// compiler for `this`/`super`/`return` validation.
type FunctionKind byte

const (
	FuncScript FunctionKind = iota
	FuncFunction
	FuncConstructor
	FuncMethod
	FuncStatic
)

// Function is the immutable compiled prototype for a script, function,
// method or constructor body.
type Function struct {
	GCHeader
	Name            *String
	Arity           int
	ArityOptional   int
	IsVariadic      bool
	UpvalueCount    int
	MaxSlots        int
	Kind            FunctionKind
	Chunk           Chunk // defined in pkg/chunk; aliased here via interface to avoid import cycle
	Module          *Module
}

func (f *Function) TypeName() string { return "function" }
func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<function %s>", string(f.Name.Chars))
}

// Chunk is implemented by pkg/chunk.Chunk; value.Function only needs to hold
// a reference to it, so it is expressed as a minimal interface here to avoid
// value <-> chunk import cycles (chunk.Chunk stores Value constants).
type Chunk interface {
	InstructionCount() int
}

// UpvalueRef is a closure's captured-variable slot: either "open" (pointing
// at a live VM stack slot) or "closed" (holding its own copy).
type UpvalueRef struct {
	GCHeader
	Location *Value // points into the VM stack while open
	Closed   Value  // holds the value once closed
}

func (u *UpvalueRef) TypeName() string { return "upvalue" }
func (u *UpvalueRef) String() string   { return "<upvalue>" }

func (u *UpvalueRef) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

func (u *UpvalueRef) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

func (u *UpvalueRef) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

// Closure pairs a function prototype with its resolved upvalues — the
// actual callable value; functions are never called directly.
type Closure struct {
	GCHeader
	Function *Function
	Upvalues []*UpvalueRef
}

func (c *Closure) TypeName() string { return "closure" }
func (c *Closure) String() string   { return c.Function.String() }

// NativeKind distinguishes a native function/method/property; properties
// invoke automatically on field read (§4.7).
type NativeKind byte

const (
	NativeFunction NativeKind = iota
	NativeMethod
	NativeProperty
)

// NativeFn is the host callback signature: it receives the VM-agnostic
// argument slice (pkg/api mediates the actual stack window) and returns a
// result value or an error.
type NativeFn func(args []Value) (Value, error)

type Native struct {
	GCHeader
	Name string
	Kind NativeKind
	Fn   NativeFn
}

func (n *Native) TypeName() string { return "native" }
func (n *Native) String() string   { return fmt.Sprintf("<native %s>", n.Name) }

// Class supports single inheritance: a name, optional superclass, an
// optional constructor, a static-members table and a method table.
type Class struct {
	GCHeader
	Name        *String
	Super       *Class
	Constructor Value
	Statics     *Table
	Methods     *Table
}

func NewClass(name *String) *Class {
	return &Class{Name: name, Statics: NewTable(), Methods: NewTable()}
}

func (c *Class) TypeName() string { return "class" }
func (c *Class) String() string   { return fmt.Sprintf("<class %s>", string(c.Name.Chars)) }

// FindMethod walks the superclass chain looking up a method by name.
func (c *Class) FindMethod(name string) (Value, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if v, ok := cls.Methods.GetStr(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// FindStatic walks the superclass chain looking up a static member by name.
func (c *Class) FindStatic(name string) (Value, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if v, ok := cls.Statics.GetStr(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// Instance has a class and a dynamic, per-instance field table.
type Instance struct {
	GCHeader
	Class  *Class
	Fields *Table
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewTable()}
}

func (i *Instance) TypeName() string { return string(i.Class.Name.Chars) }
func (i *Instance) String() string   { return fmt.Sprintf("<instance %s>", string(i.Class.Name.Chars)) }

// BoundMethod is produced when a method is read off an instance: receiver +
// the underlying method value (closure or native).
type BoundMethod struct {
	GCHeader
	Receiver Value
	Method   Value
}

func (b *BoundMethod) TypeName() string { return "bound method" }
func (b *BoundMethod) String() string   { return "<bound method>" }

// Module is one per loaded file, cached by canonicalized path/name, with its
// own top-level name scope shared globals aside.
type Module struct {
	GCHeader
	Name   *String
	Path   string
	Values *Table
}

func NewModule(name *String, path string) *Module {
	return &Module{Name: name, Path: path, Values: NewTable()}
}

func (m *Module) TypeName() string { return "module" }
func (m *Module) String() string   { return fmt.Sprintf("<module %s>", string(m.Name.Chars)) }

// File wraps an OS handle; optional per §3.2, included here since
// pkg/corelib needs a concrete file value to back the `file` core class.
type File struct {
	GCHeader
	Path   string
	Mode   string
	Handle interface {
		Read([]byte) (int, error)
		Write([]byte) (int, error)
		Close() error
	}
	Open bool
}

func (f *File) TypeName() string { return "file" }
func (f *File) String() string   { return fmt.Sprintf("<file %s>", f.Path) }

// Thread is the cooperative-fiber object. Per SPEC_FULL.md §5 this
// implementation collapses to a single implicit thread: the fields exist for
// API completeness, but nothing ever constructs a second one.
type Thread struct {
	GCHeader
	Parent *Thread
}

func (t *Thread) TypeName() string { return "thread" }
func (t *Thread) String() string   { return "<thread>" }
