// Package value implements the teascript value and heap-object model: a
// tagged-struct scalar plus a closed set of heap object variants, string
// interning, and the open-addressing hash table used throughout the engine.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type discriminates the scalar cases of a Value. Object is the escape
// hatch into the heap-object variants in object.go.
type Type byte

const (
	Null Type = iota
	Bool
	Number
	Object
	Empty // deleted-slot / not-found sentinel, never observable by user code
)

// Value is the tagged-struct representation chosen for this Go
// implementation (see SPEC_FULL.md §3.1): a NaN-tagged 64-bit word is not a
// safe, unsafe-free encoding in Go, since reinterpreting a float64's bits as
// a heap pointer would hide that pointer from the garbage collector.
type Value struct {
	typ Type
	num float64
	obj Obj
}

func NullVal() Value           { return Value{typ: Null} }
func EmptyVal() Value          { return Value{typ: Empty} }
func BoolVal(b bool) Value     { return Value{typ: Bool, num: boolToFloat(b)} }
func NumberVal(n float64) Value { return Value{typ: Number, num: n} }
func ObjectVal(o Obj) Value    { return Value{typ: Object, obj: o} }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) IsNull() bool   { return v.typ == Null }
func (v Value) IsEmpty() bool  { return v.typ == Empty }
func (v Value) IsBool() bool   { return v.typ == Bool }
func (v Value) IsNumber() bool { return v.typ == Number }
func (v Value) IsObject() bool { return v.typ == Object }

func (v Value) AsBool() bool     { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObject() Obj     { return v.obj }

func (v Value) Is(o Obj) bool {
	if v.typ != Object {
		return false
	}
	_ = o
	return true
}

// IsFalsey implements §4.6's truthiness predicate: null, false, 0, empty
// string, empty list, empty map are falsy; everything else is truthy.
func IsFalsey(v Value) bool {
	switch v.typ {
	case Null, Empty:
		return true
	case Bool:
		return !v.AsBool()
	case Number:
		return v.num == 0
	case Object:
		switch o := v.obj.(type) {
		case *String:
			return len(o.Chars) == 0
		case *List:
			return len(o.Items) == 0
		case *Map:
			return o.Table.Count() == 0
		default:
			return false
		}
	}
	return false
}

// Equal implements values_equal: strings compare by identity (interning
// makes this correct), lists/maps compare structurally, ranges compare
// field-wise, everything else compares by identity.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case Null, Empty:
		return true
	case Bool:
		return a.AsBool() == b.AsBool()
	case Number:
		return a.num == b.num
	case Object:
		return objectsEqual(a.obj, b.obj)
	}
	return false
}

func objectsEqual(a, b Obj) bool {
	switch ao := a.(type) {
	case *String:
		bo, ok := b.(*String)
		return ok && ao == bo // interned: identity is correctness
	case *List:
		bo, ok := b.(*List)
		if !ok || len(ao.Items) != len(bo.Items) {
			return false
		}
		for i := range ao.Items {
			if !Equal(ao.Items[i], bo.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		bo, ok := b.(*Map)
		if !ok || ao.Table.Count() != bo.Table.Count() {
			return false
		}
		for _, e := range ao.Table.entries {
			if e.Key.IsEmpty() || e.Key.IsNull() {
				continue
			}
			bv, found := bo.Table.Get(e.Key)
			if !found || !Equal(e.Value, bv) {
				return false
			}
		}
		return true
	case *Range:
		bo, ok := b.(*Range)
		return ok && ao.Start == bo.Start && ao.End == bo.End && ao.Step == bo.Step
	default:
		return a == b
	}
}

// ToNumber implements to_number: numbers pass through, booleans coerce to
// 0/1, numeric strings parse, everything else fails.
func ToNumber(v Value) (float64, bool) {
	switch v.typ {
	case Number:
		return v.num, true
	case Bool:
		return v.num, true
	case Object:
		if s, ok := v.obj.(*String); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(string(s.Chars)), 64)
			return f, err == nil
		}
	}
	return 0, false
}

// TypeName returns the user-visible type name for error messages.
func TypeName(v Value) string {
	switch v.typ {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case Empty:
		return "empty"
	case Object:
		return v.obj.TypeName()
	}
	return "unknown"
}

// Stringify renders a value the way println/string-coercion does.
func Stringify(v Value) string {
	switch v.typ {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.AsBool())
	case Number:
		return formatNumber(v.num)
	case Empty:
		return "<empty>"
	case Object:
		return v.obj.String()
	}
	return "?"
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "infinity"
	}
	if math.IsInf(n, -1) {
		return "-infinity"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Hash computes the generic-map hash used by user-facing maps: the raw bit
// pattern for numbers and booleans, the interned hash for strings, identity
// for everything else.
func Hash(v Value) uint32 {
	switch v.typ {
	case Null:
		return 0
	case Empty:
		return 1
	case Bool:
		if v.AsBool() {
			return 3
		}
		return 2
	case Number:
		bits := math.Float64bits(v.num)
		return uint32(bits) ^ uint32(bits>>32)
	case Object:
		if s, ok := v.obj.(*String); ok {
			return s.Hash
		}
		return identityHash(v.obj)
	}
	return 0
}

func identityHash(o Obj) uint32 {
	// Pointer identity hash: stable for the object's lifetime, used only for
	// non-string, non-interned keys (e.g. instances used as map keys).
	p := fmt.Sprintf("%p", o)
	var h uint32 = 2166136261
	for i := 0; i < len(p); i++ {
		h ^= uint32(p[i])
		h *= 16777619
	}
	return h
}

// Hashable reports whether v may be used as a generic-map key: null, bool,
// number, string.
func Hashable(v Value) bool {
	switch v.typ {
	case Null, Bool, Number:
		return true
	case Object:
		_, ok := v.obj.(*String)
		return ok
	}
	return false
}
