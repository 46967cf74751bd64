package value

// Table is the hand-rolled open-addressing hash table mandated by
// SPEC_FULL.md §4.1: linear probing, power-of-two capacity, 0.75 load
// factor, tombstones encoded as {key: null, value: true}. It backs globals,
// module exports, class method/static tables, instance fields, and
// user-facing maps — every one of those keys on a hashable
// Value (strings, for the engine-internal tables; any hashable value, for
// user maps).
//
// This is deliberately not a third-party hash map: the spec names this
// exact algorithm as part of the observable contract (testable property 12
// ties equality to hash equality), so substituting an off-the-shelf map
// here would silently change probing/resize behavior the spec pins down.
type Table struct {
	entries []entry
	count   int // live entries, tombstones not counted
}

type entry struct {
	Key   Value
	Value Value
	used  bool // distinguishes a never-used slot from key=null/value=true tombstone
}

const initialTableCapacity = 8
const tableMaxLoad = 0.75

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Count() int { return t.count }
func (t *Table) Cap() int   { return len(t.entries) }

func isTombstone(e entry) bool {
	return e.used && e.Key.IsNull() && e.Value.IsBool() && e.Value.AsBool()
}

// findEntry locates the slot for key: either the live entry, or the first
// empty/tombstone slot on the probe sequence (so callers can both look up
// and insert using the same scan).
func findEntry(entries []entry, key Value) int {
	cap := len(entries)
	idx := int(Hash(key)) & (cap - 1)
	var tombstone = -1
	for {
		e := &entries[idx]
		if !e.used {
			if tombstone != -1 {
				return tombstone
			}
			return idx
		} else if isTombstone(*e) {
			if tombstone == -1 {
				tombstone = idx
			}
		} else if Equal(e.Key, key) {
			return idx
		}
		idx = (idx + 1) & (cap - 1)
	}
}

func (t *Table) grow(newCap int) {
	newEntries := make([]entry, newCap)
	newCount := 0
	for _, e := range t.entries {
		if !e.used || isTombstone(e) {
			continue
		}
		idx := findEntry(newEntries, e.Key)
		newEntries[idx] = entry{Key: e.Key, Value: e.Value, used: true}
		newCount++
	}
	t.entries = newEntries
	t.count = newCount
}

// Set inserts or overwrites key -> val, returning true if this created a
// brand-new entry (as opposed to overwriting an existing one).
func (t *Table) Set(key, val Value) bool {
	if len(t.entries) == 0 || float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		newCap := initialTableCapacity
		if len(t.entries) > 0 {
			newCap = len(t.entries) * 2
		}
		t.grow(newCap)
	}
	idx := findEntry(t.entries, key)
	e := &t.entries[idx]
	isNew := !e.used || isTombstone(*e)
	if isNew {
		t.count++
	}
	*e = entry{Key: key, Value: val, used: true}
	return isNew
}

// Get returns the value for key, reporting whether it was found.
func (t *Table) Get(key Value) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	idx := findEntry(t.entries, key)
	e := t.entries[idx]
	if !e.used || isTombstone(e) {
		return Value{}, false
	}
	return e.Value, true
}

// Delete removes key, writing a tombstone so later probe sequences through
// this slot still find entries placed after it.
func (t *Table) Delete(key Value) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := findEntry(t.entries, key)
	e := &t.entries[idx]
	if !e.used || isTombstone(*e) {
		return false
	}
	*e = entry{Key: NullVal(), Value: BoolVal(true), used: true}
	t.count--
	return true
}

// GetStr/SetStr/DeleteStr are convenience wrappers for the overwhelmingly
// common case of string-object keys (globals, methods, fields), avoiding a
// String allocation at every call site by taking a Go string and interning
// it via the shared Interner.
func (t *Table) GetStr(key string) (Value, bool) {
	return t.Get(ObjectVal(Intern(key)))
}

func (t *Table) SetStr(key string, val Value) bool {
	return t.Set(ObjectVal(Intern(key)), val)
}

func (t *Table) DeleteStr(key string) bool {
	return t.Delete(ObjectVal(Intern(key)))
}

// Keys returns all live keys, used by the map keys()/values() core methods.
func (t *Table) Keys() []Value {
	keys := make([]Value, 0, t.count)
	for _, e := range t.entries {
		if e.used && !isTombstone(e) {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// NextOccupied scans forward from index from (inclusive) for the next live
// slot, used to drive map iteration by slot index rather than by key, so the
// iteration cursor stays a plain Number across calls.
func (t *Table) NextOccupied(from int) (int, bool) {
	for i := from; i < len(t.entries); i++ {
		e := t.entries[i]
		if e.used && !isTombstone(e) {
			return i, true
		}
	}
	return 0, false
}

// KeyValueAt returns the key/value stored at a slot index previously
// returned by NextOccupied.
func (t *Table) KeyValueAt(idx int) (Value, Value) {
	e := t.entries[idx]
	return e.Key, e.Value
}

// Each calls fn for every live entry; used by GC blackening and `do:`-style
// iteration.
func (t *Table) Each(fn func(key, val Value)) {
	for _, e := range t.entries {
		if e.used && !isTombstone(e) {
			fn(e.Key, e.Value)
		}
	}
}
