package value

// Interner is the string-intern table: a weak set of *String keyed by
// content hash, so that every construction of byte-identical content
// returns the identical object (testable property 1). It is a weak set —
// GC sweep must prune unmarked entries here before freeing the underlying
// objects (SPEC_FULL.md §4.2 step 3), which pkg/gc does via Prune.
//
// This uses its own open-addressing array rather than the generic Table
// type because the lookup key here is raw bytes (we must hash before a
// String object exists, to decide whether to allocate one at all).
type Interner struct {
	slots []*String
	count int
}

const internInitialCap = 16

// GlobalInterner is the single process-wide intern table. The VM, compiler
// and lexer all allocate strings through Intern/Take so that identity
// equality is correct everywhere without threading an interner handle
// through every call site — exactly mirroring the original engine's single
// global `vm.strings` table.
var GlobalInterner = &Interner{}

func (in *Interner) find(chars []byte, hash uint32) (int, *String) {
	if len(in.slots) == 0 {
		return -1, nil
	}
	capN := len(in.slots)
	idx := int(hash) & (capN - 1)
	tombstone := -1
	for {
		s := in.slots[idx]
		if s == nil {
			if tombstone != -1 {
				return tombstone, nil
			}
			return idx, nil
		}
		if s == tombstoneMarker {
			if tombstone == -1 {
				tombstone = idx
			}
		} else if s.Hash == hash && string(s.Chars) == string(chars) {
			return idx, s
		}
		idx = (idx + 1) & (capN - 1)
	}
}

// tombstoneMarker is a sentinel distinct from nil, marking a deleted slot
// whose probe chain must still be walked through.
var tombstoneMarker = &String{}

func (in *Interner) grow(newCap int) {
	newSlots := make([]*String, newCap)
	newCount := 0
	for _, s := range in.slots {
		if s == nil || s == tombstoneMarker {
			continue
		}
		idx := int(s.Hash) & (newCap - 1)
		for newSlots[idx] != nil {
			idx = (idx + 1) & (newCap - 1)
		}
		newSlots[idx] = s
		newCount++
	}
	in.slots = newSlots
	in.count = newCount
}

func (in *Interner) insert(s *String) {
	if len(in.slots) == 0 || float64(in.count+1) > float64(len(in.slots))*tableMaxLoad {
		newCap := internInitialCap
		if len(in.slots) > 0 {
			newCap = len(in.slots) * 2
		}
		in.grow(newCap)
	}
	idx, existing := in.find(s.Chars, s.Hash)
	if existing == nil {
		in.count++
	}
	in.slots[idx] = s
}

// Copy duplicates bytes and interns the result — the "copy" lifecycle from
// SPEC_FULL.md §3.5.
func Copy(b []byte) *String {
	hash := fnv1a(b)
	if _, existing := GlobalInterner.find(b, hash); existing != nil {
		return existing
	}
	owned := make([]byte, len(b))
	copy(owned, b)
	s := &String{Chars: owned, Hash: hash}
	GlobalInterner.insert(s)
	return s
}

// Take interns b, transferring ownership (no copy) if b is not already
// interned — the "take" lifecycle from SPEC_FULL.md §3.5.
func Take(b []byte) *String {
	hash := fnv1a(b)
	if _, existing := GlobalInterner.find(b, hash); existing != nil {
		return existing
	}
	s := &String{Chars: b, Hash: hash}
	GlobalInterner.insert(s)
	return s
}

// Intern is the common case: intern a Go string.
func Intern(s string) *String {
	return Copy([]byte(s))
}

// Prune removes every unmarked entry from the intern table, called by the
// GC after tracing and before the object sweep (SPEC_FULL.md §4.2 step 3).
func (in *Interner) Prune() {
	for i, s := range in.slots {
		if s == nil || s == tombstoneMarker {
			continue
		}
		if !s.Marked {
			in.slots[i] = tombstoneMarker
			in.count--
		}
	}
}
