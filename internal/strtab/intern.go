package strtab

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/pkg/errors"
)

// maxLoadNum/maxLoadDen bound the table's load factor at 5/8; crossing
// it triggers a doubling rehash.
const (
	maxLoadNum = 5
	maxLoadDen = 8
	initialCap = 16 // power of two
)

// Interner canonicalizes byte-equal strings to a single heap.Ref, so that
// string equality reduces to pointer (Ref) equality everywhere else in the
// runtime.
type Interner struct {
	arena    *heap.Arena
	shapeIdx uint32
	slots    []heap.Ref // 0 (heap.Nil) marks an empty slot
	count    int
}

// NewInterner creates an interner backed by arena, whose interned strings
// are tagged with shapeIdx (the VM's shared string shape).
func NewInterner(arena *heap.Arena, shapeIdx uint32) *Interner {
	return &Interner{
		arena:    arena,
		shapeIdx: shapeIdx,
		slots:    make([]heap.Ref, initialCap),
	}
}

// Len reports how many distinct strings are currently interned.
func (in *Interner) Len() int { return in.count }

// Intern returns the canonical Ref for data: an existing entry if the
// content is already interned, or a freshly allocated one otherwise. The
// table is rehashed (doubled) when the load factor would exceed 5/8.
func (in *Interner) Intern(data []byte) (heap.Ref, error) {
	h := Hash32(data)
	if ref, ok := in.find(data, h); ok {
		return ref, nil
	}

	ref, err := New(in.arena, in.shapeIdx, data)
	if err != nil {
		return heap.Nil, errors.Wrap(err, "intern: allocating string")
	}
	in.insert(ref, h)
	in.count++

	if in.count*maxLoadDen > len(in.slots)*maxLoadNum {
		if err := in.rehash(); err != nil {
			return heap.Nil, errors.Wrap(err, "intern: rehashing table")
		}
	}

	return ref, nil
}

// find linearly probes from hash & (cap-1) looking for a content-equal
// string, wrapping modulo capacity.
func (in *Interner) find(data []byte, h uint32) (heap.Ref, bool) {
	cap := uint32(len(in.slots))
	idx := h & (cap - 1)
	for i := uint32(0); i < cap; i++ {
		slot := in.slots[idx]
		if slot == heap.Nil {
			return heap.Nil, false
		}
		if HashOf(in.arena, slot) == h && bytesEqual(Bytes(in.arena, slot), data) {
			return slot, true
		}
		idx = (idx + 1) & (cap - 1)
	}
	return heap.Nil, false
}

func (in *Interner) insert(ref heap.Ref, h uint32) {
	cap := uint32(len(in.slots))
	idx := h & (cap - 1)
	for in.slots[idx] != heap.Nil {
		idx = (idx + 1) & (cap - 1)
	}
	in.slots[idx] = ref
}

func (in *Interner) rehash() error {
	old := in.slots
	in.slots = make([]heap.Ref, len(old)*2)
	for _, ref := range old {
		if ref == heap.Nil {
			continue
		}
		in.insert(ref, HashOf(in.arena, ref))
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
