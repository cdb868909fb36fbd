// Package strtab implements the heap string representation (header + hash
// + length + inline bytes) and an open-addressing intern table over it.
package strtab

import (
	"github.com/iankronquist/zeta/internal/heap"
)

// Header layout, all offsets relative to the string's Ref:
//
//	[0:4)   shape index (written by heap.Alloc)
//	[4:8)   hash (uint32)
//	[8:12)  length (uint32)
//	[12:)   inline character bytes
const (
	offHash = 4
	offLen  = 8
	offData = 12
)

// New allocates a fresh heap string of the given content. The caller
// supplies the shape index strings are tagged with (the VM's single
// SHAPE_STRING, registered once at startup).
func New(a *heap.Arena, shapeIdx uint32, data []byte) (heap.Ref, error) {
	size := uint32(offData + len(data))
	ref, err := a.Alloc(size, shapeIdx)
	if err != nil {
		return heap.Nil, err
	}
	a.WriteU32(ref, offHash, Hash32(data))
	a.WriteU32(ref, offLen, uint32(len(data)))
	a.WriteBytes(ref, offData, data)
	return ref, nil
}

// Len returns the string's length in bytes.
func Len(a *heap.Arena, ref heap.Ref) uint32 {
	return a.ReadU32(ref, offLen)
}

// HashOf returns the string's precomputed hash.
func HashOf(a *heap.Arena, ref heap.Ref) uint32 {
	return a.ReadU32(ref, offHash)
}

// Bytes returns a view of the string's character data.
func Bytes(a *heap.Arena, ref heap.Ref) []byte {
	return a.Bytes(ref, offData, Len(a, ref))
}

// ContentEqual compares two heap strings by content (not identity). The
// intern table does not call it (its probe compares the stored hash and
// bytes directly); two interned strings may be compared by Ref alone.
func ContentEqual(a *heap.Arena, x, y heap.Ref) bool {
	if HashOf(a, x) != HashOf(a, y) || Len(a, x) != Len(a, y) {
		return false
	}
	xb, yb := Bytes(a, x), Bytes(a, y)
	for i := range xb {
		if xb[i] != yb[i] {
			return false
		}
	}
	return true
}
