// Package array implements the heap-hosted dynamic array of tagged values
// used as the language-level list type (array literals). AST child lists,
// shape children and parameter lists are plain Go slices, not arrays.
package array

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/pkg/errors"
)

// Header layout, offsets relative to the array's Ref:
//
//	[0:4)   shape index
//	[4:8)   capacity (uint32)
//	[8:12)  length (uint32)
//	[12:16) padding, to 8-byte-align the element slots
//	[16:)   inline Value slots, 16 bytes each (8-byte word + 1-byte tag + padding)
const (
	offCap     = 4
	offLen     = 8
	headerSize = 16
	slotSize   = 16
)

// ErrOutOfRange reports an access at or past the array's current length or
// capacity; callers never grow past the allocation they were given.
var ErrOutOfRange = errors.New("array index out of range")

// New allocates an array with the given capacity (and length 0). shapeIdx
// is the VM's single SHAPE_ARRAY.
func New(a *heap.Arena, shapeIdx uint32, capacity uint32) (heap.Ref, error) {
	size := headerSize + capacity*slotSize
	ref, err := a.Alloc(size, shapeIdx)
	if err != nil {
		return heap.Nil, errors.Wrapf(err, "allocating array of capacity %d", capacity)
	}
	a.WriteU32(ref, offCap, capacity)
	a.WriteU32(ref, offLen, 0)
	return ref, nil
}

// Cap returns the array's allocated capacity.
func Cap(a *heap.Arena, ref heap.Ref) uint32 { return a.ReadU32(ref, offCap) }

// Len returns the array's current length.
func Len(a *heap.Arena, ref heap.Ref) uint32 { return a.ReadU32(ref, offLen) }

func slotOffset(i uint32) uint32 { return headerSize + i*slotSize }

// Get reads the value at index i. Fatal for i >= Len.
func Get(a *heap.Arena, ref heap.Ref, i uint32) (vmvalue.Value, error) {
	if i >= Len(a, ref) {
		return vmvalue.Value{}, errors.Wrapf(ErrOutOfRange, "get(%d) with len %d", i, Len(a, ref))
	}
	off := slotOffset(i)
	word := a.ReadU64(ref, off)
	tag := vmvalue.Tag(a.ReadByte(ref, off+8))
	return vmvalue.Value{Word: word, Tag: tag}, nil
}

// Set writes v at index i, auto-extending the array's length up to (but
// never beyond) its capacity. Fatal if i >= Cap.
func Set(a *heap.Arena, ref heap.Ref, i uint32, v vmvalue.Value) error {
	cap := Cap(a, ref)
	if i >= cap {
		return errors.Wrapf(ErrOutOfRange, "set(%d) with capacity %d", i, cap)
	}
	off := slotOffset(i)
	a.WriteU64(ref, off, v.Word)
	a.WriteByte(ref, off+8, byte(v.Tag))

	if i >= Len(a, ref) {
		a.WriteU32(ref, offLen, i+1)
	}
	return nil
}

// Append is a convenience wrapper over Set at the current length; it fails
// if the array is already at capacity.
func Append(a *heap.Arena, ref heap.Ref, v vmvalue.Value) error {
	return Set(a, ref, Len(a, ref), v)
}
