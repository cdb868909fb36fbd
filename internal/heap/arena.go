// Package heap implements the bump-allocated hosted heap every other
// runtime package sits on top of: strings, arrays, shapes and objects are
// all byte layouts carved out of one fixed arena.
package heap

import (
	"encoding/binary"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DefaultSize is the arena size used when a VM isn't configured otherwise:
// 16 MiB (1 << 24).
const DefaultSize = 1 << 24

// wordAlign is the alignment every allocation is bumped up to.
const wordAlign = 8

// Ref is an offset into an Arena's backing buffer. The zero Ref is never a
// valid allocation (offset 0 is reserved so Ref's zero value can serve as a
// nil pointer), matching the "RawPtr" family of tagged values whose word is
// reinterpreted as a heap address.
type Ref uint32

// Nil is the reference that never points at a live allocation.
const Nil Ref = 0

// ErrExhausted is returned (wrapped) when an allocation would run past the
// end of the arena. It is always fatal: the core performs no compaction or
// collection.
var ErrExhausted = errors.New("heap exhausted")

// Arena is a contiguous, zero-initialized region of memory. Allocation bumps
// a pointer forward; there is no deallocation or garbage collection.
type Arena struct {
	buf    []byte
	offset uint32
}

// NewArena reserves and zero-initializes an arena of the given size. The
// first wordAlign bytes are burned so that offset 0 can double as Nil.
func NewArena(size uint32) *Arena {
	if size < wordAlign {
		size = wordAlign
	}
	return &Arena{
		buf:    make([]byte, size),
		offset: wordAlign,
	}
}

// Size returns the total capacity of the arena in bytes.
func (a *Arena) Size() uint32 { return uint32(len(a.buf)) }

// Used returns the number of bytes allocated so far.
func (a *Arena) Used() uint32 { return a.offset }

// Stats is a human-readable snapshot of arena occupancy, reported by the
// VM's Stats method for diagnostics.
type Stats struct {
	Used  string
	Total string
	Pct   float64
}

// Stats reports current occupancy, humanizing byte counts.
func (a *Arena) Stats() Stats {
	return Stats{
		Used:  humanize.Bytes(uint64(a.offset)),
		Total: humanize.Bytes(uint64(len(a.buf))),
		Pct:   100 * float64(a.offset) / float64(len(a.buf)),
	}
}

// align rounds n up to the next multiple of a (a must be a power of two).
func align(n, a uint32) uint32 {
	return (n + a - 1) &^ (a - 1)
}

// Alloc carves out size bytes, zero-initialized, and stamps the first four
// bytes with shapeIdx as the object header every heap object begins with.
// size must be at least 4 (room for the header). The returned Ref points at
// the start of the header, i.e. at the shape index itself.
func (a *Arena) Alloc(size uint32, shapeIdx uint32) (Ref, error) {
	if size < 4 {
		size = 4
	}
	start := a.offset
	end := start + align(size, wordAlign)
	if end < start || end > uint32(len(a.buf)) {
		return Nil, errors.Wrapf(ErrExhausted, "need %s more, only %s free of %s",
			humanize.Bytes(uint64(size)),
			humanize.Bytes(uint64(len(a.buf))-uint64(start)),
			humanize.Bytes(uint64(len(a.buf))),
		)
	}
	a.offset = end
	ref := Ref(start)
	binary.LittleEndian.PutUint32(a.buf[start:start+4], shapeIdx)
	return ref, nil
}

// ShapeOf reads the shape index stamped at the start of any heap object.
func (a *Arena) ShapeOf(ref Ref) uint32 {
	return binary.LittleEndian.Uint32(a.buf[ref : ref+4])
}

// SetShapeOf overwrites the shape index of an existing heap object, used
// when a property is added to an object and its hidden class changes.
func (a *Arena) SetShapeOf(ref Ref, shapeIdx uint32) {
	binary.LittleEndian.PutUint32(a.buf[ref:ref+4], shapeIdx)
}

// ReadU32 / WriteU32 access a little-endian uint32 at ref+off.
func (a *Arena) ReadU32(ref Ref, off uint32) uint32 {
	p := uint32(ref) + off
	return binary.LittleEndian.Uint32(a.buf[p : p+4])
}

func (a *Arena) WriteU32(ref Ref, off uint32, v uint32) {
	p := uint32(ref) + off
	binary.LittleEndian.PutUint32(a.buf[p:p+4], v)
}

// ReadU64 / WriteU64 access a little-endian uint64 at ref+off.
func (a *Arena) ReadU64(ref Ref, off uint32) uint64 {
	p := uint32(ref) + off
	return binary.LittleEndian.Uint64(a.buf[p : p+8])
}

func (a *Arena) WriteU64(ref Ref, off uint32, v uint64) {
	p := uint32(ref) + off
	binary.LittleEndian.PutUint64(a.buf[p:p+8], v)
}

// ReadByte / WriteByte access a single byte at ref+off.
func (a *Arena) ReadByte(ref Ref, off uint32) byte {
	return a.buf[uint32(ref)+off]
}

func (a *Arena) WriteByte(ref Ref, off uint32, v byte) {
	a.buf[uint32(ref)+off] = v
}

// Bytes returns a view (not a copy) of n bytes starting at ref+off.
func (a *Arena) Bytes(ref Ref, off, n uint32) []byte {
	p := uint32(ref) + off
	return a.buf[p : p+n]
}

// WriteBytes copies src into the arena at ref+off.
func (a *Arena) WriteBytes(ref Ref, off uint32, src []byte) {
	p := uint32(ref) + off
	copy(a.buf[p:p+uint32(len(src))], src)
}
