// Package object implements generic shaped heap objects: get/set property
// against the shape trie.
package object

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/shape"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/pkg/errors"
)

// Header layout, offsets relative to the object's Ref:
//
//	[0:4)  shape index
//	[4:8)  capacity, in bytes, of the slot area that follows
//	[8:)   raw slot bytes
const headerSize = 8

var (
	// ErrFrozen is returned when adding a property to a frozen object.
	ErrFrozen = errors.New("object is frozen")
	// ErrReadOnly is returned when writing a read-only property.
	ErrReadOnly = errors.New("property is read-only")
	// ErrTagMismatch is returned redefining a property with an
	// incompatible tag; forking the shape tree for this case is a known
	// extension point the core does not implement.
	ErrTagMismatch = errors.New("property redefinition with a different tag is not supported by this core")
	// ErrNoSpace is returned when a property would not fit in the
	// object's allocated capacity.
	ErrNoSpace = errors.New("object has no room for this property")
	// ErrNotFound is returned by Get when the property isn't defined.
	ErrNotFound = errors.New("property not found")
)

// New allocates an object with capacityBytes of slot space and the root
// (empty) shape.
func New(a *heap.Arena, root *shape.Shape, capacityBytes uint32) (heap.Ref, error) {
	ref, err := a.Alloc(headerSize+capacityBytes, root.Index)
	if err != nil {
		return heap.Nil, errors.Wrap(err, "allocating object")
	}
	a.WriteU32(ref, 4, capacityBytes)
	return ref, nil
}

func capacity(a *heap.Arena, ref heap.Ref) uint32 { return a.ReadU32(ref, 4) }

func shapeOf(a *heap.Arena, tbl *shape.Table, ref heap.Ref) *shape.Shape {
	return tbl.ByIndex(a.ShapeOf(ref))
}

// Set looks up the defining shape
// along the object's chain; if missing, synthesize a new child shape
// (unless the object is frozen); if present with a matching tag,
// overwrite in place (unless read-only); a different tag is an
// unsupported fork in this core.
func Set(a *heap.Arena, tbl *shape.Table, ref heap.Ref, name heap.Ref, v vmvalue.Value, defaultAttrs shape.Attrs) error {
	cur := shapeOf(a, tbl, ref)

	defining := shape.Find(cur, name)
	if defining == nil {
		if cur.Attrs&shape.AttrFrozen != 0 {
			return errors.Wrapf(ErrFrozen, "set property on frozen object")
		}
		child := tbl.DefineChild(cur, name, v.Tag, defaultAttrs, 8)
		if err := checkBounds(a, ref, child); err != nil {
			return err
		}
		a.WriteU64(ref, child.Offset, v.Word)
		a.SetShapeOf(ref, child.Index)
		return nil
	}

	if defining.Attrs&shape.AttrReadOnly != 0 {
		return errors.Wrapf(ErrReadOnly, "property is read-only")
	}
	if defining.PropTag != v.Tag {
		return errors.Wrapf(ErrTagMismatch, "existing tag %s, new tag %s", defining.PropTag, v.Tag)
	}
	if err := checkBounds(a, ref, defining); err != nil {
		return err
	}
	a.WriteU64(ref, defining.Offset, v.Word)
	return nil
}

func checkBounds(a *heap.Arena, ref heap.Ref, s *shape.Shape) error {
	cap := capacity(a, ref)
	// Offset is measured from the start of the header (byte 0); slots
	// start at byte 8, so the usable region is [8, 8+cap).
	if s.Offset+uint32(s.FieldSize) > headerSize+cap {
		return errors.Wrapf(ErrNoSpace, "offset %d + size %d exceeds capacity %d", s.Offset, s.FieldSize, cap)
	}
	return nil
}

// Get walks the shape chain for a
// pointer-equal name; if found, read FieldSize bytes at Offset and tag the
// result with the shape's PropTag.
func Get(a *heap.Arena, tbl *shape.Table, ref heap.Ref, name heap.Ref) (vmvalue.Value, error) {
	cur := shapeOf(a, tbl, ref)
	defining := shape.Find(cur, name)
	if defining == nil {
		return vmvalue.Value{}, ErrNotFound
	}
	word := a.ReadU64(ref, defining.Offset)
	return vmvalue.Value{Word: word, Tag: defining.PropTag}, nil
}

// Has reports whether name is defined anywhere in ref's shape chain.
func Has(a *heap.Arena, tbl *shape.Table, ref heap.Ref, name heap.Ref) bool {
	return shape.Find(shapeOf(a, tbl, ref), name) != nil
}
