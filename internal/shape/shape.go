// Package shape implements a hidden-class tree: every heap object
// carries only a shape index, and the shape knows where each of the
// object's properties lives.
package shape

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"golang.org/x/exp/slices"
)

// Attrs are the per-property/object attribute flags.
type Attrs uint8

const (
	AttrTypeKnown Attrs = 1 << iota
	AttrWordKnown
	AttrReadOnly
	AttrFrozen
)

// Shape is one node in the hidden-class trie: a property name, its tag,
// its attributes, its field size and byte offset, and the path back to
// the object's previous properties via Parent.
type Shape struct {
	Index     uint32
	Parent    *Shape
	PropName  heap.Ref // zero for the root (empty) shape
	PropTag   vmvalue.Tag
	Attrs     Attrs
	FieldSize uint8
	Offset    uint32

	children []*childEntry
}

type childEntry struct {
	name  heap.Ref
	tag   vmvalue.Tag
	attrs Attrs
	shape *Shape
}

// Table owns every Shape ever created, indexed by Shape.Index, plus the
// root (empty) shape every object starts from.
type Table struct {
	shapes []*Shape
	root   *Shape
}

// NewTable creates a shape table with its root shape already registered.
// The root's Offset/FieldSize describe the header every heap object
// begins with (the 4-byte shape index): the first real property is
// therefore placed at offset 4 rounded up to its field size (8 for an
// 8-byte field).
func NewTable() *Table {
	t := &Table{}
	root := &Shape{Index: 0, Offset: 4, FieldSize: 0}
	t.shapes = append(t.shapes, root)
	t.root = root
	return t
}

// Root returns the empty shape every fresh object is allocated with.
func (t *Table) Root() *Shape { return t.root }

// Len reports how many shapes have been registered.
func (t *Table) Len() int { return len(t.shapes) }

// ByIndex looks a shape up by its table index.
func (t *Table) ByIndex(idx uint32) *Shape { return t.shapes[idx] }

// align rounds n up to a multiple of size (size is 4 or 8 in this core).
func align(n uint32, size uint8) uint32 {
	s := uint32(size)
	if s == 0 {
		return n
	}
	return (n + s - 1) / s * s
}

// child looks up an existing child of s matching (name, tag, attrs),
// implementing the shape trie's child lookup.
func (s *Shape) child(name heap.Ref, tag vmvalue.Tag, attrs Attrs) (*Shape, bool) {
	i := slices.IndexFunc(s.children, func(c *childEntry) bool {
		return c.name == name && c.tag == tag && c.attrs == attrs
	})
	if i < 0 {
		return nil, false
	}
	return s.children[i].shape, true
}

// DefineChild returns the existing child shape for (name, tag, attrs) if
// one exists, or forges and registers a new one. The new shape's offset is
// the parent's offset plus the parent's field size, rounded up to a
// multiple of size, so offsets only ever grow moving down the trie.
func (t *Table) DefineChild(parent *Shape, name heap.Ref, tag vmvalue.Tag, attrs Attrs, size uint8) *Shape {
	if existing, ok := parent.child(name, tag, attrs); ok {
		return existing
	}

	child := &Shape{
		Index:     uint32(len(t.shapes)),
		Parent:    parent,
		PropName:  name,
		PropTag:   tag,
		Attrs:     attrs,
		FieldSize: size,
		Offset:    align(parent.Offset+uint32(parent.FieldSize), size),
	}
	t.shapes = append(t.shapes, child)
	parent.children = append(parent.children, &childEntry{name: name, tag: tag, attrs: attrs, shape: child})
	return child
}

// Find walks the shape chain from s up to the root looking for a
// pointer-equal property name. Returns the
// defining shape, or nil if not found in this chain -- there is no
// prototype chain in this core.
func Find(s *Shape, name heap.Ref) *Shape {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.PropName == name {
			return cur
		}
	}
	return nil
}
