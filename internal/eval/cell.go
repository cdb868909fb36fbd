package eval

import (
	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Cell is a single mutable box a captured local lives in once a closure
// might outlive its declaring frame. Cell and Closure cannot live in the byte arena: a Closure
// holds a native *ast.Fun pointer, which no heap.Ref can address without
// unsafe.Pointer tricks the rest of this core deliberately avoids. We
// instead keep them in VM-owned Go slices and hand out their slice index
// as the value's Word, the same role heap.Ref plays for arena objects --
// "arena + indices is a clean fit" applies just as well to a slice.
type Cell struct {
	Value vmvalue.Value
}

// Closure pairs a Fun AST with the cells it captured at creation time, in
// Fun.Captures order.
type Closure struct {
	Fun   *ast.Fun
	Cells []*Cell
}

// handles owns the Cell and Closure tables a single VM instance hands
// indices into. Nothing here is shared across VM instances or threads.
type handles struct {
	cells    []*Cell
	closures []*Closure
}

func (h *handles) newCell(v vmvalue.Value) vmvalue.Value {
	idx := len(h.cells)
	h.cells = append(h.cells, &Cell{Value: v})
	return vmvalue.FromRef(vmvalue.TagRawPtr, heap.Ref(idx))
}

func (h *handles) cellAt(v vmvalue.Value) *Cell {
	return h.cells[v.AsRef()]
}

func (h *handles) newClosure(fn *ast.Fun, cells []*Cell) vmvalue.Value {
	idx := len(h.closures)
	h.closures = append(h.closures, &Closure{Fun: fn, Cells: cells})
	return vmvalue.FromRef(vmvalue.TagClosure, heap.Ref(idx))
}

func (h *handles) closureAt(v vmvalue.Value) *Closure {
	return h.closures[v.AsRef()]
}
