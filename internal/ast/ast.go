// Package ast defines the AST node variants: Const, Ref,
// Decl, UnOp, BinOp, Seq, If, Call, Fun and ArrayLit. The Closure and
// Cell runtime objects live in internal/eval.
//
// Design note (see DESIGN.md): each Go struct below is the node itself,
// carrying a shape index stamped from a small per-Kind shape table
// registered once at
// startup, so "every AST node is a heap object with a shape tag
// identifying the variant" remains true and dispatchable by shape index,
// while Go's own pointers and GC stand in for the hosted heap + shapeidx
// trick used for the generic object model (internal/object) that
// implements *user-level* set()/get().
package ast

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/opinfo"
	"github.com/iankronquist/zeta/internal/shape"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Kind identifies an AST node's variant.
type Kind int

const (
	KindConst Kind = iota
	KindRef
	KindDecl
	KindUnOp
	KindBinOp
	KindSeq
	KindIf
	KindCall
	KindFun
	KindArrayLit
)

// Node is any AST expression node.
type Node interface {
	Kind() Kind
	ShapeIndex() uint32
}

// Shapes holds the per-Kind shape registered at startup, so each node's
// ShapeIndex() is a real entry in the VM's shape table.
type Shapes struct {
	table  *shape.Table
	byKind [KindArrayLit + 1]*shape.Shape
}

// propKindName is the sentinel name every AST-kind shape defines its single
// property under (with a per-kind attrs byte), so that distinct kinds are genuinely distinct
// hidden classes (and identical-kind nodes share one shape, matching the
// "objects with the same properties in the same order share a shape"
// property of the hidden-class design).
var propKindName = heap.Ref(0xFFFFFFF0) // sentinel identity, not a real string ref

// RegisterShapes defines one child shape of the root per AST Kind.
func RegisterShapes(tbl *shape.Table) *Shapes {
	s := &Shapes{table: tbl}
	for k := KindConst; k <= KindArrayLit; k++ {
		// Each kind forks off a unique literal attrs byte so kinds never
		// collide in the trie (the shape key is (name, tag, attrs); we
		// vary attrs by kind since the name is the same sentinel ref).
		s.byKind[k] = tbl.DefineChild(tbl.Root(), propKindName, vmvalue.TagInt64, shape.Attrs(0x10+k), 8)
	}
	return s
}

func (s *Shapes) of(k Kind) uint32 { return s.byKind[k].Index }

// Const is a literal bool or int.
type Const struct {
	shapeIdx uint32
	Val      vmvalue.Value
}

func (n *Const) Kind() Kind         { return KindConst }
func (n *Const) ShapeIndex() uint32 { return n.shapeIdx }

func NewConst(s *Shapes, v vmvalue.Value) *Const {
	return &Const{shapeIdx: s.of(KindConst), Val: v}
}

// Ref is a variable use.
type Ref struct {
	shapeIdx uint32
	Name     heap.Ref // interned identifier
	Idx      int      // local index, or index into the enclosing Fun's Captures
	Global   bool
	Captured bool
}

func (n *Ref) Kind() Kind         { return KindRef }
func (n *Ref) ShapeIndex() uint32 { return n.shapeIdx }

func NewRef(s *Shapes, name heap.Ref) *Ref {
	return &Ref{shapeIdx: s.of(KindRef), Name: name}
}

// Decl is a let/var binding.
type Decl struct {
	shapeIdx uint32
	Name     heap.Ref
	Idx      int
	Const    bool
	Captured bool
}

func (n *Decl) Kind() Kind         { return KindDecl }
func (n *Decl) ShapeIndex() uint32 { return n.shapeIdx }

func NewDecl(s *Shapes, name heap.Ref, isConst bool) *Decl {
	return &Decl{shapeIdx: s.of(KindDecl), Name: name, Const: isConst}
}

// UnOp is a prefix unary operator application.
type UnOp struct {
	shapeIdx uint32
	Op       *opinfo.OpInfo
	Expr     Node
}

func (n *UnOp) Kind() Kind         { return KindUnOp }
func (n *UnOp) ShapeIndex() uint32 { return n.shapeIdx }

func NewUnOp(s *Shapes, op *opinfo.OpInfo, expr Node) *UnOp {
	return &UnOp{shapeIdx: s.of(KindUnOp), Op: op, Expr: expr}
}

// BinOp is an infix (or matched, e.g. index/call-member) binary operator
// application, including assignment.
type BinOp struct {
	shapeIdx uint32
	Op       *opinfo.OpInfo
	Left     Node
	Right    Node
}

func (n *BinOp) Kind() Kind         { return KindBinOp }
func (n *BinOp) ShapeIndex() uint32 { return n.shapeIdx }

func NewBinOp(s *Shapes, op *opinfo.OpInfo, left, right Node) *BinOp {
	return &BinOp{shapeIdx: s.of(KindBinOp), Op: op, Left: left, Right: right}
}

// Seq is a block `{ e1 e2 ... }`; its value is its last expression's value.
type Seq struct {
	shapeIdx uint32
	Exprs    []Node
}

func (n *Seq) Kind() Kind         { return KindSeq }
func (n *Seq) ShapeIndex() uint32 { return n.shapeIdx }

func NewSeq(s *Shapes, exprs []Node) *Seq {
	return &Seq{shapeIdx: s.of(KindSeq), Exprs: exprs}
}

// If is a conditional expression; Else defaults to Const(false) when
// omitted from source.
type If struct {
	shapeIdx uint32
	Test     Node
	Then     Node
	Else     Node
}

func (n *If) Kind() Kind         { return KindIf }
func (n *If) ShapeIndex() uint32 { return n.shapeIdx }

func NewIf(s *Shapes, test, then, els Node) *If {
	return &If{shapeIdx: s.of(KindIf), Test: test, Then: then, Else: els}
}

// Call is a function call.
type Call struct {
	shapeIdx uint32
	Fn       Node
	Args     []Node
}

func (n *Call) Kind() Kind         { return KindCall }
func (n *Call) ShapeIndex() uint32 { return n.shapeIdx }

func NewCall(s *Shapes, fn Node, args []Node) *Call {
	return &Call{shapeIdx: s.of(KindCall), Fn: fn, Args: args}
}

// Fun is a function AST: parameters, body, and the resolution-time
// payload (parent, locals, captures) mutated in place by internal/resolve.
type Fun struct {
	shapeIdx uint32
	Params   []*Decl
	Body     Node

	Parent   *Fun
	Locals   []*Decl
	Captures []*Decl
}

func (n *Fun) Kind() Kind         { return KindFun }
func (n *Fun) ShapeIndex() uint32 { return n.shapeIdx }

func NewFun(s *Shapes, params []*Decl, body Node) *Fun {
	return &Fun{shapeIdx: s.of(KindFun), Params: params, Body: body}
}

// ArrayLit is an array literal `[e1, e2, ...]`. Note: string literals do
// not get a distinct node kind (unlike a dedicated
// SHAPE_STRING dispatch case in eval_expr) because interning happens at
// parse time, so a string literal is simply a Const carrying a
// TagString value -- both dispatch arms "return the embedded value"
// identically.
type ArrayLit struct {
	shapeIdx uint32
	Elems    []Node
}

func (n *ArrayLit) Kind() Kind         { return KindArrayLit }
func (n *ArrayLit) ShapeIndex() uint32 { return n.shapeIdx }

func NewArrayLit(s *Shapes, elems []Node) *ArrayLit {
	return &ArrayLit{shapeIdx: s.of(KindArrayLit), Elems: elems}
}
