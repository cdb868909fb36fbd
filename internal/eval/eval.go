// Package eval is the tree-walking evaluator: it walks an AST under a
// stack-allocated locals buffer per active call, dispatch keyed on each
// node's Go type (the native-struct stand-in for shape-tag dispatch, see
// internal/ast's package doc).
package eval

import (
	"fmt"
	"io"
	"log"

	"github.com/iankronquist/zeta/internal/array"
	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/globals"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/opinfo"
	"github.com/iankronquist/zeta/internal/strtab"
	"github.com/iankronquist/zeta/internal/vmerr"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Frame is the per-invocation locals buffer plus the function and closure
// it belongs to, threaded through every eval call.
type Frame struct {
	Fun     *ast.Fun
	Locals  []vmvalue.Value
	Closure *Closure
}

// Evaluator holds everything the tree walk needs beyond the AST itself:
// the heap the core's containers live in, the array shape they're
// allocated under, the global binding table, and the println collaborator.
type Evaluator struct {
	handles

	Arena         *heap.Arena
	ArrayShapeIdx uint32
	Globals       *globals.Store
	Stdout        io.Writer
	PrintlnName   heap.Ref
}

// New creates an Evaluator. arrayShapeIdx is the shape every array
// literal is tagged with (internal/array's header shape); printlnName is
// the interned name "println" must resolve to for the builtin call
// recognition.
func New(arena *heap.Arena, arrayShapeIdx uint32, g *globals.Store, stdout io.Writer, printlnName heap.Ref) *Evaluator {
	return &Evaluator{
		Arena:         arena,
		ArrayShapeIdx: arrayShapeIdx,
		Globals:       g,
		Stdout:        stdout,
		PrintlnName:   printlnName,
	}
}

// NewFrame allocates a fresh locals buffer sized from fn.Locals and
// eagerly materializes a Cell for every Captured local: a box per
// captured variable, installed in the local slot and dereferenced
// through a closure's capture array. Boxing happens as soon as the frame
// exists rather than waiting for an observable first write, which is
// equivalent since nothing can read a local before its frame is live.
func (e *Evaluator) NewFrame(fn *ast.Fun, closure *Closure) *Frame {
	locals := make([]vmvalue.Value, len(fn.Locals))
	for idx, d := range fn.Locals {
		if d.Captured {
			locals[idx] = e.newCell(vmvalue.Int64(0))
		}
	}
	return &Frame{Fun: fn, Locals: locals, Closure: closure}
}

// Eval dispatches on node's concrete type, mirroring eval_expr's shape
// switch.
func (e *Evaluator) Eval(node ast.Node, frame *Frame) (vmvalue.Value, error) {
	switch n := node.(type) {
	case *ast.Const:
		return n.Val, nil
	case *ast.Ref:
		return e.evalRef(n, frame)
	case *ast.UnOp:
		return e.evalUnOp(n, frame)
	case *ast.BinOp:
		return e.evalBinOp(n, frame)
	case *ast.Seq:
		return e.evalSeq(n, frame)
	case *ast.If:
		return e.evalIf(n, frame)
	case *ast.Call:
		return e.evalCall(n, frame)
	case *ast.Fun:
		return e.evalFun(n, frame)
	case *ast.ArrayLit:
		return e.evalArrayLit(n, frame)
	default:
		// A bare Decl (e.g. "var x" with no "=") has no evaluation rule
		// of its own; it's only ever handled as the lhs
		// of an Assign BinOp.
		return vmvalue.Value{}, vmerr.Evalf("unknown expression node %T", node)
	}
}

func (e *Evaluator) evalRef(ref *ast.Ref, frame *Frame) (vmvalue.Value, error) {
	if ref.Captured {
		return frame.Closure.Cells[ref.Idx].Value, nil
	}
	if ref.Global {
		v, ok := e.Globals.Get(ref.Name)
		if !ok {
			return vmvalue.Value{}, vmerr.Evalf("unresolved global reference")
		}
		return v, nil
	}
	if frame.Fun.Locals[ref.Idx].Captured {
		return e.cellAt(frame.Locals[ref.Idx]).Value, nil
	}
	return frame.Locals[ref.Idx], nil
}

// evalAssign handles Decl and Ref assignment targets. Decl targets
// always write the local slot (through its cell, if captured). Ref
// targets only support captured and global writes; a plain local Ref on
// the left of an assignment is fatal.
func (e *Evaluator) evalAssign(bin *ast.BinOp, frame *Frame) (vmvalue.Value, error) {
	v, err := e.Eval(bin.Right, frame)
	if err != nil {
		return v, err
	}

	switch lhs := bin.Left.(type) {
	case *ast.Decl:
		if frame.Fun.Locals[lhs.Idx].Captured {
			e.cellAt(frame.Locals[lhs.Idx]).Value = v
		} else {
			frame.Locals[lhs.Idx] = v
		}
		return v, nil

	case *ast.Ref:
		if lhs.Captured {
			frame.Closure.Cells[lhs.Idx].Value = v
			return v, nil
		}
		if lhs.Global {
			e.Globals.Set(lhs.Name, v)
			return v, nil
		}
		return vmvalue.Value{}, vmerr.Evalf("cannot assign to a plain local reference; only declarations, captures and globals are assignable")

	default:
		return vmvalue.Value{}, vmerr.Evalf("assignment target must be a declaration or reference, got %T", bin.Left)
	}
}

func (e *Evaluator) evalUnOp(node *ast.UnOp, frame *Frame) (vmvalue.Value, error) {
	v, err := e.Eval(node.Expr, frame)
	if err != nil {
		return v, err
	}

	switch node.Op {
	case &opinfo.Neg:
		if v.Tag != vmvalue.TagInt64 {
			return vmvalue.Value{}, vmerr.Evalf("'-' requires an integer operand, got %s", v.Tag)
		}
		return vmvalue.Int64(-v.AsInt64()), nil
	case &opinfo.Not:
		b, err := e.truth(v)
		if err != nil {
			return vmvalue.Value{}, err
		}
		return vmvalue.Bool(!b), nil
	default:
		log.Printf("unimplemented unary operator: %s", node.Op.Str)
		return vmvalue.False, nil
	}
}

func (e *Evaluator) evalBinOp(node *ast.BinOp, frame *Frame) (vmvalue.Value, error) {
	if node.Op == &opinfo.Assign {
		return e.evalAssign(node, frame)
	}

	l, err := e.Eval(node.Left, frame)
	if err != nil {
		return l, err
	}
	r, err := e.Eval(node.Right, frame)
	if err != nil {
		return r, err
	}

	switch node.Op {
	case &opinfo.Eq:
		return vmvalue.Bool(vmvalue.Equals(l, r)), nil
	case &opinfo.Ne:
		return vmvalue.Bool(!vmvalue.Equals(l, r)), nil
	case &opinfo.Index:
		return e.evalIndex(l, r)
	}

	i0, i1, ok := asInts(l, r)
	if !ok {
		log.Printf("unsupported operator combination: %s on (%s, %s)", node.Op.Str, l.Tag, r.Tag)
		return vmvalue.False, nil
	}

	switch node.Op {
	case &opinfo.Add:
		return vmvalue.Int64(i0 + i1), nil
	case &opinfo.Sub:
		return vmvalue.Int64(i0 - i1), nil
	case &opinfo.Mul:
		return vmvalue.Int64(i0 * i1), nil
	case &opinfo.Div:
		if i1 == 0 {
			return vmvalue.Value{}, vmerr.Evalf("division by zero")
		}
		return vmvalue.Int64(i0 / i1), nil
	case &opinfo.Mod:
		if i1 == 0 {
			return vmvalue.Value{}, vmerr.Evalf("division by zero in 'mod'")
		}
		return vmvalue.Int64(i0 % i1), nil
	case &opinfo.Lt:
		return vmvalue.Bool(i0 < i1), nil
	case &opinfo.Le:
		return vmvalue.Bool(i0 <= i1), nil
	case &opinfo.Gt:
		return vmvalue.Bool(i0 > i1), nil
	case &opinfo.Ge:
		return vmvalue.Bool(i0 >= i1), nil
	case &opinfo.BitAnd:
		return vmvalue.Int64(i0 & i1), nil
	case &opinfo.BitXor:
		return vmvalue.Int64(i0 ^ i1), nil
	case &opinfo.BitOr:
		return vmvalue.Int64(i0 | i1), nil
	default:
		log.Printf("unimplemented binary operator: %s", node.Op.Str)
		return vmvalue.False, nil
	}
}

func asInts(l, r vmvalue.Value) (int64, int64, bool) {
	if l.Tag != vmvalue.TagInt64 || r.Tag != vmvalue.TagInt64 {
		return 0, 0, false
	}
	return l.AsInt64(), r.AsInt64(), true
}

// evalIndex is array-index out of bounds is an explicit fatal evaluation
// error, so unlike the generic arithmetic ops above it does
// not fall back to "unsupported combination -> false".
func (e *Evaluator) evalIndex(l, r vmvalue.Value) (vmvalue.Value, error) {
	if l.Tag != vmvalue.TagArray || r.Tag != vmvalue.TagInt64 {
		return vmvalue.Value{}, vmerr.Evalf("'[' requires (array, int), got (%s, %s)", l.Tag, r.Tag)
	}
	idx := r.AsInt64()
	if idx < 0 {
		return vmvalue.Value{}, vmerr.Evalf("array index %d out of range", idx)
	}
	v, err := array.Get(e.Arena, l.AsRef(), uint32(idx))
	if err != nil {
		return vmvalue.Value{}, vmerr.Wrap(err, "array index %d out of range", idx)
	}
	return v, nil
}

func (e *Evaluator) truth(v vmvalue.Value) (bool, error) {
	if v.Tag != vmvalue.TagBool {
		return false, vmerr.Evalf("condition must be boolean, got %s", v.Tag)
	}
	return v.AsBool(), nil
}

func (e *Evaluator) evalSeq(node *ast.Seq, frame *Frame) (vmvalue.Value, error) {
	if len(node.Exprs) == 0 {
		return vmvalue.Value{}, vmerr.Evalf("empty sequences are not legal")
	}
	var v vmvalue.Value
	var err error
	for _, expr := range node.Exprs {
		v, err = e.Eval(expr, frame)
		if err != nil {
			return v, err
		}
	}
	return v, nil
}

func (e *Evaluator) evalIf(node *ast.If, frame *Frame) (vmvalue.Value, error) {
	t, err := e.Eval(node.Test, frame)
	if err != nil {
		return t, err
	}
	b, err := e.truth(t)
	if err != nil {
		return vmvalue.Value{}, err
	}
	if b {
		return e.Eval(node.Then, frame)
	}
	return e.Eval(node.Else, frame)
}

func (e *Evaluator) evalArrayLit(node *ast.ArrayLit, frame *Frame) (vmvalue.Value, error) {
	ref, err := array.New(e.Arena, e.ArrayShapeIdx, uint32(len(node.Elems)))
	if err != nil {
		return vmvalue.Value{}, vmerr.WrapResource(err, "allocating array literal")
	}
	for i, elemNode := range node.Elems {
		v, err := e.Eval(elemNode, frame)
		if err != nil {
			return v, err
		}
		if err := array.Set(e.Arena, ref, uint32(i), v); err != nil {
			return vmvalue.Value{}, vmerr.Wrap(err, "storing array literal element %d", i)
		}
	}
	return vmvalue.FromRef(vmvalue.TagArray, ref), nil
}

// evalFun allocates a fresh closure over node, threading each of its
// declared captures through from either this frame's own locals (if fn
// owns the captured Decl directly) or this frame's own closure (if fn
// itself already captured it from further out).
func (e *Evaluator) evalFun(node *ast.Fun, frame *Frame) (vmvalue.Value, error) {
	cells := make([]*Cell, len(node.Captures))
	for i, d := range node.Captures {
		if idx, ok := ownedLocalIdx(frame.Fun, d); ok {
			cells[i] = e.cellAt(frame.Locals[idx])
			continue
		}
		if j, ok := capturedIdx(frame.Fun, d); ok {
			cells[i] = frame.Closure.Cells[j]
			continue
		}
		return vmvalue.Value{}, vmerr.Evalf("internal error: closure capture not found in enclosing scope")
	}
	return e.newClosure(node, cells), nil
}

func ownedLocalIdx(fn *ast.Fun, d *ast.Decl) (int, bool) {
	for _, l := range fn.Locals {
		if l == d {
			return l.Idx, true
		}
	}
	return 0, false
}

func capturedIdx(fn *ast.Fun, d *ast.Decl) (int, bool) {
	for i, c := range fn.Captures {
		if c == d {
			return i, true
		}
	}
	return 0, false
}

// evalCall special-cases the println collaborator before
// falling back to ordinary closure invocation.
func (e *Evaluator) evalCall(call *ast.Call, frame *Frame) (vmvalue.Value, error) {
	if ref, ok := call.Fn.(*ast.Ref); ok && ref.Name == e.PrintlnName && len(call.Args) == 1 {
		v, err := e.Eval(call.Args[0], frame)
		if err != nil {
			return v, err
		}
		fmt.Fprintln(e.Stdout, e.Format(v))
		return vmvalue.True, nil
	}

	fnVal, err := e.Eval(call.Fn, frame)
	if err != nil {
		return fnVal, err
	}
	if fnVal.Tag != vmvalue.TagClosure {
		return vmvalue.Value{}, vmerr.Evalf("call target is not a closure (tag %s)", fnVal.Tag)
	}

	closure := e.closureAt(fnVal)
	fn := closure.Fun
	if len(call.Args) != len(fn.Params) {
		return vmvalue.Value{}, vmerr.Evalf("call argument count mismatch: expected %d, got %d", len(fn.Params), len(call.Args))
	}

	callee := e.NewFrame(fn, closure)
	for i, argNode := range call.Args {
		v, err := e.Eval(argNode, frame)
		if err != nil {
			return v, err
		}
		if fn.Params[i].Captured {
			e.cellAt(callee.Locals[i]).Value = v
		} else {
			callee.Locals[i] = v
		}
	}

	return e.Eval(fn.Body, callee)
}

// Format renders v in the canonical form println prints.
// The original declares value_print/string_print in vm.h but never
// defines them in the supplied source, so this rendering is this core's
// own completion rather than a port.
func (e *Evaluator) Format(v vmvalue.Value) string {
	switch v.Tag {
	case vmvalue.TagBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case vmvalue.TagInt64:
		return fmt.Sprintf("%d", v.AsInt64())
	case vmvalue.TagString:
		return string(strtab.Bytes(e.Arena, v.AsRef()))
	case vmvalue.TagArray:
		return e.formatArray(v.AsRef())
	case vmvalue.TagClosure:
		return "<closure>"
	default:
		return fmt.Sprintf("<%s>", v.Tag)
	}
}

func (e *Evaluator) formatArray(ref heap.Ref) string {
	n := array.Len(e.Arena, ref)
	out := "["
	for i := uint32(0); i < n; i++ {
		if i > 0 {
			out += ", "
		}
		elem, err := array.Get(e.Arena, ref, i)
		if err != nil {
			out += "?"
			continue
		}
		out += e.Format(elem)
	}
	return out + "]"
}
