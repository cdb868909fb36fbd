// Package resolve implements two-pass variable resolution: a declaration
// pass that assigns local slot indices, followed by a reference pass
// that resolves every Ref to a local index, a capture, or the global
// scope.
package resolve

import (
	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmerr"
)

// MaxLocals is the fatal limit on the number of locals (including
// parameters) a single function may declare.
const MaxLocals = 64

// Resolve runs variable resolution on the top-level unit Fun and every
// function nested within it, bottom-up from outermost as functions are
// discovered.
func Resolve(fn *ast.Fun) error {
	return resolveFun(fn, nil)
}

// resolveFun is var_res_pass: it assigns fn.Parent, gives every
// parameter a local index, then runs find_decls followed by var_res over
// the body.
func resolveFun(fn *ast.Fun, parent *ast.Fun) error {
	fn.Parent = parent
	fn.Locals = nil
	fn.Captures = nil

	for _, p := range fn.Params {
		declare(fn, p)
	}

	findDecls(fn.Body, fn)

	if len(fn.Locals) > MaxLocals {
		return vmerr.Resolvef("function declares %d locals, exceeding the maximum of %d", len(fn.Locals), MaxLocals)
	}

	return varRes(fn.Body, fn)
}

// declare is the body of find_decls's Decl case: a Decl with a name
// already present in fn.Locals is coalesced to the existing slot;
// otherwise it's appended and claims the next index.
func declare(fn *ast.Fun, d *ast.Decl) {
	for _, existing := range fn.Locals {
		if existing.Name == d.Name {
			d.Idx = existing.Idx
			return
		}
	}
	d.Idx = len(fn.Locals)
	fn.Locals = append(fn.Locals, d)
}

// findDecls walks every structural child of n except nested Fun bodies,
// which belong to their own scope.
func findDecls(n ast.Node, fn *ast.Fun) {
	switch v := n.(type) {
	case *ast.Decl:
		declare(fn, v)
	case *ast.UnOp:
		findDecls(v.Expr, fn)
	case *ast.BinOp:
		findDecls(v.Left, fn)
		findDecls(v.Right, fn)
	case *ast.Seq:
		for _, e := range v.Exprs {
			findDecls(e, fn)
		}
	case *ast.If:
		findDecls(v.Test, fn)
		findDecls(v.Then, fn)
		findDecls(v.Else, fn)
	case *ast.Call:
		findDecls(v.Fn, fn)
		for _, a := range v.Args {
			findDecls(a, fn)
		}
	case *ast.ArrayLit:
		for _, e := range v.Elems {
			findDecls(e, fn)
		}
	case *ast.Fun, *ast.Const, *ast.Ref:
		// Fun: a nested scope, not descended into here.
		// Const/Ref: no children to declare.
	}
}

// varRes walks n resolving every Ref reachable from fn's body, recursing
// into nested Fun nodes with fn as their parent.
func varRes(n ast.Node, fn *ast.Fun) error {
	switch v := n.(type) {
	case *ast.Ref:
		resolveRef(v, fn)
	case *ast.UnOp:
		return varRes(v.Expr, fn)
	case *ast.BinOp:
		if err := varRes(v.Left, fn); err != nil {
			return err
		}
		return varRes(v.Right, fn)
	case *ast.Seq:
		for _, e := range v.Exprs {
			if err := varRes(e, fn); err != nil {
				return err
			}
		}
	case *ast.If:
		if err := varRes(v.Test, fn); err != nil {
			return err
		}
		if err := varRes(v.Then, fn); err != nil {
			return err
		}
		return varRes(v.Else, fn)
	case *ast.Call:
		if err := varRes(v.Fn, fn); err != nil {
			return err
		}
		for _, a := range v.Args {
			if err := varRes(a, fn); err != nil {
				return err
			}
		}
	case *ast.ArrayLit:
		for _, e := range v.Elems {
			if err := varRes(e, fn); err != nil {
				return err
			}
		}
	case *ast.Fun:
		return resolveFun(v, fn)
	case *ast.Decl, *ast.Const:
		// already handled by find_decls / carries no references
	}
	return nil
}

// resolveRef implements the Ref case of var_res: a local hit sets Idx
// directly; an ancestor hit marks the owning Decl captured and threads
// it through every intervening function's Captures list, with Idx set to
// that capture's position in fn's own Captures; anything else is global.
func resolveRef(ref *ast.Ref, fn *ast.Fun) {
	if local, ok := findLocal(fn, ref.Name); ok {
		ref.Idx = local.Idx
		return
	}

	chain := []*ast.Fun{fn}
	for cur := fn.Parent; cur != nil; cur = cur.Parent {
		if owner, ok := findLocal(cur, ref.Name); ok {
			owner.Captured = true
			for _, f := range chain {
				appendCapture(f, owner)
			}
			ref.Captured = true
			ref.Idx = captureIndex(fn, owner)
			return
		}
		chain = append(chain, cur)
	}

	ref.Global = true
}

func findLocal(fn *ast.Fun, name heap.Ref) (*ast.Decl, bool) {
	for _, d := range fn.Locals {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

func appendCapture(f *ast.Fun, d *ast.Decl) {
	for _, c := range f.Captures {
		if c == d {
			return
		}
	}
	f.Captures = append(f.Captures, d)
}

func captureIndex(f *ast.Fun, d *ast.Decl) int {
	for i, c := range f.Captures {
		if c == d {
			return i
		}
	}
	return -1
}
