package resolve

import (
	"testing"

	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/shape"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShapes() *ast.Shapes {
	return ast.RegisterShapes(shape.NewTable())
}

// name fabricates a distinct heap.Ref standing in for an interned
// identifier; resolve only ever compares names for equality, so any
// stable, distinct values are sufficient for these unit tests.
func name(n uint32) heap.Ref { return heap.Ref(n) }

func TestDuplicateDeclsCoalesceToFirst(t *testing.T) {
	s := newShapes()
	x1 := ast.NewDecl(s, name(1), false)
	x2 := ast.NewDecl(s, name(1), false)
	body := ast.NewSeq(s, []ast.Node{x1, x2})
	fn := ast.NewFun(s, nil, body)

	require.NoError(t, Resolve(fn))

	assert.Len(t, fn.Locals, 1, "duplicate same-name decls must coalesce to one local slot")
	assert.Equal(t, x1.Idx, x2.Idx)
}

func TestRefResolvesToLocal(t *testing.T) {
	s := newShapes()
	x := ast.NewDecl(s, name(1), false)
	ref := ast.NewRef(s, name(1))
	body := ast.NewSeq(s, []ast.Node{x, ref})
	fn := ast.NewFun(s, nil, body)

	require.NoError(t, Resolve(fn))

	assert.False(t, ref.Global)
	assert.False(t, ref.Captured)
	assert.Equal(t, x.Idx, ref.Idx)
}

func TestUnresolvedRefIsGlobal(t *testing.T) {
	s := newShapes()
	ref := ast.NewRef(s, name(99))
	fn := ast.NewFun(s, nil, ref)

	require.NoError(t, Resolve(fn))

	assert.True(t, ref.Global)
	assert.False(t, ref.Captured)
}

func TestNestedFunCapturesOuterLocal(t *testing.T) {
	s := newShapes()
	x := ast.NewDecl(s, name(1), true)
	innerRef := ast.NewRef(s, name(1))
	inner := ast.NewFun(s, nil, innerRef)
	outerBody := ast.NewSeq(s, []ast.Node{x, inner})
	outer := ast.NewFun(s, nil, outerBody)

	require.NoError(t, Resolve(outer))

	assert.True(t, x.Captured)
	assert.True(t, innerRef.Captured)
	require.Len(t, inner.Captures, 1)
	assert.Same(t, x, inner.Captures[0])
	assert.Equal(t, 0, innerRef.Idx)
}

func TestCaptureThreadsThroughIntermediateFunctions(t *testing.T) {
	s := newShapes()
	x := ast.NewDecl(s, name(1), true)
	innermostRef := ast.NewRef(s, name(1))
	innermost := ast.NewFun(s, nil, innermostRef)
	middle := ast.NewFun(s, nil, innermost)
	outerBody := ast.NewSeq(s, []ast.Node{x, middle})
	outer := ast.NewFun(s, nil, outerBody)

	require.NoError(t, Resolve(outer))

	require.Len(t, middle.Captures, 1, "the intermediate function must also carry the capture")
	assert.Same(t, x, middle.Captures[0])
	require.Len(t, innermost.Captures, 1)
	assert.Same(t, x, innermost.Captures[0])
}

func TestParamsCountTowardMaxLocals(t *testing.T) {
	s := newShapes()
	var params []*ast.Decl
	for i := 0; i < MaxLocals+1; i++ {
		params = append(params, ast.NewDecl(s, name(uint32(i)), false))
	}
	fn := ast.NewFun(s, params, ast.NewConst(s, vmvalue.Int64(0)))

	err := Resolve(fn)
	require.Error(t, err)
}

func TestFunBodyIsNotDescendedIntoByFindDecls(t *testing.T) {
	s := newShapes()
	innerDecl := ast.NewDecl(s, name(1), false)
	inner := ast.NewFun(s, nil, innerDecl)
	outerBody := ast.NewSeq(s, []ast.Node{inner})
	outer := ast.NewFun(s, nil, outerBody)

	require.NoError(t, Resolve(outer))

	assert.Empty(t, outer.Locals, "a nested Fun's own Decls must not leak into the outer function's locals")
	assert.Len(t, inner.Locals, 1)
}
