package eval

import (
	"bytes"
	"testing"

	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/globals"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/parser"
	"github.com/iankronquist/zeta/internal/resolve"
	"github.com/iankronquist/zeta/internal/shape"
	"github.com/iankronquist/zeta/internal/strtab"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires an arena, shape table, interner, parser, resolver and
// evaluator together the way internal/vm does for a real program, scaled
// down to exactly what these unit tests need.
type harness struct {
	arena    *heap.Arena
	interner *strtab.Interner
	shapes   *ast.Shapes
	eval     *Evaluator
	stdout   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	arena := heap.NewArena(1 << 16)
	tbl := shape.NewTable()
	strShape := tbl.DefineChild(tbl.Root(), heap.Ref(0xFFFFFFFF), vmvalue.TagString, 0, 8)
	arrShape := tbl.DefineChild(tbl.Root(), heap.Ref(0xFFFFFFFE), vmvalue.TagArray, 0, 8)
	shapes := ast.RegisterShapes(tbl)
	interner := strtab.NewInterner(arena, strShape.Index)

	printlnName, err := interner.Intern([]byte("println"))
	require.NoError(t, err)

	var stdout bytes.Buffer
	ev := New(arena, arrShape.Index, globals.New(), &stdout, printlnName)
	return &harness{arena: arena, interner: interner, shapes: shapes, eval: ev, stdout: &stdout}
}

func (h *harness) run(t *testing.T, src string) vmvalue.Value {
	t.Helper()
	p := parser.New(parser.NewInput([]byte(src)), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err, "parsing %q", src)

	require.NoError(t, resolve.Resolve(unit), "resolving %q", src)

	frame := h.eval.NewFrame(unit, nil)
	v, err := h.eval.Eval(unit.Body, frame)
	require.NoError(t, err, "evaluating %q", src)
	return v
}

func TestLiteralScenarios(t *testing.T) {
	cases := []struct {
		src string
		val vmvalue.Value
	}{
		{"0", vmvalue.Int64(0)},
		{"3 + 2 * 5", vmvalue.Int64(13)},
		{"-(7 + 3)", vmvalue.Int64(-10)},
		{"0xFF", vmvalue.Int64(255)},
		{"0b101", vmvalue.Int64(5)},
		{"not not true", vmvalue.True},
		{"'foo' == 'foo'", vmvalue.True},
		{"'f' != 'b'", vmvalue.True},
		{"[0,1,2][0]", vmvalue.Int64(0)},
		{"[7+3][0]", vmvalue.Int64(10)},
		{"{ 2 3+7 }", vmvalue.Int64(10)},
		{"if 0 < 10 then 7 else 3", vmvalue.Int64(7)},
		{"(var x = 3) x", vmvalue.Int64(3)},
		{"(let x = 7) x + 1", vmvalue.Int64(8)},
		{"(let f = fun (n) n) f(8)", vmvalue.Int64(8)},
		{"(let f = fun () 7) f()", vmvalue.Int64(7)},
	}

	for _, c := range cases {
		h := newHarness(t)
		got := h.run(t, c.src)
		assert.True(t, vmvalue.Equals(c.val, got), "%q: want %+v, got %+v", c.src, c.val, got)
	}
}

func TestSeqYieldsLast(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "{ 1 2 3 }")
	assert.True(t, vmvalue.Equals(vmvalue.Int64(3), got))
}

func TestIfShortCircuitsElse(t *testing.T) {
	h := newHarness(t)
	// Only the then-branch should run; if else were also evaluated, its
	// division by zero would make the whole program fatal.
	got := h.run(t, "if true then 1 else 1/0")
	assert.True(t, vmvalue.Equals(vmvalue.Int64(1), got))
}

func TestNonBoolConditionIsFatal(t *testing.T) {
	h := newHarness(t)
	p := parser.New(parser.NewInput([]byte("if 1 then 2 else 3")), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(unit))

	frame := h.eval.NewFrame(unit, nil)
	_, err = h.eval.Eval(unit.Body, frame)
	assert.Error(t, err)
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	h := newHarness(t)
	p := parser.New(parser.NewInput([]byte("1 / 0")), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(unit))

	frame := h.eval.NewFrame(unit, nil)
	_, err = h.eval.Eval(unit.Body, frame)
	assert.Error(t, err)
}

func TestCallArityMismatchIsFatal(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "(let f = fun (n) n)")
	assert.Equal(t, vmvalue.TagClosure, got.Tag)

	p := parser.New(parser.NewInput([]byte("(let f = fun (n) n) f(1, 2)")), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(unit))
	frame := h.eval.NewFrame(unit, nil)
	_, err = h.eval.Eval(unit.Body, frame)
	assert.Error(t, err)
}

func TestPrintlnPrintsCanonicalFormAndReturnsTrue(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "println(42)")
	assert.True(t, vmvalue.Equals(vmvalue.True, got))
	assert.Equal(t, "42\n", h.stdout.String())
}

func TestIntegerArithmeticWraps(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "-9223372036854775807 - 2")
	assert.Equal(t, int64(9223372036854775807), got.AsInt64())
}

// TestClosureCapturesOuterParam exercises the closure-cell wiring this
// core fully implements rather than stubbing out: a nested
// function reads a captured parameter of its enclosing function through
// the cell installed at call time.
func TestClosureCapturesOuterParam(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "(let make = fun (n) fun () n) make(5)()")
	assert.True(t, vmvalue.Equals(vmvalue.Int64(5), got))
}

// TestClosureCaptureThreadsThroughIntermediateFunction covers the case
// where a capture must be relayed through a function that doesn't itself
// reference the variable, only passes it further down.
func TestClosureCaptureThreadsThroughIntermediateFunction(t *testing.T) {
	h := newHarness(t)
	got := h.run(t, "(let make = fun (n) fun () fun () n) make(9)()()")
	assert.True(t, vmvalue.Equals(vmvalue.Int64(9), got))
}

func TestArrayIndexOutOfRangeIsFatal(t *testing.T) {
	h := newHarness(t)
	p := parser.New(parser.NewInput([]byte("[1,2][5]")), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(unit))
	frame := h.eval.NewFrame(unit, nil)
	_, err = h.eval.Eval(unit.Body, frame)
	assert.Error(t, err)
}

func TestUnknownGlobalReadIsFatal(t *testing.T) {
	h := newHarness(t)
	p := parser.New(parser.NewInput([]byte("undefined_name")), h.shapes, h.interner)
	unit, err := p.ParseUnit()
	require.NoError(t, err)
	require.NoError(t, resolve.Resolve(unit))
	frame := h.eval.NewFrame(unit, nil)
	_, err = h.eval.Eval(unit.Body, frame)
	assert.Error(t, err)
}
