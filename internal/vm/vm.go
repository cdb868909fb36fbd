// Package vm wires together the heap, string interner, shape table,
// resolver and evaluator into a single runnable instance, and exposes the
// functional-options constructor the rest of the core is configured
// through.
package vm

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/eval"
	"github.com/iankronquist/zeta/internal/globals"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/parser"
	"github.com/iankronquist/zeta/internal/resolve"
	"github.com/iankronquist/zeta/internal/shape"
	"github.com/iankronquist/zeta/internal/strtab"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Sentinel identities used only to fork the two built-in container
// shapes (string, array) off the shape root; see internal/ast for the
// same trick used for AST-kind shapes.
const (
	stringShapeName = heap.Ref(0xFFFFFFFF)
	arrayShapeName  = heap.Ref(0xFFFFFFFE)
)

type pendingGlobal struct {
	name string
	val  vmvalue.Value
}

// config collects Option values before New builds the VM.
type config struct {
	heapSize  uint32
	stdout    io.Writer
	globals   []pendingGlobal
	sessionID string
}

// Option configures a VM at construction time.
type Option func(*config)

// WithHeapSize overrides the default 16 MiB arena size.
func WithHeapSize(bytes uint32) Option {
	return func(c *config) { c.heapSize = bytes }
}

// WithStdout overrides where the println collaborator writes; defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *config) { c.stdout = w }
}

// WithGlobal pre-seeds a host-supplied global binding.
func WithGlobal(name string, v vmvalue.Value) Option {
	return func(c *config) { c.globals = append(c.globals, pendingGlobal{name, v}) }
}

// WithSessionID overrides the session identifier threaded into log
// lines; defaults to a freshly generated UUID.
func WithSessionID(id string) Option {
	return func(c *config) { c.sessionID = id }
}

// VM is one runnable instance of the core: its own arena, interner,
// shape table and evaluator. Instances are not safe for concurrent use --
// touch one from at most one goroutine at a time.
type VM struct {
	arena     *heap.Arena
	shapeTbl  *shape.Table
	shapes    *ast.Shapes
	interner  *strtab.Interner
	globals   *globals.Store
	evaluator *eval.Evaluator
	sessionID string
}

// New builds a VM from opts, applying sensible defaults for anything
// not overridden.
func New(opts ...Option) *VM {
	c := &config{
		heapSize: heap.DefaultSize,
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID == "" {
		c.sessionID = uuid.New().String()
	}

	arena := heap.NewArena(c.heapSize)
	tbl := shape.NewTable()
	strShape := tbl.DefineChild(tbl.Root(), stringShapeName, vmvalue.TagString, 0, 8)
	arrShape := tbl.DefineChild(tbl.Root(), arrayShapeName, vmvalue.TagArray, 0, 8)
	shapes := ast.RegisterShapes(tbl)
	interner := strtab.NewInterner(arena, strShape.Index)
	globalStore := globals.New()

	printlnName, err := interner.Intern([]byte("println"))
	if err != nil {
		log.Panicf("vm: interning builtin name failed: %v", err)
	}

	for _, g := range c.globals {
		nameRef, err := interner.Intern([]byte(g.name))
		if err != nil {
			log.Panicf("vm: interning global %q failed: %v", g.name, err)
		}
		globalStore.Set(nameRef, g.val)
	}

	evaluator := eval.New(arena, arrShape.Index, globalStore, c.stdout, printlnName)

	return &VM{
		arena:     arena,
		shapeTbl:  tbl,
		shapes:    shapes,
		interner:  interner,
		globals:   globalStore,
		evaluator: evaluator,
		sessionID: c.sessionID,
	}
}

// SessionID reports the session identifier threaded into this VM's log
// lines.
func (v *VM) SessionID() string { return v.sessionID }

// Run parses, resolves and evaluates source, returning the value of its
// final expression. name is a display name used only in log lines.
func (v *VM) Run(source []byte, name string) (vmvalue.Value, error) {
	p := parser.New(parser.NewInput(source), v.shapes, v.interner)
	unit, err := p.ParseUnit()
	if err != nil {
		log.Printf("[%s] %s: parse failed: %v", v.sessionID, name, err)
		return vmvalue.Value{}, err
	}

	if err := resolve.Resolve(unit); err != nil {
		log.Printf("[%s] %s: resolution failed: %v", v.sessionID, name, err)
		return vmvalue.Value{}, err
	}

	frame := v.evaluator.NewFrame(unit, nil)
	val, err := v.evaluator.Eval(unit.Body, frame)
	if err != nil {
		log.Printf("[%s] %s: evaluation failed: %v", v.sessionID, name, err)
		return vmvalue.Value{}, err
	}

	return val, nil
}

// Format renders v in the same canonical form println uses.
func (v *VM) Format(val vmvalue.Value) string { return v.evaluator.Format(val) }

// Stats reports current heap usage, humanized, for diagnostics.
func (v *VM) Stats() string {
	s := v.arena.Stats()
	return fmt.Sprintf("%s / %s (%.1f%%)", s.Used, s.Total, s.Pct)
}
