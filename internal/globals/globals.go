// Package globals implements the host-supplied name->value mapping
// reserved for unresolved references.
package globals

import (
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Store is a flat binding table keyed by interned name. Lookup and
// mutation are by heap.Ref identity, which is safe because names always
// pass through the same interner.
type Store struct {
	values map[heap.Ref]vmvalue.Value
}

// New creates an empty global store.
func New() *Store {
	return &Store{values: make(map[heap.Ref]vmvalue.Value)}
}

// Get reads a binding by interned name.
func (s *Store) Get(name heap.Ref) (vmvalue.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set writes (creating, if absent) a binding by interned name.
func (s *Store) Set(name heap.Ref, v vmvalue.Value) {
	s.values[name] = v
}

// Len reports how many distinct global bindings currently exist.
func (s *Store) Len() int { return len(s.values) }
