package shape

import (
	"testing"

	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/vmvalue"
	"github.com/stretchr/testify/assert"
)

func TestOffsetMonotonicity(t *testing.T) {
	tbl := NewTable()
	a := tbl.DefineChild(tbl.Root(), heap.Ref(1), vmvalue.TagInt64, AttrTypeKnown, 8)
	b := tbl.DefineChild(a, heap.Ref(2), vmvalue.TagInt64, AttrTypeKnown, 8)

	assert.GreaterOrEqual(t, a.Offset, tbl.Root().Offset+uint32(tbl.Root().FieldSize))
	assert.Zero(t, a.Offset%8)
	assert.GreaterOrEqual(t, b.Offset, a.Offset+uint32(a.FieldSize))
	assert.Zero(t, b.Offset%8)
}

func TestDefineChildIsIdempotentForSameKey(t *testing.T) {
	tbl := NewTable()
	a := tbl.DefineChild(tbl.Root(), heap.Ref(1), vmvalue.TagInt64, AttrTypeKnown, 8)
	b := tbl.DefineChild(tbl.Root(), heap.Ref(1), vmvalue.TagInt64, AttrTypeKnown, 8)
	assert.Same(t, a, b, "re-adding the same property must return the same shape node")
}

func TestDefineChildForksOnDifferentKey(t *testing.T) {
	tbl := NewTable()
	a := tbl.DefineChild(tbl.Root(), heap.Ref(1), vmvalue.TagInt64, AttrTypeKnown, 8)
	b := tbl.DefineChild(tbl.Root(), heap.Ref(2), vmvalue.TagInt64, AttrTypeKnown, 8)
	assert.NotEqual(t, a.Index, b.Index)
}

func TestFindWalksChainByPointerEquality(t *testing.T) {
	tbl := NewTable()
	nameX := heap.Ref(10)
	nameY := heap.Ref(20)
	s1 := tbl.DefineChild(tbl.Root(), nameX, vmvalue.TagInt64, AttrTypeKnown, 8)
	s2 := tbl.DefineChild(s1, nameY, vmvalue.TagBool, AttrTypeKnown, 8)

	assert.Same(t, s1, Find(s2, nameX))
	assert.Same(t, s2, Find(s2, nameY))
	assert.Nil(t, Find(s2, heap.Ref(999)))
}
