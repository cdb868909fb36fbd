package vmvalue

import (
	"testing"

	"github.com/iankronquist/zeta/internal/heap"
	"github.com/stretchr/testify/assert"
)

func TestEqualsIsTagAndWord(t *testing.T) {
	assert.True(t, Equals(Int64(5), Int64(5)))
	assert.False(t, Equals(Int64(5), Int64(6)))
	assert.False(t, Equals(Int64(0), False), "same word, different tag must not compare equal")
	assert.True(t, Equals(True, Bool(true)))
}

func TestFromRefRoundTrips(t *testing.T) {
	v := FromRef(TagString, heap.Ref(42))
	assert.Equal(t, TagString, v.Tag)
	assert.Equal(t, heap.Ref(42), v.AsRef())
}

func TestBoolConstants(t *testing.T) {
	assert.Equal(t, uint64(0), False.Word)
	assert.Equal(t, uint64(1), True.Word)
}
