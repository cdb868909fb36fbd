package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocStampsShapeHeader(t *testing.T) {
	a := NewArena(1024)
	ref, err := a.Alloc(16, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), a.ShapeOf(ref))
}

func TestAllocZeroInitialized(t *testing.T) {
	a := NewArena(1024)
	ref, err := a.Alloc(32, 1)
	require.NoError(t, err)
	for i := uint32(4); i < 32; i++ {
		assert.Equal(t, byte(0), a.ReadByte(ref, i))
	}
}

func TestAllocAlignsTo8(t *testing.T) {
	a := NewArena(1024)
	r1, err := a.Alloc(5, 1)
	require.NoError(t, err)
	r2, err := a.Alloc(5, 1)
	require.NoError(t, err)
	assert.Zero(t, (uint32(r2)-uint32(r1))%8)
}

func TestAllocFailsWhenExhausted(t *testing.T) {
	a := NewArena(64)
	_, err := a.Alloc(1<<20, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestReadWriteRoundTrip(t *testing.T) {
	a := NewArena(1024)
	ref, err := a.Alloc(24, 3)
	require.NoError(t, err)
	a.WriteU32(ref, 4, 0xCAFEBABE)
	a.WriteU64(ref, 8, 0x1122334455667788)
	a.WriteByte(ref, 16, 0xAB)
	assert.Equal(t, uint32(0xCAFEBABE), a.ReadU32(ref, 4))
	assert.Equal(t, uint64(0x1122334455667788), a.ReadU64(ref, 8))
	assert.Equal(t, byte(0xAB), a.ReadByte(ref, 16))
}

func TestStatsHumanizesUsage(t *testing.T) {
	a := NewArena(DefaultSize)
	_, _ = a.Alloc(1024, 1)
	s := a.Stats()
	assert.NotEmpty(t, s.Used)
	assert.NotEmpty(t, s.Total)
	assert.Greater(t, s.Pct, 0.0)
}
