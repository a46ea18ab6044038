package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUReplacerVictimOrder(t *testing.T) {
	r := NewLRUReplacer(4)

	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)
	assert.Equal(t, 3, r.Size())

	frameIdx, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 1, frameIdx)
	assert.Equal(t, 2, r.Size())

	frameIdx, ok = r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, frameIdx)
}

func TestLRUReplacerVictimEmpty(t *testing.T) {
	r := NewLRUReplacer(4)
	_, ok := r.Victim()
	assert.False(t, ok)
}

func TestLRUReplacerPinRemovesFromCandidates(t *testing.T) {
	r := NewLRUReplacer(4)

	r.Unpin(1)
	r.Unpin(2)
	r.Pin(1)
	assert.Equal(t, 1, r.Size())

	frameIdx, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, frameIdx)
}

func TestLRUReplacerUnpinIsIdempotent(t *testing.T) {
	r := NewLRUReplacer(4)

	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(1) // already tracked; must not move to back

	frameIdx, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 1, frameIdx, "redundant unpin must not change eviction order")
}

func TestLRUReplacerPinUnknownFrameIsNoop(t *testing.T) {
	r := NewLRUReplacer(4)
	r.Pin(42)
	assert.Equal(t, 0, r.Size())
}
