package buffer

import (
	"testing"

	util "github.com/pagepool-db/pagepool/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestPoolFreshNewPages(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	var ids []util.PageID
	for i := 0; i < 3; i++ {
		f, id, err := p.NewPage()
		assert.NoError(t, err)
		assert.NotNil(t, f)
		ids = append(ids, id)
	}
	assert.ElementsMatch(t, []util.PageID{0, 1, 2}, ids)

	f, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, util.InvalidPageID, id)

	assert.True(t, p.UnpinPage(0, false))

	f, id, err = p.NewPage()
	assert.NoError(t, err)
	assert.NotNil(t, f)
	assert.Equal(t, util.PageID(3), id)
}

func TestPoolDirtyWriteBack(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	f, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.Equal(t, util.PageID(0), id)
	copy(f.Data[:], []byte("hello"))
	assert.True(t, p.UnpinPage(0, true))

	_, id1, err := p.NewPage()
	assert.NoError(t, err)
	assert.Equal(t, util.PageID(1), id1)
	_, id2, err := p.NewPage()
	assert.NoError(t, err)
	assert.Equal(t, util.PageID(2), id2)

	_, id3, err := p.NewPage() // evicts page 0
	assert.NoError(t, err)
	assert.Equal(t, util.PageID(3), id3)

	assert.True(t, p.UnpinPage(1, false))
	assert.True(t, p.UnpinPage(2, false))
	assert.True(t, p.UnpinPage(3, false))

	f, err = p.FetchPage(0)
	assert.NoError(t, err)
	assert.NotNil(t, f)
	assert.Equal(t, byte('h'), f.Data[0])
	assert.Equal(t, byte('o'), f.Data[4])
}

func TestPoolFlushClearsDirty(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	f, id, err := p.NewPage()
	assert.NoError(t, err)
	copy(f.Data[:], []byte("x"))
	assert.True(t, p.UnpinPage(id, true))

	ok, err := p.FlushPage(id)
	assert.NoError(t, err)
	assert.True(t, ok)

	fid := p.pageTable[id]
	assert.False(t, p.frames[fid].Dirty)
}

func TestPoolDeletePinnedThenUnpinned(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	_, id, err := p.NewPage()
	assert.NoError(t, err)

	ok, err := p.DeletePage(id)
	assert.NoError(t, err)
	assert.False(t, ok, "deleting a pinned page must fail")

	assert.True(t, p.UnpinPage(id, false))

	ok, err = p.DeletePage(id)
	assert.NoError(t, err)
	assert.True(t, ok)

	_, ok2 := p.pageTable[id]
	assert.False(t, ok2)
}

func TestPoolDeleteNonResidentIsIdempotent(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	ok, err := p.DeletePage(99)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestPoolUnpinUnknownPage(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)
	assert.False(t, p.UnpinPage(42, false))
}

func TestPoolUnpinAlreadyZeroPinCount(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	_, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.True(t, p.UnpinPage(id, false))
	assert.False(t, p.UnpinPage(id, false), "unpinning an already-zero pin count must fail")
}

func TestPoolFlushUnknownPage(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)
	ok, err := p.FlushPage(42)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolFlushInvalidPageID(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)
	ok, err := p.FlushPage(util.InvalidPageID)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolReplacerFIFOOrder(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	for i := 0; i < 3; i++ {
		_, id, err := p.NewPage()
		assert.NoError(t, err)
		assert.True(t, p.UnpinPage(id, false))
	}

	_, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.Equal(t, util.PageID(3), id)

	_, ok := p.pageTable[0]
	assert.False(t, ok, "least-recently-unpinned page 0 must have been evicted")
	_, ok = p.pageTable[1]
	assert.True(t, ok)
}

func TestPoolFetchHitIncrementsPinAndPins(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	_, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.True(t, p.UnpinPage(id, false))

	f, err := p.FetchPage(id)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), f.PinCount)

	fid := p.pageTable[id]
	assert.Equal(t, 0, p.replacer.Size(), "fetched frame must no longer be evictable")
	_ = fid
}

func TestPoolFetchNoFrameAvailable(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(1, disk, nil)

	_, _, err := p.NewPage()
	assert.NoError(t, err)

	f, err := p.FetchPage(99)
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestPoolFetchPropagatesDiskReadError(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	_, id, err := p.NewPage()
	assert.NoError(t, err)
	assert.True(t, p.UnpinPage(id, false))

	// id is still resident and would be a cache hit; id+1 was never brought
	// in, so fetching it has to go to disk.
	missing := id + 1
	disk.failRead = true
	f, err := p.FetchPage(missing)
	assert.Error(t, err)
	assert.Nil(t, f)

	// the frame must roll back to free rather than leak a half-bound entry.
	_, resident := p.pageTable[missing]
	assert.False(t, resident)
}

func TestPoolFlushAllPagesOnEmptyPoolIsNoop(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)
	assert.NoError(t, p.FlushAllPages())
}

func TestPoolFlushAllPagesWritesDirtyFrames(t *testing.T) {
	disk := newFakeDisk()
	p := NewPool(3, disk, nil)

	f, id, err := p.NewPage()
	assert.NoError(t, err)
	copy(f.Data[:], []byte("dirty"))
	assert.True(t, p.UnpinPage(id, true))

	assert.NoError(t, p.FlushAllPages())

	fid := p.pageTable[id]
	assert.False(t, p.frames[fid].Dirty)

	got := make([]byte, util.PageSize)
	assert.NoError(t, disk.ReadPage(id, got))
	assert.Equal(t, byte('d'), got[0])
}

func TestNewPoolPanicsOnInvalidParams(t *testing.T) {
	disk := newFakeDisk()

	assert.Panics(t, func() { NewPool(0, disk, nil) })
	assert.Panics(t, func() { NewPool(3, nil, nil) })
}
