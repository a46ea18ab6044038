package buffer

import (
	"errors"
	"sync"

	util "github.com/pagepool-db/pagepool/internal/utils"
)

// fakeDisk is an in-memory DiskManager for exercising Pool behavior without
// a real file, plus error injection for the disk-failure paths spec.md §7
// requires the pool to propagate.
type fakeDisk struct {
	mu    sync.Mutex
	pages map[util.PageID][]byte

	failRead  bool
	failWrite bool
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{pages: make(map[util.PageID][]byte)}
}

func (d *fakeDisk) ReadPage(id util.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failRead {
		return errors.New("fake disk: read failed")
	}
	if data, ok := d.pages[id]; ok {
		copy(buf, data)
	}
	return nil
}

func (d *fakeDisk) WritePage(id util.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrite {
		return errors.New("fake disk: write failed")
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	d.pages[id] = cp
	return nil
}

func (d *fakeDisk) AllocatePage() (util.PageID, error) {
	return util.InvalidPageID, errors.New("fake disk: allocate not used by pool tests")
}

func (d *fakeDisk) DeallocatePage(id util.PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pages, id)
	return nil
}
