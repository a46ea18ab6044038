package file

import (
	"errors"
	"fmt"
	"os"
	"sync"

	util "github.com/pagepool-db/pagepool/internal/utils"
)

// This module is used to read and write pages from / to disk. It is the
// "disk collaborator" the buffer pool depends on: page-oriented reads and
// writes over a single growable file, plus page-level (de)allocation.
type FileManager struct {
	mu   sync.Mutex
	file *os.File
	size int64

	// nextAllocID and freedIDs give the disk manager its own notion of page
	// allocation, independent of the buffer pool's per-instance page-id
	// counters (spec.md §6: AllocatePage here is not used by the pool in
	// this design, but the collaborator still owns it).
	nextAllocID util.PageID
	freedIDs    []util.PageID
}

// NewFileManager opens (creating if necessary) path and grows it to hold at
// least initialPages pages.
func NewFileManager(path string, initialPages int) (*FileManager, error) {
	if initialPages <= 0 {
		return nil, util.ErrInvalidInitialPages
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	fm := &FileManager{file: f}
	initialSize := int64(initialPages) * int64(util.PageSize)
	if err := fm.growTo(initialSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("grow file: %w", err)
	}

	return fm, nil
}

// ReadPage reads the page at id into buf, which must be at least
// util.PageSize bytes. Reading a page beyond the current file extent is an
// out-of-bounds error rather than an implicit allocation.
func (fm *FileManager) ReadPage(id util.PageID, buf []byte) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	offset := int64(id) * int64(util.PageSize)
	if id < 0 || offset+int64(util.PageSize) > fm.size {
		return util.ErrPageOutOfBounds
	}

	_, err := fm.file.ReadAt(buf[:util.PageSize], offset)
	if err != nil {
		return fmt.Errorf("read page %d: %w", id, err)
	}
	return nil
}

// WritePage writes buf (at least util.PageSize bytes) to the page at id,
// growing the backing file first if id falls past the current extent.
func (fm *FileManager) WritePage(id util.PageID, buf []byte) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if id < 0 {
		return util.ErrInvalidPageID
	}
	offset := int64(id) * int64(util.PageSize)
	if need := offset + int64(util.PageSize); need > fm.size {
		if err := fm.growTo(need); err != nil {
			return fmt.Errorf("grow for page %d: %w", id, err)
		}
	}

	if _, err := fm.file.WriteAt(buf[:util.PageSize], offset); err != nil {
		return fmt.Errorf("write page %d: %w", id, err)
	}
	return nil
}

// AllocatePage reserves a page-id at the disk layer: the tail of a freed-id
// stack first (reuse before growth), then a fresh monotonically increasing
// id. The buffer pool does not call this in the sharded design (page-ids
// there come from each Pool Instance's own offset counter), but the
// collaborator contract requires it regardless (spec.md §6).
func (fm *FileManager) AllocatePage() (util.PageID, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if n := len(fm.freedIDs); n > 0 {
		id := fm.freedIDs[n-1]
		fm.freedIDs = fm.freedIDs[:n-1]
		return id, nil
	}

	id := fm.nextAllocID
	fm.nextAllocID++
	offset := int64(id) * int64(util.PageSize)
	if need := offset + int64(util.PageSize); need > fm.size {
		if err := fm.growTo(need); err != nil {
			return util.InvalidPageID, fmt.Errorf("grow for new page %d: %w", id, err)
		}
	}
	return id, nil
}

// DeallocatePage returns id to the free stack for future AllocatePage calls.
// It does not erase the page's on-disk content; spec.md §3 treats the
// content of a deallocated page as undefined going forward.
func (fm *FileManager) DeallocatePage(id util.PageID) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if id < 0 {
		return util.ErrInvalidPageID
	}
	fm.freedIDs = append(fm.freedIDs, id)
	return nil
}

// growTo extends the backing file to at least size bytes.
func (fm *FileManager) growTo(size int64) error {
	if size <= fm.size {
		return nil
	}
	if err := fm.file.Truncate(size); err != nil {
		return fmt.Errorf("truncate to %d: %w", size, err)
	}
	fm.size = size
	return nil
}

// Close syncs and closes the backing file. Idempotent on a nil receiver.
func (fm *FileManager) Close() error {
	if fm == nil {
		return nil
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.file == nil {
		return nil
	}
	var err error
	if e := fm.file.Sync(); e != nil {
		err = errors.Join(err, fmt.Errorf("sync file: %w", e))
	}
	if e := fm.file.Close(); e != nil {
		err = errors.Join(err, fmt.Errorf("close file: %w", e))
	}
	fm.file = nil
	return err
}
