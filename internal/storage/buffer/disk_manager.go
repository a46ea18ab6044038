package buffer

import util "github.com/pagepool-db/pagepool/internal/utils"

// DiskManager is the disk collaborator a Pool reads through and writes
// back to. internal/storage/file.FileManager is the production
// implementation; tests supply fakes.
type DiskManager interface {
	ReadPage(id util.PageID, buf []byte) error
	WritePage(id util.PageID, buf []byte) error
	AllocatePage() (util.PageID, error)
	DeallocatePage(id util.PageID) error
}

// LogManager is a narrow seam for write-ahead logging to hook into the
// pool's flush path later (e.g. forcing the log up to a page's LSN before
// the page itself is written back). No component in this repository
// implements it. Pool accepts nil and stores whatever it is given; no Pool
// operation calls it.
type LogManager interface {
	GetFlushedLSN() uint64
}
