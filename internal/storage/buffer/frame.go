package buffer

import util "github.com/pagepool-db/pagepool/internal/utils"

// Frame is one slot of the pool's fixed-size frame array: the in-memory
// home for at most one resident page at a time.
type Frame struct {
	PageID   util.PageID
	PinCount int32
	Dirty    bool
	Data     [util.PageSize]byte
}

// reset clears a frame back to its unoccupied state before it is handed
// out to a newly fetched or newly allocated page.
func (f *Frame) reset() {
	f.PageID = util.InvalidPageID
	f.PinCount = 0
	f.Dirty = false
	for i := range f.Data {
		f.Data[i] = 0
	}
}
