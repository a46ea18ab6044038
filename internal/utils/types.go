package util

// PageID identifies a page across its lifetime on disk. It is signed so
// that InvalidPageID can be represented without a separate "has page"
// bit — residency is always pid != InvalidPageID.
type PageID int64

// InvalidPageID marks "no page". It is never a resident page_id.
const InvalidPageID PageID = -1

// PageSize is the fixed size of a page / frame buffer.
const PageSize = 4096

// Options holds the configuration this layer owns: where the backing file
// lives and how big the pool is. Knobs belonging to components out of scope
// for a buffer pool (compaction schedules, open-file limits across multiple
// files, read-only mode) are deliberately not carried here.
type Options struct {
	Path         string
	PageSize     int
	PoolSize     int
	NumInstances int
	SyncWrites   bool
}

// DefaultOptions returns sane defaults for a single-shard pool.
func DefaultOptions() Options {
	return Options{
		PageSize:     PageSize,
		PoolSize:     1000, // ~4MB at the default page size
		NumInstances: 1,
		SyncWrites:   false,
	}
}
