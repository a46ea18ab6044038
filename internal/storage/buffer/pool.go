package buffer

import (
	"fmt"
	"sync"

	util "github.com/pagepool-db/pagepool/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option customizes a Pool at construction time.
type Option func(*Pool)

// WithLogger attaches a structured logger. Pools default to a no-op logger
// so callers that don't care about diagnostics pay nothing for them.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetricsRegisterer registers this pool's counters with reg instead of
// leaving them unregistered.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pool) { p.metricsReg = reg }
}

// WithReplacer overrides the eviction policy. Pools default to LRU.
func WithReplacer(r Replacer) Option {
	return func(p *Pool) {
		if r != nil {
			p.replacer = r
		}
	}
}

// Pool is one buffer pool instance: a fixed frame array, a page-table, a
// free-list, and a replacer, all serialized behind a single mutex.
type Pool struct {
	mu sync.Mutex

	frames    []*Frame
	pageTable map[util.PageID]int
	freeList  []int
	replacer  Replacer

	disk       DiskManager
	logManager LogManager

	poolSize      int
	numInstances  int
	instanceIndex int
	nextPageID    util.PageID

	logger     *zap.Logger
	metricsReg prometheus.Registerer
	metrics    *Metrics
}

// newPool is the shared constructor behind NewPool and the per-shard pools
// ShardedPool builds; it is where num_instances / instance_index actually
// vary.
func newPool(poolSize, numInstances, instanceIndex int, disk DiskManager, logManager LogManager, opts ...Option) *Pool {
	if poolSize <= 0 {
		panic(fmt.Sprintf("buffer: invalid pool size %d", poolSize))
	}
	if numInstances <= 0 {
		panic(fmt.Sprintf("buffer: invalid num_instances %d", numInstances))
	}
	if instanceIndex < 0 || instanceIndex >= numInstances {
		panic(fmt.Sprintf("buffer: instance_index %d out of range [0, %d)", instanceIndex, numInstances))
	}
	if disk == nil {
		panic("buffer: disk collaborator must not be nil")
	}

	p := &Pool{
		frames:        make([]*Frame, poolSize),
		pageTable:     make(map[util.PageID]int, poolSize),
		freeList:      make([]int, poolSize),
		disk:          disk,
		logManager:    logManager,
		poolSize:      poolSize,
		numInstances:  numInstances,
		instanceIndex: instanceIndex,
		nextPageID:    util.PageID(instanceIndex),
		logger:        zap.NewNop(),
	}
	for i := 0; i < poolSize; i++ {
		p.frames[i] = &Frame{PageID: util.InvalidPageID}
		p.freeList[i] = i
	}
	p.replacer = NewLRUReplacer(poolSize)

	for _, opt := range opts {
		opt(p)
	}
	p.metrics = NewMetrics(p.metricsReg, instanceIndex)
	return p
}

// NewPool builds a single, unsharded pool instance (num_instances=1,
// instance_index=0) — the convenience constructor for callers who don't
// need a ShardedPool.
func NewPool(poolSize int, disk DiskManager, logManager LogManager, opts ...Option) *Pool {
	return newPool(poolSize, 1, 0, disk, logManager, opts...)
}

// allocatePageID returns this instance's next page-id and advances the
// counter by the shard stride, so ids allocated here always satisfy
// id mod numInstances == instanceIndex.
func (p *Pool) allocatePageID() util.PageID {
	id := p.nextPageID
	p.nextPageID += util.PageID(p.numInstances)
	return id
}

// acquireVictim finds a frame to (re)use: the free-list head first, else
// the replacer's victim. If the chosen frame is still resident, its dirty
// contents are flushed and its page-table entry removed before reuse.
func (p *Pool) acquireVictim() (int, bool) {
	var frameIdx int
	if n := len(p.freeList); n > 0 {
		frameIdx = p.freeList[0]
		p.freeList = p.freeList[1:]
	} else {
		fid, ok := p.replacer.Victim()
		if !ok {
			return 0, false
		}
		frameIdx = fid
		p.metrics.Evictions.Inc()
	}

	f := p.frames[frameIdx]
	if f.PageID != util.InvalidPageID {
		if f.Dirty {
			if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
				p.logger.Warn("writeback failed during eviction",
					zap.Int64("page_id", int64(f.PageID)), zap.Error(err))
			} else {
				p.metrics.DirtyWriteBacks.Inc()
			}
		}
		delete(p.pageTable, f.PageID)
	}
	return frameIdx, true
}

// FetchPage returns a pinned reference to pageID's frame, reading it from
// disk if it isn't already resident. A nil frame means every frame is
// pinned and nothing could be evicted.
func (p *Pool) FetchPage(pageID util.PageID) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[pageID]; ok {
		f := p.frames[fid]
		f.PinCount++
		p.replacer.Pin(fid)
		p.metrics.Hits.Inc()
		p.logger.Debug("fetch hit", zap.Int64("page_id", int64(pageID)), zap.Int("frame", fid))
		return f, nil
	}

	p.metrics.Misses.Inc()
	fid, ok := p.acquireVictim()
	if !ok {
		p.logger.Warn("fetch: no frame available", zap.Int64("page_id", int64(pageID)))
		return nil, nil
	}

	f := p.frames[fid]
	f.reset()
	f.PageID = pageID
	f.PinCount = 1

	p.pageTable[pageID] = fid
	if err := p.disk.ReadPage(pageID, f.Data[:]); err != nil {
		delete(p.pageTable, pageID)
		f.reset()
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("fetch page %d: %w", pageID, err)
	}
	p.replacer.Pin(fid)

	p.logger.Debug("fetch miss", zap.Int64("page_id", int64(pageID)), zap.Int("frame", fid))
	return f, nil
}

// NewPage allocates a fresh page-id, binds it to a free or evicted frame,
// zero-fills the frame (the original source's NewPage bug — reading an
// undefined disk page right after allocating it — is not repeated here),
// and returns it pinned.
func (p *Pool) NewPage() (*Frame, util.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 && p.replacer.Size() == 0 {
		p.logger.Warn("new page: all frames pinned")
		return nil, util.InvalidPageID, nil
	}

	fid, ok := p.acquireVictim()
	if !ok {
		return nil, util.InvalidPageID, nil
	}

	pageID := p.allocatePageID()
	f := p.frames[fid]
	f.reset()
	f.PageID = pageID
	f.PinCount = 1

	p.pageTable[pageID] = fid
	p.replacer.Pin(fid)

	p.logger.Debug("new page", zap.Int64("page_id", int64(pageID)), zap.Int("frame", fid))
	return f, pageID, nil
}

// UnpinPage releases one reference to pageID's frame. isDirty ORs into the
// frame's dirty flag; it never clears it. Returns false if the page isn't
// resident or already has a zero pin count.
func (p *Pool) UnpinPage(pageID util.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		return false
	}
	f := p.frames[fid]
	if f.PinCount == 0 {
		return false
	}

	f.PinCount--
	if isDirty {
		f.Dirty = true
	}
	if f.PinCount == 0 {
		p.replacer.Unpin(fid)
	}
	return true
}

// FlushPage writes pageID's frame to disk if resident, regardless of its
// dirty flag, and clears the dirty flag. It never evicts or otherwise
// changes residency — see the flush/eviction conflation this corrects.
func (p *Pool) FlushPage(pageID util.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pageID == util.InvalidPageID {
		return false, nil
	}
	fid, ok := p.pageTable[pageID]
	if !ok {
		return false, nil
	}

	f := p.frames[fid]
	if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
		return false, fmt.Errorf("flush page %d: %w", pageID, err)
	}
	f.Dirty = false
	return true, nil
}

// FlushAllPages writes back every resident frame. An empty page table is a
// no-op, not an error.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pageID, fid := range p.pageTable {
		f := p.frames[fid]
		if err := p.disk.WritePage(pageID, f.Data[:]); err != nil {
			return fmt.Errorf("flush all: page %d: %w", pageID, err)
		}
		f.Dirty = false
	}
	return nil
}

// DeletePage deallocates pageID at the disk layer and, if resident with no
// outstanding pins, frees its frame. Deleting a non-resident page succeeds
// (idempotent); deleting a pinned page fails.
func (p *Pool) DeletePage(pageID util.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.disk.DeallocatePage(pageID); err != nil {
		return false, fmt.Errorf("deallocate page %d: %w", pageID, err)
	}

	fid, ok := p.pageTable[pageID]
	if !ok {
		return true, nil
	}

	f := p.frames[fid]
	if f.PinCount > 0 {
		return false, nil
	}

	if f.Dirty {
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			return false, fmt.Errorf("delete page %d: writeback: %w", pageID, err)
		}
	}

	// The frame was only in the replacer while unpinned; pull it out
	// before returning the slot to the free list.
	p.replacer.Pin(fid)
	delete(p.pageTable, pageID)
	f.reset()
	p.freeList = append(p.freeList, fid)
	return true, nil
}

// Size returns the number of frames this instance owns.
func (p *Pool) Size() int {
	return p.poolSize
}
