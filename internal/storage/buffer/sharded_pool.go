package buffer

import (
	"sync"

	util "github.com/pagepool-db/pagepool/internal/utils"
)

// ShardedPool composes num_instances independent Pool instances, routing
// single-page operations by page_id mod num_instances and round-robining
// NewPage across shards.
type ShardedPool struct {
	mu     sync.Mutex
	shards []*Pool
	cursor int
}

// NewShardedPool builds numInstances Pool instances of poolSize frames
// each, all sharing the same disk and log collaborators. opts apply to
// every shard.
func NewShardedPool(numInstances, poolSize int, disk DiskManager, logManager LogManager, opts ...Option) *ShardedPool {
	if numInstances <= 0 {
		panic("buffer: sharded pool requires at least one instance")
	}

	sp := &ShardedPool{shards: make([]*Pool, numInstances)}
	for i := 0; i < numInstances; i++ {
		sp.shards[i] = newPool(poolSize, numInstances, i, disk, logManager, opts...)
	}
	return sp
}

func (sp *ShardedPool) shardFor(pageID util.PageID) *Pool {
	n := len(sp.shards)
	idx := int(pageID) % n
	if idx < 0 {
		idx += n
	}
	return sp.shards[idx]
}

// FetchPage dispatches to the shard owning pageID.
func (sp *ShardedPool) FetchPage(pageID util.PageID) (*Frame, error) {
	return sp.shardFor(pageID).FetchPage(pageID)
}

// UnpinPage dispatches to the shard owning pageID.
func (sp *ShardedPool) UnpinPage(pageID util.PageID, isDirty bool) bool {
	return sp.shardFor(pageID).UnpinPage(pageID, isDirty)
}

// FlushPage dispatches to the shard owning pageID.
func (sp *ShardedPool) FlushPage(pageID util.PageID) (bool, error) {
	return sp.shardFor(pageID).FlushPage(pageID)
}

// DeletePage dispatches to the shard owning pageID.
func (sp *ShardedPool) DeletePage(pageID util.PageID) (bool, error) {
	return sp.shardFor(pageID).DeletePage(pageID)
}

// NewPage tries each shard starting from a rotating cursor until one
// succeeds or all have been tried. The cursor advances by one on every
// call, win or lose, so a sustained-full pool doesn't keep hammering the
// same starting shard.
func (sp *ShardedPool) NewPage() (*Frame, util.PageID, error) {
	sp.mu.Lock()
	start := sp.cursor
	n := len(sp.shards)
	sp.cursor = (sp.cursor + 1) % n
	sp.mu.Unlock()

	for i := 0; i < n; i++ {
		shard := sp.shards[(start+i)%n]
		f, id, err := shard.NewPage()
		if err != nil {
			return nil, util.InvalidPageID, err
		}
		if f != nil {
			return f, id, nil
		}
	}
	return nil, util.InvalidPageID, nil
}

// FlushAllPages broadcasts a flush-all to every shard.
func (sp *ShardedPool) FlushAllPages() error {
	for _, shard := range sp.shards {
		if err := shard.FlushAllPages(); err != nil {
			return err
		}
	}
	return nil
}

// GetPoolSize returns the total frame capacity across all shards.
func (sp *ShardedPool) GetPoolSize() int {
	total := 0
	for _, shard := range sp.shards {
		total += shard.Size()
	}
	return total
}

// NumShards returns the number of Pool instances backing this sharded pool.
func (sp *ShardedPool) NumShards() int {
	return len(sp.shards)
}
