package buffer

import util "github.com/pagepool-db/pagepool/internal/utils"

// NewShardedPoolFromOptions builds a ShardedPool directly from util.Options,
// for callers that don't want to wire Pool/ShardedPool by hand. disk is
// expected to already be open against opts.Path.
func NewShardedPoolFromOptions(opts util.Options, disk DiskManager, logManager LogManager, extra ...Option) *ShardedPool {
	numInstances := opts.NumInstances
	if numInstances <= 0 {
		numInstances = 1
	}
	return NewShardedPool(numInstances, opts.PoolSize, disk, logManager, extra...)
}
