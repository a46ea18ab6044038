// Command pagepool exercises a sharded buffer pool against a single
// on-disk file: allocate pages, fetch and mutate them, flush, delete.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/pagepool-db/pagepool/internal/storage/buffer"
	"github.com/pagepool-db/pagepool/internal/storage/file"
	util "github.com/pagepool-db/pagepool/internal/utils"
)

// CLI defines the command-line interface for pagepool.
var CLI struct {
	Path         string `help:"Backing file path." default:"pagepool.dat"`
	PoolSize     int    `help:"Frames per shard." default:"1000"`
	NumInstances int    `help:"Number of shards." default:"1"`
	Verbose      bool   `help:"Enable debug logging."`

	New      NewCmd      `cmd:"" help:"Allocate a new page."`
	Fetch    FetchCmd    `cmd:"" help:"Fetch a page and print its contents."`
	Write    WriteCmd    `cmd:"" help:"Fetch a page, overwrite its contents, mark dirty, unpin."`
	Flush    FlushCmd    `cmd:"" help:"Flush a single page to disk."`
	FlushAll FlushAllCmd `cmd:"" help:"Flush every resident page in every shard."`
	Delete   DeleteCmd   `cmd:"" help:"Delete a page."`
	Stats    StatsCmd    `cmd:"" help:"Print pool capacity."`
}

// runCtx is threaded through every subcommand's Run method: the opened
// sharded pool plus the disk manager it's backed by, so Close can run once
// after the command returns.
type runCtx struct {
	pool *buffer.ShardedPool
	disk *file.FileManager
}

func newRunCtx() (*runCtx, error) {
	logger := zap.NewNop()
	if CLI.Verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = l
	}

	opts := util.DefaultOptions()
	opts.Path = CLI.Path
	opts.PoolSize = CLI.PoolSize
	opts.NumInstances = CLI.NumInstances

	initialPages := opts.PoolSize * opts.NumInstances
	if initialPages < 1 {
		initialPages = 1
	}
	disk, err := file.NewFileManager(opts.Path, initialPages)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}

	pool := buffer.NewShardedPoolFromOptions(opts, disk, nil, buffer.WithLogger(logger))
	return &runCtx{pool: pool, disk: disk}, nil
}

func (rc *runCtx) Close() error {
	return rc.disk.Close()
}

// NewCmd allocates a fresh page and reports its id.
type NewCmd struct{}

func (c *NewCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, id, err := rc.pool.NewPage()
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}
	if id == util.InvalidPageID {
		return fmt.Errorf("no frame available: every frame is pinned")
	}
	rc.pool.UnpinPage(id, false)

	fmt.Printf("allocated page %d\n", id)
	return nil
}

// FetchCmd fetches a page and prints a preview of its contents.
type FetchCmd struct {
	PageID int64 `arg:"" help:"Page id to fetch."`
}

func (c *FetchCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	pid := util.PageID(c.PageID)
	f, err := rc.pool.FetchPage(pid)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", pid, err)
	}
	if f == nil {
		return fmt.Errorf("no frame available to fetch page %d", pid)
	}
	defer rc.pool.UnpinPage(pid, false)

	fmt.Printf("page %d: %q\n", pid, previewBytes(f.Data[:]))
	return nil
}

// WriteCmd fetches a page, overwrites its contents, and unpins it dirty.
type WriteCmd struct {
	PageID int64  `arg:"" help:"Page id to write."`
	Data   string `arg:"" help:"Bytes to write at the start of the page."`
}

func (c *WriteCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	pid := util.PageID(c.PageID)
	f, err := rc.pool.FetchPage(pid)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", pid, err)
	}
	if f == nil {
		return fmt.Errorf("no frame available to write page %d", pid)
	}

	copy(f.Data[:], []byte(c.Data))
	rc.pool.UnpinPage(pid, true)

	fmt.Printf("wrote %d bytes to page %d\n", len(c.Data), pid)
	return nil
}

// FlushCmd flushes one page to disk.
type FlushCmd struct {
	PageID int64 `arg:"" help:"Page id to flush."`
}

func (c *FlushCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	pid := util.PageID(c.PageID)
	ok, err := rc.pool.FlushPage(pid)
	if err != nil {
		return fmt.Errorf("flush page %d: %w", pid, err)
	}
	if !ok {
		return fmt.Errorf("page %d is not resident", pid)
	}

	fmt.Printf("flushed page %d\n", pid)
	return nil
}

// FlushAllCmd flushes every resident page across every shard.
type FlushAllCmd struct{}

func (c *FlushAllCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := rc.pool.FlushAllPages(); err != nil {
		return fmt.Errorf("flush all: %w", err)
	}

	fmt.Println("flushed all resident pages")
	return nil
}

// DeleteCmd deletes a page.
type DeleteCmd struct {
	PageID int64 `arg:"" help:"Page id to delete."`
}

func (c *DeleteCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	pid := util.PageID(c.PageID)
	ok, err := rc.pool.DeletePage(pid)
	if err != nil {
		return fmt.Errorf("delete page %d: %w", pid, err)
	}
	if !ok {
		return fmt.Errorf("page %d is pinned; unpin it before deleting", pid)
	}

	fmt.Printf("deleted page %d\n", pid)
	return nil
}

// StatsCmd prints the pool's total frame capacity.
type StatsCmd struct{}

func (c *StatsCmd) Run() error {
	rc, err := newRunCtx()
	if err != nil {
		return err
	}
	defer rc.Close()

	fmt.Printf("shards: %d\n", rc.pool.NumShards())
	fmt.Printf("total frame capacity: %d\n", rc.pool.GetPoolSize())
	return nil
}

// previewBytes trims a page buffer for terminal output: the bytes before the
// first NUL, capped at 64. Non-printable bytes are kept as they are.
func previewBytes(buf []byte) string {
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	if n > 64 {
		n = 64
	}
	return string(buf[:n])
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pagepool"),
		kong.Description("Exercise a sharded LRU buffer pool against an on-disk file."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
