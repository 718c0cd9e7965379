// Package builder implements TableBuilder: the concurrent chain generator
// that fills a table with ordered-write commit (spec.md §4.5).
package builder

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/chain"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/pool"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

// Config carries everything a build needs beyond the destination file.
type Config struct {
	Algorithm hashalgo.Algorithm
	Length    int
	Charset   charset.Charset
	Reducer   reduce.Reducer
	MinIndex  index.Index // keyspace lower bound: startpoint 0 names word(MinIndex)

	Threads   int // 0 selects runtime.NumCPU()
	BlockSize int // must be a multiple of the lane count

	// Compressed selects the compressed on-disk format: commitBlock writes
	// endpoint-only records at CompressedRecordWidth stride instead of
	// (startpoint, endpoint) pairs, relying on the same ordered-write commit
	// to keep record position equal to startpoint-MinIndex (spec.md §3,
	// "compressed records stored sorted by startpoint = generation order").
	Compressed bool

	// Count bounds the build: blocks are generated until the next one would
	// start at or past Count, so the total is Count rounded up to a whole
	// number of blocks. 0 means "run until the caller cancels ctx" (used by
	// cmd/rainbow for open-ended builds).
	Count int64

	// StartBlock resumes a build at a given block id instead of starting
	// fresh; ExecutiveLoop derives it from an existing table's record count.
	StartBlock int64
}

type Builder struct {
	cfg    Config
	gen    *charset.WordGenerator
	driver *hashalgo.LaneDriver
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Builder, error) {
	driver := hashalgo.NewLaneDriver(cfg.Algorithm)
	if cfg.BlockSize <= 0 || cfg.BlockSize%driver.Lanes != 0 {
		return nil, fmt.Errorf("builder: block size %d must be a positive multiple of lane count %d", cfg.BlockSize, driver.Lanes)
	}
	return &Builder{
		cfg:    cfg,
		gen:    charset.NewWordGenerator(cfg.Charset),
		driver: driver,
		log:    log,
	}, nil
}

// Build drives the worker/main pool pair described in spec.md §4.5: each
// worker owns one block id at a time, advancing by the thread count after
// each block; a small pending map buffers out-of-order block completions so
// disk writes stay in strictly increasing block-id order.
func (b *Builder) Build(ctx context.Context, tf *tablefile.TableFile, status io.Writer) error {
	threads := b.cfg.Threads
	if threads < 1 {
		threads = runtime.NumCPU()
	}

	maxBlocks := int64(-1)
	if b.cfg.Count > 0 {
		maxBlocks = (b.cfg.Count + int64(b.cfg.BlockSize) - 1) / int64(b.cfg.BlockSize)
	}

	mainPool := pool.New(ctx, "main", 1, b.log)
	workPool := pool.New(ctx, "pool", threads, b.log)

	var mu sync.Mutex
	pending := make(map[int64][]tablefile.TableRecord)
	nextBlock := b.cfg.StartBlock
	var totalChains, totalHashes int64

	stat := NewStatus(tf.Path())
	defer stat.Stop()

	params := chain.Params{
		Algorithm: b.cfg.Algorithm,
		Length:    b.cfg.Length,
		Charset:   b.cfg.Charset,
		Reducer:   b.cfg.Reducer,
	}

	var buildErr error
	var errOnce sync.Once
	setErr := func(err error) {
		errOnce.Do(func() { buildErr = err })
	}

	for t := 0; t < threads; t++ {
		startID := b.cfg.StartBlock + int64(t)
		workPool.Post(func(ctx context.Context) {
			for blockID := startID; ; blockID += int64(threads) {
				if maxBlocks >= 0 && blockID >= maxBlocks {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}

				records, err := b.runBlock(blockID, params)
				if err != nil {
					setErr(err)
					return
				}

				blockID := blockID
				mainPool.Post(func(context.Context) {
					b.commitBlock(tf, &mu, pending, &nextBlock, blockID, records, &totalChains, &totalHashes, stat, maxBlocks, status, setErr)
				})
			}
		})
	}

	workPool.Wait()
	mainPool.Wait()
	workPool.Stop()
	mainPool.Stop()

	if buildErr != nil {
		return buildErr
	}
	return tf.Flush()
}

// runBlock computes one block's worth of chains: counterStart is the
// keyspace index of the block's first startpoint, and chains are produced
// L at a time via chain.ComputeBatch.
func (b *Builder) runBlock(blockID int64, params chain.Params) ([]tablefile.TableRecord, error) {
	blockSize := b.cfg.BlockSize
	lanes := b.driver.Lanes
	counterStart := b.cfg.MinIndex.Add(index.FromU64(uint64(blockID) * uint64(blockSize)))

	records := make([]tablefile.TableRecord, 0, blockSize)
	for lane := 0; lane < blockSize; lane += lanes {
		width := lanes
		if lane+width > blockSize {
			width = blockSize - lane
		}
		startpoints := make([]index.Index, width)
		for i := 0; i < width; i++ {
			startpoints[i] = counterStart.Add(index.FromU64(uint64(lane + i)))
		}
		endpoints := chain.ComputeBatch(params, b.gen, b.driver, startpoints)
		for i, e := range endpoints {
			records = append(records, tablefile.TableRecord{
				Startpoint: startpoints[i].Uint64(),
				Endpoint:   e.Uint64(),
			})
		}
	}
	return records, nil
}

// commitBlock runs on "main": it buffers an out-of-order arrival and drains
// every contiguous block starting at nextBlock, writing each as one
// contiguous region so on-disk order stays block-id ascending.
func (b *Builder) commitBlock(
	tf *tablefile.TableFile,
	mu *sync.Mutex,
	pending map[int64][]tablefile.TableRecord,
	nextBlock *int64,
	blockID int64,
	records []tablefile.TableRecord,
	totalChains, totalHashes *int64,
	stat *Status,
	maxBlocks int64,
	status io.Writer,
	setErr func(error),
) {
	mu.Lock()
	defer mu.Unlock()

	pending[blockID] = records
	for {
		recs, ok := pending[*nextBlock]
		if !ok {
			break
		}
		delete(pending, *nextBlock)

		width := tablefile.UncompressedRecordWidth
		if b.cfg.Compressed {
			width = tablefile.CompressedRecordWidth
		}
		offset := *nextBlock * int64(b.cfg.BlockSize) * int64(width)
		buf := make([]byte, 0, len(recs)*width)
		for _, r := range recs {
			if b.cfg.Compressed {
				buf = append(buf, tablefile.EncodeRecordCompressed(tablefile.TableRecordCompressed{Endpoint: r.Endpoint})...)
			} else {
				buf = append(buf, tablefile.EncodeRecord(r)...)
			}
		}
		if err := tf.Append(offset, buf); err != nil {
			setErr(err)
			return
		}

		*totalChains += int64(len(recs))
		*totalHashes += int64(len(recs)) * int64(b.cfg.Length)
		*nextBlock++

		if status != nil {
			stat.Emit(status, *totalChains, *totalHashes, *nextBlock, maxBlocks)
		}
	}
}
