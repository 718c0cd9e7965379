// Package cracker implements TableCracker: iteration-parallel inversion
// search over a built table (spec.md §4.6).
package cracker

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/blackforge/rainbowcrack/internal/chain"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/hashindex"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

// Cracker inverts digests against one mapped table. Uncompressed tables get
// an O(log n) endpoint lookup via HashIndex; compressed tables only support
// a linear scan, an explicit trade-off of the compressed format (spec.md
// §4.6).
type Cracker struct {
	params     chain.Params
	gen        *charset.WordGenerator
	tf         *tablefile.TableFile
	hi         *hashindex.HashIndex // nil for compressed tables
	minIndex   index.Index
	records    []byte
	compressed bool
}

// New binds a Cracker to an already-mapped table. For an uncompressed
// table it builds a HashIndex over the endpoint field (digest_offset=8,
// digest_len=8, per spec.md §4.6); the caller supplies bitmaskSize (0
// selects hashindex.DefaultBitmaskSize). Binary lookup needs the region
// sorted by endpoint, which a freshly built file is not (it is written in
// startpoint order), so Initialize is asked to sort in place; records is
// a private heap copy from tf.Records(), not the mapped region itself, so
// mutating it here is safe.
func New(params chain.Params, gen *charset.WordGenerator, tf *tablefile.TableFile, minIndex index.Index, compressed bool, bitmaskSize uint) (*Cracker, error) {
	records, err := tf.Records()
	if err != nil {
		return nil, fmt.Errorf("cracker: mapped records: %w", err)
	}

	c := &Cracker{params: params, gen: gen, tf: tf, minIndex: minIndex, records: records, compressed: compressed}
	if !compressed {
		hi := hashindex.New()
		if bitmaskSize != 0 {
			if err := hi.SetBitmaskSize(bitmaskSize); err != nil {
				return nil, err
			}
		}
		if err := hi.Initialize(records, 8, 8, tablefile.UncompressedRecordWidth, true); err != nil {
			return nil, fmt.Errorf("cracker: build endpoint index: %w", err)
		}
		c.hi = hi
	}
	return c, nil
}

func endpointKey(e uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, e)
	return buf
}

// lookupEndpoint resolves a candidate endpoint to every startpoint index of
// a chain that produced it. Uncompressed tables use HashIndex and report at
// most one match; compressed tables have no dedup on their endpoint field
// (spec.md §4.6), so a linear scan may surface several startpoints that all
// need validating in turn.
func (c *Cracker) lookupEndpoint(e index.Index) []index.Index {
	key := endpointKey(e.Uint64())

	if !c.compressed {
		row, ok := c.hi.Find(key)
		if !ok {
			return nil
		}
		startpoint := binary.LittleEndian.Uint64(c.hi.Row(row)[0:8])
		return []index.Index{index.FromU64(startpoint)}
	}

	const width = tablefile.CompressedRecordWidth
	var candidates []index.Index
	for pos := 0; pos+width <= len(c.records); pos += width {
		if string(c.records[pos:pos+width]) == string(key) {
			candidates = append(candidates, c.minIndex.Add(index.FromU64(uint64(pos/width))))
		}
	}
	return candidates
}

// attempt runs one "iteration" of the single-target search: forward from
// iteration i to the presumed endpoint, then validates every startpoint
// that endpoint could have come from.
func (c *Cracker) attempt(target []byte, i int) (string, bool) {
	y := target
	buf := make([]byte, reduce.MaxWordLength)
	for j := i; j <= c.params.Length-2; j++ {
		n := c.params.Reducer.Reduce(buf, y, uint64(j))
		y = hashalgo.Single(c.params.Algorithm, buf[:n])
	}
	n := c.params.Reducer.Reduce(buf, y, uint64(c.params.Length-1))
	endpoint := c.gen.Decode(string(buf[:n]))

	for _, startpoint := range c.lookupEndpoint(endpoint) {
		if plaintext, ok := chain.Validate(c.params, c.gen, startpoint, target); ok {
			return plaintext, true
		}
	}
	return "", false
}

// Crack searches for a plaintext hashing to target, parallelised over the
// iteration index as described in spec.md §4.6: worker t handles
// i in {L-1-t, L-1-t-N, ...}; the first hit claims the "cracked" flag via
// CompareAndSwap and later workers observe it and stop.
func (c *Cracker) Crack(ctx context.Context, target []byte, threads int) (string, bool) {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	length := c.params.Length

	var cracked atomic.Bool
	var result atomic.Pointer[string]
	var wg sync.WaitGroup

	for t := 0; t < threads; t++ {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := length - 1 - t; i >= 0; i -= threads {
				if cracked.Load() {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}
				plaintext, ok := c.attempt(target, i)
				if !ok {
					continue
				}
				if cracked.CompareAndSwap(false, true) {
					result.Store(&plaintext)
				}
				return
			}
		}()
	}
	wg.Wait()

	if p := result.Load(); p != nil {
		return *p, true
	}
	return "", false
}

// CrackBatch reads newline-separated hex digests from r, cracks each with
// its own fresh "cracked" flag, and writes "digest<sep>plaintext" lines to
// found for hits or the bare digest to uncrackable for misses (spec.md
// §4.6, "Batch-of-targets mode").
func (c *Cracker) CrackBatch(ctx context.Context, r io.Reader, found, uncrackable io.Writer, sep string, threads int) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		target, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("cracker: invalid hex digest %q: %w", line, err)
		}

		plaintext, ok := c.Crack(ctx, target, threads)
		if ok {
			if _, err := fmt.Fprintf(found, "%s%s%s\n", line, sep, plaintext); err != nil {
				return err
			}
		} else if uncrackable != nil {
			if _, err := fmt.Fprintf(uncrackable, "%s\n", line); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
