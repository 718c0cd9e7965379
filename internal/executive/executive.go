package executive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/builder"
	"github.com/blackforge/rainbowcrack/internal/chain"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/cracker"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/blackforge/rainbowcrack/internal/rng"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

// ExecutiveLoop orchestrates a single action over one TableFile (spec.md
// §4.8). It owns nothing across calls to Run beyond its Config and logger.
type ExecutiveLoop struct {
	cfg Config
	log *zap.Logger
}

// New validates cfg and returns a ready-to-run loop. Validation happens
// entirely before any I/O, per spec.md §4.8.
func New(cfg Config, log *zap.Logger) (*ExecutiveLoop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecutiveLoop{cfg: cfg, log: log}, nil
}

// resolveParams builds chain parameters from CLI-supplied config: used only
// for a fresh build, where the table does not exist yet to read them back
// from.
func (e *ExecutiveLoop) resolveParams() (chain.Params, index.Index, error) {
	alg, err := hashalgo.Parse(e.cfg.Algorithm)
	if err != nil {
		return chain.Params{}, index.FromU64(0), err
	}
	set, err := resolveCharset(e.cfg.Charset)
	if err != nil {
		return chain.Params{}, index.FromU64(0), err
	}
	r := newReducer(e.cfg.Reducer, e.cfg.Min, e.cfg.Max, set)
	minIndex := charset.WordLengthIndex(e.cfg.Min, set)
	return chain.Params{Algorithm: alg, Length: e.cfg.Length, Charset: set, Reducer: r}, minIndex, nil
}

// paramsFromHeader rebuilds chain parameters from an existing table's
// header instead of trusting CLI flags: resume/crack/test/decompress only
// take a table path plus behavioural flags (spec.md §6's CLI table has no
// --algorithm/--charset/--min/--max for those actions), so the keyspace
// definition must come from the file itself. The reducer family is not
// part of the wire header (spec.md §3), so it still comes from --reducer
// and must match what built the table.
func (e *ExecutiveLoop) paramsFromHeader(h tablefile.TableHeader) (chain.Params, index.Index, error) {
	set := charset.Charset(h.Charset[:h.CharsetLen])
	r := newReducer(e.cfg.Reducer, int(h.Min), int(h.Max), set)
	minIndex := charset.WordLengthIndex(int(h.Min), set)
	params := chain.Params{
		Algorithm: hashalgo.Algorithm(h.Algorithm),
		Length:    int(h.Length),
		Charset:   set,
		Reducer:   r,
	}
	return params, minIndex, nil
}

func newReducer(kind string, min, max int, set charset.Charset) reduce.Reducer {
	switch kind {
	case ReducerModulo:
		return reduce.NewModuloReducer(min, max, set)
	case ReducerBasic:
		return reduce.NewBasicModuloReducer(min, max, set)
	case ReducerByte:
		return reduce.NewBytewiseReducer(min, max, set)
	default:
		return reduce.NewHybridReducer(min, max, set)
	}
}

// Run dispatches to the action named by e.cfg.Action, writing results to
// out and status/errors to errw.
func (e *ExecutiveLoop) Run(ctx context.Context, out, errw io.Writer) error {
	switch e.cfg.Action {
	case ActionBuild:
		return e.runBuild(ctx, errw, 0)
	case ActionResume:
		return e.runResume(ctx, errw)
	case ActionCrack:
		return e.runCrack(ctx, out)
	case ActionTest:
		return e.runTest(ctx, out)
	case ActionInfo:
		return e.runInfo(out)
	case ActionCompress:
		return e.runCompress()
	case ActionDecompress:
		return e.runDecompress()
	case ActionSort:
		return e.runSort()
	default:
		return &ConfigError{err: fmt.Errorf("unknown action %q", e.cfg.Action)}
	}
}

// runBuildLoop drives a Builder under an oklog/run actor group: one actor
// runs the build to completion (or until Count chains, if set), the other
// cancels it on SIGINT/SIGTERM, following the group pattern
// pkg.LoadBalancer.Run uses for goroutine lifecycle.
func (e *ExecutiveLoop) runBuildLoop(ctx context.Context, tf *tablefile.TableFile, errw io.Writer, params chain.Params, minIndex index.Index, startBlock int64) error {
	threads := e.cfg.Threads
	cfg := builder.Config{
		Algorithm:  params.Algorithm,
		Length:     params.Length,
		Charset:    params.Charset,
		Reducer:    params.Reducer,
		MinIndex:   minIndex,
		Threads:    threads,
		BlockSize:  e.cfg.BlockSize,
		Count:      e.cfg.Count,
		StartBlock: startBlock,
		Compressed: tf.Header().Type == tablefile.TypeCompressed,
	}
	b, err := builder.New(cfg, e.log)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group
	g.Add(func() error {
		return b.Build(runCtx, tf, errw)
	}, func(error) {
		cancel()
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	g.Add(func() error {
		select {
		case <-sigCh:
			return fmt.Errorf("interrupted")
		case <-runCtx.Done():
			return nil
		}
	}, func(error) {
		signal.Stop(sigCh)
		close(sigCh)
	})

	return g.Run()
}

func (e *ExecutiveLoop) runBuild(ctx context.Context, errw io.Writer, startBlock int64) error {
	params, minIndex, err := e.resolveParams()
	if err != nil {
		return err
	}
	set := params.Charset

	tableType := tablefile.TypeUncompressed
	if e.cfg.TableType == "compressed" {
		tableType = tablefile.TypeCompressed
	}
	var hdr tablefile.TableHeader
	hdr.Type = tableType
	hdr.Algorithm = uint8(params.Algorithm)
	hdr.Min = uint8(e.cfg.Min)
	hdr.Max = uint8(e.cfg.Max)
	hdr.CharsetLen = uint8(len(set))
	copy(hdr.Charset[:], set)
	hdr.Length = uint64(e.cfg.Length)

	tf, err := tablefile.Create(e.cfg.Path, hdr)
	if err != nil {
		return err
	}
	return e.runBuildLoop(ctx, tf, errw, params, minIndex, startBlock)
}

// runResume loads an existing table's header, rebuilds chain parameters
// from it, derives the resume block from the current record count, and
// continues the build (spec.md §4.8: "resume | as build; loads header
// first").
func (e *ExecutiveLoop) runResume(ctx context.Context, errw io.Writer) error {
	tf, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return err
	}
	params, minIndex, err := e.paramsFromHeader(tf.Header())
	if err != nil {
		return err
	}
	count, err := tf.Count()
	if err != nil {
		return err
	}
	startBlock := count / int64(e.cfg.BlockSize)
	return e.runBuildLoop(ctx, tf, errw, params, minIndex, startBlock)
}

func (e *ExecutiveLoop) openCracker() (*cracker.Cracker, chain.Params, func() error, error) {
	tf, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return nil, chain.Params{}, nil, err
	}
	params, minIndex, err := e.paramsFromHeader(tf.Header())
	if err != nil {
		return nil, chain.Params{}, nil, err
	}
	if err := tf.Map(); err != nil {
		return nil, chain.Params{}, nil, err
	}
	compressed := tf.Header().Type == tablefile.TypeCompressed
	c, err := cracker.New(params, charset.NewWordGenerator(params.Charset), tf, minIndex, compressed || e.cfg.NoIndex, e.cfg.BitmaskSize)
	if err != nil {
		tf.Unmap()
		return nil, chain.Params{}, nil, err
	}
	return c, params, tf.Unmap, nil
}

// runCrack implements the single-target CLI action: a miss writes nothing
// and exits 0 (spec.md §7, "User-visible behaviour on miss").
func (e *ExecutiveLoop) runCrack(ctx context.Context, out io.Writer) error {
	target, err := hex.DecodeString(e.cfg.Target)
	if err != nil {
		return &ConfigError{err: fmt.Errorf("invalid target digest: %w", err)}
	}
	c, _, closeFn, err := e.openCracker()
	if err != nil {
		return err
	}
	defer closeFn()

	threads := e.cfg.Threads
	plaintext, ok := c.Crack(ctx, target, threads)
	if ok {
		fmt.Fprintln(out, plaintext)
	}
	return nil
}

// runTest hashes the given plaintext with the configured algorithm, then
// runs crack against that digest and reports whether the round trip
// succeeded (spec.md §6, "test | table, plaintext | none (hashes, then
// cracks)").
func (e *ExecutiveLoop) runTest(ctx context.Context, out io.Writer) error {
	c, params, closeFn, err := e.openCracker()
	if err != nil {
		return err
	}
	defer closeFn()

	target := hashalgo.Single(params.Algorithm, []byte(e.cfg.Plaintext))

	plaintext, ok := c.Crack(ctx, target, e.cfg.Threads)
	if !ok {
		fmt.Fprintf(out, "FAIL: %q was not recovered from %x\n", e.cfg.Plaintext, target)
		return fmt.Errorf("test: plaintext not recovered")
	}
	if plaintext != e.cfg.Plaintext {
		fmt.Fprintf(out, "FAIL: recovered %q, expected %q\n", plaintext, e.cfg.Plaintext)
		return fmt.Errorf("test: recovered mismatched plaintext")
	}
	fmt.Fprintf(out, "PASS: %q recovered from %x\n", plaintext, target)
	return nil
}

// runInfo prints the table header fields without mapping the record region.
func (e *ExecutiveLoop) runInfo(out io.Writer) error {
	tf, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return err
	}
	h := tf.Header()
	count, err := tf.Count()
	if err != nil {
		return err
	}
	kind := "uncompressed"
	if h.Type == tablefile.TypeCompressed {
		kind = "compressed"
	}
	algName := hashalgo.Algorithm(h.Algorithm).String()
	fmt.Fprintf(out, "path:      %s\n", e.cfg.Path)
	fmt.Fprintf(out, "type:      %s\n", kind)
	fmt.Fprintf(out, "algorithm: %s\n", algName)
	fmt.Fprintf(out, "min:       %d\n", h.Min)
	fmt.Fprintf(out, "max:       %d\n", h.Max)
	fmt.Fprintf(out, "length:    %d\n", h.Length)
	fmt.Fprintf(out, "charset:   %s\n", string(h.Charset[:h.CharsetLen]))
	fmt.Fprintf(out, "records:   %d\n", count)
	return nil
}

// runSort sorts an uncompressed table by endpoint in place, the order
// internal/cracker's HashIndex binary lookup requires (spec.md §3:
// "uncompressed records are stored sorted by endpoint"). A compressed
// table's record position is its startpoint offset from MinIndex, so
// reordering it would corrupt that mapping; only uncompressed tables are
// eligible.
func (e *ExecutiveLoop) runSort() error {
	tf, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return err
	}
	if tf.Header().Type != tablefile.TypeUncompressed {
		return fmt.Errorf("sort: compressed tables have no reorderable startpoint column")
	}
	if err := tf.Map(); err != nil {
		return err
	}
	data, err := tf.Records()
	if err != nil {
		tf.Unmap()
		return err
	}
	records, err := tablefile.RecordsAs[tablefile.TableRecord](tf, data)
	if err != nil {
		tf.Unmap()
		return err
	}
	if err := tf.Unmap(); err != nil {
		return err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Endpoint < records[j].Endpoint })

	buf := make([]byte, 0, len(records)*tablefile.UncompressedRecordWidth)
	for _, r := range records {
		buf = append(buf, tablefile.EncodeRecord(r)...)
	}
	if err := tf.Append(0, buf); err != nil {
		return err
	}
	return tf.Flush()
}

// runCompress converts an uncompressed table to the compressed format:
// sort by startpoint, then drop the startpoint column, since a compressed
// table's startpoints are implied by record position (spec.md §4.8).
func (e *ExecutiveLoop) runCompress() error {
	src, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return err
	}
	if src.Header().Type != tablefile.TypeUncompressed {
		return fmt.Errorf("compress: source table is already compressed")
	}
	if err := src.Map(); err != nil {
		return err
	}
	defer src.Unmap()
	data, err := src.Records()
	if err != nil {
		return err
	}
	records, err := tablefile.RecordsAs[tablefile.TableRecord](src, data)
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Startpoint < records[j].Startpoint })

	hdr := src.Header()
	hdr.Type = tablefile.TypeCompressed
	dst, err := tablefile.Create(e.cfg.Dst, hdr)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(records)*tablefile.CompressedRecordWidth)
	for _, r := range records {
		buf = append(buf, tablefile.EncodeRecordCompressed(tablefile.TableRecordCompressed{Endpoint: r.Endpoint})...)
	}
	if err := dst.Append(0, buf); err != nil {
		return err
	}
	if err := dst.Flush(); err != nil {
		return err
	}
	_, err = tablefile.Load(e.cfg.Dst)
	return err
}

// runDecompress converts a compressed table back to uncompressed: each
// record's implied startpoint (MinIndex + position) is restored, then the
// (startpoint, endpoint) pairs are sorted by endpoint, matching the
// original startpoint-major on-disk order requirement in reverse (spec.md
// §4.8: "then sorts by endpoint").
func (e *ExecutiveLoop) runDecompress() error {
	src, err := tablefile.Load(e.cfg.Path)
	if err != nil {
		return err
	}
	if src.Header().Type != tablefile.TypeCompressed {
		return fmt.Errorf("decompress: source table is already uncompressed")
	}
	srcHdr := src.Header()
	set := charset.Charset(srcHdr.Charset[:srcHdr.CharsetLen])
	minIndex := charset.WordLengthIndex(int(srcHdr.Min), set)

	if err := src.Map(); err != nil {
		return err
	}
	defer src.Unmap()
	data, err := src.Records()
	if err != nil {
		return err
	}
	compressed, err := tablefile.RecordsAs[tablefile.TableRecordCompressed](src, data)
	if err != nil {
		return err
	}

	records := make([]tablefile.TableRecord, len(compressed))
	for i, r := range compressed {
		startpoint := minIndex.Add(index.FromU64(uint64(i)))
		records[i] = tablefile.TableRecord{Startpoint: startpoint.Uint64(), Endpoint: r.Endpoint}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Endpoint < records[j].Endpoint })

	hdr := src.Header()
	hdr.Type = tablefile.TypeUncompressed
	dst, err := tablefile.Create(e.cfg.Dst, hdr)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(records)*tablefile.UncompressedRecordWidth)
	for _, r := range records {
		buf = append(buf, tablefile.EncodeRecord(r)...)
	}
	if err := dst.Append(0, buf); err != nil {
		return err
	}
	if err := dst.Flush(); err != nil {
		return err
	}
	_, err = tablefile.Load(e.cfg.Dst)
	return err
}

// RandomKeyspaceSample draws n reproducible plaintexts from [0, k^len) using
// a chacha20-keyed sampler, for the "hash 32 random plaintexts inside the
// keyspace" build/crack closure test in spec.md §8. A nil key draws a fresh
// random one from crypto/rand for one-off use, mirroring ratsum's
// --keyed handling of an externally supplied key.
func RandomKeyspaceSample(set charset.Charset, length, n int, key *[rng.KeySize]byte) ([]string, error) {
	var k [rng.KeySize]byte
	if key != nil {
		k = *key
	} else if _, err := rand.Read(k[:]); err != nil {
		return nil, err
	}
	var nonce [8]byte
	sampler, err := rng.NewSampler(k, nonce)
	if err != nil {
		return nil, err
	}

	gen := charset.NewWordGenerator(set)
	upper := charset.WordLengthIndex(length+1, set)
	lower := charset.WordLengthIndex(length, set)
	span := upper.Sub(lower)

	words := make([]string, n)
	for i := range words {
		offset := sampler.Intn(span)
		words[i] = gen.Encode(lower.Add(offset))
	}
	return words, nil
}
