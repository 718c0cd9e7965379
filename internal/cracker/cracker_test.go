package cracker_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/builder"
	"github.com/blackforge/rainbowcrack/internal/chain"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/cracker"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

// buildTinyTable builds a small uncompressed table covering most of the
// 1..4 character lowercase keyspace, small enough that a plaintext drawn
// from that range is very likely to land in some chain.
func buildTinyTable(t *testing.T) (path string, params chain.Params, gen *charset.WordGenerator, minIdx index.Index) {
	t.Helper()
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen = charset.NewWordGenerator(set)

	r := reduce.NewHybridReducer(1, 4, set)
	params = chain.Params{Algorithm: hashalgo.MD5, Length: 12, Charset: set, Reducer: r}

	lanes := hashalgo.NewLaneDriver(hashalgo.MD5).Lanes
	minIdx = charset.WordLengthIndex(1, set)
	total := charset.WordLengthIndexU64(5, set) - minIdx.Uint64()
	blockSize := lanes
	count := (int64(total) / int64(blockSize)) * int64(blockSize)
	if count == 0 {
		count = int64(blockSize)
	}

	cfg := builder.Config{
		Algorithm: hashalgo.MD5,
		Length:    params.Length,
		Charset:   set,
		Reducer:   r,
		MinIndex:  minIdx,
		Threads:   2,
		BlockSize: blockSize,
		Count:     count,
	}
	b, err := builder.New(cfg, zap.NewNop())
	require.NoError(t, err)

	path = filepath.Join(t.TempDir(), "tiny.rt")
	var hdr tablefile.TableHeader
	hdr.Type = tablefile.TypeUncompressed
	hdr.Min, hdr.Max = 1, 4
	hdr.CharsetLen = uint8(len(set))
	copy(hdr.Charset[:], set)
	hdr.Length = uint64(params.Length)
	tf, err := tablefile.Create(path, hdr)
	require.NoError(t, err)
	require.NoError(t, b.Build(context.Background(), tf, io.Discard))

	return path, params, gen, minIdx
}

func TestCrackFindsPlaintextInBuiltTable(t *testing.T) {
	path, params, gen, minIdx := buildTinyTable(t)

	loaded, err := tablefile.Load(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Map())
	defer loaded.Unmap()

	c, err := cracker.New(params, gen, loaded, minIdx, false, 0)
	require.NoError(t, err)

	// "cat" is well within the covered 1..4 lowercase keyspace, so it
	// must appear as some chain's plaintext at some position.
	target := hashalgo.Single(hashalgo.MD5, []byte("cat"))
	plaintext, ok := c.Crack(context.Background(), target, 2)
	require.True(t, ok)
	assert.Equal(t, "cat", plaintext)
}

func TestBatchCrackFormatsOutput(t *testing.T) {
	// A cracker over an empty table: exercises the batch I/O plumbing
	// (digest parsing, uncrackable stream) rather than an actual hit.
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen := charset.NewWordGenerator(set)
	r := reduce.NewHybridReducer(1, 4, set)
	params := chain.Params{Algorithm: hashalgo.MD5, Length: 4, Charset: set, Reducer: r}

	path := filepath.Join(t.TempDir(), "empty.rt")
	var hdr tablefile.TableHeader
	hdr.Type = tablefile.TypeUncompressed
	hdr.Min, hdr.Max = 1, 4
	hdr.CharsetLen = uint8(len(set))
	copy(hdr.Charset[:], set)
	hdr.Length = uint64(params.Length)
	tf, err := tablefile.Create(path, hdr)
	require.NoError(t, err)
	require.NoError(t, tf.Flush())

	loaded, err := tablefile.Load(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Map())
	defer loaded.Unmap()

	minIdx := charset.WordLengthIndex(1, set)
	c, err := cracker.New(params, gen, loaded, minIdx, false, 0)
	require.NoError(t, err)

	digest := strings.Repeat("ab", 8)
	var found, missed strings.Builder
	require.NoError(t, c.CrackBatch(context.Background(), strings.NewReader(digest+"\n"), &found, &missed, ":", 1))
	assert.Empty(t, found.String())
	assert.Equal(t, digest+"\n", missed.String())
}
