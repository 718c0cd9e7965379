package builder_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/builder"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

func TestBuildProducesOrderedRecords(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)

	lanes := hashalgo.NewLaneDriver(hashalgo.MD5).Lanes
	blockSize := lanes * 2
	const blocks = 6
	count := int64(blockSize * blocks)

	cfg := builder.Config{
		Algorithm: hashalgo.MD5,
		Length:    20,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 6, set),
		MinIndex:  charset.WordLengthIndex(1, set),
		Threads:   3,
		BlockSize: blockSize,
		Count:     count,
	}
	b, err := builder.New(cfg, zap.NewNop())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.rt")
	var hdr tablefile.TableHeader
	hdr.Type = tablefile.TypeUncompressed
	hdr.Min, hdr.Max = 1, 6
	hdr.CharsetLen = uint8(len(set))
	copy(hdr.Charset[:], set)
	hdr.Length = uint64(cfg.Length)
	tf, err := tablefile.Create(path, hdr)
	require.NoError(t, err)

	require.NoError(t, b.Build(context.Background(), tf, io.Discard))

	loaded, err := tablefile.Load(path)
	require.NoError(t, err)
	n, err := loaded.Count()
	require.NoError(t, err)
	assert.EqualValues(t, count, n)

	require.NoError(t, loaded.Map())
	defer loaded.Unmap()
	data, err := loaded.Records()
	require.NoError(t, err)
	records, err := tablefile.RecordsAs[tablefile.TableRecord](loaded, data)
	require.NoError(t, err)

	seen := make(map[uint64]bool, len(records))
	for i, r := range records {
		assert.False(t, seen[r.Startpoint], "duplicate startpoint at record %d", i)
		seen[r.Startpoint] = true
	}
	assert.Len(t, seen, int(count))
}

func TestNewRejectsMisalignedBlockSize(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	cfg := builder.Config{
		Algorithm: hashalgo.MD5,
		Length:    10,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 4, set),
		BlockSize: 3, // not a multiple of any valid lane count
	}
	_, err = builder.New(cfg, zap.NewNop())
	assert.Error(t, err)
}
