package hashindex_test

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/blackforge/rainbowcrack/internal/hashindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRegion lays out n rows of an 8-byte key followed by an 8-byte
// payload: the 16-byte width of uncompressed table records, but with the
// key at offset 0 rather than the endpoint's offset 8.
func buildRegion(t *testing.T, n int, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, n*16)
	for i := 0; i < n; i++ {
		row := data[i*16 : i*16+16]
		binary.BigEndian.PutUint64(row[0:8], rng.Uint64())
		binary.BigEndian.PutUint64(row[8:16], uint64(i))
	}
	return data
}

// E4 from spec.md §8.
func TestBucketLengthSumEqualsRecordCount(t *testing.T) {
	const n = 100000
	data := buildRegion(t, n, 1)

	idx := hashindex.New()
	require.NoError(t, idx.SetBitmaskSize(16))
	require.NoError(t, idx.Initialize(data, 8, 0, 16, true))

	assert.Equal(t, n, idx.Count())
}

func TestFindMatchesLinearForMembersAndNonMembers(t *testing.T) {
	const n = 20000
	data := buildRegion(t, n, 2)

	idx := hashindex.New()
	require.NoError(t, idx.SetBitmaskSize(12))
	require.NoError(t, idx.Initialize(data, 8, 0, 16, true))

	for i := 0; i < n; i += 137 {
		key := idx.Row(i)[0:8]
		gotIdx, gotOK := idx.Find(key)
		wantIdx, wantOK := idx.FindLinear(key)
		require.True(t, gotOK)
		require.True(t, wantOK)
		assert.Equal(t, wantIdx, gotIdx)
		_ = wantIdx
	}

	nonMember := make([]byte, 8)
	binary.BigEndian.PutUint64(nonMember, ^uint64(0))
	assert.False(t, idx.Lookup(nonMember))
}

func TestLinearFallbackBelowThreshold(t *testing.T) {
	const n = 64
	data := buildRegion(t, n, 3)

	idx := hashindex.New()
	require.NoError(t, idx.Initialize(data, 8, 0, 16, true))

	for i := 0; i < n; i++ {
		key := idx.Row(i)[0:8]
		assert.True(t, idx.Lookup(key))
	}
}

func TestSetBitmaskSizeRejectsOutOfRange(t *testing.T) {
	idx := hashindex.New()
	assert.Error(t, idx.SetBitmaskSize(0))
	assert.Error(t, idx.SetBitmaskSize(25))
	assert.NoError(t, idx.SetBitmaskSize(24))
}

func TestSetBitmaskSizeRejectsAfterInitialize(t *testing.T) {
	data := buildRegion(t, 1000, 4)
	idx := hashindex.New()
	require.NoError(t, idx.Initialize(data, 8, 0, 16, true))
	assert.Error(t, idx.SetBitmaskSize(10))
}
