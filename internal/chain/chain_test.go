package chain_test

import (
	"testing"

	"github.com/blackforge/rainbowcrack/internal/chain"
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIsDeterministic(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen := charset.NewWordGenerator(set)
	p := chain.Params{
		Algorithm: hashalgo.MD5,
		Length:    100,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 8, set),
	}

	e1 := chain.Compute(p, gen, index.FromU64(12345))
	e2 := chain.Compute(p, gen, index.FromU64(12345))
	assert.Equal(t, e1.Uint64(), e2.Uint64())
}

// E5 from spec.md §8: a chain built from startpoint s re-walks and
// validates against its own endpoint's terminal hash.
func TestValidateFindsPlaintextAtEndpoint(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen := charset.NewWordGenerator(set)
	p := chain.Params{
		Algorithm: hashalgo.MD5,
		Length:    50,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 6, set),
	}

	startpoint := index.FromU64(999)
	endpoint := chain.Compute(p, gen, startpoint)
	endpointWord := gen.Encode(endpoint)
	target := hashalgo.Single(hashalgo.MD5, []byte(endpointWord))

	plaintext, ok := chain.Validate(p, gen, startpoint, target)
	require.True(t, ok)
	assert.Equal(t, endpointWord, plaintext)
}

func TestComputeBatchMatchesComputeOneAtATime(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen := charset.NewWordGenerator(set)
	p := chain.Params{
		Algorithm: hashalgo.SHA1,
		Length:    30,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 6, set),
	}
	driver := hashalgo.NewLaneDriver(hashalgo.SHA1)

	startpoints := make([]index.Index, 10)
	for i := range startpoints {
		startpoints[i] = index.FromU64(uint64(i) * 777)
	}

	batched := chain.ComputeBatch(p, gen, driver, startpoints)
	for i, s := range startpoints {
		want := chain.Compute(p, gen, s)
		assert.Equal(t, want.Uint64(), batched[i].Uint64())
	}
}

func TestValidateMissesUnrelatedTarget(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	gen := charset.NewWordGenerator(set)
	p := chain.Params{
		Algorithm: hashalgo.MD5,
		Length:    20,
		Charset:   set,
		Reducer:   reduce.NewHybridReducer(1, 6, set),
	}

	unrelated := hashalgo.Single(hashalgo.MD5, []byte("not-in-this-chain"))
	_, ok := chain.Validate(p, gen, index.FromU64(1), unrelated)
	assert.False(t, ok)
}
