package rng_test

import (
	"testing"

	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerIsDeterministic(t *testing.T) {
	var key [rng.KeySize]byte
	copy(key[:], "test-key-for-reproducible-draws!")
	var nonce [8]byte

	s1, err := rng.NewSampler(key, nonce)
	require.NoError(t, err)
	s2, err := rng.NewSampler(key, nonce)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.Equal(t, s1.Uint64(), s2.Uint64())
	}
}

func TestIntnStaysInRange(t *testing.T) {
	var key [rng.KeySize]byte
	copy(key[:], "another-fixed-test-key-32-bytes")
	var nonce [8]byte
	s, err := rng.NewSampler(key, nonce)
	require.NoError(t, err)

	n := index.FromU64(1000)
	for i := 0; i < 5000; i++ {
		v := s.Intn(n)
		assert.Less(t, v.Uint64(), uint64(1000))
	}
}

func TestIntnCoversFullRangeEventually(t *testing.T) {
	var key [rng.KeySize]byte
	copy(key[:], "yet-another-fixed-test-key-32b!")
	var nonce [8]byte
	s, err := rng.NewSampler(key, nonce)
	require.NoError(t, err)

	n := index.FromU64(8)
	seen := make(map[uint64]bool)
	for i := 0; i < 2000; i++ {
		seen[s.Intn(n).Uint64()] = true
	}
	assert.Len(t, seen, 8)
}
