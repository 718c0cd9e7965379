// Package rng draws reproducible, uniform random indices from a keyed
// chacha20 keystream. It exists to make the "hash N random plaintexts
// inside the keyspace" style of property test (spec.md §8) deterministic
// across runs, instead of depending on an unseeded math/rand source.
package rng

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/aead/chacha20"

	"github.com/blackforge/rainbowcrack/internal/index"
)

const KeySize = 32

// Sampler draws successive values from one chacha20 keystream. It is not
// safe for concurrent use; give each goroutine its own Sampler seeded from
// a distinct nonce if parallel sampling is needed.
type Sampler struct {
	stream cipher.Stream
}

// NewSampler seeds a Sampler from a 32-byte key and an 8-byte nonce. The
// same (key, nonce) pair always produces the same sequence of draws.
func NewSampler(key [KeySize]byte, nonce [8]byte) (*Sampler, error) {
	stream, err := chacha20.NewCipher(nonce[:], key[:])
	if err != nil {
		return nil, fmt.Errorf("rng: init chacha20 stream: %w", err)
	}
	return &Sampler{stream: stream}, nil
}

func (s *Sampler) nextBytes(n int) []byte {
	buf := make([]byte, n)
	s.stream.XORKeyStream(buf, buf)
	return buf
}

// Uint64 draws the next 8 bytes of keystream as a little-endian uint64.
func (s *Sampler) Uint64() uint64 {
	return binary.LittleEndian.Uint64(s.nextBytes(8))
}

// Intn draws a uniform index in [0, n) using the same reject-and-retry
// approach internal/reduce uses to stay free of modulo bias: it computes
// the smallest all-ones bit mask covering n-1, draws just enough whole
// bytes from the stream to fill it, masks them, and discards draws that
// land at or above n.
func (s *Sampler) Intn(n index.Index) index.Index {
	if n.IsZero() {
		panic("rng: Intn requires n > 0")
	}
	maxVal := n.Sub(index.FromU64(1))

	bitsRequired := 0
	mask := index.FromU64(0)
	for mask.Cmp(maxVal) < 0 {
		mask = mask.Mul(index.FromU64(2)).Add(index.FromU64(1))
		bitsRequired++
	}
	bytesRequired := bitsRequired / 8
	if bitsRequired%8 != 0 {
		bytesRequired++
	}
	if bytesRequired == 0 {
		bytesRequired = 1
	}

	for {
		v := index.SetBytes(s.nextBytes(bytesRequired)).And(mask)
		if v.Cmp(n) < 0 {
			return v
		}
	}
}
