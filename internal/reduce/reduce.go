// Package reduce implements the hash→plaintext reducer family: the
// deterministic compression step that closes a rainbow chain (spec.md
// §4.2). All four variants share entropy extension and modulo-bias-safe
// byte extraction.
package reduce

import (
	"encoding/binary"
	"math/bits"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/index"
)

// Reducer maps a digest and an iteration number to a plaintext of length
// between Min and Max, writing it into dst and returning its length.
// Implementations never fail; a pathological one-symbol charset is the
// only input that stresses the bias-safe loop, and it still terminates.
type Reducer interface {
	Reduce(dst []byte, hash []byte, iter uint64) int
	Min() int
	Max() int
	Charset() charset.Charset
	MinIndex() index.Index
	MaxIndex() index.Index
	Keyspace() index.Index
}

type base struct {
	min, max    int
	set         charset.Charset
	gen         *charset.WordGenerator
	minI, maxI  index.Index
}

func newBase(min, max int, set charset.Charset) base {
	gen := charset.NewWordGenerator(set)
	return base{
		min: min, max: max, set: set, gen: gen,
		minI: charset.WordLengthIndex(min, set),
		maxI: charset.WordLengthIndex(max+1, set),
	}
}

func (b base) Min() int                  { return b.min }
func (b base) Max() int                  { return b.max }
func (b base) Charset() charset.Charset  { return b.set }
func (b base) MinIndex() index.Index     { return b.minI }
func (b base) MaxIndex() index.Index     { return b.maxI }
func (b base) Keyspace() index.Index     { return b.maxI.Sub(b.minI) }

// rotl32/rotr32 are the 32-bit rotations the SHA-256-style entropy
// extension rule is built from.
func rotl32(v uint32, d uint) uint32 { return bits.RotateLeft32(v, int(d)) }
func rotr32(v uint32, d uint) uint32 { return bits.RotateLeft32(v, -int(d)) }

// ExtendSimple selects the cheaper, opt-in entropy-extension rule
// (spec.md §4.2) in place of the SHA-256-style default.
var ExtendSimple = false

// extendEntropy32 extends a buffer of 32-bit words in place, following the
// same in-place, sequential mutation order as the reference implementation
// so results stay bit-exact chain-for-chain.
func extendEntropy32(buf []uint32) {
	n := len(buf)
	for i := 0; i < n; i++ {
		d1 := buf[i]
		d2 := buf[(n-2+i)%n]
		d3 := buf[(n-3+i)%n]
		if ExtendSimple {
			buf[i] = rotl32(d1^d2, 1) + d3
		} else {
			s0 := rotr32(d1, 7) ^ rotr32(d1, 18) ^ (d1 >> 3)
			s1 := rotr32(d2, 17) ^ rotr32(d2, 19) ^ (d2 >> 10)
			buf[i] = s0 + s1 + d3
		}
	}
}

// extendEntropyBytes extends a byte buffer in place by viewing it as
// little-endian 32-bit words, extending, and writing back.
func extendEntropyBytes(buf []byte) {
	words := bytesToUint32LE(buf)
	extendEntropy32(words)
	uint32ToBytesLE(words, buf)
}

func bytesToUint32LE(buf []byte) []uint32 {
	n := len(buf) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out
}

func uint32ToBytesLE(words []uint32, dst []byte) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(dst[i*4:], w)
	}
}

// calculateBytesRequired returns the smallest all-ones bit mask
// M = 2^bits-1 >= value and the byte count b = ceil(bits/8) needed to read
// it, mirroring calculate_bytes_required in Reduce.hpp.
func calculateBytesRequired(value index.Index) (bytesRequired int, mask index.Index) {
	bitsRequired := 0
	m := index.FromU64(0)
	for m.Cmp(value) < 0 {
		m = m.Mul(index.FromU64(2)).Add(index.FromU64(1))
		bitsRequired++
	}
	bytesRequired = bitsRequired / 8
	if bitsRequired%8 != 0 {
		bytesRequired++
	}
	return bytesRequired, m
}

// calculateModuloBiasMask returns floor(256/k)*k, the largest byte value
// (exclusive upper bound) below which byte-mod-k is unbiased. When k
// divides 256 the bound is 256, which wraps to 0 in a uint8;
// getCharsUnbiased reads 0 as "accept every byte".
func calculateModuloBiasMask(charsetSize int) uint8 {
	maxval := charsetSize - 1
	return uint8((256 / (maxval + 1)) * (maxval + 1))
}

// loadBytesToIndex parses length bytes at offset as a big-endian integer.
func loadBytesToIndex(buf []byte, offset, length int) index.Index {
	return index.SetBytes(buf[offset : offset+length])
}

// getCharsUnbiased draws length symbols from buf starting at offset via the
// modulo-bias-safe rejection routine, extending entropy whenever the
// buffer is exhausted, and writes them into dst.
func getCharsUnbiased(dst []byte, set charset.Charset, buf []byte, offset, length int, modMax uint8) int {
	written := 0
	off := offset
	for written < length {
		if off >= len(buf) {
			extendEntropyBytes(buf)
			off = 0
		}
		next := buf[off]
		off++
		if modMax == 0 || next < modMax {
			dst[written] = set.At(int(next) % set.Len())
			written++
		}
	}
	return written
}
