package reduce

import (
	"math/bits"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/index"
)

// MaxWordLength mirrors SmallString's fixed 31-byte capacity (spec.md §3):
// max must never exceed it.
const MaxWordLength = 31

// HybridReducer is the variable-length, bias-safe production reducer
// (spec.md §4.2). It derives both the output length and its characters
// from the hash without modulo bias, in two phases.
//
// Phase A and the "advance the offset by b-1 into phase B" choice are kept
// bit-for-bit compatible with original_source/src/Reduce.hpp's
// HybridReducer::Reduce, per spec.md §9's open question: a from-scratch
// implementation could reasonably zero the offset instead, but bit-exact
// compatibility with tables built by the reference tool was chosen here.
type HybridReducer struct {
	base
	limits        [MaxWordLength + 1]uint64
	bytesRequired int
	mask          uint64
	modMax        uint8
}

func NewHybridReducer(min, max int, set charset.Charset) *HybridReducer {
	b := newBase(min, max, set)
	r := &HybridReducer{base: b}

	var total uint64
	for i := min; i <= max; i++ {
		lower := charset.WordLengthIndexU64(i, set)
		upper := charset.WordLengthIndexU64(i+1, set)
		total += upper - lower
		r.limits[i] = total
	}

	bytesRequired, mask := calculateBytesRequired(index.FromU64(total))
	r.bytesRequired = bytesRequired
	r.mask = mask.Uint64()
	r.modMax = calculateModuloBiasMask(set.Len())
	return r
}

func (r *HybridReducer) Reduce(dst []byte, hash []byte, iter uint64) int {
	buf := make([]byte, len(hash))
	hash32 := bytesToUint32LE(hash)
	buf32 := make([]uint32, len(hash32))
	for i := range hash32 {
		buf32[i] = hash32[i] ^ rotl32(uint32(0x5a827999*iter), uint(i))
	}
	uint32ToBytesLE(buf32, buf)

	var length, offset int
	maxLimit := r.limits[r.max]

	if r.min != r.max {
		reduction := maxLimit + 1
		for reduction >= maxLimit {
			if offset+r.bytesRequired == len(hash) {
				extendEntropy32(buf32)
				uint32ToBytesLE(buf32, buf)
				offset = 0
			}
			reduction = loadBytesToIndex(buf, offset, r.bytesRequired).Uint64()
			if reduction&r.mask >= maxLimit {
				reduction = bits.ReverseBytes64(reduction) >> (64 - uint(r.bytesRequired)*8)
			}
			reduction &= r.mask
			offset++
		}

		for i := r.min; i <= r.max && length == 0; i++ {
			if reduction < r.limits[i] {
				length = i
			}
		}
	} else {
		length = r.max
	}

	// Phase B advances the read offset by b-1 from where phase A left it
	// (to offset b-1 when phase A is skipped) rather than resetting it to
	// zero.
	offset += r.bytesRequired - 1

	return getCharsUnbiased(dst, r.set, buf, offset, length, r.modMax)
}
