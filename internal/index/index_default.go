//go:build !bigint

package index

import (
	"fmt"
	"math/bits"
)

// nativeIndex is the 64-bit backend for Index, sufficient for every
// advertised charset/length combination up to roughly k=96,maxlen=9 or
// k=26,maxlen=13 (spec.md §3).
type nativeIndex uint64

func nativeFromU64(v uint64) nativeIndex { return nativeIndex(v) }

func nativeMaxU64() nativeIndex { return nativeIndex(^uint64(0)) }

func (i nativeIndex) Add(o nativeIndex) nativeIndex { return i + o }
func (i nativeIndex) Sub(o nativeIndex) nativeIndex { return i - o }
func (i nativeIndex) Mul(o nativeIndex) nativeIndex { return i * o }
func (i nativeIndex) Div(o nativeIndex) nativeIndex { return i / o }
func (i nativeIndex) Mod(o nativeIndex) nativeIndex { return i % o }
func (i nativeIndex) Xor(o nativeIndex) nativeIndex { return i ^ o }
func (i nativeIndex) And(o nativeIndex) nativeIndex { return i & o }

func (i nativeIndex) Cmp(o nativeIndex) int {
	switch {
	case i < o:
		return -1
	case i > o:
		return 1
	default:
		return 0
	}
}

func (i nativeIndex) Uint64() uint64 { return uint64(i) }

func (i nativeIndex) IsZero() bool { return i == 0 }

// Exp returns base^exp, along with whether the multiplication chain
// overflowed a uint64. Configuration validation must treat overflow as
// fatal (spec.md §7).
func (i nativeIndex) Exp(exp uint) (nativeIndex, bool) {
	result := nativeIndex(1)
	base := i
	overflow := false
	for e := exp; e > 0; e-- {
		hi, lo := bits.Mul64(uint64(result), uint64(base))
		if hi != 0 {
			overflow = true
		}
		result = nativeIndex(lo)
	}
	return result, overflow
}

// AddOverflows reports whether i+o wraps past the platform maximum.
func (i nativeIndex) AddOverflows(o nativeIndex) bool {
	return uint64(i)+uint64(o) < uint64(i)
}

// SetBytes interprets Buf as a big-endian unsigned integer, keeping only
// its last 8 bytes if it is longer. ModuloReducer and HybridReducer size
// their reads with calculateBytesRequired; BasicModuloReducer passes the
// whole digest and so keeps its last 8 bytes.
func SetBytes(buf []byte) nativeIndex {
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return nativeIndex(v)
}

func (i nativeIndex) String() string { return fmt.Sprintf("%d", uint64(i)) }
