package reduce

import (
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/index"
)

// ModuloReducer reads only the minimum number of bytes needed to cover the
// keyspace, masks, and rejects out-of-range draws instead of taking a raw
// modulo, removing BasicModuloReducer's low-end bias (spec.md §4.2).
type ModuloReducer struct {
	*BasicModuloReducer
	bytesRequired int
	mask          uint64
}

func NewModuloReducer(min, max int, set charset.Charset) *ModuloReducer {
	basic := NewBasicModuloReducer(min, max, set)
	bytesRequired, mask := calculateBytesRequired(basic.Keyspace())
	return &ModuloReducer{
		BasicModuloReducer: basic,
		bytesRequired:      bytesRequired,
		mask:               mask.Uint64(),
	}
}

func (r *ModuloReducer) Reduce(dst []byte, hash []byte, iter uint64) int {
	buf := make([]byte, len(hash))
	copy(buf, hash)

	offset := 0
	reduction := r.Keyspace().Uint64() + 1
	for reduction > r.Keyspace().Uint64() {
		if offset+r.bytesRequired == len(hash) {
			extendEntropyBytes(buf)
			offset = 0
		}
		reduction = loadBytesToIndex(buf, offset, r.bytesRequired).Uint64() & r.mask
		offset++
	}
	return r.performReduction(dst, index.FromU64(reduction), iter)
}
