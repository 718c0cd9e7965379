package reduce

import (
	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/index"
)

// BasicModuloReducer is the fast but modulo-biased reducer, retained for
// comparison and for bootstrapping fresh tables (spec.md §4.2).
type BasicModuloReducer struct{ base }

func NewBasicModuloReducer(min, max int, set charset.Charset) *BasicModuloReducer {
	return &BasicModuloReducer{base: newBase(min, max, set)}
}

func (r *BasicModuloReducer) Reduce(dst []byte, hash []byte, iter uint64) int {
	value := loadBytesToIndex(hash, 0, len(hash))
	return r.performReduction(dst, value, iter)
}

// performReduction is shared with ModuloReducer, which only differs in how
// it derives value.
func (r *BasicModuloReducer) performReduction(dst []byte, value index.Index, iter uint64) int {
	value = value.Xor(index.FromU64(iter))
	value = value.Mod(r.Keyspace())
	value = value.Add(r.MinIndex())
	return r.gen.EncodeInto(dst, value)
}
