package reduce

import "github.com/blackforge/rainbowcrack/internal/charset"

// BytewiseReducer is the fixed-length reducer: equivalent to HybridReducer's
// Phase B run at offset 0 on an unmodified copy of the hash, with no length
// phase since Min==Max fixes the output length up front (spec.md §4.2). It
// only accepts charsets whose Min equals Max.
type BytewiseReducer struct {
	base
	modMax uint8
}

func NewBytewiseReducer(min, max int, set charset.Charset) *BytewiseReducer {
	if min != max {
		panic("reduce: BytewiseReducer requires Min == Max")
	}
	return &BytewiseReducer{base: newBase(min, max, set), modMax: calculateModuloBiasMask(set.Len())}
}

func (r *BytewiseReducer) Reduce(dst []byte, hash []byte, iter uint64) int {
	buf := make([]byte, len(hash))
	copy(buf, hash)
	return getCharsUnbiased(dst, r.set, buf, 0, r.max, r.modMax)
}
