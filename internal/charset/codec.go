package charset

import (
	"github.com/blackforge/rainbowcrack/internal/index"
)

// WordGenerator is the bijection between a keyspace index and a plaintext
// string over an ordered Charset (spec.md §4.1).
type WordGenerator struct {
	set     Charset
	lookup  [257]byte
	built   bool
}

// NewWordGenerator binds a WordGenerator to Charset for its lifetime; the
// charset is borrowed, never copied or mutated (spec.md §3, "Ownership").
func NewWordGenerator(set Charset) *WordGenerator {
	w := &WordGenerator{set: set}
	w.buildLookup()
	return w
}

func (w *WordGenerator) buildLookup() {
	for i := range w.lookup {
		w.lookup[i] = 0
	}
	w.lookup[256] = byte(w.set.Len())
	for i := 0; i < w.set.Len(); i++ {
		w.lookup[w.set.At(i)] = byte(i)
	}
	w.built = true
}

// Charset returns the bound alphabet.
func (w *WordGenerator) Charset() Charset { return w.set }

// LookupTable returns the byte→ordinal map; entry 256 holds k.
func (w *WordGenerator) LookupTable() [257]byte { return w.lookup }

// EncodeInto writes the bijective base-k encoding of n into dst,
// most-significant digit first, and returns the number of bytes written.
// n=0 yields the empty word (the reserved index below every length-1
// word); Decode inverts this exactly for every n (spec.md §4.1, §8's
// E1/E2).
func (w *WordGenerator) EncodeInto(dst []byte, n index.Index) int {
	k := index.FromU64(uint64(w.set.Len()))
	one := index.FromU64(1)
	length := 0
	for !n.IsZero() {
		n = n.Sub(one)
		r := n.Mod(k)
		n = n.Div(k)
		dst[length] = w.set.At(int(r.Uint64()))
		length++
	}
	reverse(dst[:length])
	return length
}

// Encode returns encode(n) (spec.md §4.1).
func (w *WordGenerator) Encode(n index.Index) string {
	var buf [64]byte
	l := w.EncodeInto(buf[:], n)
	return string(buf[:l])
}

// EncodeReversed returns encode(n) reversed; DecodeReversed is its
// inverse. Chain generation stores endpoints through plain Encode/Decode,
// not this form.
func (w *WordGenerator) EncodeReversed(n index.Index) string {
	s := []byte(w.Encode(n))
	reverse(s)
	return string(s)
}

// EncodeU64 and EncodeReversedU64 are allocation-light fast paths for the
// common case where n fits in a machine word, independent of the Index
// backend selected at build time.
func (w *WordGenerator) EncodeU64Into(dst []byte, n uint64) int {
	k := uint64(w.set.Len())
	length := 0
	for n > 0 {
		n--
		r := n % k
		n /= k
		dst[length] = w.set.At(int(r))
		length++
	}
	reverse(dst[:length])
	return length
}

func (w *WordGenerator) EncodeU64(n uint64) string {
	var buf [64]byte
	l := w.EncodeU64Into(buf[:], n)
	return string(buf[:l])
}

func (w *WordGenerator) EncodeReversedU64(n uint64) string {
	s := []byte(w.EncodeU64(n))
	reverse(s)
	return string(s)
}

// Decode returns parse(s): n = n*k + (index_of(c)+1) for each byte in
// order, the bijective base-k digit weighting that makes it the exact
// inverse of Encode: digits range over 1..k rather than 0..k-1, so every
// length has its own contiguous block of n and the empty string is the
// only word decoding to 0.
func (w *WordGenerator) Decode(s string) index.Index {
	n := index.FromU64(0)
	k := index.FromU64(uint64(w.lookup[256]))
	for i := 0; i < len(s); i++ {
		n = n.Mul(k).Add(index.FromU64(uint64(w.lookup[s[i]]) + 1))
	}
	return n
}

// DecodeReversed decodes s after reversing it, the inverse of
// EncodeReversed.
func (w *WordGenerator) DecodeReversed(s string) index.Index {
	b := []byte(s)
	reverse(b)
	return w.Decode(string(b))
}

// Decode64 and DecodeReversed64 are the u64 fast paths matching EncodeU64.
func (w *WordGenerator) Decode64(s string) uint64 {
	var n uint64
	k := uint64(w.lookup[256])
	for i := 0; i < len(s); i++ {
		n = n*k + uint64(w.lookup[s[i]]) + 1
	}
	return n
}

func (w *WordGenerator) DecodeReversed64(s string) uint64 {
	b := []byte(s)
	reverse(b)
	return w.Decode64(string(b))
}

// WordLengthIndex returns I(length) = Σ k^i for i in [0,length).
func (w *WordGenerator) WordLengthIndex(length int) index.Index {
	return WordLengthIndex(length, w.set)
}

// WordLengthIndexU64 is the u64 fast path of WordLengthIndex.
func (w *WordGenerator) WordLengthIndexU64(length int) uint64 {
	return WordLengthIndexU64(length, w.set)
}

// WordLengthIndex computes I(length) directly from a Charset without
// requiring a bound WordGenerator.
func WordLengthIndex(length int, set Charset) index.Index {
	k := index.FromU64(uint64(set.Len()))
	total := index.FromU64(0)
	power := index.FromU64(1)
	for i := 0; i < length; i++ {
		total = total.Add(power)
		power = power.Mul(k)
	}
	return total
}

// WordLengthIndexU64 is WordLengthIndex computed purely in uint64
// arithmetic, for hot paths that never need bigint scaling.
func WordLengthIndexU64(length int, set Charset) uint64 {
	k := uint64(set.Len())
	var total, power uint64 = 0, 1
	for i := 0; i < length; i++ {
		total += power
		power *= k
	}
	return total
}

// WordLengthIndexOverflows reports whether I(length) = Σ k^i for i in
// [0,length) exceeds what the selected Index backend can represent without
// wrapping. It walks the same summation as WordLengthIndex but through
// Index.Exp/AddOverflows, which the default 64-bit backend implements as
// real overflow checks and the bigint backend always answers false (an
// arbitrary-precision integer never overflows), so this check is exactly
// spec.md §4.8/§7's "detected up front when 64-bit builds are selected"
// requirement and a no-op under -tags bigint.
func WordLengthIndexOverflows(length int, set Charset) bool {
	k := index.FromU64(uint64(set.Len()))
	total := index.FromU64(0)
	for i := 0; i < length; i++ {
		power, overflow := k.Exp(uint(i))
		if overflow || total.AddOverflows(power) {
			return true
		}
		total = total.Add(power)
	}
	return false
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
