// Package hashindex prefix-buckets a sorted region of fixed-width binary
// records so that a lookup is a sub-microsecond memcmp inside a bucket
// instead of a scan across the whole table (spec.md §4.3).
package hashindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

const (
	MinBitmaskSize     = 1
	MaxBitmaskSize     = 24
	DefaultBitmaskSize = 16

	// LinearThreshold is the record count below which prefix bucketing buys
	// nothing and Initialize falls back to a plain scan.
	LinearThreshold = 512
)

const sentinel = math.MaxInt

// HashIndex borrows a caller-owned byte region of fixed-width rows and
// answers presence/position queries against a digest window inside each
// row. It never copies the region and must be rebuilt after any re-sort
// or append to it.
type HashIndex struct {
	data                    []byte
	rowWidth                int
	digestOffset, digestLen int
	bitmask                 uint
	count                   int

	offsets []int // per-bucket start row index, sentinel if empty
	lengths []int // per-bucket row count
	linear  bool
}

func New() *HashIndex {
	return &HashIndex{bitmask: DefaultBitmaskSize}
}

// SetBitmaskSize overrides the default bucket-table width. It must be
// called before Initialize.
func (h *HashIndex) SetBitmaskSize(b uint) error {
	if h.data != nil {
		return fmt.Errorf("hashindex: SetBitmaskSize called after Initialize")
	}
	if b < MinBitmaskSize || b > MaxBitmaskSize {
		return fmt.Errorf("hashindex: bitmask size %d out of range [%d,%d]", b, MinBitmaskSize, MaxBitmaskSize)
	}
	h.bitmask = b
	return nil
}

// Initialize binds data as rowWidth-byte records whose digest window is
// data[i*rowWidth+digestOffset : +digestLen], optionally sorts it in place
// by that window, and builds the bucket table.
func (h *HashIndex) Initialize(data []byte, digestLen, digestOffset, rowWidth int, sortInPlace bool) error {
	if rowWidth <= 0 || len(data)%rowWidth != 0 {
		return fmt.Errorf("hashindex: data length %d is not a multiple of row width %d", len(data), rowWidth)
	}
	if digestLen < 4 || digestOffset+digestLen > rowWidth {
		return fmt.Errorf("hashindex: digest window [%d,%d) does not fit in row width %d", digestOffset, digestOffset+digestLen, rowWidth)
	}

	h.data = data
	h.rowWidth = rowWidth
	h.digestOffset = digestOffset
	h.digestLen = digestLen
	h.count = len(data) / rowWidth
	h.offsets = nil
	h.lengths = nil
	h.linear = h.count < LinearThreshold

	if sortInPlace {
		h.Sort()
	}
	if h.linear {
		return nil
	}
	return h.build()
}

// Sort reorders the bound region in place by its digest window, preserving
// relative order among equal keys.
func (h *HashIndex) Sort() {
	sort.Stable(rowSorter{h})
}

// rowSorter adapts HashIndex to sort.Interface, swapping whole rowWidth-byte
// rows in the underlying region rather than any auxiliary index.
type rowSorter struct{ h *HashIndex }

func (s rowSorter) Len() int { return s.h.count }

func (s rowSorter) Less(i, j int) bool {
	return bytes.Compare(s.h.keyAt(i), s.h.keyAt(j)) < 0
}

func (s rowSorter) Swap(i, j int) {
	if i == j {
		return
	}
	h := s.h
	tmp := make([]byte, h.rowWidth)
	ri, rj := h.rowAt(i), h.rowAt(j)
	copy(tmp, ri)
	copy(ri, rj)
	copy(rj, tmp)
}

func (h *HashIndex) keyAt(i int) []byte {
	off := i*h.rowWidth + h.digestOffset
	return h.data[off : off+h.digestLen]
}

func (h *HashIndex) rowAt(i int) []byte {
	off := i * h.rowWidth
	return h.data[off : off+h.rowWidth]
}

func (h *HashIndex) prefixOf(key []byte) int {
	v := binary.BigEndian.Uint32(key[:4])
	return int(v >> (32 - h.bitmask))
}

func (h *HashIndex) prefixAt(i int) int {
	return h.prefixOf(h.keyAt(i))
}

// build implements the sparse-sampling + backfill bucket algorithm
// described in spec.md §4.3. It must be reproduced exactly: the sampling
// stride, the backfill order, and the length derivation all affect which
// buckets end up empty versus merged with a neighbor.
func (h *HashIndex) build() error {
	n := h.count
	numBuckets := 1 << h.bitmask
	offsets := make([]int, numBuckets)
	for i := range offsets {
		offsets[i] = sentinel
	}

	stride := n / (1 << h.bitmask)
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < n; i += stride {
		p := h.prefixAt(i)
		if i < offsets[p] {
			offsets[p] = i
		}
	}
	if last := n - 1; last >= 0 {
		p := h.prefixAt(last)
		if last < offsets[p] {
			offsets[p] = last
		}
	}

	for {
		progress := false
		for p := 0; p < numBuckets; p++ {
			o := offsets[p]
			if o == sentinel || o == 0 {
				continue
			}
			prevIdx := o - 1
			pp := h.prefixAt(prevIdx)
			switch {
			case pp == p:
				offsets[p] = prevIdx
				progress = true
			case offsets[pp] == sentinel:
				offsets[pp] = prevIdx
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	lengths := make([]int, numBuckets)
	lastNonEmpty := -1
	for p := 0; p < numBuckets; p++ {
		if offsets[p] == sentinel {
			continue
		}
		if lastNonEmpty >= 0 {
			lengths[lastNonEmpty] = offsets[p] - offsets[lastNonEmpty]
		}
		lastNonEmpty = p
	}
	if lastNonEmpty >= 0 {
		lengths[lastNonEmpty] = n - offsets[lastNonEmpty]
	}

	sum := 0
	for _, l := range lengths {
		sum += l
	}
	if sum != n {
		return fmt.Errorf("hashindex: bucket length sum %d does not match record count %d", sum, n)
	}

	h.offsets = offsets
	h.lengths = lengths
	return nil
}

// Find returns the row index whose digest window equals key, if any.
func (h *HashIndex) Find(key []byte) (int, bool) {
	if h.linear {
		return h.FindLinear(key)
	}

	p := h.prefixOf(key)
	lo, n := h.offsets[p], h.lengths[p]
	if n == 0 {
		return 0, false
	}
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(h.keyAt(lo+i), key) >= 0
	})
	if i < n && bytes.Equal(h.keyAt(lo+i), key) {
		return lo + i, true
	}
	return 0, false
}

func (h *HashIndex) Lookup(key []byte) bool {
	_, ok := h.Find(key)
	return ok
}

// FindLinear scans the whole region; used automatically below
// LinearThreshold and available directly for comparison/testing.
func (h *HashIndex) FindLinear(key []byte) (int, bool) {
	for i := 0; i < h.count; i++ {
		if bytes.Equal(h.keyAt(i), key) {
			return i, true
		}
	}
	return 0, false
}

func (h *HashIndex) LookupLinear(key []byte) bool {
	_, ok := h.FindLinear(key)
	return ok
}

func (h *HashIndex) Count() int { return h.count }

// Row returns the full record at index i, including fields outside the
// digest window (e.g. the paired startpoint for an endpoint index).
func (h *HashIndex) Row(i int) []byte { return h.rowAt(i) }
