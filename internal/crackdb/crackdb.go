// Package crackdb implements the packed HashRecord layout CrackDB uses to
// store a word-index, its length, and a truncated hash prefix in ten bytes
// (spec.md §3, "HashRecord"). CrackDB's build/lookup behavior itself is out
// of scope, but the packing rules are required to round-trip bit-exact.
package crackdb

import "encoding/binary"

const (
	indexBits  = 26
	lengthBits = 6
	indexMask  = 1<<indexBits - 1
	lengthMask = 1<<lengthBits - 1

	// RecordWidth is 4 bytes of packed Index|Length plus a 6-byte hash
	// prefix.
	RecordWidth = 10
)

// HashRecord is the packed on-disk record: Index:26 | Length:6 | Hash:6 bytes.
type HashRecord [RecordWidth]byte

// Pack encodes a word-store index, its word length, and a 6-byte hash
// prefix into one HashRecord. index must fit in 26 bits and length in 6.
func Pack(index uint32, length uint8, hash [6]byte) HashRecord {
	if index > indexMask {
		panic("crackdb: index exceeds 26 bits")
	}
	if length > lengthMask {
		panic("crackdb: length exceeds 6 bits")
	}

	var r HashRecord
	packed := (index & indexMask) | uint32(length&lengthMask)<<indexBits
	binary.LittleEndian.PutUint32(r[0:4], packed)
	copy(r[4:10], hash[:])
	return r
}

// Unpack reverses Pack.
func Unpack(r HashRecord) (index uint32, length uint8, hash [6]byte) {
	packed := binary.LittleEndian.Uint32(r[0:4])
	index = packed & indexMask
	length = uint8(packed >> indexBits)
	copy(hash[:], r[4:10])
	return
}

// Less orders two records by their hash prefix, the field
// cmd/crackdb's lookup binary-searches on.
func (r HashRecord) Less(other HashRecord) bool {
	for i := 4; i < RecordWidth; i++ {
		if r[i] != other[i] {
			return r[i] < other[i]
		}
	}
	return false
}
