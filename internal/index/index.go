// Package index defines the integer type used to name positions in a
// keyspace. The default build uses a native uint64 (spec.md §9: "default to
// 64-bit and hard-fail during configuration validation if
// I(max+1) > u64::MAX"). Build with `-tags bigint` to switch to an
// arbitrary-precision backend (index_bigint.go) for charsets/lengths that
// would overflow 64 bits.
package index

// Index is the integer type naming a point in [0, k^(maxlen+1)-1]. The
// concrete representation is chosen at compile time by build tag; callers
// must not assume a bit width.
type Index = nativeIndex

// FromU64 converts a machine word into an Index.
func FromU64(v uint64) Index { return nativeFromU64(v) }

// MaxU64 returns the largest uint64 value as an Index.
func MaxU64() Index { return nativeMaxU64() }
