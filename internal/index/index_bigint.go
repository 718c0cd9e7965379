//go:build bigint

package index

import "math/big"

// nativeIndex is the arbitrary-precision backend for Index, selected with
// `-tags bigint` for charset/length combinations whose keyspace exceeds
// 64 bits (spec.md §9). Built on the standard library's math/big: no
// third-party arbitrary-precision library appears anywhere in the example
// pack, and big.Int already satisfies every operation spec.md §1 requires
// of an injected bigint (+ - * / %, comparison, exponentiation, u64
// conversion, unsigned-bytes import). See DESIGN.md.
type nativeIndex struct{ v big.Int }

func nativeFromU64(v uint64) nativeIndex {
	var n nativeIndex
	n.v.SetUint64(v)
	return n
}

func nativeMaxU64() nativeIndex {
	var n nativeIndex
	n.v.SetUint64(^uint64(0))
	return n
}

func (i nativeIndex) Add(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Add(&i.v, &o.v)
	return r
}

func (i nativeIndex) Sub(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Sub(&i.v, &o.v)
	return r
}

func (i nativeIndex) Mul(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Mul(&i.v, &o.v)
	return r
}

func (i nativeIndex) Div(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Div(&i.v, &o.v)
	return r
}

func (i nativeIndex) Mod(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Mod(&i.v, &o.v)
	return r
}

func (i nativeIndex) Xor(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.Xor(&i.v, &o.v)
	return r
}

func (i nativeIndex) And(o nativeIndex) nativeIndex {
	var r nativeIndex
	r.v.And(&i.v, &o.v)
	return r
}

func (i nativeIndex) Cmp(o nativeIndex) int { return i.v.Cmp(&o.v) }

func (i nativeIndex) Uint64() uint64 { return i.v.Uint64() }

func (i nativeIndex) IsZero() bool { return i.v.Sign() == 0 }

func (i nativeIndex) Exp(exp uint) (nativeIndex, bool) {
	var r nativeIndex
	e := new(big.Int).SetUint64(uint64(exp))
	r.v.Exp(&i.v, e, nil)
	return r, false // big.Int never overflows
}

func (i nativeIndex) AddOverflows(nativeIndex) bool { return false }

func SetBytes(buf []byte) nativeIndex {
	var n nativeIndex
	n.v.SetBytes(buf)
	return n
}

func (i nativeIndex) String() string { return i.v.String() }
