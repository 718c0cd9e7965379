// Package chain implements the hash→reduce iteration loop that both closes
// a rainbow chain during build and re-walks one during crack validation
// (spec.md §3, "Chain").
package chain

import (
	"bytes"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/blackforge/rainbowcrack/internal/reduce"
)

// Params are the parameters every chain in one table shares.
type Params struct {
	Algorithm hashalgo.Algorithm
	Length    int
	Charset   charset.Charset
	Reducer   reduce.Reducer
}

// Compute runs the full w0 -> hash -> reduce -> w1 -> ... loop from a
// startpoint index and returns the resulting endpoint index.
func Compute(p Params, gen *charset.WordGenerator, startpoint index.Index) index.Index {
	word := gen.Encode(startpoint)
	buf := make([]byte, reduce.MaxWordLength)
	for i := 0; i < p.Length; i++ {
		h := hashalgo.Single(p.Algorithm, []byte(word))
		n := p.Reducer.Reduce(buf, h, uint64(i))
		word = string(buf[:n])
	}
	return gen.Decode(word)
}

// ComputeBatch advances len(startpoints) chains in lockstep, hashing all of
// them through one LaneDriver.Batch call per iteration instead of one
// hashalgo.Single call per chain. This is the hot loop TableBuilder drives:
// unlike Compute, it never calls Single directly.
func ComputeBatch(p Params, gen *charset.WordGenerator, driver *hashalgo.LaneDriver, startpoints []index.Index) []index.Index {
	words := make([]string, len(startpoints))
	for i, s := range startpoints {
		words[i] = gen.Encode(s)
	}

	msgs := make([][]byte, len(words))
	bufs := make([][]byte, len(words))
	for i := range bufs {
		bufs[i] = make([]byte, reduce.MaxWordLength)
	}

	for iter := 0; iter < p.Length; iter++ {
		for i, w := range words {
			msgs[i] = []byte(w)
		}
		hashes := driver.Batch(msgs)
		for i, h := range hashes {
			n := p.Reducer.Reduce(bufs[i], h, uint64(iter))
			words[i] = string(bufs[i][:n])
		}
	}

	endpoints := make([]index.Index, len(words))
	for i, w := range words {
		endpoints[i] = gen.Decode(w)
	}
	return endpoints
}

// Validate re-walks the chain seeded at startpoint, comparing the digest of
// every intermediate plaintext against target. It returns the plaintext
// whose hash matched and true on success. False positives from endpoint
// collisions between unrelated chains are resolved here: a chain whose
// endpoint matched during lookup may still fail every intermediate
// comparison, which is a miss, not an error.
func Validate(p Params, gen *charset.WordGenerator, startpoint index.Index, target []byte) (string, bool) {
	word := gen.Encode(startpoint)
	buf := make([]byte, reduce.MaxWordLength)
	for i := 0; i < p.Length; i++ {
		h := hashalgo.Single(p.Algorithm, []byte(word))
		if bytes.Equal(h, target) {
			return word, true
		}
		n := p.Reducer.Reduce(buf, h, uint64(i))
		word = string(buf[:n])
	}
	return "", false
}
