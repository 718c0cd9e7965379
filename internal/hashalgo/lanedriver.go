package hashalgo

import "sync"

// LaneDriver batches digest computations across LaneCount() goroutines,
// standing in for the reference tool's fixed-width SIMD lanes (spec.md
// §2). Results always match Single called one at a time; only the wall
// clock differs.
type LaneDriver struct {
	Algorithm Algorithm
	Lanes     int
}

func NewLaneDriver(alg Algorithm) *LaneDriver {
	return &LaneDriver{Algorithm: alg, Lanes: LaneCount()}
}

// Batch computes Single(d.Algorithm, msgs[i]) for every i, splitting the
// work across d.Lanes goroutines. The returned slice preserves msgs' order.
func (d *LaneDriver) Batch(msgs [][]byte) [][]byte {
	out := make([][]byte, len(msgs))
	if len(msgs) == 0 {
		return out
	}

	lanes := d.Lanes
	if lanes < 1 {
		lanes = 1
	}
	if lanes > len(msgs) {
		lanes = len(msgs)
	}

	var wg sync.WaitGroup
	chunk := (len(msgs) + lanes - 1) / lanes
	for lo := 0; lo < len(msgs); lo += chunk {
		hi := lo + chunk
		if hi > len(msgs) {
			hi = len(msgs)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = Single(d.Algorithm, msgs[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
