package builder

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/dterei/gotsc"
	"github.com/p7r0x7/vainpath"
)

// Status renders the rolling build/resume progress line: percent complete
// (when the run is bounded), chain and hash throughput, and, on amd64,
// cycles per hash estimated from a background TSC sampler the way
// statz/main.go estimates CPU frequency for its own throughput reports.
type Status struct {
	path   string
	start  time.Time
	hz     chan float64
	stopHz chan struct{}
	lastHz float64
}

// NewStatus starts a Status for the table at path. Call Stop when the build
// finishes to release the background TSC sampler goroutine.
func NewStatus(path string) *Status {
	s := &Status{
		path:   vainpath.Trim(path, "…", 40),
		start:  time.Now(),
		hz:     make(chan float64, 1),
		stopHz: make(chan struct{}),
	}
	if runtime.GOARCH == "amd64" {
		go s.sampleHz()
	}
	return s
}

// sampleHz estimates the host's TSC frequency in Hz by timing a fixed
// sleep against gotsc's cycle counter, refreshing the estimate roughly once
// a second until Stop is called.
func (s *Status) sampleHz() {
	overhead := gotsc.TSCOverhead()
	for {
		select {
		case <-s.stopHz:
			return
		default:
		}
		tsc1 := gotsc.BenchStart()
		time.Sleep(20 * time.Millisecond)
		tsc2 := gotsc.BenchEnd()
		hz := float64(tsc2-tsc1-overhead) * 50 // cycles per 20ms, scaled to Hz
		select {
		case s.hz <- hz:
		default:
			select {
			case <-s.hz:
			default:
			}
			s.hz <- hz
		}
		time.Sleep(980 * time.Millisecond)
	}
}

// Stop releases the background sampler, if one was started.
func (s *Status) Stop() {
	if runtime.GOARCH == "amd64" {
		close(s.stopHz)
	}
}

// Emit writes one "\r"-prefixed status line. block/maxBlocks report percent
// complete when maxBlocks > 0 (a bounded build); an unbounded build omits
// the percentage.
func (s *Status) Emit(w io.Writer, chains, hashes int64, block, maxBlocks int64) {
	select {
	case hz := <-s.hz:
		s.lastHz = hz
	default:
	}

	secs := time.Since(s.start).Seconds()
	if secs <= 0 {
		secs = 1e-9
	}
	chainRate := float64(chains) / secs
	hashRate := float64(hashes) / secs

	cpb := ""
	if s.lastHz > 0 && hashRate > 0 {
		cpb = fmt.Sprintf("  %.0f cyc/hash", s.lastHz/hashRate)
	}

	if maxBlocks > 0 {
		pct := 100 * float64(block) / float64(maxBlocks)
		fmt.Fprintf(w, "\r%s  %.1f%%  %d chains  %.0f chains/s  %.0f hashes/s%s",
			s.path, pct, chains, chainRate, hashRate, cpb)
		return
	}
	fmt.Fprintf(w, "\r%s  %d chains  %.0f chains/s  %.0f hashes/s%s",
		s.path, chains, chainRate, hashRate, cpb)
}
