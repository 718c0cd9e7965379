// Command statz benchmarks internal/hashalgo's digest algorithms alongside
// blake3, xxh3, and crc64 at a few message sizes, reporting MB/s and, on
// amd64, cycles per byte via gotsc.
package main

import (
	"crypto/rand"
	"fmt"
	"hash/crc64"
	"runtime"
	"testing"
	"time"

	"github.com/dterei/gotsc"
	"github.com/zeebo/blake3"
	"github.com/zeebo/xxh3"

	"github.com/blackforge/rainbowcrack/internal/hashalgo"
)

var (
	rBytes []byte
	size   int64
	sizes  = []int64{64, 512 * 1000, 64 * 1000 * 1000}
	crcTab = crc64.MakeTable(crc64.ISO)
)

type target struct {
	name string
	run  func(b *testing.B)
}

func makeBytes(n int64) {
	rBytes = make([]byte, n)
	if _, err := rand.Read(rBytes); err != nil {
		panic("statz: failed to generate random data")
	}
}

func hashalgoBench(alg hashalgo.Algorithm) func(b *testing.B) {
	return func(b *testing.B) {
		makeBytes(size)
		b.SetBytes(size)
		b.ResetTimer()
		for i := b.N; i > 0; i-- {
			hashalgo.Single(alg, rBytes)
		}
	}
}

func targets() []target {
	return []target{
		{"MD5", hashalgoBench(hashalgo.MD5)},
		{"SHA-256", hashalgoBench(hashalgo.SHA256)},
		{"SHA-512", hashalgoBench(hashalgo.SHA512)},
		{"BLAKE3-256", func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				blake3.Sum256(rBytes)
			}
		}},
		{"XXH3-64", func(b *testing.B) {
			makeBytes(size)
			h := xxh3.New()
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				h.Reset()
				h.Write(rBytes)
				h.Sum64()
			}
		}},
		{"CRC64-ISO", func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				crc64.Checksum(rBytes, crcTab)
			}
		}},
	}
}

func runTarget(t target) {
	fmt.Printf("%-11s 64B      512K       64M\n", t.name)
	throughputs, speeds := make([]float64, len(sizes)), make([]float64, len(sizes))
	for i := range sizes {
		size = sizes[i]
		var totalHz, polls uint64
		if runtime.GOARCH == "amd64" {
			done := make(chan struct{})
			go func() {
				calltime := gotsc.TSCOverhead()
				for {
					select {
					case <-done:
						return
					default:
					}
					tsc1 := gotsc.BenchStart()
					time.Sleep(time.Millisecond)
					tsc2 := gotsc.BenchEnd()
					totalHz += (tsc2 - tsc1 - calltime) * 1000
					polls++
					time.Sleep(time.Millisecond * 19)
				}
			}()
			r := testing.Benchmark(t.run)
			close(done)
			throughputs[i] = float64(r.Bytes*int64(r.N)) / r.T.Seconds()
			if polls > 0 {
				speeds[i] = float64(totalHz) / float64(polls) / throughputs[i]
			}
			continue
		}
		r := testing.Benchmark(t.run)
		throughputs[i] = float64(r.Bytes*int64(r.N)) / r.T.Seconds()
	}

	fmt.Printf("Speed      %8.5g %8.5g %8.5g  MB/s\n",
		throughputs[0]/1e6, throughputs[1]/1e6, throughputs[2]/1e6)
	if speeds[0]+speeds[1]+speeds[2] > 0 {
		fmt.Printf("           %8.5g %8.5g %8.5g  cpb\n\n", speeds[0], speeds[1], speeds[2])
	} else {
		fmt.Println()
	}
}

func main() {
	fmt.Printf("Running statz on %d CPUs!\n\n", runtime.NumCPU())
	t := time.Now()
	for _, tg := range targets() {
		runTarget(tg)
	}
	fmt.Printf("Finished in %s on %s/%s.\n", time.Since(t).Round(time.Millisecond), runtime.GOOS, runtime.GOARCH)
}
