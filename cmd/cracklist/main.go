// Command cracklist is a streaming brute-force cracker: it loads a
// newline-separated hex digest list into a HashIndex and enumerates
// candidate plaintexts over a charset/length range, batching digests
// through the same LaneDriver the rainbow core uses (SimdCrack's "CrackList"
// mode in original_source, out of scope for correctness tuning per spec.md
// §1). It shares charset, hashindex, and lane-driver code with the rest of
// the module rather than reimplementing them.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
	"github.com/blackforge/rainbowcrack/internal/hashindex"
)

func main() { os.Exit(run()) }

func run() int {
	fs := flag.NewFlagSet("cracklist", flag.ContinueOnError)
	algorithm := fs.String("algorithm", "md5", "digest algorithm")
	min := fs.Int("min", 1, "minimum candidate length")
	max := fs.Int("max", 6, "maximum candidate length")
	charsetName := fs.String("charset", "lower", "charset preset name or raw charset")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}
	args := fs.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: cracklist [options] hashlist.txt")
		return 1
	}

	alg, err := hashalgo.Parse(*algorithm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	set, err := resolveCharset(*charsetName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	lines, err := readLines(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	digestLen := alg.Size()
	const payloadWidth = 4
	rowWidth := digestLen + payloadWidth
	data := make([]byte, 0, len(lines)*rowWidth)
	for i, line := range lines {
		digest, err := hex.DecodeString(line)
		if err != nil || len(digest) != digestLen {
			fmt.Fprintf(os.Stderr, "cracklist: skipping malformed digest %q\n", line)
			continue
		}
		row := make([]byte, rowWidth)
		copy(row, digest)
		binary.LittleEndian.PutUint32(row[digestLen:], uint32(i))
		data = append(data, row...)
	}

	hi := hashindex.New()
	if err := hi.Initialize(data, digestLen, 0, rowWidth, true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	found := make(map[int]string, len(lines))
	driver := hashalgo.NewLaneDriver(alg)
	gen := charset.NewWordGenerator(set)

	remaining := len(lines)
	for length := *min; length <= *max && remaining > 0; length++ {
		lo := charset.WordLengthIndexU64(length, set)
		hi64 := charset.WordLengthIndexU64(length+1, set)
		remaining = enumerateRange(gen, driver, hi, lo, hi64, digestLen, rowWidth, found, remaining, os.Stdout, lines)
		if remaining == 0 {
			break
		}
	}

	for i, line := range lines {
		if _, ok := found[i]; !ok {
			fmt.Fprintf(os.Stderr, "not found: %s\n", line)
		}
	}
	return 0
}

// enumerateRange sweeps [lo, hiExclusive) in lane-sized batches, printing
// "digest:plaintext" for every fresh hit and returning the updated
// remaining-target count.
func enumerateRange(gen *charset.WordGenerator, driver *hashalgo.LaneDriver, hi *hashindex.HashIndex,
	lo, hiExclusive uint64, digestLen, rowWidth int, found map[int]string, remaining int,
	out *os.File, lines []string,
) int {
	lanes := uint64(driver.Lanes)
	for n := lo; n < hiExclusive && remaining > 0; n += lanes {
		width := lanes
		if n+width > hiExclusive {
			width = hiExclusive - n
		}
		candidates := make([][]byte, width)
		words := make([]string, width)
		for i := uint64(0); i < width; i++ {
			words[i] = gen.EncodeU64(n + i)
			candidates[i] = []byte(words[i])
		}
		digests := driver.Batch(candidates)
		for i, d := range digests {
			row, ok := hi.Find(d)
			if !ok {
				continue
			}
			payload := hi.Row(row)[digestLen : digestLen+4]
			idx := int(binary.LittleEndian.Uint32(payload))
			if _, seen := found[idx]; seen {
				continue
			}
			found[idx] = words[i]
			remaining--
			fmt.Fprintf(out, "%s:%s\n", lines[idx], words[i])
		}
	}
	return remaining
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func resolveCharset(name string) (charset.Charset, error) {
	if set, err := charset.Parse(name); err == nil {
		return set, nil
	}
	return charset.Charset(name), nil
}
