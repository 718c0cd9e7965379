// Command crackdb builds and queries a minimal CrackDB-style word/hash
// store: build scans a wordlist into length-bucketed word files plus one
// sorted .db of packed HashRecords, and lookup binary-searches that .db the
// same way internal/hashindex searches a rainbow table's endpoints.
package main

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/blackforge/rainbowcrack/internal/crackdb"
)

func main() { os.Exit(run()) }

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: crackdb build wordlist.txt outdir | crackdb lookup outdir hexdigest")
		return 1
	}
	switch os.Args[1] {
	case "build":
		return runBuild(os.Args[2:])
	case "lookup":
		return runLookup(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "crackdb: unknown subcommand %q\n", os.Args[1])
		return 1
	}
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: crackdb build wordlist.txt outdir")
		return 1
	}
	wordlistPath, outdir := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(wordlistPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer f.Close()

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	buckets := make(map[uint8]*os.File)
	defer func() {
		for _, bf := range buckets {
			bf.Close()
		}
	}()

	var records []crackdb.HashRecord
	bucketIdx := make(map[uint8]uint32)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := scanner.Text()
		if word == "" {
			continue
		}
		length := uint8(len(word))
		bf, ok := buckets[length]
		if !ok {
			bf, err = os.Create(fmt.Sprintf("%s/words-%d.txt", outdir, length))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 2
			}
			buckets[length] = bf
		}
		if _, err := fmt.Fprintln(bf, word); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}

		idx := bucketIdx[length]
		if idx > 1<<26-1 {
			fmt.Fprintln(os.Stderr, "crackdb: a length bucket exceeds the 26-bit index space")
			return 2
		}
		sum := md5.Sum([]byte(word))
		var prefix [6]byte
		copy(prefix[:], sum[:6])
		records = append(records, crackdb.Pack(idx, length, prefix))
		bucketIdx[length] = idx + 1
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Less(records[j]) })

	dbPath := outdir + "/hashes.db"
	dbFile, err := os.Create(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer dbFile.Close()
	for _, r := range records {
		if _, err := dbFile.Write(r[:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	fmt.Fprintf(os.Stderr, "wrote %d records to %s across %d length buckets\n", len(records), dbPath, len(buckets))
	return 0
}

func runLookup(args []string) int {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: crackdb lookup outdir hexdigest")
		return 1
	}
	outdir, target := fs.Arg(0), fs.Arg(1)

	targetBytes, err := hex.DecodeString(target)
	if err != nil || len(targetBytes) < 6 {
		fmt.Fprintln(os.Stderr, "crackdb: target must be at least a 6-byte hex prefix")
		return 1
	}
	var want [6]byte
	copy(want[:], targetBytes[:6])

	data, err := os.ReadFile(outdir + "/hashes.db")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if len(data)%crackdb.RecordWidth != 0 {
		fmt.Fprintln(os.Stderr, "crackdb: hashes.db has a truncated record")
		return 2
	}
	count := len(data) / crackdb.RecordWidth

	needle := crackdb.Pack(0, 0, want)
	i := sort.Search(count, func(i int) bool {
		var r crackdb.HashRecord
		copy(r[:], data[i*crackdb.RecordWidth:(i+1)*crackdb.RecordWidth])
		return !r.Less(needle)
	})
	if i >= count {
		fmt.Println("not found")
		return 1
	}
	var r crackdb.HashRecord
	copy(r[:], data[i*crackdb.RecordWidth:(i+1)*crackdb.RecordWidth])
	rowIdx, length, hash := crackdb.Unpack(r)
	if hash != want {
		fmt.Println("not found")
		return 1
	}

	word, err := findWord(outdir, length, rowIdx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Printf("%s:%s\n", target, word)
	return 0
}

// findWord recovers the plaintext at rowIdx within the length-length word
// file by re-scanning it. build() assigns each word a per-bucket index in
// append order, so rowIdx is simply that word's line number in
// words-<length>.txt.
func findWord(outdir string, length uint8, rowIdx uint32) (string, error) {
	f, err := os.Open(fmt.Sprintf("%s/words-%d.txt", outdir, length))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var seen uint32
	for scanner.Scan() {
		word := scanner.Text()
		if seen == rowIdx {
			return word, nil
		}
		seen++
	}
	return "", fmt.Errorf("crackdb: index %d not found in length-%d bucket", rowIdx, length)
}
