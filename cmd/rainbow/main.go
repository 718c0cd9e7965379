// Command rainbow drives one action (build, resume, crack, test, info,
// compress, decompress, sort) over a single rainbow table (spec.md §6).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/p7r0x7/vainpath"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/executive"
)

const (
	success = 0
	failure = 1
	ioError = 2
)

var green, red, zero = "\033[32m", "\033[31m", "\033[0m"

func main() { os.Exit(run()) }

func run() int {
	if len(os.Args) < 2 {
		usage()
		return failure
	}
	action := os.Args[1]
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	fs.SortFlags = false

	noCodes := fs.Bool("no-codes", false, "print without ANSI colour codes")

	algorithm := fs.String("algorithm", "md5", "digest algorithm (md4|md5|ntlm|sha1|sha256|sha384|sha512)")
	min := fs.Int("min", 1, "minimum plaintext length")
	max := fs.Int("max", 8, "maximum plaintext length")
	length := fs.Int("length", 10000, "chain length")
	count := fs.Int64("count", 0, "number of chains to build (0 = until interrupted)")
	threads := fs.Int("threads", 0, "worker thread count (0 = all cores)")
	blocksize := fs.Int("blocksize", 0, "chains per commit block (0 = 4096)")
	charsetName := fs.String("charset", "lower", "charset preset name or raw charset")
	reducerKind := fs.String("reducer", executive.ReducerHybrid, "reducer family (hybrid|modulo|basic|bytewise)")
	tableType := fs.String("type", "uncompressed", "table type for a new build (compressed|uncompressed)")
	bitmask := fs.Uint("bitmask", 16, "HashIndex bitmask prefix size, [1,24]")
	noIndex := fs.Bool("noindex", false, "force a linear scan instead of building a HashIndex")
	help := fs.BoolP("help", "h", false, "print this help menu")

	if err := fs.Parse(os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return success
		}
		fmt.Fprintln(os.Stderr, err)
		return failure
	}
	if *help {
		printActionUsage(action, fs)
		return success
	}
	if *noCodes || !enableANSI() {
		green, red, zero = "", "", ""
	}

	cfg := executive.Config{
		Action:      action,
		Algorithm:   *algorithm,
		Min:         *min,
		Max:         *max,
		Length:      *length,
		Charset:     *charsetName,
		Reducer:     *reducerKind,
		TableType:   *tableType,
		Count:       *count,
		Threads:     *threads,
		BlockSize:   *blocksize,
		BitmaskSize: *bitmask,
		NoIndex:     *noIndex,
		FoundSep:    ":",
	}

	args := fs.Args()
	switch action {
	case executive.ActionBuild, executive.ActionResume, executive.ActionInfo, executive.ActionSort:
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "%s: table path required\n", action)
			return failure
		}
		cfg.Path = args[0]
	case executive.ActionCrack:
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "crack: table path and target digest required")
			return failure
		}
		cfg.Path, cfg.Target = args[0], args[1]
	case executive.ActionTest:
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "test: table path and plaintext required")
			return failure
		}
		cfg.Path, cfg.Plaintext = args[0], args[1]
	case executive.ActionCompress, executive.ActionDecompress:
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "%s: source and destination paths required\n", action)
			return failure
		}
		cfg.Path, cfg.Dst = args[0], args[1]
	default:
		usage()
		return failure
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = defaultBlockSize()
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ioError
	}
	defer log.Sync()

	loop, err := executive.New(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return failure
	}

	ctx := context.Background()
	start := time.Now()
	if err := loop.Run(ctx, os.Stdout, os.Stderr); err != nil {
		var cerr *executive.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "%s%s%s\n", red, cerr, zero)
			return failure
		}
		fmt.Fprintf(os.Stderr, "%s%s%s\n", red, err, zero)
		return ioError
	}
	if action == executive.ActionBuild || action == executive.ActionResume {
		fmt.Fprintf(os.Stderr, "\n%sdone in %s%s\n", green, time.Since(start).Round(time.Millisecond), zero)
	}
	return success
}

func defaultBlockSize() int { return 4096 }

func usage() {
	origin, err := os.Executable()
	if err != nil {
		origin = "rainbow"
	} else {
		origin = filepath.Base(origin)
	}
	name := vainpath.Trim(origin, "…", 12)
	fmt.Fprintf(os.Stderr, "Rainbow-table generation and password recovery.\n\n"+
		"Usage:\n  %s <action> [options] <args...>\n\n"+
		"Actions:\n"+
		"  build      table                 build a fresh table\n"+
		"  resume     table                 continue an interrupted build\n"+
		"  crack      table digest          recover the plaintext for one digest\n"+
		"  test       table plaintext       hash a plaintext, then try to crack it\n"+
		"  info       table                 print table header fields\n"+
		"  compress   src dst               re-index src into a compressed dst\n"+
		"  decompress src dst               re-index src into an uncompressed dst\n"+
		"  sort       table                 sort a table by endpoint in place\n\n"+
		"Run `%s <action> -h` for action-specific options.\n", name, name)
}

func printActionUsage(action string, fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: rainbow %s [options] %s\n\nOptions:\n", action, strings.ToUpper(action))
	fs.PrintDefaults()
}
