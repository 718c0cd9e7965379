// Package executive implements ExecutiveLoop: the single entry point that
// validates a configuration and drives one action end to end over one
// TableFile (spec.md §4.8).
package executive

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/hashalgo"
)

// Action names accepted on the command line (spec.md §6).
const (
	ActionBuild      = "build"
	ActionResume     = "resume"
	ActionCrack      = "crack"
	ActionTest       = "test"
	ActionInfo       = "info"
	ActionCompress   = "compress"
	ActionDecompress = "decompress"
	ActionSort       = "sort"
)

// ReducerKind selects a member of the reducer family (spec.md §4.2).
const (
	ReducerHybrid = "hybrid"
	ReducerModulo = "modulo"
	ReducerBasic  = "basic"
	ReducerByte   = "bytewise"
)

// Config is the fully-resolved set of parameters for one ExecutiveLoop run.
// Every cmd/* front end parses its own flags into one of these and lets
// validator enforce spec §4.8's "validated completely before starting"
// requirement mechanically.
type Config struct {
	Action string `validate:"required,oneof=build resume crack test info compress decompress sort"`

	Path string `validate:"required"`
	Dst  string // compress/decompress destination path

	// Algorithm/Min/Max/Length/Charset name the keyspace and are only
	// meaningful for a fresh build: every other action reads them back out
	// of the table's own header (spec.md §6's CLI table gives resume,
	// crack, test, compress, and decompress no --algorithm/--charset/--min/
	// --max options at all).
	Algorithm string `validate:"required_if=Action build"`
	Min       int    `validate:"required_if=Action build,gte=0,ltefield=Max"`
	Max       int    `validate:"required_if=Action build"`
	Length    int    `validate:"required_if=Action build"`
	Charset   string `validate:"required_if=Action build"`
	Reducer   string `validate:"omitempty,oneof=hybrid modulo basic bytewise"`
	TableType string `validate:"omitempty,oneof=compressed uncompressed"`

	Count      int64 `validate:"gte=0"`
	Threads    int   `validate:"gte=0"`
	BlockSize  int   `validate:"omitempty,gt=0"`
	StartBlock int64 `validate:"gte=0"`

	BitmaskSize uint `validate:"omitempty,gte=1,lte=24"`
	NoIndex     bool

	Target    string // hex digest, "crack" action
	Plaintext string // "test" action

	FoundSep string // separator between digest and plaintext in batch output
}

// ConfigError wraps a validator failure with the single-line human message
// spec.md §7 requires for configuration errors.
type ConfigError struct{ err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error: %s", e.err) }
func (e *ConfigError) Unwrap() error { return e.err }

var validate = validator.New()

// Validate enforces every rule in spec.md §4.8 before any I/O: non-empty
// path, non-zero min/max/length, a supported algorithm, a positive block
// size, and a non-empty charset. For a build it also parses the algorithm
// and charset and rejects a keyspace that overflows the Index backend. The
// blocksize-vs-lane-count check is not done here: builder.New makes it,
// since it needs a LaneDriver.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConfigError{err: err}
	}
	if c.Action == ActionBuild {
		if c.Length < 1 {
			return &ConfigError{err: fmt.Errorf("length %d must be at least 1", c.Length)}
		}
		if _, err := hashalgo.Parse(c.Algorithm); err != nil {
			return &ConfigError{err: err}
		}
		if c.Max < c.Min {
			return &ConfigError{err: fmt.Errorf("max %d is below min %d", c.Max, c.Min)}
		}
		set, err := resolveCharset(c.Charset)
		if err != nil {
			return &ConfigError{err: err}
		}
		if charset.WordLengthIndexOverflows(c.Max+1, set) {
			return &ConfigError{err: fmt.Errorf("keyspace I(%d) over charset of size %d overflows the selected Index backend; lower --max, shrink --charset, or build with -tags bigint", c.Max+1, len(set))}
		}
	}
	return nil
}

// resolveCharset accepts a preset name first and falls back to treating the
// string as a literal, ordered charset if it names no known preset, the
// "NAME-or-raw" form spec.md §6 documents for --charset. An unknown preset
// name that also fails as a raw charset (empty, or containing a duplicate
// byte) is a configuration error, never a silent ASCII fallback.
func resolveCharset(s string) (charset.Charset, error) {
	if set, err := charset.Parse(s); err == nil {
		return set, nil
	}
	if s == "" {
		return "", fmt.Errorf("charset: empty raw charset")
	}
	seen := make(map[byte]bool, len(s))
	for i := 0; i < len(s); i++ {
		if seen[s[i]] {
			return "", fmt.Errorf("charset: raw charset %q has duplicate byte %q", s, s[i])
		}
		seen[s[i]] = true
	}
	return charset.Charset(s), nil
}
