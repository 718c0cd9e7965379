package executive_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/executive"
	"github.com/blackforge/rainbowcrack/internal/tablefile"
)

func TestConfigValidateRejectsMissingPath(t *testing.T) {
	cfg := executive.Config{Action: executive.ActionInfo}
	err := cfg.Validate()
	assert.Error(t, err)
	var cerr *executive.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestConfigValidateRejectsUnknownAction(t *testing.T) {
	cfg := executive.Config{Action: "explode", Path: "x"}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsMaxBelowMin(t *testing.T) {
	cfg := executive.Config{
		Action: executive.ActionBuild, Path: "table.rt",
		Algorithm: "md5", Min: 5, Max: 2, Length: 10,
		Charset: "lower", BlockSize: 4,
	}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateAcceptsWellFormedBuild(t *testing.T) {
	cfg := executive.Config{
		Action: executive.ActionBuild, Path: "table.rt",
		Algorithm: "md5", Min: 1, Max: 4, Length: 10,
		Charset: "lower", BlockSize: 4,
	}
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidateRejectsOverflowingKeyspace(t *testing.T) {
	cfg := executive.Config{
		Action: executive.ActionBuild, Path: "table.rt",
		Algorithm: "md5", Min: 1, Max: 40, Length: 10,
		Charset: "alnum", BlockSize: 4,
	}
	err := cfg.Validate()
	assert.Error(t, err)
	var cerr *executive.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestConfigValidateRejectsUnknownAlgorithm(t *testing.T) {
	cfg := executive.Config{
		Action: executive.ActionBuild, Path: "table.rt",
		Algorithm: "crc32", Min: 1, Max: 4, Length: 10,
		Charset: "lower", BlockSize: 4,
	}
	assert.Error(t, cfg.Validate())
}

func TestInfoActionReportsHeaderFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.rt")
	var hdr tablefile.TableHeader
	hdr.Type = tablefile.TypeUncompressed
	hdr.Min, hdr.Max = 1, 4
	set := "abcdefghijklmnopqrstuvwxyz"
	hdr.CharsetLen = uint8(len(set))
	copy(hdr.Charset[:], set)
	hdr.Length = 10
	tf, err := tablefile.Create(path, hdr)
	require.NoError(t, err)
	require.NoError(t, tf.Flush())

	cfg := executive.Config{Action: executive.ActionInfo, Path: path}
	loop, err := executive.New(cfg, zap.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, loop.Run(context.Background(), &out, &out))
	assert.Contains(t, out.String(), "records:   0")
	assert.Contains(t, out.String(), "min:       1")
}

func TestRandomKeyspaceSampleIsDeterministic(t *testing.T) {
	set, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	var key [32]byte
	key[0] = 7

	first, err := executive.RandomKeyspaceSample(set, 4, 8, &key)
	require.NoError(t, err)
	second, err := executive.RandomKeyspaceSample(set, 4, 8, &key)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, w := range first {
		assert.LessOrEqual(t, len(w), 4)
	}
}
