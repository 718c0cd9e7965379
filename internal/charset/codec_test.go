package charset_test

import (
	"testing"

	"github.com/blackforge/rainbowcrack/internal/charset"
	"github.com/blackforge/rainbowcrack/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerSet(t *testing.T) charset.Charset {
	t.Helper()
	cs, err := charset.Parse(charset.Lower)
	require.NoError(t, err)
	return cs
}

// E1/E2 from spec.md §8: encode is the bijective base-k numeral system, so
// index 0 is the empty word and every length-L block of indices is
// contiguous and starts right after the previous length's last index.
func TestLowerCodecLiterals(t *testing.T) {
	w := charset.NewWordGenerator(lowerSet(t))

	assert.Equal(t, "", w.Encode(index.FromU64(0)))
	assert.Equal(t, "a", w.Encode(index.FromU64(1)))
	assert.Equal(t, "z", w.Encode(index.FromU64(26)))
	assert.Equal(t, "aa", w.Encode(index.FromU64(27)))
	assert.Equal(t, "ab", w.Encode(index.FromU64(28)))

	assert.Equal(t, uint64(1), w.WordLengthIndexU64(1))
	assert.Equal(t, uint64(27), w.WordLengthIndexU64(2))
	assert.Equal(t, uint64(703), w.WordLengthIndexU64(3))

	assert.Equal(t, uint64(1), w.Decode64("a"))
	assert.Equal(t, uint64(26), w.Decode64("z"))
	assert.Equal(t, uint64(27), w.Decode64("aa"))
	assert.Equal(t, uint64(28), w.Decode64("ab"))
}

func TestCodecBijection(t *testing.T) {
	for _, name := range []string{charset.Lower, charset.Upper, charset.Alpha, charset.Numeric,
		charset.AsciiSpecial, charset.Alnum, charset.Ascii, charset.Common, charset.CommonShort} {
		cs, err := charset.Parse(name)
		require.NoError(t, err)
		w := charset.NewWordGenerator(cs)

		for n := uint64(0); n < 5000; n++ {
			s := w.EncodeU64(n)
			assert.Equal(t, n, w.Decode64(s), "preset=%s n=%d", name, n)

			rs := w.EncodeReversedU64(n)
			assert.Equal(t, n, w.DecodeReversed64(rs), "preset=%s n=%d reversed", name, n)
		}
	}
}

func TestWordLengthBoundary(t *testing.T) {
	cs := lowerSet(t)
	w := charset.NewWordGenerator(cs)

	for length := 1; length <= 12; length++ {
		nextBoundary := w.WordLengthIndexU64(length + 1)
		lastOfLength := nextBoundary - 1
		word := w.EncodeU64(lastOfLength)
		require.Len(t, word, length)
		for _, c := range word {
			assert.Equal(t, cs.At(cs.Len()-1), byte(c))
		}
	}
}

func TestUnknownPresetErrors(t *testing.T) {
	_, err := charset.Parse("not-a-real-preset")
	assert.ErrorIs(t, err, charset.ErrUnknownPreset)
}

func TestEncodeZeroIsEmpty(t *testing.T) {
	w := charset.NewWordGenerator(lowerSet(t))
	assert.Equal(t, "", w.Encode(index.FromU64(0)))
	assert.Equal(t, uint64(0), w.Decode64(""))
}
