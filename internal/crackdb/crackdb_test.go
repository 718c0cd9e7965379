package crackdb_test

import (
	"testing"

	"github.com/blackforge/rainbowcrack/internal/crackdb"
	"github.com/stretchr/testify/assert"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []struct {
		index  uint32
		length uint8
		hash   [6]byte
	}{
		{0, 0, [6]byte{}},
		{1, 1, [6]byte{1, 2, 3, 4, 5, 6}},
		{1<<26 - 1, 1<<6 - 1, [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{12345, 8, [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}},
	}
	for _, c := range cases {
		r := crackdb.Pack(c.index, c.length, c.hash)
		gotIndex, gotLength, gotHash := crackdb.Unpack(r)
		assert.Equal(t, c.index, gotIndex)
		assert.Equal(t, c.length, gotLength)
		assert.Equal(t, c.hash, gotHash)
	}
}

func TestPackRejectsOversizedFields(t *testing.T) {
	assert.Panics(t, func() { crackdb.Pack(1<<26, 0, [6]byte{}) })
	assert.Panics(t, func() { crackdb.Pack(0, 1<<6, [6]byte{}) })
}

func TestLessOrdersByHashPrefix(t *testing.T) {
	a := crackdb.Pack(0, 0, [6]byte{0, 0, 0, 0, 0, 1})
	b := crackdb.Pack(0, 0, [6]byte{0, 0, 0, 0, 0, 2})
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}
