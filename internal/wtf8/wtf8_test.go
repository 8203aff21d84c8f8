package wtf8

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	for _, s := range [][]uint16{
		{},
		utf16.Encode([]rune(`data\foo.dat`)),
		utf16.Encode([]rune(`mods\ロックマン\exe1.dat`)),
		utf16.Encode([]rune("\U0001F600.dat")),
		{'a', 0x5c, 0xd800, '.', 'd'},
		{0xdc00, 0xd800},
		{0xd83d},
		{0xdfff, 'x'},
	} {
		assert.Equal(t, s, ToUTF16(FromUTF16(s)), "%#04x", s)
	}
}

func TestFromUTF16(t *testing.T) {
	assert.Equal(t, "café", FromUTF16(utf16.Encode([]rune("café"))))
	assert.Equal(t, "\U0001F600", FromUTF16([]uint16{0xd83d, 0xde00}))
	assert.Equal(t, "a\xed\xa0\x80b", FromUTF16([]uint16{'a', 0xd800, 'b'}))
	assert.Equal(t, "\xed\xb0\x80", FromUTF16([]uint16{0xdc00}))
}

func TestToUTF16Invalid(t *testing.T) {
	assert.Equal(t, []uint16{'a', 0xfffd, 'b'}, ToUTF16("a\xffb"))
	// a truncated surrogate form is not kept
	assert.Equal(t, []uint16{0xfffd, 0xfffd}, ToUTF16("\xed\xa0"))
}
