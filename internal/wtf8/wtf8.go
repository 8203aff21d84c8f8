// Package wtf8 converts UTF-16 names to strings and back without loss.
// Unpaired surrogates, which Windows file names may contain, are kept as
// their three byte generalized UTF-8 form instead of becoming U+FFFD.
package wtf8

import (
	"unicode/utf16"
	"unicode/utf8"
)

const (
	surr1    = 0xd800
	surr2    = 0xdc00
	surr3    = 0xe000
	runeSelf = 0x80
)

// FromUTF16 decodes s. Valid pairs become one code point.
func FromUTF16(s []uint16) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		switch {
		case c < runeSelf:
			buf = append(buf, byte(c))
		case surr1 <= c && c < surr2 && i+1 < len(s) && surr2 <= s[i+1] && s[i+1] < surr3:
			buf = utf8.AppendRune(buf, utf16.DecodeRune(c, rune(s[i+1])))
			i++
		case surr1 <= c && c < surr3:
			buf = append(buf, 0xe0|byte(c>>12), 0x80|byte(c>>6)&0x3f, 0x80|byte(c)&0x3f)
		default:
			buf = utf8.AppendRune(buf, c)
		}
	}
	return string(buf)
}

// ToUTF16 encodes s, turning encoded surrogates back into single units.
// Bytes that are not valid in either form become U+FFFD.
func ToUTF16(s string) []uint16 {
	out := make([]uint16, 0, len(s)+1)
	for i := 0; i < len(s); {
		if s[i] < runeSelf {
			out = append(out, uint16(s[i]))
			i++
			continue
		}
		if s[i] == 0xed && i+2 < len(s) && s[i+1]&0xe0 == 0xa0 && s[i+2]&0xc0 == 0x80 {
			out = append(out, 0xd000|uint16(s[i+1]&0x3f)<<6|uint16(s[i+2]&0x3f))
			i += 3
			continue
		}
		r, n := utf8.DecodeRuneInString(s[i:])
		out = utf16.AppendRune(out, r)
		i += n
	}
	return out
}
