// Package winpath cleans Windows paths lexically on any host OS.
package winpath

import "strings"

const Separator = '\\'

func isSep(c byte) bool {
	return c == '\\' || c == '/'
}

// Clean returns the shortest path equivalent to p by lexical processing
// only: separators become backslashes, "." elements and doubled
// separators are dropped, and ".." removes the element before it. Leading
// ".." elements of a relative path are kept; ".." at a root is dropped.
// The filesystem is never consulted.
func Clean(p string) string {
	vol := VolumeName(p)
	rest := p[len(vol):]
	rooted := len(rest) > 0 && isSep(rest[0])

	var out []string
	for _, elem := range strings.FieldsFunc(rest, func(r rune) bool { return r < 0x80 && isSep(byte(r)) }) {
		switch elem {
		case ".":
		case "..":
			switch {
			case len(out) > 0 && out[len(out)-1] != "..":
				out = out[:len(out)-1]
			case !rooted:
				out = append(out, "..")
			}
		default:
			out = append(out, elem)
		}
	}

	var b strings.Builder
	b.WriteString(strings.ReplaceAll(vol, "/", `\`))
	if rooted {
		b.WriteByte(Separator)
	}
	b.WriteString(strings.Join(out, `\`))
	if len(out) == 0 && !rooted {
		b.WriteByte('.')
	}
	return b.String()
}

// VolumeName returns the leading drive ("C:") or UNC share ("\\host\share") of p.
func VolumeName(p string) string {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return p[:2]
	}
	if len(p) < 5 || !isSep(p[0]) || !isSep(p[1]) || isSep(p[2]) {
		return ""
	}
	// \\host\share
	n := 3
	for n < len(p) && !isSep(p[n]) {
		n++
	}
	if n == len(p) {
		return ""
	}
	n++
	if n == len(p) || isSep(p[n]) {
		return ""
	}
	for n < len(p) && !isSep(p[n]) {
		n++
	}
	return p[:n]
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
