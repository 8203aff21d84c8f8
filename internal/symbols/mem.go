package symbols

import (
	"io"
	"unsafe"
)

// memReader reads the headers of an image mapped at base.
type memReader struct {
	base uintptr
	size int64
}

func (m memReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= m.size {
		return 0, io.EOF
	}
	n := copy(p, unsafe.Slice((*byte)(unsafe.Pointer(m.base+uintptr(off))), m.size-off))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// headers of a mapped PE image fit in its first page
const headerWindow = 0x1000

// MappedText finds the code section of the image mapped at base.
func MappedText(base uintptr) (*Text, error) {
	return ReadText(memReader{base: base, size: headerWindow})
}
