package symbols

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/pkg/errors"
)

type peFile struct {
	pe *pe.File
}

func openPE(r io.ReaderAt) (rawFile, error) {
	if err := checkPE(r); err != nil {
		return nil, err
	}
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &peFile{f}, nil
}

var errNotPE = errors.New("not a PE image")

// checkPE looks for the DOS stub and the PE signature it points to.
// debug/pe accepts readers with neither.
func checkPE(r io.ReaderAt) error {
	var dos [0x40]byte
	if _, err := r.ReadAt(dos[:], 0); err != nil || dos[0] != 'M' || dos[1] != 'Z' {
		return errNotPE
	}
	var sign [4]byte
	off := int64(binary.LittleEndian.Uint32(dos[0x3c:]))
	if _, err := r.ReadAt(sign[:], off); err != nil || string(sign[:]) != "PE\x00\x00" {
		return errNotPE
	}
	return nil
}

// Text describes the code section of a PE image.
type Text struct {
	Name           string
	ImageBase      uint64
	VirtualAddress uint32
	VirtualSize    uint32
	// file offset of the raw data
	Offset uint32

	section *pe.Section
}

func (f *peFile) Text() (*Text, error) {
	var imageBase uint64
	switch oh := f.pe.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		imageBase = oh.ImageBase
	case *pe.OptionalHeader32:
		imageBase = uint64(oh.ImageBase)
	}
	s := f.pe.Section(".text")
	if s == nil {
		for _, c := range f.pe.Sections {
			if c.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0 {
				s = c
				break
			}
		}
	}
	if s == nil {
		return nil, ErrNoText
	}
	return &Text{
		Name:           s.Name,
		ImageBase:      imageBase,
		VirtualAddress: s.VirtualAddress,
		VirtualSize:    s.VirtualSize,
		Offset:         s.Offset,
		section:        s,
	}, nil
}

// VA is the preferred virtual address of the section start.
func (t *Text) VA() uint64 {
	return t.ImageBase + uint64(t.VirtualAddress)
}

// Data returns the section bytes as stored in the file.
func (t *Text) Data() ([]byte, error) {
	data, err := t.section.Data()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", t.Name)
	}
	if t.VirtualSize != 0 && int(t.VirtualSize) < len(data) {
		data = data[:t.VirtualSize]
	}
	return data, nil
}

// Mapped returns the section of the image loaded at base.
func (t *Text) Mapped(base uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base+uintptr(t.VirtualAddress))), t.VirtualSize)
}

func bytesReader(b []byte) io.ReaderAt {
	return bytes.NewReader(b)
}
