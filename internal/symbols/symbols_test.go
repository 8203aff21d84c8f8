package symbols

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testImageBase = 0x140000000
	testRawOffset = 0x200
	testRVA       = 0x1000
	testVSize     = 0x180
)

// fakeImage lays out a minimal PE32+ with one section. The raw data is
// filled with 0xaa and the bytes at the section's RVA with 0xbb, so file and
// mapped views can be told apart.
func fakeImage(t *testing.T, name string, characteristics uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	dos := make([]byte, 0x40)
	copy(dos, "MZ")
	binary.LittleEndian.PutUint32(dos[0x3c:], 0x40)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	var oh pe.OptionalHeader64
	fh := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(oh)),
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_LARGE_ADDRESS_AWARE,
	}
	oh.Magic = 0x20b
	oh.ImageBase = testImageBase
	oh.SectionAlignment = 0x1000
	oh.FileAlignment = 0x200
	oh.SizeOfImage = 0x2000
	oh.SizeOfHeaders = 0x200
	oh.NumberOfRvaAndSizes = 16

	var sh pe.SectionHeader32
	copy(sh.Name[:], name)
	sh.VirtualSize = testVSize
	sh.VirtualAddress = testRVA
	sh.SizeOfRawData = 0x200
	sh.PointerToRawData = testRawOffset
	sh.Characteristics = characteristics

	for _, v := range []any{fh, oh, sh} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	img := make([]byte, 0x2000)
	require.LessOrEqual(t, buf.Len(), testRawOffset)
	copy(img, buf.Bytes())
	for i := testRawOffset; i < testRawOffset+0x200; i++ {
		img[i] = 0xaa
	}
	for i := testRVA; i < testRVA+testVSize; i++ {
		img[i] = 0xbb
	}
	return img
}

func TestReadText(t *testing.T) {
	img := fakeImage(t, ".text", pe.IMAGE_SCN_CNT_CODE|pe.IMAGE_SCN_MEM_EXECUTE|pe.IMAGE_SCN_MEM_READ)

	text, err := ReadText(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, ".text", text.Name)
	assert.Equal(t, uint64(testImageBase), text.ImageBase)
	assert.Equal(t, uint64(testImageBase+testRVA), text.VA())
	assert.Equal(t, uint32(testRawOffset), text.Offset)

	data, err := text.Data()
	require.NoError(t, err)
	assert.Len(t, data, testVSize)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, testVSize), data)
}

func TestReadTextByCharacteristics(t *testing.T) {
	img := fakeImage(t, "CODE", pe.IMAGE_SCN_CNT_CODE|pe.IMAGE_SCN_MEM_EXECUTE)

	text, err := ReadText(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, "CODE", text.Name)
}

func TestReadTextNoCode(t *testing.T) {
	img := fakeImage(t, ".data", pe.IMAGE_SCN_CNT_INITIALIZED_DATA|pe.IMAGE_SCN_MEM_READ)

	_, err := ReadText(bytes.NewReader(img))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestReadTextUnrecognized(t *testing.T) {
	_, err := ReadText(bytes.NewReader(make([]byte, 256)))
	assert.ErrorIs(t, err, ErrUnrecognized)

	// DOS stub pointing at no PE signature
	img := fakeImage(t, ".text", pe.IMAGE_SCN_CNT_CODE)
	copy(img[0x40:], "XX\x00\x00")
	_, err = ReadText(bytes.NewReader(img))
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = ReadText(bytes.NewReader([]byte("MZ")))
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestMappedText(t *testing.T) {
	img := fakeImage(t, ".text", pe.IMAGE_SCN_CNT_CODE)
	base := uintptr(unsafe.Pointer(&img[0]))

	text, err := MappedText(base)
	require.NoError(t, err)
	mapped := text.Mapped(base)
	assert.Len(t, mapped, testVSize)
	assert.Equal(t, bytes.Repeat([]byte{0xbb}, testVSize), mapped)
	assert.Equal(t, base+testRVA, uintptr(unsafe.Pointer(&mapped[0])))
}

// package level, so the address taken below stays valid
var digits = []byte("0123456789")

func TestMemReaderBounds(t *testing.T) {
	r := memReader{base: uintptr(unsafe.Pointer(&digits[0])), size: int64(len(digits))}

	p := make([]byte, 4)
	n, err := r.ReadAt(p, 2)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(p[:n]))

	n, err = r.ReadAt(p, 8)
	assert.Error(t, err)
	assert.Equal(t, "89", string(p[:n]))

	_, err = r.ReadAt(p, 10)
	assert.Error(t, err)
}

func TestOpenText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.exe")
	require.NoError(t, os.WriteFile(path, fakeImage(t, ".text", pe.IMAGE_SCN_CNT_CODE), 0o644))

	text, err := OpenText(path)
	require.NoError(t, err)
	data, err := text.Data()
	require.NoError(t, err)
	assert.Len(t, data, testVSize)

	_, err = OpenText(filepath.Join(t.TempDir(), "missing.exe"))
	assert.Error(t, err)
}
