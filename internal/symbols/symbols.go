// Package symbols resolves entry points of loaded system libraries and
// locates the code section of PE images, mapped or on disk.
package symbols

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	// ErrSymbolNotFound means the module does not export the name
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoText means the image has no code section
	ErrNoText = errors.New("no code section")
	// ErrUnrecognized means the reader holds no known object format
	ErrUnrecognized = errors.New("unrecognized object file")
)

// Module is a loaded library whose exports can be looked up by name.
type Module interface {
	Name() string
	Proc(name string) (uintptr, error)
}

type rawFile interface {
	Text() (*Text, error)
}

var objType = []func(io.ReaderAt) (rawFile, error){
	openPE,
}

// ReadText finds the code section of the object held by r.
func ReadText(r io.ReaderAt) (*Text, error) {
	for _, try := range objType {
		if raw, err := try(r); err == nil {
			return raw.Text()
		}
	}
	return nil, ErrUnrecognized
}

// OpenText reads the file and finds its code section. The whole file is
// kept in memory so the section stays readable after return.
func OpenText(name string) (*Text, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	t, err := ReadText(bytesReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	return t, nil
}
