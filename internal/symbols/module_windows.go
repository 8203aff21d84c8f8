package symbols

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

type systemModule struct {
	dll *windows.LazyDLL
}

// System loads name from the system directory on first use.
func System(name string) Module {
	return &systemModule{dll: windows.NewLazySystemDLL(name)}
}

// Kernelbase is the library the file-open entry points are taken from.
var Kernelbase = sync.OnceValue(func() Module {
	return System("kernelbase.dll")
})

func (m *systemModule) Name() string {
	return m.dll.Name
}

func (m *systemModule) Proc(name string) (uintptr, error) {
	p := m.dll.NewProc(name)
	if err := p.Find(); err != nil {
		return 0, errors.Wrapf(ErrSymbolNotFound, "%s!%s: %v", m.dll.Name, name, err)
	}
	return p.Addr(), nil
}

// ImageBase returns the load address of the executable of this process.
func ImageBase() (uintptr, error) {
	var h windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &h); err != nil {
		return 0, errors.Wrap(err, "GetModuleHandleEx")
	}
	return uintptr(h), nil
}

// ImageText returns the code section of the executable as mapped in memory.
func ImageText() ([]byte, error) {
	base, err := ImageBase()
	if err != nil {
		return nil, err
	}
	t, err := MappedText(base)
	if err != nil {
		return nil, errors.Wrap(err, "image headers")
	}
	return t.Mapped(base), nil
}
