package filehook

import (
	"runtime"
	"syscall"
	"unsafe"

	"github.com/k2io/chaudhook/detour"
	"github.com/k2io/chaudhook/internal/symbols"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Hooks are the two installed file-open detours.
type Hooks struct {
	Wide    *detour.Detour
	Narrow  *detour.Detour
	Handler *Handler
}

// callOriginal calls CreateFile through the trampoline of d.
func callOriginal(d *detour.Detour) func(uintptr, Args) uintptr {
	return func(name uintptr, a Args) uintptr {
		return d.Call(name, a.Access, a.ShareMode, a.Security, a.Disposition, a.Flags, a.Template)
	}
}

// Install detours CreateFileW and CreateFileA of module so that both reach
// one Handler, and enables them.
func Install(module symbols.Module, replacements func() (Lookuper, error)) (*Hooks, error) {
	wide, err := module.Proc("CreateFileW")
	if err != nil {
		return nil, err
	}
	narrow, err := module.Proc("CreateFileA")
	if err != nil {
		return nil, err
	}
	lstrlenW, err := module.Proc("lstrlenW")
	if err != nil {
		return nil, err
	}
	wcslen := func(p uintptr) int {
		n, _, _ := syscall.SyscallN(lstrlenW, p)
		return int(int32(n))
	}

	hk := &Hooks{
		Wide:   detour.New("CreateFileW", wide),
		Narrow: detour.New("CreateFileA", narrow),
	}
	forward := callOriginal(hk.Wide)
	hk.Handler = &Handler{
		Replacements: replacements,
		Forward: func(name []uint16, a Args) uintptr {
			r := forward(uintptr(unsafe.Pointer(&name[0])), a)
			runtime.KeepAlive(name)
			return r
		},
		Guard: func() Releaser {
			return detour.DisableScoped(hk.Wide, hk.Narrow)
		},
	}
	wideCB := detour.NewCallback(hk.Handler.wideEntry(hk.Wide.Active, forward, wcslen).call)
	narrowCB := detour.NewCallback(hk.Handler.narrowEntry(hk.Narrow.Active, callOriginal(hk.Narrow)).call)

	err = multierr.Combine(
		errors.Wrap(hk.Wide.Install(wideCB), "install CreateFileW"),
		errors.Wrap(hk.Narrow.Install(narrowCB), "install CreateFileA"),
	)
	if err != nil {
		return nil, err
	}
	if err := enableAll(hk.Wide, hk.Narrow); err != nil {
		return nil, err
	}
	for _, d := range []*detour.Detour{hk.Wide, hk.Narrow} {
		logger.Load().Infof("%s hooked at %#x", d.Name(), d.Target())
	}
	return hk, nil
}
