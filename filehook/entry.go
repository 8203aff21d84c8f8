package filehook

import "unsafe"

// InvalidHandle is INVALID_HANDLE_VALUE, the failure result of CreateFile.
const InvalidHandle = ^uintptr(0)

// entry is the native body of one file-open detour.
type entry struct {
	name string
	// active reports whether the detour is live on this thread.
	active func() bool
	// original calls the entry point's own trampoline.
	original func(name uintptr, args Args) uintptr
	// open hands a non-NULL name to the Handler.
	open func(name uintptr, args Args) (uintptr, error)
	// fatalf defaults to the package logger's Fatalf.
	fatalf func(template string, args ...any)
}

// wideEntry reads names with wcslen, which counts UTF-16 units.
func (h *Handler) wideEntry(active func() bool, original func(uintptr, Args) uintptr, wcslen func(uintptr) int) *entry {
	return &entry{
		name:     "CreateFileW",
		active:   active,
		original: original,
		open: func(name uintptr, args Args) (uintptr, error) {
			return h.OpenWide(unsafe.Slice((*uint16)(unsafe.Pointer(name)), wcslen(name)), args)
		},
	}
}

func (h *Handler) narrowEntry(active func() bool, original func(uintptr, Args) uintptr) *entry {
	return &entry{
		name:     "CreateFileA",
		active:   active,
		original: original,
		open: func(name uintptr, args Args) (uintptr, error) {
			return h.OpenNarrow(unsafe.Slice((*byte)(unsafe.Pointer(name)), cstrlen(name)), args)
		},
	}
}

// call has the CreateFile signature. A NULL name, or a call made while the
// detour is inactive on this thread, goes straight to the original. A
// panic yields InvalidHandle; a missing table is fatal.
func (e *entry) call(name, access, share, sa, disp, flags, tmpl uintptr) (ret uintptr) {
	args := Args{access, share, sa, disp, flags, tmpl}
	if name == 0 || !e.active() {
		return e.original(name, args)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Load().Errorf("%s: panic: %v", e.name, r)
			ret = InvalidHandle
		}
	}()
	r, err := e.open(name, args)
	if err != nil {
		e.fatal("%s: %v", e.name, err)
		return InvalidHandle
	}
	return r
}

func (e *entry) fatal(template string, args ...any) {
	if e.fatalf != nil {
		e.fatalf(template, args...)
		return
	}
	logger.Load().Fatalf(template, args...)
}

func cstrlen(p uintptr) int {
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return n
}
