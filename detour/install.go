package detour

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
)

// room for the longest relocated prologue plus the jump back
const trampolineSize = 64

// Install builds the trampoline for d and registers it. hook is the native
// entry point that Enable will make the target jump to.
func (d *Detour) Install(hook uintptr) error {
	if d.target == 0 || hook == 0 {
		return errors.Errorf("install %s: nil address", d.name)
	}
	lock.Lock()
	defer lock.Unlock()
	if _, ok := detours[d.target]; ok {
		return errors.Wrapf(ErrDoubleHook, "install %s at %#x", d.name, d.target)
	}
	// early bucket allocation
	detours[d.target] = nil

	tramp, err := allocExec(d.target, trampolineSize)
	if err != nil {
		delete(detours, d.target)
		return errors.Wrapf(err, "allocate trampoline for %s", d.name)
	}
	src := makeSlice(d.target, maxPrologue)
	code, n, err := buildTrampoline(src, d.target, tramp)
	if err == nil {
		err = writeCode(tramp, code)
	}
	if err != nil {
		freeExec(tramp, trampolineSize)
		delete(detours, d.target)
		return errors.Wrapf(err, "build trampoline for %s at %#x", d.name, d.target)
	}

	d.original = append([]byte(nil), src[:n]...)
	d.patch = padNop(jumpTo(hook), n)
	d.hook = hook
	d.trampoline = tramp
	detours[d.target] = d
	if isDebug.Load() {
		logger.Load().Debugf("%s: prologue % x", d.name, d.original)
		logger.Load().Debugf("%s: trampoline %#x % x", d.name, tramp, code)
	}
	return nil
}

// Enable writes the jump to the hook over the target's prologue.
func (d *Detour) Enable() error {
	lock.Lock()
	defer lock.Unlock()
	if d.trampoline == 0 {
		return errors.Wrap(ErrNotInstalled, d.name)
	}
	if d.enabled.Load() {
		return nil
	}
	if err := writeCode(d.target, d.patch); err != nil {
		return errors.Wrapf(err, "enable %s", d.name)
	}
	d.enabled.Store(true)
	if isDebug.Load() {
		logger.Load().Debugf("%s: enabled, target % x", d.name, makeSlice(d.target, len(d.patch)))
	}
	return nil
}

// Disable puts the original prologue back.
func (d *Detour) Disable() error {
	lock.Lock()
	defer lock.Unlock()
	if d.trampoline == 0 {
		return errors.Wrap(ErrNotInstalled, d.name)
	}
	if !d.enabled.Load() {
		return nil
	}
	if err := writeCode(d.target, d.original); err != nil {
		return errors.Wrapf(err, "disable %s", d.name)
	}
	d.enabled.Store(false)
	if isDebug.Load() {
		logger.Load().Debugf("%s: disabled, target % x", d.name, makeSlice(d.target, len(d.original)))
	}
	return nil
}

func padNop(seq []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, seq)
	for i := len(seq); i < n; i++ {
		out[i] = 0x90 // nop
	}
	return out
}

func makeSlice(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

func slicePtr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func overflowsS32(v1, v2 uintptr) bool {
	diff := v2 - v1
	if v1 > v2 {
		diff = v1 - v2
	}
	return diff > math.MaxInt32
}
