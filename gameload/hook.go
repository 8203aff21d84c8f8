package gameload

import (
	"unsafe"

	"github.com/k2io/chaudhook/internal/unaligned"
	"github.com/pkg/errors"
)

// Dispatcher delivers one game load to the registered observers.
type Dispatcher interface {
	DispatchGameLoad(version uint32, state unsafe.Pointer)
}

// Hook is the body run in place of the game-load routine.
type Hook struct {
	Site Site
	// CallOriginal runs the game-load routine itself.
	CallOriginal func(version uint32)
	// Observers returns the registry at call time.
	Observers func() (Dispatcher, error)
	// Active reports whether the detour is live on this thread; nil means
	// always.
	Active func() bool
	// Fatalf ends the process; it defaults to the package logger's Fatalf.
	Fatalf func(template string, args ...any)
}

// State reads the emulator state pointer through the game object. Both
// pointers are read on every call since the game may move them between
// loads. A nil game object yields a nil state.
func (h *Hook) State() unsafe.Pointer {
	obj := unaligned.Pointer(h.Site.Resolved)
	if obj == 0 {
		return nil
	}
	return unsafe.Pointer(unaligned.Pointer(obj + StateOffset))
}

// Fire runs the original routine and then every observer with version and
// the current state. The observers are not called when the registry is
// missing.
func (h *Hook) Fire(version uint32) error {
	h.CallOriginal(version)
	state := h.State()
	obs, err := h.Observers()
	if err != nil {
		return errors.Wrap(err, "game load observers")
	}
	obs.DispatchGameLoad(version, state)
	return nil
}

// Call is the native body of the detour. It passes straight to the
// original while the detour is inactive on this thread, and keeps panics
// from crossing into the game. A missing registry is fatal.
func (h *Hook) Call(version uintptr) uintptr {
	if h.Active != nil && !h.Active() {
		h.CallOriginal(uint32(version))
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Load().Errorf("game load %d: panic: %v", uint32(version), r)
		}
	}()
	if err := h.Fire(uint32(version)); err != nil {
		h.fatalf("game load %d: %v", uint32(version), err)
	}
	return 0
}

func (h *Hook) fatalf(template string, args ...any) {
	if h.Fatalf != nil {
		h.Fatalf(template, args...)
		return
	}
	logger.Load().Fatalf(template, args...)
}
