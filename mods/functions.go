// Package mods holds what mod code registers with the loader and the view
// of the game it is given.
package mods

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrNotInitialized means the registry was used before Init.
var ErrNotInitialized = errors.New("mod registry not initialized")

// OnGameLoadFunc observes one run of the game-load routine. state is the
// emulator state pointer at that moment and may be nil.
type OnGameLoadFunc func(version uint32, state unsafe.Pointer)

// Functions is the list of observers registered by mods.
type Functions struct {
	mu         sync.Mutex
	onGameLoad []OnGameLoadFunc
}

func (f *Functions) RegisterOnGameLoad(fn OnGameLoadFunc) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onGameLoad = append(f.onGameLoad, fn)
}

// DispatchGameLoad calls every observer in registration order with the lock
// held. An observer must not register another observer.
func (f *Functions) DispatchGameLoad(version uint32, state unsafe.Pointer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range f.onGameLoad {
		fn(version, state)
	}
}

func (f *Functions) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.onGameLoad)
}

var global atomic.Pointer[Functions]

// Init creates the process registry on first call and returns it.
func Init() *Functions {
	global.CompareAndSwap(nil, &Functions{})
	return global.Load()
}

// Global returns the process registry.
func Global() (*Functions, error) {
	f := global.Load()
	if f == nil {
		return nil, ErrNotInitialized
	}
	return f, nil
}
