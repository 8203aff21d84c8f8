package detour

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Detour is the record kept for one intercepted entry point.
type Detour struct {
	name   string
	target uintptr
	// native entry of the interception body
	hook uintptr
	// relocated prologue followed by a jump back into the target
	trampoline uintptr
	// bytes written at target on Enable
	patch []byte
	// bytes found at target before install
	original []byte

	enabled atomic.Bool

	mu         sync.Mutex
	suppressed map[uint64]int
}

var (
	// detours installed with target addresses as keys
	detours map[uintptr]*Detour
	// protect the detours map and every code write
	lock sync.Mutex
)

var (
	// ErrDoubleHook means already hooked
	ErrDoubleHook = errors.New("double hook")
	// ErrHookNotFound means the hook not found
	ErrHookNotFound = errors.New("hook not found")
	// ErrRelativeAddr means the prologue cannot be moved into a trampoline
	ErrRelativeAddr = errors.New("relative address in instruction")
	// ErrNotInstalled means Enable or Call before Install
	ErrNotInstalled = errors.New("detour not installed")
	// ErrPatchTooShort means the prologue ends before the patch fits
	ErrPatchTooShort = errors.New("function too short to patch")
	// ErrUnsupported means the platform cannot host detours
	ErrUnsupported = errors.New("detours unsupported on this platform")
)

var (
	// hooks run on host threads while SetLogger may be called
	logger  atomic.Pointer[zap.SugaredLogger]
	isDebug atomic.Bool
)

// SetLogger replaces the package logger.
func SetLogger(l *zap.SugaredLogger) {
	logger.Store(l)
}

// SetDebug turns on tracing of the bytes written by Install, Enable and Disable.
func SetDebug(x bool) {
	isDebug.Store(x)
}

func init() {
	detours = make(map[uintptr]*Detour)
	logger.Store(zap.NewNop().Sugar())
}

// New creates the record for target. Nothing is written until Install,
// so the interception body can capture the record before it exists in code.
func New(name string, target uintptr) *Detour {
	return &Detour{
		name:       name,
		target:     target,
		suppressed: make(map[uint64]int),
	}
}

// Lookup returns the detour installed at target.
func Lookup(target uintptr) (*Detour, error) {
	lock.Lock()
	defer lock.Unlock()
	d, ok := detours[target]
	if !ok || d == nil {
		return nil, ErrHookNotFound
	}
	return d, nil
}

func (d *Detour) Name() string {
	return d.name
}

func (d *Detour) Target() uintptr {
	return d.target
}

// Trampoline returns the address that runs the original code.
func (d *Detour) Trampoline() uintptr {
	return d.trampoline
}

func (d *Detour) Enabled() bool {
	return d.enabled.Load()
}

// Active reports whether calls made on the current thread reach the hook.
func (d *Detour) Active() bool {
	if !d.enabled.Load() {
		return false
	}
	tid := currentThread()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suppressed[tid] == 0
}
