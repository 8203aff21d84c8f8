//go:build linux || windows

package detour

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func enabledDetour(name string) *Detour {
	d := New(name, 0x1000)
	d.enabled.Store(true)
	return d
}

func TestActiveRequiresEnable(t *testing.T) {
	d := New("idle", 0x1000)
	assert.False(t, d.Active())
	d.enabled.Store(true)
	assert.True(t, d.Active())
}

func TestScopedDisableNests(t *testing.T) {
	d := enabledDetour("nested")

	outer := d.DisableScoped()
	inner := DisableScoped(d)
	assert.False(t, d.Active())

	inner.Release()
	assert.False(t, d.Active())

	outer.Release()
	assert.True(t, d.Active())

	outer.Release()
	assert.True(t, d.Active())
	assert.Empty(t, d.suppressed)
}

func TestScopedDisableCoversAll(t *testing.T) {
	a, b := enabledDetour("a"), enabledDetour("b")

	g := DisableScoped(a, b)
	assert.False(t, a.Active())
	assert.False(t, b.Active())
	g.Release()

	assert.True(t, a.Active())
	assert.True(t, b.Active())
}

func TestScopedDisableIsPerThread(t *testing.T) {
	d := enabledDetour("per-thread")

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	g := d.DisableScoped()
	defer g.Release()
	assert.False(t, d.Active())

	other := make(chan bool)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		other <- d.Active()
	}()
	assert.True(t, <-other)
}
