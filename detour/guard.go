package detour

import "runtime"

// Guard keeps a set of detours inert on the thread that took it.
// Release it with defer so every exit path re-arms the detours.
type Guard struct {
	detours  []*Detour
	tid      uint64
	released bool
}

// DisableScoped makes ds pass through to their original code on the calling
// thread until the returned guard is released. Guards nest.
func DisableScoped(ds ...*Detour) *Guard {
	// the suppression is keyed by OS thread
	runtime.LockOSThread()
	g := &Guard{detours: ds, tid: currentThread()}
	for _, d := range ds {
		d.suppress(g.tid, 1)
	}
	return g
}

// DisableScoped is DisableScoped(d).
func (d *Detour) DisableScoped() *Guard {
	return DisableScoped(d)
}

// Release re-arms the detours. Calling it again does nothing.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	for i := len(g.detours) - 1; i >= 0; i-- {
		g.detours[i].suppress(g.tid, -1)
	}
	runtime.UnlockOSThread()
}

func (d *Detour) suppress(tid uint64, delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.suppressed[tid] + delta
	if n <= 0 {
		delete(d.suppressed, tid)
		return
	}
	d.suppressed[tid] = n
}
