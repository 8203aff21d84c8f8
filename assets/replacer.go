// Package assets holds the table that maps logical game paths to the
// files that replace them on disk.
package assets

import (
	"sync"
	"sync/atomic"

	"github.com/k2io/chaudhook/internal/winpath"
	"github.com/pkg/errors"
)

// ErrNotInitialized means the table was used before Init.
var ErrNotInitialized = errors.New("asset replacement table not initialized")

// Replacer maps cleaned logical paths to replacement paths.
// The zero value is not usable; call NewReplacer.
type Replacer struct {
	mu    sync.Mutex
	paths map[string]string
}

func NewReplacer() *Replacer {
	return &Replacer{paths: make(map[string]string)}
}

// Add maps logical to physical, replacing any earlier mapping.
func (r *Replacer) Add(logical, physical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[winpath.Clean(logical)] = physical
}

func (r *Replacer) Remove(logical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, winpath.Clean(logical))
}

func (r *Replacer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// Lookup returns the replacement for path. The lock is held for this call
// only.
func (r *Replacer) Lookup(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.paths[winpath.Clean(path)]
	return p, ok
}

var global atomic.Pointer[Replacer]

// Init publishes r as the process table. Only the first call has effect;
// the published table is returned.
func Init(r *Replacer) *Replacer {
	if r == nil {
		r = NewReplacer()
	}
	global.CompareAndSwap(nil, r)
	return global.Load()
}

// Global returns the process table.
func Global() (*Replacer, error) {
	r := global.Load()
	if r == nil {
		return nil, ErrNotInitialized
	}
	return r, nil
}
