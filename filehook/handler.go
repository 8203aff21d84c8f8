// Package filehook redirects the file opens of the game through the asset
// replacement table.
package filehook

import (
	"strings"
	"sync/atomic"

	"github.com/k2io/chaudhook/internal/winpath"
	"github.com/k2io/chaudhook/internal/wtf8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Args is the argument tail shared by both file-open entry points.
type Args struct {
	Access      uintptr
	ShareMode   uintptr
	Security    uintptr
	Disposition uintptr
	Flags       uintptr
	Template    uintptr
}

// OpenFunc opens the NUL-terminated UTF-16 name.
type OpenFunc func(name []uint16, args Args) uintptr

// Lookuper finds the replacement of a cleaned logical path.
type Lookuper interface {
	Lookup(path string) (string, bool)
}

// Releaser ends a reentrancy guard.
type Releaser interface {
	Release()
}

var logger atomic.Pointer[zap.SugaredLogger]

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.SugaredLogger) {
	logger.Store(l)
}

// Handler is the single body behind both file-open detours.
type Handler struct {
	// Replacements returns the table at call time.
	Replacements func() (Lookuper, error)
	// Forward calls the original wide entry point.
	Forward OpenFunc
	// Guard disables both detours on the calling thread.
	Guard func() Releaser
	// Logger defaults to the package logger.
	Logger *zap.SugaredLogger
}

// OpenWide handles a wide open of name, given without its terminator.
// Names that are not valid UTF-16 reach the original unchanged.
func (h *Handler) OpenWide(name []uint16, args Args) (uintptr, error) {
	g := h.Guard()
	defer g.Release()
	return h.open(wtf8.FromUTF16(name), args)
}

// OpenNarrow handles a narrow open of name, given without its terminator.
// Bytes are taken as UTF-8; invalid sequences become U+FFFD.
func (h *Handler) OpenNarrow(name []byte, args Args) (uintptr, error) {
	g := h.Guard()
	defer g.Release()
	return h.open(strings.ToValidUTF8(string(name), "\uFFFD"), args)
}

// open runs with the guard held.
func (h *Handler) open(path string, args Args) (uintptr, error) {
	path = winpath.Clean(path)
	table, err := h.Replacements()
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	target := path
	if p, ok := table.Lookup(path); ok {
		h.log().Infof("read to %s was redirected -> %s", path, p)
		target = p
	}
	return h.Forward(encode(target), args), nil
}

func (h *Handler) log() *zap.SugaredLogger {
	if h.Logger != nil {
		return h.Logger
	}
	return logger.Load()
}

// encode returns s as NUL-terminated UTF-16. A NUL inside s ends the name.
func encode(s string) []uint16 {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return append(wtf8.ToUTF16(s), 0)
}
