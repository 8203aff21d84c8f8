package chaudhook

import (
	"sync"

	"github.com/k2io/chaudhook/assets"
	"github.com/k2io/chaudhook/filehook"
	"github.com/k2io/chaudhook/gameload"
	"github.com/k2io/chaudhook/mods"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrSymbolUnresolved means a system entry point could not be found
	ErrSymbolUnresolved = errors.New("system symbol unresolved")
	// ErrDetourInstall means a detour could not be written
	ErrDetourInstall = errors.New("detour install failed")
	// ErrMissingGlobal means the asset table or the mod registry is absent
	ErrMissingGlobal = errors.New("required global state missing")
)

// loader runs each installer once and keeps its result.
type loader struct {
	fileOnce sync.Once
	fileErr  error
	gameOnce sync.Once
	gameErr  error

	hookFileOpen func() error
	hookGameLoad func(gameload.Site) error
}

var std = &loader{
	hookFileOpen: hookFileOpen,
	hookGameLoad: hookGameLoad,
}

// Install detours the file-open entry points. It requires the asset table
// to be initialized. Only the first call installs anything; every call
// returns its result.
func Install() error {
	return std.install()
}

// InstallOnGameLoad hooks the game-load routine found in env's code
// section. A missing code section or routine is not an error: nothing is
// installed and observers are never called. Only the first call installs
// anything; every call returns its result.
func InstallOnGameLoad(env *mods.GameEnv) error {
	return std.installOnGameLoad(env)
}

func (l *loader) install() error {
	l.fileOnce.Do(func() {
		ensureConfigured()
		if _, err := assets.Global(); err != nil {
			l.fileErr = multierr.Combine(ErrMissingGlobal, err)
		} else {
			l.fileErr = l.hookFileOpen()
		}
		if l.fileErr != nil {
			logger.Load().Errorf("install file open hooks: %v", l.fileErr)
		}
	})
	return l.fileErr
}

func (l *loader) installOnGameLoad(env *mods.GameEnv) error {
	l.gameOnce.Do(func() {
		ensureConfigured()
		l.gameErr = l.hookGameLoadIn(env)
		if l.gameErr != nil {
			logger.Load().Errorf("install game load hook: %v", l.gameErr)
		}
	})
	return l.gameErr
}

func (l *loader) hookGameLoadIn(env *mods.GameEnv) error {
	if env == nil || len(env.Sections.Text) == 0 {
		logger.Load().Infof("no code section given, game load hook not installed")
		return nil
	}
	text := env.Sections.Text
	site, err := gameload.Resolve(text)
	if errors.Is(err, gameload.ErrPatternMissing) {
		logger.Load().Infof("game load routine not found in %d bytes of code, hook not installed", len(text))
		return nil
	}
	if err != nil {
		return err
	}
	off, _ := gameload.Scan(text)
	if err := gameload.CheckMov(text, off); err != nil {
		logger.Load().Warnf("game load routine at %#x: %v", site.Hit, err)
	}
	if _, err := mods.Global(); err != nil {
		return multierr.Combine(ErrMissingGlobal, err)
	}
	return l.hookGameLoad(site)
}

// replacements is what the file-open hooks consult on every call.
func replacements() (filehook.Lookuper, error) {
	r, err := assets.Global()
	if err != nil {
		return nil, multierr.Combine(ErrMissingGlobal, err)
	}
	return r, nil
}

// observers is what the game-load hook dispatches to on every call.
func observers() (gameload.Dispatcher, error) {
	f, err := mods.Global()
	if err != nil {
		return nil, multierr.Combine(ErrMissingGlobal, err)
	}
	return f, nil
}
