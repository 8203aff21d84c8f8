package chaudhook

import (
	"github.com/k2io/chaudhook/filehook"
	"github.com/k2io/chaudhook/gameload"
	"github.com/k2io/chaudhook/internal/symbols"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

func hookFileOpen() error {
	hooks, err := filehook.Install(symbols.Kernelbase(), replacements)
	switch {
	case errors.Is(err, symbols.ErrSymbolNotFound):
		return multierr.Combine(ErrSymbolUnresolved, err)
	case err != nil:
		return multierr.Combine(ErrDetourInstall, err)
	}
	logger.Load().Debugf("file open trampolines: CreateFileW %#x, CreateFileA %#x",
		hooks.Wide.Trampoline(), hooks.Narrow.Trampoline())
	return nil
}

func hookGameLoad(site gameload.Site) error {
	if _, err := gameload.Install(site, observers); err != nil {
		return multierr.Combine(ErrDetourInstall, err)
	}
	return nil
}
