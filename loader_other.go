//go:build !windows

package chaudhook

import (
	"github.com/k2io/chaudhook/detour"
	"github.com/k2io/chaudhook/gameload"
	"go.uber.org/multierr"
)

// The hooks patch Win64 entry points and are only built for Windows.

func hookFileOpen() error {
	return multierr.Combine(ErrDetourInstall, detour.ErrUnsupported)
}

func hookGameLoad(gameload.Site) error {
	return multierr.Combine(ErrDetourInstall, detour.ErrUnsupported)
}
