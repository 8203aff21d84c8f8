package gameload

import (
	"github.com/k2io/chaudhook/detour"
	"github.com/pkg/errors"
)

// Install detours the routine at site.Hit so every run fires observers.
func Install(site Site, observers func() (Dispatcher, error)) (*detour.Detour, error) {
	d := detour.New("game load", site.Hit)
	h := &Hook{
		Site: site,
		CallOriginal: func(version uint32) {
			d.Call(uintptr(version))
		},
		Observers: observers,
		Active:    d.Active,
	}
	if err := d.Install(detour.NewCallback(h.Call)); err != nil {
		return nil, errors.Wrap(err, "install game load hook")
	}
	if err := d.Enable(); err != nil {
		return nil, errors.Wrap(err, "enable game load hook")
	}
	logger.Load().Infof("%s hook installed at %#x, game object at %#x", d.Name(), d.Target(), site.Resolved)
	return d, nil
}
