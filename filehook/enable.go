package filehook

import "go.uber.org/multierr"

// switcher is a detour as seen by enableAll.
type switcher interface {
	Enable() error
	Disable() error
}

// enableAll enables every detour or, when one fails, none of them.
func enableAll(ds ...switcher) error {
	var err error
	for _, d := range ds {
		if err = d.Enable(); err != nil {
			break
		}
	}
	if err == nil {
		return nil
	}
	for _, d := range ds {
		err = multierr.Append(err, d.Disable())
	}
	return err
}
