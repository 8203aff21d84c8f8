package mods

import "github.com/k2io/chaudhook/internal/symbols"

// NewGameEnv describes the executable of this process.
func NewGameEnv() (*GameEnv, error) {
	text, err := symbols.ImageText()
	if err != nil {
		return nil, err
	}
	return &GameEnv{Sections: Sections{Text: text}}, nil
}
