package mods

// Sections are the parts of the game image mods may inspect.
type Sections struct {
	// Text is the code section as mapped in this process.
	Text []byte
}

// GameEnv is the view of the running game handed to the loader.
type GameEnv struct {
	Sections Sections
}
