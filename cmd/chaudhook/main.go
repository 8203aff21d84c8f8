// chaudhook is built with -buildmode=c-shared into the DLL the mod loader
// injects into the game. It exports:
//
//	int chaudhook_add_replacement(const char *logical, const char *physical);
//	int chaudhook_install(void);
//	int chaudhook_install_on_game_load(void);
//
// Each returns 1 on success and 0 on failure. Replacements must be added
// before chaudhook_install; paths are UTF-8.
package main

func main() {}
