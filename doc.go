/*
Package chaudhook installs the detours a mod loader needs inside the game
process.

Install detours the file-open entry points of kernelbase.dll so every open
the game makes is looked up in the asset replacement table and, when a
replacement exists, opens the replacement instead. InstallOnGameLoad finds
the game-load routine in the game's code section and reports each run of
it, with the emulator state pointer, to the observers registered with mods.

The asset table and the mod registry must be initialized before the
detours they serve are installed:

	assets.Init(table)
	mods.Init()
	if err := chaudhook.Install(); err != nil {
		return err
	}
	env, err := mods.NewGameEnv()
	...
	err = chaudhook.InstallOnGameLoad(env)

Both installers run once per process; later calls return the first result.
*/
package chaudhook
