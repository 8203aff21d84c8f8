package main

import "C"

import (
	"github.com/k2io/chaudhook"
	"github.com/k2io/chaudhook/assets"
	"github.com/k2io/chaudhook/mods"
)

func result(err error) C.int {
	if err != nil {
		return 0
	}
	return 1
}

//export chaudhook_add_replacement
func chaudhook_add_replacement(logical, physical *C.char) C.int {
	if logical == nil || physical == nil {
		return 0
	}
	assets.Init(nil).Add(C.GoString(logical), C.GoString(physical))
	return 1
}

//export chaudhook_install
func chaudhook_install() C.int {
	assets.Init(nil)
	mods.Init()
	return result(chaudhook.Install())
}

//export chaudhook_install_on_game_load
func chaudhook_install_on_game_load() C.int {
	mods.Init()
	env, err := mods.NewGameEnv()
	if err != nil {
		return 0
	}
	return result(chaudhook.InstallOnGameLoad(env))
}
