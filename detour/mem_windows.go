package detour

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const (
	allocGranularity = 0x10000
	// furthest distance probed around the target, inside rel32 reach
	nearWindow = 0x7ff00000
)

var procFlushInstructionCache = windows.NewLazySystemDLL("kernel32.dll").NewProc("FlushInstructionCache")

// allocExec reserves executable memory, preferring a region within rel32
// reach of near so RIP-relative operands in a prologue can be relocated.
func allocExec(near uintptr, size int) (uintptr, error) {
	const flags = windows.MEM_RESERVE | windows.MEM_COMMIT
	base := near &^ (allocGranularity - 1)
	for delta := uintptr(allocGranularity); delta < nearWindow; delta += allocGranularity {
		if delta < base {
			if addr, err := windows.VirtualAlloc(base-delta, uintptr(size), flags, windows.PAGE_EXECUTE_READWRITE); err == nil {
				return addr, nil
			}
		}
		if addr, err := windows.VirtualAlloc(base+delta, uintptr(size), flags, windows.PAGE_EXECUTE_READWRITE); err == nil {
			return addr, nil
		}
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size), flags, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return 0, errors.Wrap(err, "VirtualAlloc")
	}
	if isDebug.Load() && overflowsS32(near, addr) {
		logger.Load().Debugf("trampoline %#x is out of rel32 reach of %#x", addr, near)
	}
	return addr, nil
}

func freeExec(addr uintptr, size int) {
	_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}

func writeCode(addr uintptr, data []byte) error {
	var oldPerms uint32
	err := windows.VirtualProtect(addr, uintptr(len(data)), windows.PAGE_EXECUTE_READWRITE, &oldPerms)
	if err != nil {
		return errors.Wrapf(err, "VirtualProtect %#x", addr)
	}
	copy(makeSlice(addr, len(data)), data)
	if err := windows.VirtualProtect(addr, uintptr(len(data)), oldPerms, &oldPerms); err != nil {
		return errors.Wrapf(err, "VirtualProtect restore %#x", addr)
	}
	procFlushInstructionCache.Call(uintptr(windows.CurrentProcess()), addr, uintptr(len(data)))
	return nil
}
