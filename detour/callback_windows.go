package detour

import "syscall"

// NewCallback turns fn into a native entry point with the Win64 calling
// convention. fn must take uintptr-sized arguments and return one uintptr.
func NewCallback(fn any) uintptr {
	return syscall.NewCallback(fn)
}

// Call runs the original code through the trampoline.
func (d *Detour) Call(args ...uintptr) uintptr {
	if d.trampoline == 0 {
		panic(ErrNotInstalled)
	}
	r, _, _ := syscall.SyscallN(d.trampoline, args...)
	return r
}
