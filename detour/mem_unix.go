//go:build unix

package detour

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var pageSize uintptr

// anonymous mappings handed out by allocExec, kept for Munmap
var mappings = make(map[uintptr][]byte)

// allocExec maps fresh pages; unix builds make no attempt to land near the target.
func allocExec(near uintptr, size int) (uintptr, error) {
	length := int(pageSize * ((uintptr(size) + pageSize - 1) / pageSize))
	mem, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, errors.Wrap(err, "mmap")
	}
	addr := slicePtr(mem)
	mappings[addr] = mem
	return addr, nil
}

func freeExec(addr uintptr, size int) {
	if mem, ok := mappings[addr]; ok {
		delete(mappings, addr)
		_ = unix.Munmap(mem)
	}
}

func writeCode(addr uintptr, data []byte) error {
	if err := protectPages(addr, uintptr(len(data))); err != nil {
		return errors.Wrapf(err, "mprotect %#x", addr)
	}
	copy(makeSlice(addr, len(data)), data)
	return errors.Wrapf(reProtectPages(addr, uintptr(len(data))), "mprotect %#x", addr)
}

func reProtectPages(addr, size uintptr) error {
	start, length := calcBoundaries(addr, size)
	return unix.Mprotect(makeSlice(start, int(length)), unix.PROT_EXEC|unix.PROT_READ)
}

func protectPages(addr, size uintptr) error {
	start, length := calcBoundaries(addr, size)
	return unix.Mprotect(makeSlice(start, int(length)), unix.PROT_EXEC|unix.PROT_READ|unix.PROT_WRITE)
}

func calcBoundaries(addr, size uintptr) (uintptr, uintptr) {
	start := addr &^ (pageSize - 1)
	length := pageSize * ((addr + size - start + pageSize - 1) / pageSize)
	return start, length
}

func init() {
	pageSize = uintptr(unix.Getpagesize())
}
