// Package unaligned reads integers and pointers from raw addresses that
// carry no alignment guarantee.
package unaligned

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Load reads a T at addr byte by byte.
func Load[T constraints.Integer](addr uintptr) T {
	var v T
	n := unsafe.Sizeof(v)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), n), unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return v
}

// Pointer reads the machine word at addr.
func Pointer(addr uintptr) uintptr {
	return Load[uintptr](addr)
}
