//go:build !unix && !windows

package detour

func allocExec(near uintptr, size int) (uintptr, error) {
	return 0, ErrUnsupported
}

func freeExec(addr uintptr, size int) {}

func writeCode(addr uintptr, data []byte) error {
	return ErrUnsupported
}
