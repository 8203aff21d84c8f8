//go:build !amd64

package detour

const maxPrologue = 32

func jumpTo(addr uintptr) []byte {
	return nil
}

func buildTrampoline(src []byte, from, to uintptr) ([]byte, int, error) {
	return nil, 0, ErrUnsupported
}
