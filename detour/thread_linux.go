package detour

import "golang.org/x/sys/unix"

func currentThread() uint64 {
	return uint64(unix.Gettid())
}
