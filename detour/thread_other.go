//go:build !linux && !windows

package detour

// No portable thread id; a scoped disable applies to the whole process.
func currentThread() uint64 {
	return 0
}
