//go:build unix
// +build unix

package fdlock

// invalidFd is a descriptor value handle duplication must reject. -1 is
// never a valid descriptor.
func invalidFd() uintptr {
	return ^uintptr(0)
}
