//go:build unix
// +build unix

package sys

// invalidFd is a descriptor value Duplicate must reject. -1 is never a
// valid descriptor.
func invalidFd() uintptr {
	return ^uintptr(0)
}
