//go:build windows
// +build windows

package sys

// invalidFd is a handle value Duplicate must reject. The all-ones value is
// INVALID_HANDLE_VALUE, which doubles as the current-process pseudo-handle
// and duplicates successfully; the null handle does not.
func invalidFd() uintptr {
	return 0
}
