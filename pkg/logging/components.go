package logging

// Component-specific loggers shared by the fdlock packages

// Sys logger for native lock syscall operations
var Sys = NewLogger("sys")

// Guard logger for guard construction and release
var Guard = NewLogger("guard")

// Bridge logger for asynchronous acquisition hand-off
var Bridge = NewLogger("bridge")

// Workers logger for the blocking worker pool
var Workers = NewLogger("workers")

// CLI logger for command-line operations
var CLI = NewLogger("cli")

// ReleaseFailure reports a lock release that failed on a disposal path.
// Disposal has no error return channel, so this is the only place such a
// failure becomes visible.
func ReleaseFailure(component string, err error) {
	switch component {
	case "guard":
		Guard.Error("lock release failed on disposal: %v", err)
	case "bridge":
		Bridge.Error("lock release failed on disposal: %v", err)
	default:
		Sys.Error("lock release failed on disposal: %v", err)
	}
}

// AcquireAttempt logs a lock acquisition attempt
func AcquireAttempt(component, mode string, blocking bool) {
	Sys.Debug("acquire component=%s mode=%s blocking=%t", component, mode, blocking)
}

// AcquireContended logs a non-blocking acquisition that found the lock held
func AcquireContended(component, mode string) {
	Sys.Debug("acquire component=%s mode=%s status=would-block", component, mode)
}
