// Package logging provides structured logging support for the fdlock module.
//
// Lock guards and tokens cannot return an error from their disposal paths, so
// release failures observed there are reported through this package instead of
// being swallowed or turned into panics.
package logging

import (
	"fmt"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message
type LogLevel int

// LogLevel constants represent the various log levels
const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

const (
	logLevelTrace = "TRACE"
	logLevelDebug = "DEBUG"
	logLevelInfo  = "INFO"
	logLevelWarn  = "WARN"
	logLevelError = "ERROR"
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return logLevelTrace
	case DEBUG:
		return logLevelDebug
	case INFO:
		return logLevelInfo
	case WARN:
		return logLevelWarn
	case ERROR:
		return logLevelError
	default:
		return "UNKNOWN"
	}
}

// Logger provides structured logging scoped to a component
type Logger struct {
	component  string
	level      LogLevel
	slogLogger *SlogLogger
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{
		component:  component,
		level:      getLogLevel(),
		slogLogger: NewSlogLogger(component),
	}
}

// getLogLevel determines the current log level from environment
func getLogLevel() LogLevel {
	levelStr := strings.ToUpper(os.Getenv("FDLOCK_LOG_LEVEL"))
	switch levelStr {
	case logLevelTrace:
		return TRACE
	case logLevelDebug:
		return DEBUG
	case logLevelInfo:
		return INFO
	case logLevelWarn:
		return WARN
	case logLevelError:
		return ERROR
	default:
		return WARN // Libraries stay quiet unless asked
	}
}

// logf logs a message at the specified level
func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	switch level {
	case TRACE, DEBUG:
		l.slogLogger.Debug(fmt.Sprintf(format, args...))
	case INFO:
		l.slogLogger.Info(fmt.Sprintf(format, args...))
	case WARN:
		l.slogLogger.Warn(fmt.Sprintf(format, args...))
	case ERROR:
		l.slogLogger.Error(fmt.Sprintf(format, args...))
	}
}

// Trace logs a trace-level message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(TRACE, format, args...)
}

// Debug logs a debug-level message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(DEBUG, format, args...)
}

// Info logs an info-level message
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(INFO, format, args...)
}

// Warn logs a warning-level message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(WARN, format, args...)
}

// Error logs an error-level message
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(ERROR, format, args...)
}

// IsDebugEnabled returns true if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= DEBUG
}
