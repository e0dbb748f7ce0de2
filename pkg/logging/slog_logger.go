package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SlogLogger provides structured logging using slog
type SlogLogger struct {
	logger    *slog.Logger
	component string
}

// NewSlogLogger creates a new logger using slog backend
func NewSlogLogger(component string) *SlogLogger {
	handler := createHandler()
	logger := slog.New(handler)

	return &SlogLogger{
		logger:    logger,
		component: component,
	}
}

// createHandler creates an appropriate slog handler based on environment variables
func createHandler() slog.Handler {
	var output io.Writer = os.Stderr
	level := getLogLevelSlog()

	format := strings.ToUpper(os.Getenv("FDLOCK_LOG_FORMAT"))
	switch format {
	case "JSON":
		return slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level:       level,
			AddSource:   false,
			ReplaceAttr: replaceAttr,
		})
	default:
		return slog.NewTextHandler(output, &slog.HandlerOptions{
			Level:       level,
			AddSource:   false,
			ReplaceAttr: replaceAttr,
		})
	}
}

// getLogLevelSlog determines the slog level from environment
func getLogLevelSlog() slog.Level {
	levelStr := strings.ToUpper(os.Getenv("FDLOCK_LOG_LEVEL"))
	switch levelStr {
	case "TRACE", "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// replaceAttr customizes attribute names and values
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	// Keep the level attribute in the plain upper-case form
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		switch level {
		case slog.LevelDebug:
			return slog.Attr{Key: a.Key, Value: slog.StringValue("DEBUG")}
		case slog.LevelInfo:
			return slog.Attr{Key: a.Key, Value: slog.StringValue("INFO")}
		case slog.LevelWarn:
			return slog.Attr{Key: a.Key, Value: slog.StringValue("WARN")}
		case slog.LevelError:
			return slog.Attr{Key: a.Key, Value: slog.StringValue("ERROR")}
		}
	}
	return a
}

// Debug logs a debug-level message
func (l *SlogLogger) Debug(msg string) {
	l.logger.Debug(msg, "component", l.component)
}

// Info logs an info-level message
func (l *SlogLogger) Info(msg string) {
	l.logger.Info(msg, "component", l.component)
}

// Warn logs a warning-level message
func (l *SlogLogger) Warn(msg string) {
	l.logger.Warn(msg, "component", l.component)
}

// Error logs an error-level message
func (l *SlogLogger) Error(msg string) {
	l.logger.Error(msg, "component", l.component)
}

// WithFields returns a logger with additional fields
func (l *SlogLogger) WithFields(fields map[string]interface{}) *SlogLogger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &SlogLogger{
		logger:    l.logger.With(args...),
		component: l.component,
	}
}
