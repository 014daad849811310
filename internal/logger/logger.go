// Package logger provides the process-wide structured logger.
package logger

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

var root = hclog.New(&hclog.LoggerOptions{
	Name:   "airsonic",
	Level:  hclog.Info,
	Output: os.Stderr,
})

// Init reconfigures the root logger level ("debug", "info", "warn", "error").
func Init(level string) {
	root = hclog.New(&hclog.LoggerOptions{
		Name:   "airsonic",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	return root.Named(name)
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, args ...interface{}) {
	root.Debug(msg, args...)
}

// Info logs an informational message with optional key/value pairs.
func Info(msg string, args ...interface{}) {
	root.Info(msg, args...)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, args ...interface{}) {
	root.Warn(msg, args...)
}

// Error logs an error message with optional key/value pairs.
func Error(msg string, args ...interface{}) {
	root.Error(msg, args...)
}
