package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
// A nil error is rendered as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Elapsed records the time spent since start under the "elapsed" key.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
	// KeyRunID is the key for the benchmark run identifier.
	KeyRunID = "run_id"
	// KeyInstanceID is the key for a benchmark instance identifier.
	KeyInstanceID = "instance_id"
	// KeyWorkspaceID is the key for a remote workspace identifier.
	KeyWorkspaceID = "workspace_id"
)

// LoggerName creates a slog.Attr with the provided logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// RunID tags a record with the benchmark run it belongs to.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// InstanceID tags a record with the benchmark instance it belongs to.
func InstanceID(id string) slog.Attr {
	return slog.String(KeyInstanceID, id)
}

// WorkspaceID tags a record with the workspace an attempt runs in.
func WorkspaceID(id string) slog.Attr {
	return slog.String(KeyWorkspaceID, id)
}
