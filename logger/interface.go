// Package logger defines the logging interface used throughout aws-bricks.
// It provides a contract for structured logging implementations so the
// request engine stays independent of any concrete logging backend.
package logger

import "time"

// Logger defines the contract for structured diagnostic logging.
// Implementations must be safe for concurrent use; the request engine
// logs from whatever goroutine invokes it.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent represents a structured log event that can be built with fields
// and sent. Sensitive values are masked by the implementation before output.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
