package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogEventAdapter adapts zerolog events to the LogEvent interface,
// running every field through the sanitizer before it is recorded.
type LogEventAdapter struct {
	event     *zerolog.Event
	sanitizer *Sanitizer
}

// Ensure LogEventAdapter implements the interface
var _ LogEvent = (*LogEventAdapter)(nil)

// Msg logs the message
func (a *LogEventAdapter) Msg(msg string) {
	a.event.Msg(msg)
}

// Msgf logs a formatted message
func (a *LogEventAdapter) Msgf(format string, args ...any) {
	a.event.Msgf(format, args...)
}

// Err adds an error to the log event
func (a *LogEventAdapter) Err(err error) LogEvent {
	return &LogEventAdapter{event: a.event.Err(err), sanitizer: a.sanitizer}
}

// Str adds a string field to the log event
func (a *LogEventAdapter) Str(key, value string) LogEvent {
	if a.sanitizer != nil {
		value = a.sanitizer.FilterString(key, value)
	}
	return &LogEventAdapter{event: a.event.Str(key, value), sanitizer: a.sanitizer}
}

// Int adds an int field to the log event
func (a *LogEventAdapter) Int(key string, value int) LogEvent {
	return &LogEventAdapter{event: a.event.Int(key, value), sanitizer: a.sanitizer}
}

// Int64 adds an int64 field to the log event
func (a *LogEventAdapter) Int64(key string, value int64) LogEvent {
	return &LogEventAdapter{event: a.event.Int64(key, value), sanitizer: a.sanitizer}
}

// Dur adds a duration field to the log event
func (a *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	return &LogEventAdapter{event: a.event.Dur(key, d), sanitizer: a.sanitizer}
}

// Interface adds an arbitrary field to the log event
func (a *LogEventAdapter) Interface(key string, i any) LogEvent {
	if a.sanitizer != nil {
		i = a.sanitizer.FilterValue(key, i)
	}
	return &LogEventAdapter{event: a.event.Interface(key, i), sanitizer: a.sanitizer}
}

// Bytes adds a byte-slice field to the log event
func (a *LogEventAdapter) Bytes(key string, val []byte) LogEvent {
	return &LogEventAdapter{event: a.event.Bytes(key, val), sanitizer: a.sanitizer}
}
