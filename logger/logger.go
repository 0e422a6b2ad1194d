package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
// It provides structured logging with configurable output formatting and
// credential masking suitable for logging signed requests.
type ZeroLogger struct {
	zlog      *zerolog.Logger
	sanitizer *Sanitizer
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

var callerMarshalOnce sync.Once

// New creates a new ZeroLogger writing to stdout with the specified log
// level. If pretty is true, output is formatted for human readability.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithOutput(level, pretty, os.Stdout)
}

// NewWithOutput creates a new ZeroLogger writing to the given writer.
func NewWithOutput(level string, pretty bool, out io.Writer) *ZeroLogger {
	callerMarshalOnce.Do(func() {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			base := filepath.Base(file)
			parent := filepath.Base(filepath.Dir(file))
			if parent != "." && parent != "" {
				return parent + "/" + base + ":" + strconv.Itoa(line)
			}
			return base + ":" + strconv.Itoa(line)
		}
	})

	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	} else {
		l = zerolog.New(out).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, sanitizer: NewSanitizer(nil)}
}

// Debug creates a debug-level log event
func (z *ZeroLogger) Debug() LogEvent {
	return &LogEventAdapter{event: z.zlog.Debug(), sanitizer: z.sanitizer}
}

// Info creates an info-level log event
func (z *ZeroLogger) Info() LogEvent {
	return &LogEventAdapter{event: z.zlog.Info(), sanitizer: z.sanitizer}
}

// Warn creates a warn-level log event
func (z *ZeroLogger) Warn() LogEvent {
	return &LogEventAdapter{event: z.zlog.Warn(), sanitizer: z.sanitizer}
}

// Error creates an error-level log event
func (z *ZeroLogger) Error() LogEvent {
	return &LogEventAdapter{event: z.zlog.Error(), sanitizer: z.sanitizer}
}

// WithFields returns a logger with the given fields attached to every event
func (z *ZeroLogger) WithFields(fields map[string]any) Logger {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = z.sanitizer.FilterValue(k, v)
	}
	l := z.zlog.With().Fields(filtered).Logger()
	return &ZeroLogger{zlog: &l, sanitizer: z.sanitizer}
}
