// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewLoggerFromConfig builds a logger at the configured level. When a log file is configured, output goes to both w
// and a size-rotated file. The returned closer releases the file and is never nil.
func NewLoggerFromConfig(w io.Writer, c LogConfig) (*log.Logger, io.Closer, error) {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if c.Level != "" {
		parsed, err := log.ParseLevel(c.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Level)
		}
		level = parsed
	}

	var closer io.Closer = nopCloser{}
	if c.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		}
		w = io.MultiWriter(w, rotator)
		closer = rotator
	}

	logger := NewLogger(w)
	SetLogLevel(logger, level)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
