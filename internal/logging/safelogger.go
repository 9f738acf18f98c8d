package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SafeLogger emits structured audit events. User-identifying values must go
// through WithMasked so raw identifiers never reach the log stream.
type SafeLogger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *SafeLogger {
	if log == nil {
		log = slog.Default()
	}
	return &SafeLogger{log: log}
}

// NewJSON builds a SafeLogger writing JSON records to w (stdout if nil).
func NewJSON(w io.Writer) *SafeLogger {
	if w == nil {
		w = os.Stdout
	}
	return &SafeLogger{log: slog.New(slog.NewJSONHandler(w, nil))}
}

func (l *SafeLogger) Event(name string) *Event {
	return &Event{log: l.log, name: name}
}

// Event is a builder for a single audit record.
type Event struct {
	log   *slog.Logger
	name  string
	attrs []any
}

func (e *Event) With(key string, value any) *Event {
	e.attrs = append(e.attrs, slog.Any(key, value))
	return e
}

// WithMasked records value through the masking projection.
func (e *Event) WithMasked(key, value string) *Event {
	e.attrs = append(e.attrs, slog.String(key, MaskEmail(value)))
	return e
}

func (e *Event) Log() {
	e.log.Info(e.name, e.attrs...)
}

// LogError emits the event at error level. Used only where operators need the
// record to act, e.g. a failed OTP mail delivery.
func (e *Event) LogError() {
	e.log.Error(e.name, e.attrs...)
}

// MaskEmail redacts the local part of an email address keeping the first rune:
// "john@example.com" -> "j***@example.com". Values without an "@" keep only
// their first rune.
func MaskEmail(s string) string {
	if s == "" {
		return ""
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		r := []rune(s)
		return string(r[0]) + "***"
	}
	local := []rune(s[:at])
	return string(local[0]) + "***" + s[at:]
}
