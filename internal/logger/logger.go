// Package logger provides the structured logger used throughout stagehand.
// It wraps charmbracelet/log, selecting a JSON formatter for machine
// consumption or a human-readable formatter for terminal use.
package logger

import (
	"io"
	"sort"

	cblog "github.com/charmbracelet/log"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
	Component     string
}

// Logger is a structured, leveled logger with a fixed set of bound fields.
type Logger struct {
	base *cblog.Logger
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = io.Discard
	}

	cbOpts := cblog.Options{
		ReportTimestamp: opts.HumanReadable,
	}
	if !opts.HumanReadable {
		cbOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, cbOpts)

	level, err := cblog.ParseLevel(levelOrDefault(opts.Level))
	if err != nil {
		return nil, err
	}
	base.SetLevel(level)

	if opts.Component != "" {
		base = base.With("component", opts.Component)
	}

	return &Logger{base: base}, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil || l.base == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return &Logger{base: l.base.With(args...)}
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(msg)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debug(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Warn(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil || l.base == nil {
		return
	}
	if err != nil {
		l.base.Error(msg, "error", err)
		return
	}
	l.base.Error(msg)
}
