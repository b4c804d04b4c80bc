// Package logger provides the structured logger passed to every helpdesk component.
//
// Console output goes through a colourised pretty handler; when a log file is
// configured, JSON records are written there as well. Debug records (including
// pipeline section banners) are only emitted in verbose mode.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Options configures a Logger.
type Options struct {
	// Output receives pretty console records. Defaults to os.Stderr.
	Output io.Writer

	// Verbose enables debug records.
	Verbose bool

	// File, when set, receives JSON records at info level and above.
	File string
}

// Logger is a slog.Logger with a few CLI conveniences.
type Logger struct {
	*slog.Logger
	verbose bool
	closer  io.Closer
}

// New creates a logger from options.
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		NewPrettyHandler(out, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: level}}),
	}

	var closer io.Closer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
		closer = f
	}

	return &Logger{
		Logger:  slog.New(newFanout(handlers...)),
		verbose: opts.Verbose,
		closer:  closer,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// IsVerbose returns true if debug records are emitted.
func (l *Logger) IsVerbose() bool {
	return l.verbose
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), verbose: l.verbose}
}

// Section logs a pipeline stage banner at debug level.
func (l *Logger) Section(name string) {
	l.Debug(fmt.Sprintf("=== %s ===", name))
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
