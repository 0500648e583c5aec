// Package logger provides the structured logging backend: a slog logger
// fanned out to the console and a size-rotated file, plus the model
// transcript sink the web front-end exposes.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

const (
	maxLogBytes   = 1024 * 1024
	maxLogBackups = 3
)

// Options configures a SlogLogger.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// FilePath names the rotating log file. Empty disables the file sink.
	FilePath string
	// Console receives the console stream; defaults to os.Stderr.
	Console io.Writer
}

// SlogLogger implements ports.Logger on top of log/slog.
type SlogLogger struct {
	base *slog.Logger
}

// New builds the logger. A file sink that cannot be opened is reported on the
// console and skipped, never fatal.
func New(opts Options) *SlogLogger {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	handlers := []slog.Handler{consoleHandler}

	if opts.FilePath != "" {
		rotating, err := NewRotatingWriter(opts.FilePath, maxLogBytes, maxLogBackups)
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "open log file", 0)
			record.Add("path", opts.FilePath, "error", err)
			_ = consoleHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, slog.NewTextHandler(rotating, &slog.HandlerOptions{Level: level}))
		}
	}

	return &SlogLogger{base: slog.New(slogmulti.Fanout(handlers...))}
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug(msg, attrs(nil, fields)...)
}

func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info(msg, attrs(nil, fields)...)
}

func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn(msg, attrs(nil, fields)...)
}

func (l *SlogLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.base.Error(msg, attrs(err, fields)...)
}

// attrs flattens the fields map into slog key/value pairs, key-sorted so the
// same call always renders the same line.
func attrs(err error, fields map[string]interface{}) []any {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(fields)*2+2)
	if err != nil {
		out = append(out, "error", err)
	}
	for _, key := range keys {
		out = append(out, key, fields[key])
	}
	return out
}
