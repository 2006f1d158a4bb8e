package slogutil

import (
	"io"
	"log/slog"
)

// Options selects where a CLI run logs to.
type Options struct {
	// Console receives human-facing log lines (usually stderr). Nil discards.
	Console io.Writer
	// Level applies to the console handler.
	Level slog.Level
	// File, when set, receives a second copy of every record at FileLevel.
	File       string
	FileLevel  slog.Level
	MaxSize    string // e.g. "10MB"; empty disables rotation
	MaxBackups int
}

// Setup builds the run logger described by opts. The returned closer is
// non-nil and must be closed once the run ends.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = io.Discard
	}
	consoleHandler := NewLineHandler(console, &slog.HandlerOptions{Level: opts.Level})

	if opts.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	// A zero size from ParseSize disables rotation.
	rf, err := OpenRotatingFile(opts.File, ParseSize(opts.MaxSize), opts.MaxBackups)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := NewLineHandler(rf, &slog.HandlerOptions{Level: opts.FileLevel})
	return slog.New(NewTeeHandler(consoleHandler, fileHandler)), rf, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
