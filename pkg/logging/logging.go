// Package logging sets up the run logger: a console writer on stderr and JSON
// lines appended to a log file, every line tagged with the run id.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures Setup.
type Options struct {
	// File receives JSON lines in append mode. Empty disables the file.
	File  string
	Level string
	// Console defaults to os.Stderr.
	Console io.Writer
	// RunID defaults to a fresh UUID.
	RunID string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the logger. The returned closer closes the log file.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closer = file
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return logger, closer, nil
}
