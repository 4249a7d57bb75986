package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// Options selects where log lines go. The TUI owns the terminal, so the
// default sink is a rotating file; Stderr switches to a console writer.
type Options struct {
	Level     string
	File      string
	MaxSizeMB int
	MaxFiles  int // rotated files kept; 0 keeps all of them
	Stderr    bool
}

// ParseLevel maps a level name onto a zerolog level.
// Supported values (case-insensitive): debug, info, warn, error. Anything
// else, including the empty string, is info.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds the process logger. The returned closer releases the log file
// and is safe to call when logging goes to stderr.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case opts.Stderr:
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	case opts.File != "":
		w, err := NewRotatingWriter(opts)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		out, closer = w, w
	default:
		return zerolog.Nop(), closer, nil
	}

	l := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return l, closer, nil
}

// NewRotatingWriter opens a size-rotated log file, creating its directory.
func NewRotatingWriter(opts Options) (*lumberjack.Logger, error) {
	if opts.File == "" {
		return nil, errors.New("log file path must not be empty")
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaultMaxSizeMB
	}
	if opts.MaxFiles < 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxFiles,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
