package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"

	FormatJSON = "json"
	FormatText = "text"
)

// Options selects the logger implementation and its outputs.
type Options struct {
	Backend string
	Format  string
	Level   string

	// File enables a rotating log file next to stdout when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a Logger writing to out and, if configured, to a rotating file.
// The returned closer releases the file and must be closed on shutdown.
func New(out io.Writer, opts Options) (Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	var fileOut io.Writer

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("log dir: %w", err)
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		fileOut = lj
		closer = lj
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		w := out
		if fileOut != nil {
			w = io.MultiWriter(out, fileOut)
		}
		hopts := &slog.HandlerOptions{Level: slogLevel(opts.Level)}
		var h slog.Handler
		if strings.EqualFold(opts.Format, FormatText) {
			h = slog.NewTextHandler(w, hopts)
		} else {
			h = slog.NewJSONHandler(w, hopts)
		}
		return NewSlogLogger(slog.New(h)), closer, nil

	case BackendZerolog:
		var w io.Writer = out
		if strings.EqualFold(opts.Format, FormatText) {
			w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
		}
		if fileOut != nil {
			w = zerolog.MultiLevelWriter(w, fileOut)
		}
		l := zerolog.New(w).Level(zerologLevel(opts.Level)).With().Timestamp().Logger()
		return NewZerologLogger(l), closer, nil
	}

	_ = closer.Close()
	return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
