package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alekLukanen/errs"
)

// LogFileTimeLayout names one log file per run after its start time.
const LogFileTimeLayout = "01_02_2006_15_04_05"

type Options struct {
	Dir    string
	Level  string
	JSON   bool
	Stderr bool
	Now    func() time.Time
}

// NewRunLogger opens the log file of a run under opts.Dir and returns a
// logger writing to it, the file path and a func that closes the file.
func NewRunLogger(opts Options) (*slog.Logger, string, func() error, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, "", nil, errs.NewStackError(err)
	}

	filePath := filepath.Join(opts.Dir, fmt.Sprintf("%s.log", now().Format(LogFileTimeLayout)))
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", nil, errs.NewStackError(err)
	}

	var w io.Writer = file
	if opts.Stderr {
		w = io.MultiWriter(file, os.Stderr)
	}
	return New(w, opts), filePath, file.Close, nil
}

// New builds a logger on w with source locations attached to every record.
func New(w io.Writer, opts Options) *slog.Logger {
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level), AddSource: true}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, cfg)
	} else {
		h = slog.NewTextHandler(w, cfg)
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
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
