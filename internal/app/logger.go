package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a configured slog.Logger and a closer for the optional
// log file. An empty LOG_FORMAT picks text on a terminal and JSON otherwise.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
		format string
		level  = slog.LevelInfo
	)
	if cfg != nil {
		format = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
		if cfg.LogLevel != "" {
			_ = level.UnmarshalText([]byte(cfg.LogLevel))
		}
		if cfg.LogFile != "" {
			file := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, file)
			closer = file
		}
	}
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), closer
	}
	return slog.New(slog.NewTextHandler(out, opts)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
