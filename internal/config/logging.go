package config

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. Level follows DebugLevel: 0 warn,
// 1 info, 2 debug, 3 debug with source locations. Logs always go to stderr;
// when LogFile is set they are duplicated to a size-rotated file, which HTTP
// deployments use so stderr stays readable.
func NewLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch cfg.DebugLevel {
	case 0:
		level = slog.LevelWarn
	case 1:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.DebugLevel >= 3,
	}))
}
