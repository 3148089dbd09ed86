package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelcheck/config"
)

// Setup builds the process logger: text to stdout and JSON to a rotating file.
// It becomes the slog default, which also routes the standard log package
// through the same handlers. The returned func closes the log file.
func Setup(cfg config.LogConfig) (*slog.Logger, func() error) {
	level := ParseLevel(cfg.Level)
	stdoutHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if strings.TrimSpace(cfg.File) == "" {
		logger := slog.New(stdoutHandler)
		slog.SetDefault(logger)
		return logger, func() error { return nil }
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		logger := slog.New(stdoutHandler)
		slog.SetDefault(logger)
		logger.Warn("could not create log directory, logging to stdout only", "file", cfg.File, "error", err)
		return logger, func() error { return nil }
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	logger := NewWithWriters(os.Stdout, fileWriter, level)
	slog.SetDefault(logger)
	log.SetFlags(0)

	return logger, fileWriter.Close
}

// NewWithWriters fans out to a text handler on console and a JSON handler on file.
func NewWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
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
