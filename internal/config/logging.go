package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a logger that writes text to stderr and, when logFile is
// set, JSON to that file. Extra handlers (alerting) join the same fanout.
// The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level, extra ...slog.Handler) (*slog.Logger, func() error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	handlers := append([]slog.Handler{stderrHandler}, extra...)

	if logFile == "" {
		return slog.New(slogmulti.Fanout(handlers...)), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return slog.New(slogmulti.Fanout(handlers...)), func() error { return nil }
	}

	handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	return slog.New(slogmulti.Fanout(handlers...)), file.Close
}

// SetupLoggerWithWriters creates the same fanout over custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
