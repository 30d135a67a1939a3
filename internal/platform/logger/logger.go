package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON slog logger every component shares. Level defaults to
// info; set LOG_LEVEL=debug to see provider payload diagnostics.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
