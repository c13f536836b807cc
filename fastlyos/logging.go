package fastlyos

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// newDefaultLogger builds the stderr logger used when Config.Logger is nil.
// The level is fixed at construction; there is no ambient debug toggle
// consulted per call.
func newDefaultLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: lvl,
	}))
}
