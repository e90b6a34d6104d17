// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the default logger: debug-level text in development,
// info-level JSON everywhere else.
func Init(env string) *slog.Logger {
	return initTo(os.Stdout, env)
}

func initTo(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true})
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
