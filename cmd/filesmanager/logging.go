package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// setupLogging installs the process-wide logger: JSON lines on stdout in
// prod, colored text on stderr otherwise. The standard library logger is
// routed through it so net/http server errors are structured too.
func setupLogging(env, level string) {
	var h slog.Handler
	if env == "prod" {
		h = newLogHandler(os.Stdout, env, level)
	} else {
		h = newLogHandler(os.Stderr, env, level)
	}

	slog.SetDefault(slog.New(h).With("service", "filesmanager"))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo).Writer())
}

func newLogHandler(w io.Writer, env, level string) slog.Handler {
	lvl := parseLevel(env, level)

	if env == "prod" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		AddSource:  lvl == slog.LevelDebug,
		TimeFormat: "15:04:05.000",
	})
}

// parseLevel maps a configured level name to a slog level. Empty means
// debug in dev and info in prod; unknown names fall back to info.
func parseLevel(env, s string) slog.Level {
	if s == "" {
		if env == "prod" {
			return slog.LevelInfo
		}
		return slog.LevelDebug
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
