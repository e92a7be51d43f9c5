package logger

import (
	"io"
	"log/slog"
)

func newStdHandler(cfg Config, out io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.effectiveLevel(),
		AddSource: cfg.AddSource,
	}
	if cfg.Env == EnvDev {
		return slog.NewTextHandler(out, opts)
	}

	return slog.NewJSONHandler(out, opts)
}
