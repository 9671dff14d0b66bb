package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/dictimport/internal/config"
	"github.com/heartmarshall/dictimport/pkg/ctxutil"
)

// NewLogger creates a *slog.Logger from LogConfig writing to os.Stderr
// and installs it as the slog default.
//
// Format "json" produces structured JSON output; "text" produces
// human-readable output with source info. Level is one of debug, info,
// warn, error (case-insensitive) and defaults to info. Records logged with
// a context carry its run_id and input attributes.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(contextHandler{handler})
}

// contextHandler adds the import run attributes stored by ctxutil.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctxutil.RunIDFromCtx(ctx); ok {
		r.AddAttrs(slog.String("run_id", id.String()))
	}
	if src := ctxutil.SourceFromCtx(ctx); src != "" {
		r.AddAttrs(slog.String("input", src))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
