package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/previewnote/internal/logfields"
)

// LogContext holds structured logging context information for one run.
type LogContext struct {
	RunID        string
	Project      string
	MergeRequest string
	Stage        string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithProject adds the target project path to the context.
func WithProject(ctx context.Context, project string) context.Context {
	lc := extractLogContext(ctx)
	lc.Project = project
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMergeRequest adds the merge request IID to the context.
func WithMergeRequest(ctx context.Context, iid string) context.Context {
	lc := extractLogContext(ctx)
	lc.MergeRequest = iid
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RunID != "" {
		attrs = append(attrs, logfields.RunID(lc.RunID))
	}
	if lc.Project != "" {
		attrs = append(attrs, logfields.Project(lc.Project))
	}
	if lc.MergeRequest != "" {
		attrs = append(attrs, logfields.MergeRequest(lc.MergeRequest))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}

	return attrs
}

// ContextHandler decorates records logged with a context carrying a
// LogContext with its attributes.
type ContextHandler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := getLogAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// NewLogger builds the process logger. format is "json" or "text"; anything
// else falls back to text.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(ContextHandler{Handler: h})
}

// ParseLevel converts a config level name to a slog.Level, defaulting to info.
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
