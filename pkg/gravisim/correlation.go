package gravisim

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
)

type correlationIDKey struct{}

// CorrelationID tags the log records of one logical operation, such as an
// SSH session or a reload.
type CorrelationID string

func (c CorrelationID) String() string {
	return string(c)
}

// NewCorrelationID returns 16 random hex digits.
func NewCorrelationID() CorrelationID {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return CorrelationID("0000000000000000")
	}
	return CorrelationID(hex.EncodeToString(b))
}

// WithCorrelationID returns ctx carrying id. An empty id is replaced by a
// new one.
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	if id == "" {
		id = NewCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the ID carried by ctx, or "".
func CorrelationIDFromContext(ctx context.Context) CorrelationID {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(CorrelationID)
	return id
}

// EnsureCorrelationID returns ctx unchanged when it already carries an ID
// and a child with a new one otherwise.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, NewCorrelationID())
}

// CorrelatedLogger prefixes every record with the correlation ID of its
// context.
type CorrelatedLogger struct {
	logger Logger
	ctx    context.Context
}

// NewCorrelatedLogger wraps logger. A nil logger discards.
func NewCorrelatedLogger(ctx context.Context, logger Logger) *CorrelatedLogger {
	if logger == nil {
		logger = NopLogger()
	}
	return &CorrelatedLogger{logger: logger, ctx: ctx}
}

func (c *CorrelatedLogger) withCorrelation(args []any) []any {
	if id := CorrelationIDFromContext(c.ctx); id != "" {
		return append([]any{"correlation_id", string(id)}, args...)
	}
	return args
}

func (c *CorrelatedLogger) Debug(msg string, args ...any) {
	c.logger.Debug(msg, c.withCorrelation(args)...)
}

func (c *CorrelatedLogger) Info(msg string, args ...any) {
	c.logger.Info(msg, c.withCorrelation(args)...)
}

func (c *CorrelatedLogger) Warn(msg string, args ...any) {
	c.logger.Warn(msg, c.withCorrelation(args)...)
}

func (c *CorrelatedLogger) Error(msg string, args ...any) {
	c.logger.Error(msg, c.withCorrelation(args)...)
}

// WithContext returns a copy logging with the ID of ctx.
func (c *CorrelatedLogger) WithContext(ctx context.Context) *CorrelatedLogger {
	return &CorrelatedLogger{logger: c.logger, ctx: ctx}
}

// CorrelatedSlogHandler adds the correlation_id attribute to records
// logged with a context carrying an ID (slog.InfoContext and friends).
type CorrelatedSlogHandler struct {
	inner slog.Handler
}

// NewCorrelatedSlogHandler wraps inner.
func NewCorrelatedSlogHandler(inner slog.Handler) *CorrelatedSlogHandler {
	return &CorrelatedSlogHandler{inner: inner}
}

func (h *CorrelatedSlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelatedSlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String("correlation_id", string(id)))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelatedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelatedSlogHandler) WithGroup(name string) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithGroup(name)}
}

// CorrelatedJSONLogger returns a JSON logger writing to w that picks up
// correlation IDs from record contexts.
func CorrelatedJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewCorrelatedSlogHandler(handler))
}
