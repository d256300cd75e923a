// Package middleware provides request logging, context propagation, rate
// limiting, metrics and tracing middleware for the FoodShare API.
package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger.
var Logger *slog.Logger

type contextKey string

// Context keys that the logger copies onto every record.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// requestFields maps Fiber locals to the context keys ContextMiddleware sets.
var requestFields = []struct {
	local string
	key   contextKey
}{
	{"requestid", RequestIDKey},
	{"userID", UserIDKey},
	{"traceID", TraceIDKey},
}

// ctxHandler attaches the request-scoped context values to each record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, f := range requestFields {
		switch v := ctx.Value(f.key).(type) {
		case string:
			r.AddAttrs(slog.String(string(f.key), v))
		case uint:
			r.AddAttrs(slog.Uint64(string(f.key), uint64(v)))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"))
}

// NewLogger builds the logger for env. Production logs JSON, everything else
// logs text. LOG_LEVEL accepts any slog level name and defaults to info.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, levelName string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if env := strings.ToLower(env); env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&ctxHandler{handler})
}

// ContextMiddleware moves request locals into the user context so logs from
// services carry them.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(requestContext(c))
		return c.Next()
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	for _, f := range requestFields {
		switch v := c.Locals(f.local).(type) {
		case string:
			if v != "" {
				ctx = context.WithValue(ctx, f.key, v)
			}
		case uint:
			ctx = context.WithValue(ctx, f.key, v)
		}
	}
	return ctx
}

// StructuredLogger logs one line per request once the handler chain returns.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		// locals are read again since auth sets userID further down the chain
		ctx := requestContext(c)

		if err == nil && status < fiber.StatusInternalServerError {
			Logger.InfoContext(ctx, "request processed", attrs...)
			return nil
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		Logger.ErrorContext(ctx, "request failed", attrs...)
		return err
	}
}
