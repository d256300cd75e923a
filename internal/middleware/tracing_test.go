package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"foodshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = previous })
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingMiddleware(t *testing.T) {
	recorder := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/api/food-listings/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		return c.SendString("ok")
	})
	app.Get("/api/broken", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusInternalServerError) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, recorder.Ended(), "probes are not traced")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/food-listings/7", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Trace-ID"), 32)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/food-listings/:id", spans[0].Name())
	route, ok := spanAttr(spans[0], "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/food-listings/:id", route.AsString())
	user, ok := spanAttr(spans[0], "foodshare.user_id")
	require.True(t, ok)
	assert.EqualValues(t, 9, user.AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/broken", nil), -1)
	require.NoError(t, err)
	spans = recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracingMiddleware_ContinuesRemoteTrace(t *testing.T) {
	recordSpans(t)
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/messages", func(c *fiber.Ctx) error { return c.SendString("[]") })

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get("X-Trace-ID"))
}
