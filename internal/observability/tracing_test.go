package observability

import (
	"context"
	"errors"
	"testing"

	"foodshare/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Env:                "staging",
		TracingEnabled:     true,
		TracingExporter:    "otlp",
		OTLPEndpoint:       "collector:4318",
		TracingSampleRatio: 0.25,
	}
	got := TracingConfigFrom(cfg, "1.2.3")
	assert.Equal(t, TracingConfig{
		Version:      "1.2.3",
		Environment:  "staging",
		Enabled:      true,
		Exporter:     "otlp",
		OTLPEndpoint: "collector:4318",
		SampleRatio:  0.25,
	}, got)
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, sdktrace.ParentBased(sdktrace.NeverSample()).Description()},
		{1, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{2, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, newSampler(tt.ratio).Description(), "ratio %v", tt.ratio)
	}
}

func TestStartStoreSpan(t *testing.T) {
	ctx, span := StartStoreSpan(context.Background(), "food_listings", "get")
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })
}
