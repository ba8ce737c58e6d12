package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" authorization = Bearer abc ,x-tenant=ops,,broken,=skip")
	require.Equal(t, map[string]string{
		"authorization": "Bearer abc",
		"x-tenant":      "ops",
	}, got)
	require.Empty(t, ParseHeaders(""))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestInitDisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := Init(context.Background(), Config{ServiceName: "gatelock"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestInitInstallsTracerProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Init(context.Background(), Config{
		ServiceName: "gatelock",
		Environment: "test",
		Endpoint:    "127.0.0.1:1",
		Insecure:    true,
		Traces:      true,
		SampleRatio: 0.5,
	})
	require.NoError(t, err)
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutdown has nothing to flush.
	_ = shutdown(ctx)
}

func TestSampler(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
