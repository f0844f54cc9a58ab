package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

func TestTraceStage(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")
	ctx := context.Background()

	require.NoError(t, TraceStage(ctx, tracer, "load", func(_ context.Context, span *Span) error {
		span.SetAttribute("records", 5000)
		return nil
	}))

	err := TraceStage(ctx, tracer, "write", func(context.Context, *Span) error {
		return errors.New(errors.ErrorTypeWritePermissionDenied, "denied")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "load", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, "write", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	var kind string
	for _, attr := range spans[1].Attributes() {
		if attr.Key == "error.kind" {
			kind = attr.Value.AsString()
		}
	}
	assert.Equal(t, "write_permission_denied", kind)
}

func TestInitTracing(t *testing.T) {
	ctx := context.Background()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	t.Run("disabled", func(t *testing.T) {
		shutdown, err := InitTracing(ctx, TracingConfig{})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
		assert.Same(t, prev, otel.GetTracerProvider())
	})

	t.Run("stdout exporter", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := InitTracing(ctx, TracingConfig{
			Enabled:        true,
			ServiceName:    "geosample",
			ServiceVersion: "test",
			Writer:         &buf,
		})
		require.NoError(t, err)

		_, span := StartSpan(ctx, Tracer(), "sample")
		span.End(nil)
		require.NoError(t, shutdown(ctx))

		assert.Contains(t, buf.String(), `"Name":"sample"`)
	})
}
