package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("routecount")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.Emit(), true
		}
	}
	return "", false
}

func TestStartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	spans := NewSpanManager()
	_, span := spans.StartRunSpan(context.Background(), "grid", "run-123")
	require.NotNil(t, span)
	span.End()

	got := exporter.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "routecount.run", got[0].Name)

	board, ok := attrValue(got[0].Attributes, "board")
	assert.True(t, ok)
	assert.Equal(t, "grid", board)
	runID, ok := attrValue(got[0].Attributes, "run.id")
	assert.True(t, ok)
	assert.Equal(t, "run-123", runID)
}

func TestStartJobSpan_IsChildOfRun(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	spans := NewSpanManager()
	ctx, run := spans.StartRunSpan(context.Background(), "grid", "run-1")
	_, job := spans.StartJobSpan(ctx, "7")
	job.End()
	run.End()

	got := exporter.GetSpans()
	require.Len(t, got, 2)
	assert.Equal(t, "routecount.job.7", got[0].Name)
	assert.Equal(t, got[1].SpanContext.SpanID(), got[0].Parent.SpanID())

	jobID, ok := attrValue(got[0].Attributes, "job.id")
	assert.True(t, ok)
	assert.Equal(t, "7", jobID)
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	spans := NewSpanManager()

	t.Run("error sets status", func(t *testing.T) {
		exporter.Reset()
		_, span := spans.StartJobSpan(context.Background(), "1")
		spans.EndSpanWithError(span, errors.New("corrupt checkpoint"))

		got := exporter.GetSpans()
		require.Len(t, got, 1)
		assert.Equal(t, codes.Error, got[0].Status.Code)
		assert.Equal(t, "corrupt checkpoint", got[0].Status.Description)
		require.NotEmpty(t, got[0].Events, "error recorded as event")
	})

	t.Run("success sets ok", func(t *testing.T) {
		exporter.Reset()
		_, span := spans.StartJobSpan(context.Background(), "2")
		spans.EndSpanWithError(span, nil)

		got := exporter.GetSpans()
		require.Len(t, got, 1)
		assert.Equal(t, codes.Ok, got[0].Status.Code)
	})

	t.Run("nil span", func(t *testing.T) {
		assert.NotPanics(t, func() { spans.EndSpanWithError(nil, nil) })
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	spans := NewSpanManager()
	ctx, span := spans.StartJobSpan(context.Background(), "0")
	spans.AddSpanEvent(ctx, "job.explored", attribute.Int64("routes", 12))
	span.End()

	// No span in context: ignored.
	spans.AddSpanEvent(context.Background(), "ignored")

	got := exporter.GetSpans()
	require.Len(t, got, 1)
	require.Len(t, got[0].Events, 1)
	assert.Equal(t, "job.explored", got[0].Events[0].Name)
}

func TestNoopSpanManager(t *testing.T) {
	var spans SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := spans.StartRunSpan(ctx, "grid", "run")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = spans.StartJobSpan(ctx, "0")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		spans.AddSpanEvent(ctx, "x")
		spans.EndSpanWithError(span, errors.New("boom"))
	})
}
