package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.Emit()
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "allocation", "allocate",
		telemetry.SpanAttrOrderID, "order-1",
		telemetry.SpanAttrQuantity, 12.5,
		42, "ignored",
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "allocation.allocate", spans[0].Name())
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "order-1", attrs[telemetry.SpanAttrOrderID])
	assert.Equal(t, "12.5", attrs[telemetry.SpanAttrQuantity])
	assert.Len(t, attrs, 2)
}

func TestRecordError(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "settlement", "record_payment")
	telemetry.RecordError(span, errors.New("boom"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestSetAttributes(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "order", "lock")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, "locked", "lines", 3, "odd")
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Equal(t, "locked", attrs[telemetry.SpanAttrOrderStatus])
	assert.Equal(t, "3", attrs["lines"])
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
