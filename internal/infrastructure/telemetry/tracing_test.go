package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useSpanRecorder installs a recording tracer provider for the test
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "journal", "post_entry",
		AttrEntryNumber.String("JE000001"))
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "journal.post_entry", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, "JE000001", attrMap(spans[0].Attributes())[AttrEntryNumber].AsString())
}

func TestRecordError(t *testing.T) {
	t.Run("domain rejection is an event, not a failure", func(t *testing.T) {
		recorder := useSpanRecorder(t)

		_, span := StartServiceSpan(context.Background(), "payment", "allocate")
		RecordError(span, fmt.Errorf("allocate: %w", shared.NewDomainError("OVER_ALLOCATION", "exceeds outstanding")))
		span.End()

		s := recorder.Ended()[0]
		assert.Equal(t, codes.Unset, s.Status().Code)
		require.Len(t, s.Events(), 1)
		assert.Equal(t, "rejected", s.Events()[0].Name)
		attrs := attrMap(s.Events()[0].Attributes)
		assert.Equal(t, "OVER_ALLOCATION", attrs[AttrErrorCode].AsString())
		assert.Equal(t, "state", attrs[AttrErrorKind].AsString())
	})

	t.Run("retryable conflict keeps its kind", func(t *testing.T) {
		recorder := useSpanRecorder(t)

		_, span := StartServiceSpan(context.Background(), "journal", "post_entry")
		RecordError(span, shared.ErrConcurrencyConflict)
		span.End()

		attrs := attrMap(recorder.Ended()[0].Events()[0].Attributes)
		assert.Equal(t, "consistency", attrs[AttrErrorKind].AsString())
	})

	t.Run("infrastructure error fails the span", func(t *testing.T) {
		recorder := useSpanRecorder(t)

		_, span := StartServiceSpan(context.Background(), "document", "create")
		RecordError(span, errors.New("connection reset"))
		span.End()

		s := recorder.Ended()[0]
		assert.Equal(t, codes.Error, s.Status().Code)
		assert.Equal(t, "connection reset", s.Status().Description)
	})

	t.Run("nil span or error", func(t *testing.T) {
		assert.NotPanics(t, func() {
			RecordError(nil, errors.New("x"))
			_, span := StartServiceSpan(context.Background(), "journal", "noop")
			RecordError(span, nil)
			span.End()
		})
	})
}
