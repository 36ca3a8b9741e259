package telemetry

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "erp-ledger"

// Span attribute keys of ledger operations
const (
	AttrEntryID        = attribute.Key("ledger.entry_id")
	AttrEntryNumber    = attribute.Key("ledger.entry_number")
	AttrDocumentID     = attribute.Key("ledger.document_id")
	AttrDocumentNumber = attribute.Key("ledger.document_number")
	AttrPaymentID      = attribute.Key("ledger.payment_id")
	AttrErrorKind      = attribute.Key("ledger.error_kind")
)

// StartServiceSpan starts an internal span named {service}.{method} on the
// global tracer provider. The caller ends it.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "journal", "post_entry")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on span. Domain rule violations are the caller's
// fault and leave the span status unset; they are tagged with their code and
// kind so rejected postings can still be found. Anything else fails the span.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.AddEvent("rejected", trace.WithAttributes(
			AttrErrorCode.String(de.Code),
			AttrErrorKind.String(string(de.Kind)),
		))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
