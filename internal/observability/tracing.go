package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/pinsync/client/observability"

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartStoreSpan starts a span for remote record store operations
func StartStoreSpan(ctx context.Context, operation, store, recordType string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("Store %s %s", operation, recordType),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("store.name", store),
			attribute.String("store.operation", operation),
			attribute.String("store.record_type", recordType),
		),
	)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SyncMetrics holds reconciliation-layer metrics
type SyncMetrics struct {
	feedRefreshes  metric.Int64Counter
	branchFailures metric.Int64Counter
	pinWrites      metric.Int64Counter
	retryAttempts  metric.Int64Counter
	queueDepth     metric.Int64UpDownCounter
}

// NewSyncMetrics creates reconciliation metrics instruments
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(instrumentationName)

	feedRefreshes, err := meter.Int64Counter(
		"pinsync.feed.refreshes",
		metric.WithDescription("Total number of feed refresh operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, err
	}

	branchFailures, err := meter.Int64Counter(
		"pinsync.feed.branch_failures",
		metric.WithDescription("Per-(schema,store) query branches that contributed zero records"),
		metric.WithUnit("{failures}"),
	)
	if err != nil {
		return nil, err
	}

	pinWrites, err := meter.Int64Counter(
		"pinsync.pin.writes",
		metric.WithDescription("Total number of pin save attempts"),
		metric.WithUnit("{writes}"),
	)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := meter.Int64Counter(
		"pinsync.retry.attempts",
		metric.WithDescription("Total number of retry-queue save attempts"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64UpDownCounter(
		"pinsync.retry.queue_depth",
		metric.WithDescription("Number of payloads waiting in the retry queue"),
		metric.WithUnit("{payloads}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		feedRefreshes:  feedRefreshes,
		branchFailures: branchFailures,
		pinWrites:      pinWrites,
		retryAttempts:  retryAttempts,
		queueDepth:     queueDepth,
	}, nil
}

// RecordRefresh records one feed refresh and its failed branch count
func (m *SyncMetrics) RecordRefresh(ctx context.Context, failedBranches int) {
	if m == nil {
		return
	}
	m.feedRefreshes.Add(ctx, 1)
	if failedBranches > 0 {
		m.branchFailures.Add(ctx, int64(failedBranches))
	}
}

// RecordPinWrite records a pin save attempt
func (m *SyncMetrics) RecordPinWrite(ctx context.Context, store string, success bool) {
	if m == nil {
		return
	}
	m.pinWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", store),
		attribute.Bool("success", success),
	))
}

// RecordRetryAttempt records one retry-queue save attempt
func (m *SyncMetrics) RecordRetryAttempt(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// QueueDepthChanged adjusts the queue depth gauge
func (m *SyncMetrics) QueueDepthChanged(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.queueDepth.Add(ctx, delta)
}
