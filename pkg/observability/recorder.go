package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusMetrics records preview dispatch outcomes. All methods are safe
// on a nil receiver so callers need no enabled checks.
type PrometheusMetrics struct {
	dispatchDuration metric.Float64Histogram
	dispatchTotal    metric.Int64Counter
	dispatchFailures metric.Int64Counter
	uploadBytes      metric.Int64Counter
}

func NewPrometheusMetrics(
	dispatchDuration metric.Float64Histogram,
	dispatchTotal metric.Int64Counter,
	dispatchFailures metric.Int64Counter,
	uploadBytes metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		dispatchDuration: dispatchDuration,
		dispatchTotal:    dispatchTotal,
		dispatchFailures: dispatchFailures,
		uploadBytes:      uploadBytes,
	}
}

// ObserveDispatch records one preview attempt for the given handler.
func (m *PrometheusMetrics) ObserveDispatch(ctx context.Context, handler string, succeeded bool, elapsed time.Duration) {
	if m == nil || m.dispatchDuration == nil || m.dispatchTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("handler", handler),
	}

	m.dispatchDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if !succeeded && m.dispatchFailures != nil {
		m.dispatchFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// ObserveUpload records bytes accepted by the preview endpoint.
func (m *PrometheusMetrics) ObserveUpload(ctx context.Context, size int64) {
	if m == nil || m.uploadBytes == nil {
		return
	}
	m.uploadBytes.Add(ctx, size)
}
