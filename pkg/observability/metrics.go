// Package observability wires OpenTelemetry metrics with a Prometheus
// exporter for the preview service.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics builds the meter provider with a Prometheus reader and creates
// the service instruments. Each call uses its own registry; the returned
// handler serves the scrape endpoint for it.
func InitMetrics() (*PrometheusMetrics, http.Handler, error) {
	registry := prometheus.NewRegistry()

	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("previewd")

	previewDuration, err := meter.Float64Histogram(
		"previewd_dispatch_duration_seconds",
		metric.WithDescription("Preview dispatch duration in seconds"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dispatch duration histogram: %w", err)
	}

	previewTotal, err := meter.Int64Counter(
		"previewd_dispatch_total",
		metric.WithDescription("Total preview dispatches"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dispatch counter: %w", err)
	}

	previewFailures, err := meter.Int64Counter(
		"previewd_dispatch_failures_total",
		metric.WithDescription("Total preview dispatches that fell back"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dispatch failure counter: %w", err)
	}

	uploadBytes, err := meter.Int64Counter(
		"previewd_upload_bytes_total",
		metric.WithDescription("Total bytes received for preview"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create upload bytes counter: %w", err)
	}

	metrics := NewPrometheusMetrics(previewDuration, previewTotal, previewFailures, uploadBytes)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return metrics, handler, nil
}
