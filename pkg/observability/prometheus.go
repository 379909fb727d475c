package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// PrometheusMeterProvider builds a [sdkmetric.MeterProvider] backed by an
// OTel-to-Prometheus bridge exporter and returns the [http.Handler] that
// serves its scrape endpoint. Used when a workspace is configured for
// Prometheus-style pull metrics instead of (or alongside) OTLP push export —
// e.g. `sqfvm-lsp serve` with metrics.enabled set and no collector, serving
// the endpoint on the metrics.addr config value.
// Each call creates an independent registry so repeated Init calls (tests)
// never collide on global collector registration.
func PrometheusMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return mp, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
