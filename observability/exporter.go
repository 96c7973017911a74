package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var (
	ErrUnknownMetricsMode = errors.New("[x-observability] unknown metrics mode")
)

type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Serves for test/dev environment.
func NewConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func NewPrometheusMetricsExporter() (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// InitMetrics installs the global meter provider picked by mode,
// one of "console", "prometheus" or "none".
func InitMetrics(mode string, interval time.Duration) (ShutdownFunc, error) {
	switch mode {
	case "console":
		return NewConsoleMetricsExporter(interval, interval, stdoutmetric.WithPrettyPrint())
	case "prometheus":
		return NewPrometheusMetricsExporter()
	case "none", "":
		return noopShutdown, nil
	default:
	}
	return nil, ErrUnknownMetricsMode
}
