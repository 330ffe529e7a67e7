package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// a scrape is a single short process: spans are batched briefly and whatever
// is left is flushed by Shutdown, which must not hang when the collector is gone.
const (
	exportTimeout  = 5 * time.Second
	batchTimeout   = 2 * time.Second
	metricInterval = 15 * time.Second
)

// newResource tags every span and metric with the host and process.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	r, err := resource.New(
		ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithProcessPID(),
		resource.WithProcessExecutableName(),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), r)
}

func (c OtlpConnConfig) transport() string {
	if c.GrpcEndpoint != "" {
		return "grpc"
	}
	return "http"
}

func (c OtlpConnConfig) endpoint() string {
	if c.GrpcEndpoint != "" {
		return c.GrpcEndpoint
	}
	return c.HttpEndpoint
}

func newTraceProvider(ctx context.Context, r *resource.Resource, conn OtlpConnConfig) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error
	switch conn.transport() {
	case "grpc":
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(conn.GrpcEndpoint),
			otlptracegrpc.WithHeaders(conn.Headers),
			otlptracegrpc.WithTimeout(exportTimeout),
		)
	default:
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(conn.HttpEndpoint),
			otlptracehttp.WithHeaders(conn.Headers),
			otlptracehttp.WithTimeout(exportTimeout),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("exporting traces", "transport", conn.transport(), "endpoint", conn.endpoint())

	return trace.NewTracerProvider(
		trace.WithBatcher(
			exporter,
			trace.WithBatchTimeout(batchTimeout),
			trace.WithExportTimeout(exportTimeout),
		),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, conn OtlpConnConfig) (*metric.MeterProvider, error) {
	var exporter metric.Exporter
	var err error
	switch conn.transport() {
	case "grpc":
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(conn.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(conn.Headers),
			otlpmetricgrpc.WithTimeout(exportTimeout),
		)
	default:
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(conn.HttpEndpoint),
			otlpmetrichttp.WithHeaders(conn.Headers),
			otlpmetrichttp.WithTimeout(exportTimeout),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("exporting metrics", "transport", conn.transport(), "endpoint", conn.endpoint())

	// Shutdown collects once more, so counters of a run shorter than the
	// interval are still exported.
	reader := metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(metricInterval),
		metric.WithTimeout(exportTimeout),
	)
	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(r),
	), nil
}
