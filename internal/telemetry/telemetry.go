// Package telemetry provides OpenTelemetry metrics for kuzumem.
//
// Telemetry is disabled by default (zero runtime overhead when off).
//
// # Configuration
//
//	KUZUMEM_OTEL_ENABLED=true   enable metrics (default: off)
//
// When enabled, metrics are pretty-printed to stderr via the stdout exporter
// on a 30 s interval. Recorded instruments:
//
//   - kuzumem.tool.calls        counter, attrs: tool, ok
//   - kuzumem.tool.errors       counter, attrs: tool, code
//   - kuzumem.query.duration    histogram (ms), attrs: ok
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const instrumentationScope = "github.com/kuzumem/kuzumem-mcp"

var (
	shutdownFn func(context.Context) error

	toolCalls  metric.Int64Counter
	toolErrors metric.Int64Counter
	queryDur   metric.Float64Histogram
)

// Enabled reports whether telemetry is active (KUZUMEM_OTEL_ENABLED=true).
func Enabled() bool {
	return os.Getenv("KUZUMEM_OTEL_ENABLED") == "true"
}

// Init configures the OTel meter provider. When telemetry is disabled this
// installs a no-op provider and returns immediately.
func Init(ctx context.Context, version string) error {
	if !Enabled() {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		initInstruments()
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("kuzumem"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	// Stdout exporter writes to stderr so it never pollutes the stdio wire.
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return fmt.Errorf("telemetry: stdout exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(30*time.Second))),
	)
	otel.SetMeterProvider(mp)
	shutdownFn = mp.Shutdown
	initInstruments()
	return nil
}

func initInstruments() {
	m := otel.GetMeterProvider().Meter(instrumentationScope)
	toolCalls, _ = m.Int64Counter("kuzumem.tool.calls",
		metric.WithDescription("Total MCP tool invocations"))
	toolErrors, _ = m.Int64Counter("kuzumem.tool.errors",
		metric.WithDescription("MCP tool invocations that returned an error"))
	queryDur, _ = m.Float64Histogram("kuzumem.query.duration",
		metric.WithDescription("Graph query duration in milliseconds"),
		metric.WithUnit("ms"))
}

// Shutdown flushes pending metrics. Safe to call when telemetry is off.
func Shutdown(ctx context.Context) error {
	if shutdownFn == nil {
		return nil
	}
	return shutdownFn(ctx)
}

// RecordToolCall counts one tool invocation.
func RecordToolCall(ctx context.Context, tool string, err error, code string) {
	if toolCalls == nil {
		return
	}
	toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("ok", err == nil),
	))
	if err != nil {
		toolErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("code", code),
		))
	}
}

// RecordQuery records one engine query duration.
func RecordQuery(ctx context.Context, d time.Duration, err error) {
	if queryDur == nil {
		return
	}
	queryDur.Record(ctx, float64(d)/float64(time.Millisecond),
		metric.WithAttributes(attribute.Bool("ok", err == nil)))
}
