// Package telemetry exports wizard metrics through OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const instrumentationName = "github.com/rpggio/careplan"

// Config selects the exporter. An empty Endpoint disables export.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Insecure       bool
	Interval       time.Duration
}

// Setup installs a global meter provider that pushes to an OTLP collector.
// The returned function flushes and shuts the provider down.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// Metrics records draft saves, finalizes and open wizards. It satisfies
// draft.Recorder and session.Gauge.
type Metrics struct {
	saves        metric.Int64Counter
	saveDuration metric.Float64Histogram
	finalizes    metric.Int64Counter
	openWizards  metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on meter, or on the global provider
// when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	saves, err := meter.Int64Counter(
		"careplan.draft.saves",
		metric.WithDescription("Number of draft writes"),
	)
	if err != nil {
		return nil, err
	}

	saveDuration, err := meter.Float64Histogram(
		"careplan.draft.save.duration",
		metric.WithDescription("Draft write duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	finalizes, err := meter.Int64Counter(
		"careplan.finalize.count",
		metric.WithDescription("Number of finalize attempts"),
	)
	if err != nil {
		return nil, err
	}

	openWizards, err := meter.Int64UpDownCounter(
		"careplan.wizard.sessions.open",
		metric.WithDescription("Number of open wizards"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		saves:        saves,
		saveDuration: saveDuration,
		finalizes:    finalizes,
		openWizards:  openWizards,
	}, nil
}

// RecordSave records one draft write of kind.
func (m *Metrics) RecordSave(ctx context.Context, kind string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(err)),
	)
	m.saves.Add(ctx, 1, attrs)
	m.saveDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordFinalize records one commit attempt.
func (m *Metrics) RecordFinalize(ctx context.Context, err error) {
	m.finalizes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	m.openWizards.Add(ctx, 1)
}

func (m *Metrics) SessionClosed(ctx context.Context) {
	m.openWizards.Add(ctx, -1)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
