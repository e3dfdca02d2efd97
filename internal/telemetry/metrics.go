// Package telemetry exports audit metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// Settings selects whether and where metrics are exported.
type Settings struct {
	Enabled      bool
	CollectorURL string
	ServiceName  string
	Env          string
}

// Metrics records page outcomes. When export is disabled the instruments
// come from the global no-op provider.
type Metrics struct {
	audited  metric.Int64Counter
	failed   metric.Int64Counter
	scores   metric.Int64Histogram
	shutdown func(context.Context) error
}

// Setup builds the meter provider and the audit instruments.
func Setup(ctx context.Context, s Settings, logger *slog.Logger) (*Metrics, error) {
	m := &Metrics{shutdown: func(context.Context) error { return nil }}

	if s.Enabled {
		res, err := newResource(ctx, s, logger)
		if err != nil {
			return nil, fmt.Errorf("telemetry: resource: %w", err)
		}
		exporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(s.CollectorURL),
			otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("telemetry: exporter: %w", err)
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(provider)
		m.shutdown = provider.Shutdown
	}

	if err := m.instrument(otel.Meter(s.ServiceName)); err != nil {
		return nil, err
	}
	return m, nil
}

// NewWithProvider builds the instruments on an explicit provider.
func NewWithProvider(provider metric.MeterProvider, serviceName string) (*Metrics, error) {
	m := &Metrics{shutdown: func(context.Context) error { return nil }}
	if err := m.instrument(provider.Meter(serviceName)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) instrument(meter metric.Meter) error {
	var err error
	m.audited, err = meter.Int64Counter("auditor.pages.audited",
		metric.WithDescription("The number of audited pages."),
		metric.WithUnit("{pages}"))
	if err != nil {
		return fmt.Errorf("telemetry: pages audited counter: %w", err)
	}
	m.failed, err = meter.Int64Counter("auditor.pages.failed",
		metric.WithDescription("The number of audited pages with status FAIL."),
		metric.WithUnit("{pages}"))
	if err != nil {
		return fmt.Errorf("telemetry: pages failed counter: %w", err)
	}
	m.scores, err = meter.Int64Histogram("auditor.page.score",
		metric.WithDescription("The 0-100 compliance score of audited pages."),
		metric.WithExplicitBucketBoundaries(25, 50, 70, 85, 95, 100))
	if err != nil {
		return fmt.Errorf("telemetry: page score histogram: %w", err)
	}
	return nil
}

// RecordPage counts the page and records its score.
func (m *Metrics) RecordPage(ctx context.Context, page *model.PageAuditResult, score int) {
	attrs := metric.WithAttributes(attribute.Bool("fetched", page.FetchError == ""))
	m.audited.Add(ctx, 1, attrs)
	if !page.Passed() {
		m.failed.Add(ctx, 1, attrs)
	}
	m.scores.Record(ctx, int64(score), attrs)
}

// Shutdown flushes pending metrics.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.shutdown(ctx)
}

func newResource(ctx context.Context, s Settings, logger *slog.Logger) (*resource.Resource, error) {
	ecsResource, err := ecs.NewResourceDetector().Detect(ctx)
	if err != nil {
		logger.Debug("ecs detection failed", "error", err)
	}
	merged, err := resource.Merge(ecsResource, resource.Default())
	if err != nil {
		logger.Warn("failed to merge resources", "error", err)
	}

	instanceID := uuid.NewString()
	if ecsResource != nil {
		if v, ok := ecsResource.Set().Value("container.id"); ok {
			instanceID = v.AsString()
		}
	}
	return resource.Merge(merged, resource.NewSchemaless(
		semconv.ServiceName(s.ServiceName),
		semconv.DeploymentEnvironment(s.Env),
		semconv.ServiceInstanceID(instanceID),
	))
}
