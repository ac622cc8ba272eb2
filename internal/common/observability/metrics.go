package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability exposes service-level pipeline meters through the global
// Prometheus registry via the OpenTelemetry metric SDK.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	pipelineCounter  otelmetric.Int64Counter
	pipelineDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	pipelineCounter, _ := meter.Int64Counter(
		"pipeline.invocations",
		otelmetric.WithDescription("Number of scoring/comparison pipeline invocations"),
	)

	pipelineDuration, _ := meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("Pipeline invocation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		pipelineCounter:  pipelineCounter,
		pipelineDuration: pipelineDuration,
	}
}

// RecordInvocation counts one pipeline invocation with its outcome
// (completed, fallback, rejected).
func (o *Observability) RecordInvocation(ctx context.Context, pipeline, outcome string) {
	if o.pipelineCounter != nil {
		o.pipelineCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("pipeline", pipeline),
			attribute.String("outcome", outcome),
		))
	}
}

// RecordDuration records how long one pipeline invocation took.
func (o *Observability) RecordDuration(ctx context.Context, pipeline string, duration time.Duration) {
	if o.pipelineDuration != nil {
		o.pipelineDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("pipeline", pipeline),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
