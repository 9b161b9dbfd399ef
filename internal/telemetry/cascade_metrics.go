package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	cascadeCounter        metric.Int64Counter
	cascadeDuration       metric.Float64Histogram
	cascadeRemovedRecords metric.Int64Counter
	cascadeRemoteFailures metric.Int64Counter
)

// InitCascadeMetrics initializes the metrics recorded by cascading deletes.
func InitCascadeMetrics() error {
	meter := otel.Meter("userlink.cascade")

	var err error
	cascadeCounter, err = meter.Int64Counter(
		"cascade.delete.count",
		metric.WithDescription("Number of cascading delete operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	cascadeDuration, err = meter.Float64Histogram(
		"cascade.delete.duration",
		metric.WithDescription("Duration of cascading delete operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	cascadeRemovedRecords, err = meter.Int64Counter(
		"cascade.delete.records",
		metric.WithDescription("Records removed by cascading deletes"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	cascadeRemoteFailures, err = meter.Int64Counter(
		"cascade.remote.failures",
		metric.WithDescription("Best-effort remote calls that failed during a cascade"),
		metric.WithUnit("{error}"),
	)
	return err
}

// RecordCascade records one finished cascade rooted at entity ("user", "assistant", "chat_thread").
func RecordCascade(ctx context.Context, entity string, durationMs float64, removed map[string]int64, remoteFailures int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("status", status),
	)

	if cascadeCounter != nil {
		cascadeCounter.Add(ctx, 1, attrs)
	}
	if cascadeDuration != nil {
		cascadeDuration.Record(ctx, durationMs, attrs)
	}
	if cascadeRemovedRecords != nil {
		for kind, n := range removed {
			if n == 0 {
				continue
			}
			cascadeRemovedRecords.Add(ctx, n, metric.WithAttributes(
				attribute.String("entity", entity),
				attribute.String("kind", kind),
			))
		}
	}
	if cascadeRemoteFailures != nil && remoteFailures > 0 {
		cascadeRemoteFailures.Add(ctx, int64(remoteFailures), metric.WithAttributes(attribute.String("entity", entity)))
	}
}
