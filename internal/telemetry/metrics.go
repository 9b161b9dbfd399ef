package telemetry

import (
	"context"
	"fmt"

	"github.com/userlink/userlink-server/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var meterProvider *sdkmetric.MeterProvider

// SetupMetrics installs a global meter provider exporting to the OTLP collector.
// Cascade counters registered later through InitCascadeMetrics report through it.
func SetupMetrics(cfg *config.Config) (*sdkmetric.MeterProvider, error) {
	if !enabled(cfg) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics resource: %w", err)
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(grpcEndpoint(cfg.Telemetry.OtlpEndpoint))}
	if plaintext(cfg.Telemetry.OtlpEndpoint) {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricInterval))),
	)
	otel.SetMeterProvider(meterProvider)
	return meterProvider, nil
}

func ShutdownMetrics(ctx context.Context) error {
	if meterProvider == nil {
		return nil
	}
	return meterProvider.Shutdown(ctx)
}
