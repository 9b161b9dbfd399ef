package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/userlink/userlink-server/internal/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	ServiceVersion = "0.1.0"

	exporterDialTimeout = 5 * time.Second
	metricInterval      = 10 * time.Second
)

func enabled(cfg *config.Config) bool {
	return cfg.Telemetry.Enabled && cfg.Telemetry.OtlpEndpoint != ""
}

// serviceResource is shared by the tracer and meter providers.
func serviceResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.App.Name),
			semconv.ServiceVersionKey.String(ServiceVersion),
			attribute.String("environment", cfg.App.Env),
		),
	)
}

// grpcEndpoint strips the scheme; the grpc exporters want host:port.
func grpcEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimPrefix(endpoint, "https://")
}

// plaintext reports whether the collector is reached without TLS.
func plaintext(endpoint string) bool {
	return !strings.HasPrefix(endpoint, "https://")
}
