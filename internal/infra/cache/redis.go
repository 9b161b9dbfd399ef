package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/userlink/userlink-server/internal/config"
)

const dialTimeout = 5 * time.Second

// New connects the client used by the realtime bus and pings it once.
func New(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(options(cfg))

	pctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

func options(cfg *config.Config) *redis.Options {
	opts := &redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		ClientName:  cfg.App.Name,
		DialTimeout: dialTimeout,
	}
	if cfg.Redis.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// RegisterOpenTelemetryPlugin adds tracing and pool metrics. Call it after
// telemetry.SetupTracing so the global providers are in place.
func RegisterOpenTelemetryPlugin(rdb *redis.Client) error {
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return err
	}
	return redisotel.InstrumentMetrics(rdb)
}
