package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/infra/store"
)

// OpenStore opens the configured backend and makes sure every collection exists.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	s, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if !cfg.Database.AutoMigrate {
		return s, nil
	}
	if err := s.EnsureCollections(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	log.Info("collections ready", zap.String("backend", cfg.Database.Backend))
	return s, nil
}
