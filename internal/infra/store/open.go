package store

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/infra/db"
	"go.uber.org/zap"
)

// Open builds the backend selected by cfg.Database.Backend.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.Database.Backend {
	case config.BackendFile, "":
		log.Info("using json file store", zap.String("path", cfg.Database.FilePath))
		return NewFileStore(afero.NewOsFs(), cfg.Database.FilePath)
	case config.BackendMongo:
		log.Info("using mongo store", zap.String("database", cfg.Database.MongoDatabase))
		return NewMongoStore(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabase)
	case config.BackendPostgres, config.BackendSQLite:
		gdb, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Telemetry.Enabled {
			if err := db.RegisterOpenTelemetryPlugin(gdb); err != nil {
				log.Warn("gorm otel plugin", zap.Error(err))
			}
		}
		log.Info("using sql store", zap.String("dialect", cfg.Database.Backend))
		return NewSQLStore(gdb), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}
