package db

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/userlink/userlink-server/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var sslmodeRegex = regexp.MustCompile(`(?i)\bsslmode\s*=\s*\w+`)

// New opens the relational database behind the sql document backend.
func New(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.Database.Backend {
	case config.BackendPostgres:
		dialector = postgres.Open(postgresDSN(cfg.Database.DSN, cfg.Database.EnableTLS))
	case config.BackendSQLite:
		dsn := cfg.Database.DSN
		if dsn == "" {
			dsn = "userlink.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("backend %q is not a sql backend", cfg.Database.Backend)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Backend == config.BackendSQLite {
		// sqlite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return db, nil
}

// postgresDSN forces sslmode=require when TLS is enabled.
func postgresDSN(dsn string, enableTLS bool) string {
	if !enableTLS {
		return dsn
	}
	if sslmodeRegex.MatchString(dsn) {
		return sslmodeRegex.ReplaceAllString(dsn, "sslmode=require")
	}
	if !strings.HasSuffix(dsn, " ") {
		dsn += " "
	}
	return dsn + "sslmode=require"
}

// RegisterOpenTelemetryPlugin registers the OpenTelemetry plugin for GORM
// This should be called after telemetry.SetupTracing() to ensure tracer provider is set
func RegisterOpenTelemetryPlugin(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin())
}
