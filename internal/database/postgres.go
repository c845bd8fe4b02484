package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/config"
	"github.com/goloanme/backend/internal/logger"
)

// OpenPostgres opens the ledger database, configures the pool and waits for
// the server to answer a ping within cfg.ConnectTimeout.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ConfigurePool(db, cfg)

	if err := pingWithRetry(ctx, db, cfg.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName))
	return db, nil
}

// ConfigurePool applies the pool limits from cfg. Zero values keep the
// database/sql defaults.
func ConfigurePool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func pingWithRetry(ctx context.Context, db *sql.DB, budget time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = budget

	attempt := 0
	op := func() error {
		attempt++
		err := db.PingContext(ctx)
		if err != nil {
			logger.Warn("Database not ready", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
