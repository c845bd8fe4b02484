package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/config"
	"github.com/goloanme/backend/internal/logger"
)

// OpenRedis connects to the redis instance backing idempotency keys and QR
// codes. Both features need it, so a failed ping is fatal to startup.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr()))
	return rdb, nil
}
