package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stayhub/service-desk/internal/config"
)

const redisDialTimeout = 3 * time.Second

// Redis wraps the shared go-redis client. Connectivity problems at
// startup are logged but not fatal; the login limiter degrades and the
// readiness probe reports the outage.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and probes the server once.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close releases the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies connectivity for readiness probes.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
