package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient returns nil when redis is disabled or unreachable; callers
// fall back to in-process implementations.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logrus.Info("Redis disabled, using in-process cache and leases")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Warnf("Redis connection failed: %v, using in-process cache and leases", err)
		client.Close()
		return nil
	}

	logrus.Info("Successfully connected to Redis")
	return client
}
