package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yourusername/livequiz-api/internal/config"
)

// NewUniversalRedisClient создает клиент Redis на основе унифицированной
// конфигурации. Поддерживает режимы single, sentinel, cluster.
func NewUniversalRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	addresses := cfg.Addrs
	if len(addresses) == 0 {
		if cfg.Addr == "" {
			return nil, fmt.Errorf("redis configuration error: Addrs or Addr must be provided")
		}
		addresses = []string{cfg.Addr}
	}

	options := &redis.UniversalOptions{
		Addrs:    addresses,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	if cfg.MaxRetries != 0 {
		options.MaxRetries = cfg.MaxRetries
	}
	if cfg.MinRetryBackoff != 0 {
		options.MinRetryBackoff = time.Duration(cfg.MinRetryBackoff) * time.Millisecond
	}
	if cfg.MaxRetryBackoff != 0 {
		options.MaxRetryBackoff = time.Duration(cfg.MaxRetryBackoff) * time.Millisecond
	}

	redisMode := cfg.Mode
	if redisMode == "" {
		redisMode = "single"
	}

	switch redisMode {
	case "sentinel":
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("redis sentinel mode requires MasterName")
		}
		options.MasterName = cfg.MasterName
	case "cluster", "single":
		// NewUniversalClient сам выбирает тип клиента по опциям
	default:
		return nil, fmt.Errorf("unsupported redis mode: %s", redisMode)
	}

	client := redis.NewUniversalClient(options)

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", redisMode, addresses, err)
	}

	return client, nil
}
