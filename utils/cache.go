// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"medislot/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client (availability cache, sweeper lease).
var CacheClient *redis.Client

// InitCache initializes the generic Redis cache client. Unlike the database, Redis is
// optional: callers fall back to uncached reads and a process-local sweep when it is down.
func InitCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	CacheClient = client
	return nil
}

// GetCacheClient returns the generic cache client, or nil when Redis is unavailable.
func GetCacheClient() *redis.Client {
	return CacheClient
}
