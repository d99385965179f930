// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"slotpass/config"

	"github.com/go-redis/redis/v8"
)

// IdempotencyCacheClient is the dedicated client for idempotency-key caching.
var IdempotencyCacheClient *redis.Client

// InitIdempotencyCache initializes the Redis client used to replay idempotent
// request responses (dedicated logical DB from AppConfig).
func InitIdempotencyCache() {
	IdempotencyCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisIdempotencyDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := IdempotencyCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Idempotency Cache): %v", err)
	}
}

// GetIdempotencyCacheClient returns the idempotency cache client.
func GetIdempotencyCacheClient() *redis.Client {
	if IdempotencyCacheClient == nil {
		InitIdempotencyCache()
	}
	return IdempotencyCacheClient
}
