package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"slotpass/models"

	"github.com/go-redis/redis/v8"
)

const idempotencyTTL = 10 * time.Minute

// IdempotencyStore replays booking responses for retried requests. Entries
// are short-lived; the unique index on Booking.IdempotencyKey backstops the
// window after expiry.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*models.BookingResult, error)
	Set(ctx context.Context, key string, result *models.BookingResult) error
}

// RedisIdempotencyStore implements IdempotencyStore on Redis with a TTL.
type RedisIdempotencyStore struct {
	Client *redis.Client
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*models.BookingResult, error) {
	raw, err := s.Client.Get(ctx, "idem:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result models.BookingResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, result *models.BookingResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, "idem:"+key, raw, idempotencyTTL).Err()
}
