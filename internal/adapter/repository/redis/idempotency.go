package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore implements usecase.IdempotencyStore using Redis. It
// backs the Idempotency-Key middleware on mutating API endpoints; the
// webhook path never uses it because deposits dedup on the ledger's
// external reference instead.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "walletcore:idem:",
	}
}

// placeholder marks a key claimed by an in-flight request before its final
// response is known.
const placeholder = "processing"

// CheckAndSet atomically claims the key. Returns (true, stored) when the
// key already exists; (false, nil) when this caller claimed it.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := any(placeholder)
	if response != nil {
		value = response
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		// The winner's key expired between SetNX and Get; treat as claimed
		// with no stored response.
		if errors.Is(err, redis.Nil) {
			return true, nil, nil
		}
		return false, nil, err
	}
	return true, existing, nil
}

// Update replaces the placeholder with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}
