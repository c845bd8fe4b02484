package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyPending = "pending"

// StoredResponse is the recorded outcome of a completed idempotent request.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyService deduplicates mutating requests by caller-supplied key.
// A key is claimed with SETNX before the handler runs and replaced by the
// handler's response once it finishes.
type IdempotencyService struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewIdempotencyService(redisClient *redis.Client, ttl time.Duration) *IdempotencyService {
	return &IdempotencyService{redis: redisClient, ttl: ttl}
}

func IdempotencyKey(endpoint, caller, key string) string {
	return fmt.Sprintf("idem:%s:%s:%s", endpoint, caller, key)
}

// Begin claims key. It returns a stored response when the request already
// completed, and ErrIdempotencyConflict while another request holds the key.
func (s *IdempotencyService) Begin(ctx context.Context, key string) (*StoredResponse, error) {
	claimed, err := s.redis.SetNX(ctx, key, idempotencyPending, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	data, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		// expired between SETNX and GET; the caller may retry
		return nil, ErrIdempotencyConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if data == idempotencyPending {
		return nil, ErrIdempotencyConflict
	}

	var stored StoredResponse
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return &stored, nil
}

// Complete records the response for replay.
func (s *IdempotencyService) Complete(ctx context.Context, key string, resp StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, string(data), s.ttl).Err()
}

// Release frees key so the request can be retried.
func (s *IdempotencyService) Release(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key).Err()
}
