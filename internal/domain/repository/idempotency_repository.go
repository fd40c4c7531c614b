package repository

import (
	"context"
	"time"
)

// IdempotencyRecord remembers the outcome of a replay-safe request.
type IdempotencyRecord struct {
	RequestHash     string `json:"request_hash"`
	PollID          string `json:"poll_id"`
	RemainingPoints int    `json:"remaining_points"`
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, key string, rec IdempotencyRecord, ttl time.Duration) error
}
