package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tapvote/internal/domain/repository"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// IdempotencyStore keeps idempotency records as JSON strings with a TTL.
type IdempotencyStore struct {
	rdb    *redis.Client
	prefix string
}

func NewIdempotencyStore(rdb *redis.Client, prefix string) *IdempotencyStore {
	if prefix == "" {
		prefix = "idem:poll:"
	}
	return &IdempotencyStore{rdb: rdb, prefix: prefix}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (repository.IdempotencyRecord, bool, error) {
	var rec repository.IdempotencyRecord
	found, err := helpers.RedisGetJSON(ctx, s.rdb, s.prefix+key, &rec)
	return rec, found, err
}

// Put keeps the first record written for key; later writes for the same key
// are ignored until it expires.
func (s *IdempotencyStore) Put(ctx context.Context, key string, rec repository.IdempotencyRecord, ttl time.Duration) error {
	_, err := helpers.RedisSetJSONNX(ctx, s.rdb, s.prefix+key, rec, ttl)
	return err
}

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)
