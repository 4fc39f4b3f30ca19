package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the pair in Redis under "<prefix>:<key>".
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. An empty prefix defaults to "examsphere". A ttl of 0
// keeps the records until cleared.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "examsphere"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// Save implements Store. Both records are written in one MULTI/EXEC transaction.
//
//	Performance: 1 round-trip.
func (s *RedisStore) Save(ctx context.Context, pair Pair) error {
	if s.redis == nil {
		return ErrStoreUnavailable
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccessToken), pair.AccessToken, s.ttl)
		pipe.Set(ctx, s.key(KeyRefreshToken), pair.RefreshToken, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load implements Store.
//
//	Performance: 1 MGET.
func (s *RedisStore) Load(ctx context.Context) (Pair, error) {
	if s.redis == nil {
		return Pair{}, ErrStoreUnavailable
	}
	vals, err := s.redis.MGet(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Pair{}, nil
		}
		return Pair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(vals) != 2 {
		return Pair{}, fmt.Errorf("%w: unexpected MGET reply size %d", ErrStoreUnavailable, len(vals))
	}
	return Pair{
		AccessToken:  stringValue(vals[0]),
		RefreshToken: stringValue(vals[1]),
	}, nil
}

// Clear implements Store.
//
//	Performance: 1 DEL.
func (s *RedisStore) Clear(ctx context.Context) error {
	if s.redis == nil {
		return ErrStoreUnavailable
	}
	if err := s.redis.Del(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping measures the round-trip to Redis.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	if s.redis == nil {
		return 0, ErrStoreUnavailable
	}
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
