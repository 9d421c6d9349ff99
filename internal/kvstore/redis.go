package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis. Every write refreshes the key's TTL so
// stale counters age out on the Redis side.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a store that expires keys ttl after their last write. ttl <= 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrBy(ctx, key, delta)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		if isNotInteger(err) {
			return 0, ErrNotInteger
		}
		return 0, fmt.Errorf("redis incrby %s: %w", key, err)
	}
	return incr.Val(), nil
}

// incrBelowScript returns {incremented, value}. ARGV[1] is the limit and
// ARGV[2] the TTL in milliseconds (0 keeps the key without expiry).
var incrBelowScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
local n = 0
if v then
	if not string.match(v, '^%-?%d+$') then
		return redis.error_reply('ERR value is not an integer or out of range')
	end
	n = tonumber(v)
end
if n >= tonumber(ARGV[1]) then
	return {0, n}
end
n = redis.call('INCR', KEYS[1])
if tonumber(ARGV[2]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, n}
`)

func (s *RedisStore) IncrBelow(ctx context.Context, key string, limit int64) (int64, bool, error) {
	var ttlMillis int64
	if s.ttl > 0 {
		ttlMillis = s.ttl.Milliseconds()
	}
	res, err := incrBelowScript.Run(ctx, s.client, []string{key}, limit, ttlMillis).Int64Slice()
	if err != nil {
		if isNotInteger(err) {
			return 0, false, ErrNotInteger
		}
		return 0, false, fmt.Errorf("redis incrbelow %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis incrbelow %s: unexpected reply %v", key, res)
	}
	return res[1], res[0] == 1, nil
}

// isNotInteger matches the error reply Redis sends for INCRBY on a non-integer value.
func isNotInteger(err error) bool {
	var redisErr redis.Error
	if !errors.As(err, &redisErr) {
		return false
	}
	return strings.HasPrefix(redisErr.Error(), "ERR value is not an integer")
}
