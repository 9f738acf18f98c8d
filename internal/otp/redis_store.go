package otp

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix      = "otp:"
	attemptsKeyPrefix = "otp_attempts:"
)

// consumeScript deletes the key only when its value matches, in one server-side
// step. Returns -1 when the key is missing, 0 on mismatch, 1 when consumed.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == false then
	return -1
end
if v == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// RedisStore is the shared backend. It is authoritative across service
// instances; all mutation goes through Redis atomic primitives.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKeyPrefix+email, code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, otpKeyPrefix+email).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKeyPrefix+email).Err()
}

func (s *RedisStore) ConsumeIfMatch(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{otpKeyPrefix + email}, code).Int64()
	if err != nil {
		return false, err
	}
	if n < 0 {
		return false, ErrNotFound
	}
	return n == 1, nil
}

func (s *RedisStore) Exists(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, otpKeyPrefix+email).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrAttempts increments the per-email attempt counter and refreshes the
// window expiry. A corrupted (non-integer) counter is deleted and treated as
// zero before incrementing.
func (s *RedisStore) IncrAttempts(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := attemptsKeyPrefix + email
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		if !isNonIntegerErr(err) {
			return 0, err
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return 0, err
		}
		n, err = s.client.Incr(ctx, key).Result()
		if err != nil {
			return 0, err
		}
	}
	if err := s.client.Expire(ctx, key, window).Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// isNonIntegerErr matches the Redis reply for INCR on a non-numeric value.
func isNonIntegerErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not an integer")
}
