package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "idem:"
	defaultClaimTTL    = 60 * time.Second
)

// deleteIfEqual removes KEYS[1] only while it still holds ARGV[1].
var deleteIfEqual = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares outcomes between processes. Expiry is delegated to redis
// and re-checked on read against CreatedAt.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	claimTTL time.Duration
	now      func() time.Time
}

type RedisOption func(*RedisStore)

func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClaimTTL bounds how long a crashed dispatcher can hold a key.
func WithClaimTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:   client,
		prefix:   defaultRedisPrefix,
		ttl:      DefaultTTL,
		claimTTL: defaultClaimTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) resultKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) claimKey(key string) string {
	return s.prefix + key + ":claim"
}

func (s *RedisStore) Lookup(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, s.resultKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode idempotency entry: %w", err)
	}

	if s.now().Sub(e.CreatedAt) > s.ttl {
		// a concurrent Store may have replaced the entry since the GET
		if err := s.deleteIfUnchanged(ctx, s.resultKey(key), raw); err != nil {
			return nil, fmt.Errorf("redis del expired entry: %w", err)
		}
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *RedisStore) Store(ctx context.Context, key string, payload []byte) error {
	raw, err := json.Marshal(&Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("encode idempotency entry: %w", err)
	}

	if err := s.client.Set(ctx, s.resultKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Claim(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.claimKey(key), token, s.claimTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx claim: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the claim unless it lapsed and another process now holds it.
func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	if err := s.deleteIfUnchanged(ctx, s.claimKey(key), token); err != nil {
		return fmt.Errorf("redis release claim: %w", err)
	}
	return nil
}

func (s *RedisStore) deleteIfUnchanged(ctx context.Context, key string, value any) error {
	return deleteIfEqual.Run(ctx, s.client, []string{key}, value).Err()
}
