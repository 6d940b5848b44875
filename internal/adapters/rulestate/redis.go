package rulestate

import (
	"context"
	"fmt"
	"time"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "admission:"

// incrScript increments a window counter and arms its expiry in one atomic
// step, so concurrent requests for the same key can neither double-count
// nor lose an increment.
var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisStore implements ports.RuleStateStore on a shared redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the rule-state redis.
func NewRedisStore(addr string, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb}
}

// Increment advances the window for key and returns the new count. A count
// of 1 means a fresh window just opened with lifetime `window`.
func (r *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	res, err := incrScript.Run(ctx, r.client, []string{keyPrefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: increment %q: %v", domain.ErrRuleStoreUnavailable, key, err)
	}
	return res, nil
}

// FlagBot marks a key as bot-suspected for ttl.
func (r *RedisStore) FlagBot(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+key, "1", ttl).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
