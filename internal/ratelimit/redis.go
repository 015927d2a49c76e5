package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the counter and starts the window on the first hit.
// A key that somehow lost its expiry gets a fresh one so it cannot block
// forever. Returns {count, pttl_ms}.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`)

// RedisStore keeps counters in Redis so every instance enforces the same
// limit. Each window is one key with a TTL equal to the window length.
type RedisStore struct {
	Client redis.Scripter
	Prefix string
}

// NewRedisStore returns a store writing keys under prefix (e.g. "rl:chat:").
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{Client: client, Prefix: prefix}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, length time.Duration, now time.Time) (int, time.Time, error) {
	res, err := hitScript.Run(ctx, s.Client, []string{s.Prefix + key}, length.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	return int(res[0]), now.Add(time.Duration(res[1]) * time.Millisecond), nil
}
