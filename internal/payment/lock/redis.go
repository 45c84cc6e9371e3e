package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript implements the same semantics as MemoryManager.Acquire
// atomically: succeed if the key is absent or already owned by owner,
// extending the TTL in either case.
var acquireScript = redis.NewScript(`
local owner = redis.call("GET", KEYS[1])
if owner == false or owner == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// RedisManager is a drop-in replacement for MemoryManager suitable for
// multi-instance deployments. Expiry is handled entirely by Redis'
// native key TTL, so no sweeper is needed.
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager wraps an existing go-redis client.
func NewRedisManager(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

func (r *RedisManager) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res, err := acquireScript.Run(ctx, r.client, []string{key}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *RedisManager) Release(ctx context.Context, key, owner string) (bool, error) {
	res, err := releaseScript.Run(ctx, r.client, []string{key}, owner).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *RedisManager) Extend(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, r.client, []string{key}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *RedisManager) IsLocked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
