package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisBackend struct {
	client *redis.Client
}

// NewRedis returns a Locker sharing keys across every instance using client.
func NewRedis(client *redis.Client, opts Options, logger *zerolog.Logger) *Locker {
	return &Locker{b: &redisBackend{client: client}, opts: opts.withDefaults(), logger: logger}
}

func (r *redisBackend) tryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, token, ttl).Result()
}

func (r *redisBackend) unlock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, r.client, []string{key}, token).Err()
}

func (r *redisBackend) name() string { return "redis" }
