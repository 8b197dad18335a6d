package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only if it still carries our token, so an expired holder
// cannot release a lock that was taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// releaseTimeout bounds the release round trip. Release runs detached from the
// caller's cancellation so an aborted request still frees the key.
const releaseTimeout = 2 * time.Second

type redisCommander interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type RedisLocker struct {
	rdb    redisCommander
	opts   Options
	prefix string
}

func NewRedisLocker(rdb redisCommander, opts Options) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		opts:   opts,
		prefix: "lock:",
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	return Poll(ctx, l.opts, func(ctx context.Context) (Release, bool, error) {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.opts.TTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if !ok {
			return nil, false, nil
		}
		return Once(func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				return fmt.Errorf("redis release %s: %w", redisKey, err)
			}
			return nil
		}), true, nil
	})
}
