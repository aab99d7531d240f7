// Package lock provides a single-holder Redis lock for scheduled jobs that
// must run on one worker at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lock.
var ErrHeld = errors.New("lock: held elsewhere")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker acquires locks by SET NX with a random token.
type Locker struct {
	R redis.Cmdable
}

// TryWithLock runs fn while holding key, or returns ErrHeld at once when the
// key is taken. The lock expires after ttl even if the holder dies, and is
// only released by the token that set it.
func (l Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return ErrHeld
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}
