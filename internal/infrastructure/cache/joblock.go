package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/trafficstat/internal/shared/id"
)

// releaseLockScript deletes the lock only while it still holds our token.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisJobLock is a best-effort cross-process mutex for scheduled jobs.
type RedisJobLock struct {
	client redis.UniversalClient
}

func NewRedisJobLock(client redis.UniversalClient) *RedisJobLock {
	return &RedisJobLock{client: client}
}

// TryLock takes name for ttl. When another holder has it, acquired is false
// and release is nil.
func (l *RedisJobLock) TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error) {
	token, err := id.Generate(16)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate lock token: %w", err)
	}

	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		err := releaseLockScript.Run(ctx, l.client, []string{name}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}
	return release, true, nil
}
