package scheduler

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Locker guards a job so that a single instance runs it at a time
type Locker interface {
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

const lockPrefix = "leng:scheduler:lock:"

// releaseScript deletes the lock only while owner still holds it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SETNX lock shared by every instance using the same redis
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker connects to the redis at url
func NewRedisLocker(url string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisLocker{client: redis.NewClient(opts)}, nil
}

// TryAcquire takes the lock for ttl if nobody holds it
func (l *RedisLocker) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockPrefix+name, owner, ttl).Result()
}

// Release drops the lock if owner holds it
func (l *RedisLocker) Release(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, l.client, []string{lockPrefix + name}, owner).Err()
}

// Close closes the redis connection pool
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// LocalLocker is used when redis is not configured. It always grants the lock.
type LocalLocker struct{}

// TryAcquire always succeeds
func (LocalLocker) TryAcquire(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

// Release is a no-op
func (LocalLocker) Release(context.Context, string, string) error { return nil }
