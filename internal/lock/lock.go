// Package lock serializes imports per tenant so that concurrent imports do
// not race on duplicate detection.
package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrLocked is returned when another import holds the tenant lock.
var ErrLocked = eris.New("lock: tenant import already in progress")

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// Noop never blocks. Used when no Redis is configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// redisClient is the subset of *redis.Client used by RedisLocker.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is never released by us.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redisClient
	ttl    time.Duration
	prefix string
}

// NewRedis connects to the Redis instance at url (redis://...).
func NewRedis(url string, ttl time.Duration) (*RedisLocker, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "lock: parse redis url")
	}
	client := redis.NewClient(opts)
	return newRedisLocker(client, ttl), client, nil
}

func newRedisLocker(client redisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "dnx:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	token := uuid.NewString()
	full := l.prefix + key

	ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "lock: acquire %s", key)
	}
	if !ok {
		return nil, ErrLocked
	}

	zap.L().Debug("lock: acquired", zap.String("key", full), zap.Duration("ttl", l.ttl))
	return func(ctx context.Context) error {
		if err := l.client.Eval(ctx, releaseScript, []string{full}, token).Err(); err != nil && err != redis.Nil {
			return eris.Wrapf(err, "lock: release %s", key)
		}
		return nil
	}, nil
}

// TenantKey is the lock key for imports into tenantID.
func TenantKey(tenantID string) string {
	return "import:" + tenantID
}

