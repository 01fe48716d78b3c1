package locksvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

const keyPrefix = "banathawaa:lock:"

// releaseScript deletes the lease only if it still holds our token.
var releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

var errLeaseHeld = errors.New("lease held by another owner")

type leaseClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker locks keys across instances with expiring Redis leases.
type RedisLocker struct {
	client leaseClient
	ttl    time.Duration
	poll   time.Duration
	clock  clock.Clock
	logger core.Logger
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to Redis")
	}
	return client, nil
}

func NewRedisLocker(client leaseClient, ttl time.Duration, logger core.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		poll:   100 * time.Millisecond,
		clock:  clock.WallClock,
		logger: logger,
	}
}

// Lock polls for the lease of key until it gets it or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = keyPrefix + key
	token := uuid.NewString()

	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
			switch {
			case err != nil:
				lastErr = err
			case !ok:
				lastErr = errLeaseHeld
			default:
				lastErr = nil
			}
			return lastErr
		},
		IsFatalError: func(err error) bool { return err != errLeaseHeld },
		Attempts:     -1,
		Delay:        l.poll,
		Clock:        l.clock,
		Stop:         ctx.Done(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "waiting for lease %q", key)
		}
		if lastErr != nil {
			err = lastErr
		}
		return nil, core.NewUpstreamError("redis", "acquiring lease "+key, err)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, token) }) }, nil
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		l.logger.Error("releasing lease "+key+" (it will expire)", err)
	}
}
