package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bleumipay:cron:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock that another replica took over is never released by us.
var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

// Locker serializes cron runs across replicas with SET NX and a TTL.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock of one job. It fails with domain.ErrJobLocked when
// another run holds it.
func (l *Locker) Acquire(ctx context.Context, job string) (func(), error) {
	key := keyPrefix + job
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobLocked, job)
	}

	release := func() {
		// The run context may already be canceled at release time.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}
	return release, nil
}
