package cron

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Lease elects which process runs a given sweep when several replicas are deployed.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
}

// LocalLease always grants the lease: one process, one sweeper.
type LocalLease struct{}

func (LocalLease) Acquire(context.Context, time.Duration) (bool, error) { return true, nil }

// renewLease extends the key only while it still names this owner.
var renewLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type leaseClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLease holds a key with SET NX PX. The holder renews by extending its own key.
type RedisLease struct {
	client leaseClient
	key    string
	owner  string
}

func NewRedisLease(client *redis.Client, key string) *RedisLease {
	return &RedisLease{client: client, key: key, owner: uuid.NewString()}
}

func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	renewed, err := renewLease.Run(ctx, l.client, []string{l.key}, l.owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return renewed == 1, nil
}
