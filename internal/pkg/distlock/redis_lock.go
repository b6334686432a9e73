package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the stored owner token still
// matches, so a slow instance cannot release a lock the TTL already handed to
// someone else.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// redisLock is a SET NX lock with a TTL and a random owner token.
type redisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func newRedisLock(client *redis.Client, key string, ttl time.Duration) *redisLock {
	tok := make([]byte, 16)
	rand.Read(tok)
	return &redisLock{
		client: client,
		key:    "lock:" + key,
		token:  hex.EncodeToString(tok),
		ttl:    ttl,
	}
}

func (l *redisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

func (l *redisLock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	return err
}
