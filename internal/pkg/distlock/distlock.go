// Package distlock keeps exactly one worker instance running a scheduled job
// across hosts. Redis is the preferred backend; deployments without Redis get
// a PostgreSQL advisory lock instead.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a single-owner distributed lock. A Lock value belongs to one
// goroutine; share the backing client, not the Lock.
type Lock interface {
	// Acquire attempts to take the lock without blocking. False means
	// another instance holds it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock back if this instance still owns it.
	Release(ctx context.Context) error
}

// NewLock picks the backend: Redis when a client is available, otherwise a
// PostgreSQL advisory lock on the given db.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) Lock {
	if redisClient != nil {
		return newRedisLock(redisClient, key, ttl)
	}
	return newPGLock(db, key)
}

// pgLock holds a session-scoped advisory lock. If the connection drops the
// database releases it, which stands in for the Redis TTL.
type pgLock struct {
	db *sql.DB
	id int64
}

func newPGLock(db *sql.DB, key string) *pgLock {
	// Advisory locks are keyed by int64; hash the string key down.
	h := fnv.New64a()
	h.Write([]byte(key))
	return &pgLock{db: db, id: int64(h.Sum64())}
}

func (l *pgLock) Acquire(ctx context.Context) (bool, error) {
	var ok bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.id).Scan(&ok)
	return ok, err
}

func (l *pgLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.id)
	return err
}
