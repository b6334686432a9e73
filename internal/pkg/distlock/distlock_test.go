package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisPair(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisLockMutualExclusion(t *testing.T) {
	_, client := newRedisPair(t)
	ctx := context.Background()

	first := NewLock(client, nil, "job", time.Minute)
	second := NewLock(client, nil, "job", time.Minute)

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second instance acquired a held lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatal(err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release = %v, %v", ok, err)
	}
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	mr, client := newRedisPair(t)
	ctx := context.Background()

	mr.Set("lock:job", "someone-else")

	l := NewLock(client, nil, "job", time.Minute)
	if err := l.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := mr.Get("lock:job"); got != "someone-else" {
		t.Fatalf("non-owner release removed the lock, key = %q", got)
	}
}

func TestPGLockFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// nil Redis client selects the advisory-lock backend.
	l := NewLock(nil, db, "job", time.Minute)
	ok, err := l.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire = %v, %v", ok, err)
	}
	if err := l.Release(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
