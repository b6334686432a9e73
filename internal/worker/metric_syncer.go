package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoylabs/hoy-analytics/internal/ingest"
	"github.com/hoylabs/hoy-analytics/internal/pkg/distlock"
	"github.com/hoylabs/hoy-analytics/internal/pkg/logger"
)

const (
	// DefaultSyncInterval is how often provider metrics are re-pulled.
	DefaultSyncInterval = time.Hour

	// DefaultSyncLookbackDays is how far back each run re-fetches. Providers
	// restate recent days, so the window overlaps on purpose; the additive
	// upsert makes re-fetching safe.
	DefaultSyncLookbackDays = 3

	syncerLockKey = "metric-syncer"
)

// ClientLister enumerates the tenants to sync.
type ClientLister interface {
	ClientIDs(ctx context.Context) ([]int64, error)
}

// MetricSyncer periodically pulls provider metrics for every known tenant.
// A distributed lock keeps one instance syncing across hosts.
type MetricSyncer struct {
	syncer  *ingest.Syncer
	clients ClientLister

	db           *sql.DB
	redisClient  *redis.Client // optional; nil falls back to PG advisory locks
	workerID     string
	pollInterval time.Duration
	lookbackDays int
	now          func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewMetricSyncer creates a syncer worker over the given ingest syncer and
// tenant source.
func NewMetricSyncer(syncer *ingest.Syncer, clients ClientLister, db *sql.DB) *MetricSyncer {
	hostname, _ := os.Hostname()
	return &MetricSyncer{
		syncer:       syncer,
		clients:      clients,
		db:           db,
		workerID:     fmt.Sprintf("syncer-%s-%d", hostname, time.Now().UnixNano()%10000),
		pollInterval: DefaultSyncInterval,
		lookbackDays: DefaultSyncLookbackDays,
		now:          time.Now,
	}
}

// SetRedisClient sets the Redis client for distributed locking.
func (s *MetricSyncer) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// SetPollInterval overrides the sync interval.
func (s *MetricSyncer) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// SetLookbackDays overrides how many trailing days each run re-fetches.
func (s *MetricSyncer) SetLookbackDays(days int) {
	if days > 0 {
		s.lookbackDays = days
	}
}

// Start begins the sync loop.
func (s *MetricSyncer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("metric syncer already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	logger.Info("metric syncer starting",
		"worker_id", s.workerID,
		"poll_interval", s.pollInterval.String(),
		"lookback_days", s.lookbackDays)

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop gracefully stops the syncer.
func (s *MetricSyncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("metric syncer stopped", "worker_id", s.workerID)
}

func (s *MetricSyncer) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(s.ctx); err != nil && s.ctx.Err() == nil {
			logger.Error("sync run failed", "error", err.Error())
		}
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce syncs the lookback window for every known tenant under the
// distributed lock. If another instance holds the lock the run is skipped.
func (s *MetricSyncer) RunOnce(ctx context.Context) error {
	lock := distlock.NewLock(s.redisClient, s.db, syncerLockKey, 2*s.pollInterval)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire syncer lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer lock.Release(ctx)

	ids, err := s.clients.ClientIDs(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -s.lookbackDays)
	for _, clientID := range ids {
		report, err := s.syncer.SyncAll(ctx, clientID, from, to)
		if err != nil {
			logger.Warn("tenant sync failed",
				"client_id", clientID,
				"error", err.Error())
			continue
		}
		logger.Info("tenant sync complete",
			"client_id", clientID,
			"written", report.Written,
			"dropped", report.Dropped,
			"failed_providers", len(report.Failed))
	}
	return nil
}
