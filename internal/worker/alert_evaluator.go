package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/pkg/distlock"
	"github.com/hoylabs/hoy-analytics/internal/pkg/logger"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

const (
	// DefaultEvaluatorPollInterval is how often active rules are re-checked.
	DefaultEvaluatorPollInterval = 5 * time.Minute

	// EvaluationWindowDays is the trailing aggregate window each rule's
	// condition is checked against.
	EvaluationWindowDays = 7

	evaluatorLockKey = "alert-evaluator"
)

// AlertEvaluator periodically checks every active alert rule against current
// aggregates and sets the triggered latch on the first hit. A distributed
// lock keeps exactly one instance evaluating across hosts; the latch itself
// is a storage-level conditional update, so even overlapping runs set it at
// most once.
type AlertEvaluator struct {
	rules *alert.Service
	agg   *analytics.Aggregator

	db           *sql.DB
	redisClient  *redis.Client // optional; nil falls back to PG advisory locks
	workerID     string
	pollInterval time.Duration
	now          func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewAlertEvaluator creates an evaluator over the given rule service and
// aggregator.
func NewAlertEvaluator(rules *alert.Service, agg *analytics.Aggregator, db *sql.DB) *AlertEvaluator {
	hostname, _ := os.Hostname()
	return &AlertEvaluator{
		rules:        rules,
		agg:          agg,
		db:           db,
		workerID:     fmt.Sprintf("evaluator-%s-%d", hostname, time.Now().UnixNano()%10000),
		pollInterval: DefaultEvaluatorPollInterval,
		now:          time.Now,
	}
}

// SetRedisClient sets the Redis client for distributed locking. If unset,
// the evaluator falls back to PostgreSQL advisory locks.
func (e *AlertEvaluator) SetRedisClient(client *redis.Client) {
	e.redisClient = client
}

// SetPollInterval overrides the evaluation interval.
func (e *AlertEvaluator) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.pollInterval = d
	}
}

// Start begins the evaluation loop.
func (e *AlertEvaluator) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("evaluator already running")
	}
	e.running = true
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	logger.Info("alert evaluator starting",
		"worker_id", e.workerID,
		"poll_interval", e.pollInterval.String())

	e.wg.Add(1)
	go e.loop()
	return nil
}

// Stop gracefully stops the evaluator.
func (e *AlertEvaluator) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()
	logger.Info("alert evaluator stopped", "worker_id", e.workerID)
}

func (e *AlertEvaluator) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		if err := e.RunOnce(e.ctx); err != nil && e.ctx.Err() == nil {
			logger.Error("evaluation run failed", "error", err.Error())
		}
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce evaluates every active rule under the distributed lock. If another
// instance holds the lock the run is skipped silently.
func (e *AlertEvaluator) RunOnce(ctx context.Context) error {
	lock := distlock.NewLock(e.redisClient, e.db, evaluatorLockKey, 2*e.pollInterval)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire evaluator lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer lock.Release(ctx)

	rules, err := e.rules.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active rules: %w", err)
	}

	for _, rule := range rules {
		if rule.TriggeredAt != nil {
			continue
		}
		hit, err := e.evaluate(ctx, rule)
		if err != nil {
			logger.Warn("rule evaluation failed",
				"rule_id", rule.ID,
				"client_id", rule.ClientID,
				"error", err.Error())
			continue
		}
		if !hit {
			continue
		}
		if err := e.rules.MarkTriggered(ctx, rule.ID, e.now()); err != nil {
			logger.Warn("marking rule triggered failed",
				"rule_id", rule.ID,
				"error", err.Error())
			continue
		}
		logger.Info("alert rule triggered",
			"rule_id", rule.ID,
			"client_id", rule.ClientID,
			"rule_name", rule.RuleName,
			"metric", rule.Condition.Metric)
	}
	return nil
}

// evaluate checks one rule's condition against the trailing window. Global
// rules use the tenant-wide aggregate; channel and campaign rules hold when
// any single channel or campaign satisfies the condition.
func (e *AlertEvaluator) evaluate(ctx context.Context, rule domain.AlertRule) (bool, error) {
	now := e.now().UTC()
	f := analytics.Filter{
		Scope: tenant.Client(rule.ClientID),
		From:  now.AddDate(0, 0, -EvaluationWindowDays),
		To:    now,
	}

	switch rule.Dimension {
	case domain.DimensionChannel:
		byChannel, err := e.agg.ByChannel(ctx, f)
		if err != nil {
			return false, err
		}
		for _, ch := range analytics.SortedChannels(byChannel) {
			if rule.Condition.Holds(metricValue(analytics.Derive(byChannel[ch]), rule.Condition.Metric)) {
				return true, nil
			}
		}
		return false, nil
	case domain.DimensionCampaign:
		byCampaign, err := e.agg.ByCampaign(ctx, f)
		if err != nil {
			return false, err
		}
		for _, t := range byCampaign {
			if rule.Condition.Holds(metricValue(analytics.Derive(t), rule.Condition.Metric)) {
				return true, nil
			}
		}
		return false, nil
	default:
		res, err := e.agg.Summarize(ctx, f)
		if err != nil {
			return false, err
		}
		return rule.Condition.Holds(metricValue(res, rule.Condition.Metric)), nil
	}
}

func metricValue(res domain.AggregateResult, metric string) float64 {
	switch metric {
	case "impressions":
		return float64(res.Impressions)
	case "clicks":
		return float64(res.Clicks)
	case "cost":
		return res.Cost
	case "conversions":
		return float64(res.Conversions)
	case "revenue":
		return res.Revenue
	case "ctr":
		return res.CTR
	case "cpa":
		return res.CPA
	case "roas":
		return res.ROAS
	}
	return 0
}
