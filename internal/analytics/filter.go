package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// ErrStoreUnavailable wraps metric-store collaborator failures. It surfaces
// to the immediate caller; the engine never retries internally.
var ErrStoreUnavailable = errors.New("metric store unavailable")

// Filter selects the metric records an operation runs over. Scope is
// mandatory and comes from the tenant policy; the rest is optional.
// A zero From/To pair means "use the operation's default lookback".
type Filter struct {
	Scope      tenant.Scope
	From       time.Time
	To         time.Time
	Provider   domain.Provider
	CampaignID string
}

// hasRange reports whether the caller supplied an explicit date range.
func (f Filter) hasRange() bool { return !f.From.IsZero() && !f.To.IsZero() }

// Matches reports whether a record passes the filter. Used by in-memory
// stores; SQL-backed stores apply the same predicate in the WHERE clause.
func (f Filter) Matches(m domain.MetricRecord) bool {
	if !f.Scope.Allows(m.ClientID) {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.CampaignID != "" && (m.CampaignID == nil || *m.CampaignID != f.CampaignID) {
		return false
	}
	if f.hasRange() && (m.Timestamp.Before(f.From) || m.Timestamp.After(f.To)) {
		return false
	}
	return true
}

// MetricStore is the abstract metric-read capability the engine consumes.
// Implementations issue single-shot bounded queries with no internal retry
// and must return records already narrowed to the filter.
type MetricStore interface {
	Query(ctx context.Context, f Filter) ([]domain.MetricRecord, error)
}
