package alert

import (
	"context"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// Repository defines the persistence contract for alert rules.
// Implementations must be safe for concurrent use. Mutations are atomic per
// row; concurrent updates to the same rule resolve last-write-wins at the
// storage layer, with no optimistic concurrency control.
type Repository interface {
	// Create inserts a new rule.
	Create(ctx context.Context, r *domain.AlertRule) error

	// List returns rules visible under the scope, newest first.
	List(ctx context.Context, scope tenant.Scope) ([]domain.AlertRule, error)

	// UpdateStatus sets a rule's status and clears the triggered_at latch.
	// The scope applies to the mutation itself: if no row matches both id
	// and scope, ErrNotFound is returned and nothing changes.
	UpdateStatus(ctx context.Context, scope tenant.Scope, id string, status domain.AlertStatus) error

	// MarkTriggered sets the triggered_at latch if and only if it is not
	// already set. Idempotent; never clears.
	MarkTriggered(ctx context.Context, id string, at time.Time) error

	// ListActive returns every active rule across all tenants, for the
	// periodic evaluator.
	ListActive(ctx context.Context) ([]domain.AlertRule, error)
}
