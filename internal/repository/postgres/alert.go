package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// AlertRepo implements alert.Repository against PostgreSQL. The tenant scope
// is baked into the WHERE clause of reads and mutations alike.
type AlertRepo struct{ db *sql.DB }

// NewAlertRepo creates a Postgres-backed alert rule repository.
func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

func (r *AlertRepo) Create(ctx context.Context, rule *domain.AlertRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_rules
			(id, client_id, rule_name, dimension, metric, operator, threshold, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rule.ID, rule.ClientID, rule.RuleName, rule.Dimension,
		rule.Condition.Metric, rule.Condition.Operator, rule.Condition.Threshold,
		rule.Status, rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("create alert rule: %w", err)
	}
	return nil
}

func (r *AlertRepo) List(ctx context.Context, scope tenant.Scope) ([]domain.AlertRule, error) {
	q := `
		SELECT id, client_id, rule_name, dimension, metric, operator, threshold,
		       status, triggered_at, created_at
		FROM alert_rules`
	args := []interface{}{}
	if scope.ClientID != nil {
		q += " WHERE client_id = $1"
		args = append(args, *scope.ClientID)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rules: %w", err)
	}
	return out, nil
}

func (r *AlertRepo) UpdateStatus(ctx context.Context, scope tenant.Scope, id string, status domain.AlertStatus) error {
	q := `UPDATE alert_rules SET status = $1, triggered_at = NULL WHERE id = $2`
	args := []interface{}{status, id}
	if scope.ClientID != nil {
		q += " AND client_id = $3"
		args = append(args, *scope.ClientID)
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alert_rules SET triggered_at = $1
		WHERE id = $2 AND triggered_at IS NULL
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark triggered: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Zero rows means either the latch is already set (fine) or the rule is
	// gone.
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alert_rules WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("mark triggered: %w", err)
	}
	if !exists {
		return alert.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) ListActive(ctx context.Context) ([]domain.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, rule_name, dimension, metric, operator, threshold,
		       status, triggered_at, created_at
		FROM alert_rules
		WHERE status = 'active'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active rules: %w", err)
	}
	return out, nil
}

func scanRule(rows *sql.Rows) (domain.AlertRule, error) {
	var rule domain.AlertRule
	var triggered sql.NullTime
	if err := rows.Scan(
		&rule.ID, &rule.ClientID, &rule.RuleName, &rule.Dimension,
		&rule.Condition.Metric, &rule.Condition.Operator, &rule.Condition.Threshold,
		&rule.Status, &triggered, &rule.CreatedAt,
	); err != nil {
		return domain.AlertRule{}, fmt.Errorf("scan alert rule: %w", err)
	}
	if triggered.Valid {
		t := triggered.Time
		rule.TriggeredAt = &t
	}
	return rule, nil
}
