package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

func ruleCols() []string {
	return []string{"id", "client_id", "rule_name", "dimension", "metric",
		"operator", "threshold", "status", "triggered_at", "created_at"}
}

func TestAlertListScoped(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	created := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(ruleCols()).
		AddRow("r-1", int64(3), "spend spike", "global", "cost", "gt", 500.0, "active", nil, created)

	mock.ExpectQuery(`FROM alert_rules WHERE client_id = \$1 ORDER BY created_at DESC`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	repo := NewAlertRepo(db)
	rules, err := repo.List(context.Background(), tenant.Client(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	r := rules[0]
	if r.Condition.Metric != "cost" || r.Condition.Operator != domain.OpGT || r.Condition.Threshold != 500 {
		t.Fatalf("condition = %+v", r.Condition)
	}
	if r.TriggeredAt != nil {
		t.Fatal("NULL triggered_at must scan to nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAlertUpdateStatusScopedMutation(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE alert_rules SET status = \$1, triggered_at = NULL WHERE id = \$2 AND client_id = \$3`).
		WithArgs(domain.AlertResolved, "r-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAlertRepo(db)
	if err := repo.UpdateStatus(context.Background(), tenant.Client(3), "r-1", domain.AlertResolved); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAlertUpdateStatusWrongTenantNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// Row exists under client 3; the scoped WHERE from client 4 matches
	// nothing, so the driver reports zero rows affected.
	mock.ExpectExec(`UPDATE alert_rules SET status`).
		WithArgs(domain.AlertResolved, "r-1", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAlertRepo(db)
	err := repo.UpdateStatus(context.Background(), tenant.Client(4), "r-1", domain.AlertResolved)
	if !errors.Is(err, alert.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAlertMarkTriggeredLatch(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)

	// First call sets the latch.
	mock.ExpectExec(`UPDATE alert_rules SET triggered_at = \$1\s+WHERE id = \$2 AND triggered_at IS NULL`).
		WithArgs(at, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Second call matches nothing but the rule still exists, so it is a
	// silent no-op.
	mock.ExpectExec(`UPDATE alert_rules SET triggered_at`).
		WithArgs(at.Add(time.Hour), "r-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewAlertRepo(db)
	if err := repo.MarkTriggered(context.Background(), "r-1", at); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkTriggered(context.Background(), "r-1", at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAlertMarkTriggeredMissingRule(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE alert_rules SET triggered_at`).
		WithArgs(at, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewAlertRepo(db)
	err := repo.MarkTriggered(context.Background(), "ghost", at)
	if !errors.Is(err, alert.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
