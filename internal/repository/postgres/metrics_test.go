package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func metricCols() []string {
	return []string{"client_id", "campaign_id", "provider", "ts",
		"impressions", "clicks", "cost", "conversions", "revenue"}
}

func TestMetricsQueryScopedAndFiltered(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	ts := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	from := ts.AddDate(0, 0, -7)
	rows := sqlmock.NewRows(metricCols()).
		AddRow(int64(3), "cmp-1", "google_ads", ts, int64(1000), int64(50), 25.5, int64(4), 320.0).
		AddRow(int64(3), nil, "google_ads", ts, int64(500), int64(10), 5.0, int64(1), 80.0)

	mock.ExpectQuery(`SELECT client_id, campaign_id, provider, ts`).
		WithArgs(int64(3), from, ts, "google_ads").
		WillReturnRows(rows)

	repo := NewMetricsRepo(db)
	got, err := repo.Query(context.Background(), analytics.Filter{
		Scope:    tenant.Client(3),
		From:     from,
		To:       ts,
		Provider: domain.ProviderGoogleAds,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].CampaignID == nil || *got[0].CampaignID != "cmp-1" {
		t.Fatalf("campaign id = %v, want cmp-1", got[0].CampaignID)
	}
	if got[1].CampaignID != nil {
		t.Fatal("NULL campaign_id must scan to nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMetricsQueryUnscopedOmitsClientPredicate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM metrics_daily\s+WHERE 1=1 ORDER BY ts ASC`).
		WillReturnRows(sqlmock.NewRows(metricCols()))

	repo := NewMetricsRepo(db)
	if _, err := repo.Query(context.Background(), analytics.Filter{Scope: tenant.All()}); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMetricsQueryWrapsDriverFailure(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM metrics_daily`).
		WillReturnError(errors.New("connection refused"))

	repo := NewMetricsRepo(db)
	_, err := repo.Query(context.Background(), analytics.Filter{Scope: tenant.Client(1)})
	if !errors.Is(err, analytics.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestClientIDs(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT DISTINCT client_id FROM metrics_daily ORDER BY client_id`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}).AddRow(int64(3)).AddRow(int64(4)))

	repo := NewMetricsRepo(db)
	ids, err := repo.ClientIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Fatalf("ids = %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertDailyIsAdditive(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	ts := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(client_id, campaign_id, provider, ts\) DO UPDATE SET\s+impressions = metrics_daily\.impressions \+ EXCLUDED\.impressions`).
		WithArgs(int64(3), "cmp-1", domain.ProviderGoogleAds, ts,
			int64(100), int64(10), 5.0, int64(1), 40.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	campaign := "cmp-1"
	repo := NewMetricsRepo(db)
	err := repo.UpsertDaily(context.Background(), []domain.MetricRecord{{
		ClientID:    3,
		CampaignID:  &campaign,
		Provider:    domain.ProviderGoogleAds,
		Timestamp:   ts,
		Impressions: 100,
		Clicks:      10,
		Cost:        5.0,
		Conversions: 1,
		Revenue:     40.0,
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertDailyEmptyBatchNoQuery(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMetricsRepo(db)
	if err := repo.UpsertDaily(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected query on empty batch: %v", err)
	}
}
