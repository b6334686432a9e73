package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// MetricsRepo implements analytics.MetricStore and the ingest write path
// against PostgreSQL.
type MetricsRepo struct{ db *sql.DB }

// NewMetricsRepo creates a Postgres-backed metric store.
func NewMetricsRepo(db *sql.DB) *MetricsRepo { return &MetricsRepo{db: db} }

// storeErr wraps driver failures so callers can detect storage outage with
// errors.Is while keeping the underlying cause in the message.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, analytics.ErrStoreUnavailable, err)
}

// Query returns raw metric rows matching the filter. The tenant scope and
// every optional predicate become part of the WHERE clause.
func (r *MetricsRepo) Query(ctx context.Context, f analytics.Filter) ([]domain.MetricRecord, error) {
	q := `
		SELECT client_id, campaign_id, provider, ts,
		       impressions, clicks, cost, conversions, revenue
		FROM metrics_daily
		WHERE 1=1`
	args := []interface{}{}
	idx := 1
	add := func(clause string, val interface{}) {
		q += fmt.Sprintf(clause, idx)
		args = append(args, val)
		idx++
	}

	if f.Scope.ClientID != nil {
		add(" AND client_id = $%d", *f.Scope.ClientID)
	}
	if !f.From.IsZero() {
		add(" AND ts >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add(" AND ts <= $%d", f.To.UTC())
	}
	if f.Provider != "" {
		add(" AND provider = $%d", f.Provider)
	}
	if f.CampaignID != "" {
		add(" AND campaign_id = $%d", f.CampaignID)
	}
	q += " ORDER BY ts ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("query metrics", err)
	}
	defer rows.Close()

	var out []domain.MetricRecord
	for rows.Next() {
		var rec domain.MetricRecord
		var campaignID sql.NullString
		if err := rows.Scan(
			&rec.ClientID, &campaignID, &rec.Provider, &rec.Timestamp,
			&rec.Impressions, &rec.Clicks, &rec.Cost, &rec.Conversions, &rec.Revenue,
		); err != nil {
			return nil, storeErr("scan metric", err)
		}
		if campaignID.Valid {
			rec.CampaignID = &campaignID.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate metrics", err)
	}
	return out, nil
}

// ClientIDs returns every tenant with stored metrics, for the periodic sync
// worker.
func (r *MetricsRepo) ClientIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT client_id FROM metrics_daily ORDER BY client_id`)
	if err != nil {
		return nil, storeErr("list clients", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan client", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate clients", err)
	}
	return out, nil
}

// UpsertDaily writes a batch of provider records. Re-syncing the same
// (client, campaign, provider, day) adds counts on top of the stored row
// instead of replacing it, so partial-day syncs accumulate.
func (r *MetricsRepo) UpsertDaily(ctx context.Context, recs []domain.MetricRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin upsert", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO metrics_daily
			(client_id, campaign_id, provider, ts, impressions, clicks, cost, conversions, revenue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (client_id, campaign_id, provider, ts) DO UPDATE SET
			impressions = metrics_daily.impressions + EXCLUDED.impressions,
			clicks      = metrics_daily.clicks + EXCLUDED.clicks,
			cost        = metrics_daily.cost + EXCLUDED.cost,
			conversions = metrics_daily.conversions + EXCLUDED.conversions,
			revenue     = metrics_daily.revenue + EXCLUDED.revenue`

	for _, rec := range recs {
		var campaignID interface{}
		if rec.CampaignID != nil {
			campaignID = *rec.CampaignID
		}
		if _, err := tx.ExecContext(ctx, q,
			rec.ClientID, campaignID, rec.Provider, rec.Timestamp.UTC(),
			rec.Impressions, rec.Clicks, rec.Cost, rec.Conversions, rec.Revenue,
		); err != nil {
			return storeErr("upsert metric", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit upsert", err)
	}
	return nil
}
