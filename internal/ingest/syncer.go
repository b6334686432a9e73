package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/pkg/logger"
)

// MetricWriter is the storage capability the syncer writes through.
// Implementations must apply batches additively per (client, campaign,
// provider, day).
type MetricWriter interface {
	UpsertDaily(ctx context.Context, recs []domain.MetricRecord) error
}

// SyncReport summarizes one SyncAll run.
type SyncReport struct {
	Written int
	Dropped int
	Failed  []domain.Provider
}

// Syncer pulls from every configured connector and persists the results.
type Syncer struct {
	writer     MetricWriter
	connectors []Connector
}

// NewSyncer creates a syncer over the given connectors.
func NewSyncer(writer MetricWriter, connectors ...Connector) *Syncer {
	return &Syncer{writer: writer, connectors: connectors}
}

// SyncAll fetches [from, to] for one tenant from every connector. A failing
// provider is recorded in the report and does not stop the others; rows that
// fail validation are dropped and logged.
func (s *Syncer) SyncAll(ctx context.Context, clientID int64, from, to time.Time) (SyncReport, error) {
	var report SyncReport
	for _, conn := range s.connectors {
		recs, err := conn.Fetch(ctx, clientID, from, to)
		if err != nil {
			logger.Warn("provider sync failed",
				"provider", string(conn.Provider()),
				"client_id", clientID,
				"error", err.Error())
			report.Failed = append(report.Failed, conn.Provider())
			continue
		}

		valid := recs[:0]
		for _, rec := range recs {
			if !rec.Valid() {
				logger.Warn("dropping invalid metric row",
					"provider", string(conn.Provider()),
					"client_id", clientID,
					"date", rec.Timestamp.UTC().Format("2006-01-02"))
				report.Dropped++
				continue
			}
			valid = append(valid, rec)
		}
		if len(valid) == 0 {
			continue
		}

		if err := s.writer.UpsertDaily(ctx, valid); err != nil {
			return report, fmt.Errorf("writing %s batch: %w", conn.Provider(), err)
		}
		report.Written += len(valid)
	}
	return report, nil
}
