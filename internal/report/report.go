package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// Row is one report line: a day, channel and campaign with its totals and
// derived ratios.
type Row struct {
	Date       string          `json:"date"`
	Channel    domain.Provider `json:"channel"`
	CampaignID string          `json:"campaign_id"`
	domain.AggregateResult
}

// Report is a detailed breakdown plus the overall summary for the same
// filter. Summing the row totals reproduces the summary totals.
type Report struct {
	Rows    []Row                  `json:"rows"`
	Summary domain.AggregateResult `json:"summary"`
}

// Reporter builds detailed reports from raw metric rows.
type Reporter struct {
	store analytics.MetricStore
}

// NewReporter creates a reporter over the given metric store.
func NewReporter(store analytics.MetricStore) *Reporter {
	return &Reporter{store: store}
}

// Detailed groups matching records by (day, channel, campaign) and returns
// the rows in ascending date order with channel and campaign as tiebreakers.
func (r *Reporter) Detailed(ctx context.Context, f analytics.Filter) (*Report, error) {
	records, err := r.store.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("detailed report: %w", err)
	}

	type key struct {
		date     string
		channel  domain.Provider
		campaign string
	}
	groups := make(map[key]domain.Totals)
	var summary domain.Totals
	for _, m := range records {
		k := key{date: m.Timestamp.UTC().Format("2006-01-02"), channel: m.Provider}
		if m.CampaignID != nil {
			k.campaign = *m.CampaignID
		}
		t := groups[k]
		t.Add(m)
		groups[k] = t
		summary.Add(m)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].campaign < keys[j].campaign
	})

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Row{
			Date:            k.date,
			Channel:         k.channel,
			CampaignID:      k.campaign,
			AggregateResult: analytics.Derive(groups[k]),
		})
	}
	return &Report{Rows: rows, Summary: analytics.Derive(summary)}, nil
}
