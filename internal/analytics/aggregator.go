package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// Default lookback windows when the caller supplies no explicit range.
const (
	DefaultSummaryDays = 7
	DefaultTrendDays   = 7
	DefaultTrendHours  = 24
)

// Aggregator computes totals and derived ratios over a filtered metric
// record set. It is the shared computational core for anomaly detection,
// insights, recommendations and intent answers.
type Aggregator struct {
	store MetricStore
	now   func() time.Time
}

// NewAggregator creates an aggregator over the given metric store.
func NewAggregator(store MetricStore) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Derive computes the derived ratios for a set of totals. Ratio-of-sums
// throughout; any ratio whose denominator is 0 is 0, never NaN or Inf.
func Derive(t domain.Totals) domain.AggregateResult {
	r := domain.AggregateResult{Totals: t}
	if t.Impressions > 0 {
		r.CTR = float64(t.Clicks) / float64(t.Impressions) * 100
		r.CPM = t.Cost * 1000 / float64(t.Impressions)
	}
	if t.Clicks > 0 {
		r.CPC = t.Cost / float64(t.Clicks)
	}
	if t.Conversions > 0 {
		r.CPA = t.Cost / float64(t.Conversions)
	}
	if t.Cost > 0 {
		r.ROAS = t.Revenue / t.Cost
	}
	return r
}

// Summarize sums all numeric fields across matching records and derives the
// rate metrics. Default range is the trailing DefaultSummaryDays days.
func (a *Aggregator) Summarize(ctx context.Context, f Filter) (domain.AggregateResult, error) {
	if !f.hasRange() {
		f.To = a.now()
		f.From = f.To.AddDate(0, 0, -DefaultSummaryDays)
	}
	records, err := a.store.Query(ctx, f)
	if err != nil {
		return domain.AggregateResult{}, err
	}
	var t domain.Totals
	for _, m := range records {
		t.Add(m)
	}
	return Derive(t), nil
}

// Trend buckets matching records by calendar date (daily) or truncated hour
// (hourly) and returns the buckets in ascending order. Each record lands in
// exactly one bucket, so the summed bucket totals equal Summarize for the
// same filter and range. Defaults: daily looks back DefaultTrendDays days,
// hourly DefaultTrendHours hours.
func (a *Aggregator) Trend(ctx context.Context, f Filter, interval domain.Interval) ([]domain.TrendPoint, error) {
	if !f.hasRange() {
		f.To = a.now()
		if interval == domain.IntervalHourly {
			f.From = f.To.Add(-DefaultTrendHours * time.Hour)
		} else {
			f.From = f.To.AddDate(0, 0, -DefaultTrendDays)
		}
	}
	records, err := a.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]domain.Totals)
	for _, m := range records {
		key := bucketKey(m.Timestamp, interval)
		t := buckets[key]
		t.Add(m)
		buckets[key] = t
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]domain.TrendPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, domain.TrendPoint{Bucket: k, Totals: buckets[k]})
	}
	return points, nil
}

// ByChannel sums matching records per provider channel. Default range is the
// trailing DefaultSummaryDays days. Consumers iterate channels in sorted
// order for deterministic output.
func (a *Aggregator) ByChannel(ctx context.Context, f Filter) (map[domain.Provider]domain.Totals, error) {
	if !f.hasRange() {
		f.To = a.now()
		f.From = f.To.AddDate(0, 0, -DefaultSummaryDays)
	}
	records, err := a.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Provider]domain.Totals)
	for _, m := range records {
		t := out[m.Provider]
		t.Add(m)
		out[m.Provider] = t
	}
	return out, nil
}

// ByCampaign sums matching records per campaign id. Rows without a campaign
// attribution are skipped. Default range is the trailing DefaultSummaryDays
// days.
func (a *Aggregator) ByCampaign(ctx context.Context, f Filter) (map[string]domain.Totals, error) {
	if !f.hasRange() {
		f.To = a.now()
		f.From = f.To.AddDate(0, 0, -DefaultSummaryDays)
	}
	records, err := a.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Totals)
	for _, m := range records {
		if m.CampaignID == nil {
			continue
		}
		t := out[*m.CampaignID]
		t.Add(m)
		out[*m.CampaignID] = t
	}
	return out, nil
}

// SortedChannels returns the channel keys of a per-channel aggregate in
// lexicographic order.
func SortedChannels(byChannel map[domain.Provider]domain.Totals) []domain.Provider {
	keys := make([]domain.Provider, 0, len(byChannel))
	for k := range byChannel {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// bucketKey truncates a timestamp to its bucket label. Daily buckets use the
// UTC calendar date, hourly buckets the UTC hour.
func bucketKey(ts time.Time, interval domain.Interval) string {
	ts = ts.UTC()
	if interval == domain.IntervalHourly {
		return ts.Truncate(time.Hour).Format("2006-01-02T15:04")
	}
	return ts.Format("2006-01-02")
}
