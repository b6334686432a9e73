package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// memStore is an in-memory MetricStore for unit testing.
type memStore struct {
	records []domain.MetricRecord
	err     error
}

func (m *memStore) Query(_ context.Context, f Filter) ([]domain.MetricRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.MetricRecord
	for _, r := range m.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func fixedAgg(store MetricStore) *Aggregator {
	agg := NewAggregator(store)
	agg.now = func() time.Time { return testNow }
	return agg
}

func rec(clientID int64, provider domain.Provider, ts time.Time, impr, clicks int64, cost float64, conv int64, revenue float64) domain.MetricRecord {
	return domain.MetricRecord{
		ClientID:    clientID,
		Provider:    provider,
		Timestamp:   ts,
		Impressions: impr,
		Clicks:      clicks,
		Cost:        cost,
		Conversions: conv,
		Revenue:     revenue,
	}
}

func TestSummarizeRatioOfSums(t *testing.T) {
	day := testNow.AddDate(0, 0, -1)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderGoogleAds, day, 1000, 100, 50, 5, 500),
		rec(1, domain.ProviderGoogleAds, day, 500, 50, 25, 2, 100),
	}}
	agg := fixedAgg(store)

	got, err := agg.Summarize(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got.Clicks != 150 || got.Impressions != 1500 || got.Cost != 75 || got.Conversions != 7 || got.Revenue != 600 {
		t.Fatalf("totals = %+v", got.Totals)
	}
	if got.CTR != 10 {
		t.Fatalf("ctr = %v, want 10", got.CTR)
	}
	if got.ROAS != 8 {
		t.Fatalf("roas = %v, want 8", got.ROAS)
	}
	if got.CPC != 0.5 {
		t.Fatalf("cpc = %v, want 0.5", got.CPC)
	}
}

func TestSummarizeZeroDenominators(t *testing.T) {
	day := testNow.AddDate(0, 0, -1)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderMetaAds, day, 0, 0, 0, 0, 0),
	}}
	agg := fixedAgg(store)

	got, err := agg.Summarize(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{"ctr": got.CTR, "cpm": got.CPM, "cpc": got.CPC, "cpa": got.CPA, "roas": got.ROAS} {
		if v != 0 {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestSummarizeScopeExcludesOtherTenants(t *testing.T) {
	day := testNow.AddDate(0, 0, -1)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderGoogleAds, day, 100, 10, 5, 1, 10),
		rec(2, domain.ProviderGoogleAds, day, 900, 90, 45, 9, 90),
	}}
	agg := fixedAgg(store)

	got, err := agg.Summarize(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Clicks != 10 {
		t.Fatalf("clicks = %d, want only tenant 1's 10", got.Clicks)
	}
}

func TestSummarizeStoreError(t *testing.T) {
	agg := fixedAgg(&memStore{err: ErrStoreUnavailable})
	_, err := agg.Summarize(context.Background(), Filter{Scope: tenant.Client(1)})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestTrendDailyPartition(t *testing.T) {
	d1 := time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderGoogleAds, d1, 100, 10, 5, 1, 10),
		rec(1, domain.ProviderGoogleAds, d1.Add(3*time.Hour), 100, 10, 5, 1, 10),
		rec(1, domain.ProviderMetaAds, d2, 200, 20, 10, 2, 20),
	}}
	agg := fixedAgg(store)
	f := Filter{Scope: tenant.Client(1)}

	points, err := agg.Trend(context.Background(), f, domain.IntervalDaily)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d buckets, want 2", len(points))
	}
	if points[0].Bucket != "2026-08-17" || points[1].Bucket != "2026-08-18" {
		t.Fatalf("buckets not ascending: %s, %s", points[0].Bucket, points[1].Bucket)
	}
	if points[0].Clicks != 20 || points[1].Clicks != 20 {
		t.Fatalf("bucket clicks = %d, %d", points[0].Clicks, points[1].Clicks)
	}

	// Sum of all trend buckets equals Summarize for the same filter.
	sum, err := agg.Summarize(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	var total domain.Totals
	for _, p := range points {
		total.Impressions += p.Impressions
		total.Clicks += p.Clicks
		total.Cost += p.Cost
		total.Conversions += p.Conversions
		total.Revenue += p.Revenue
	}
	if total != sum.Totals {
		t.Fatalf("trend sum %+v != summarize %+v", total, sum.Totals)
	}
}

func TestTrendHourlyBuckets(t *testing.T) {
	base := testNow.Add(-3 * time.Hour)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderGoogleAds, base.Truncate(time.Hour).Add(10*time.Minute), 100, 10, 5, 1, 10),
		rec(1, domain.ProviderGoogleAds, base.Truncate(time.Hour).Add(40*time.Minute), 100, 10, 5, 1, 10),
	}}
	agg := fixedAgg(store)

	points, err := agg.Trend(context.Background(), Filter{Scope: tenant.Client(1)}, domain.IntervalHourly)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d buckets, want 1", len(points))
	}
	if points[0].Clicks != 20 {
		t.Fatalf("clicks = %d, want 20", points[0].Clicks)
	}
	want := base.Truncate(time.Hour).Format("2006-01-02T15:04")
	if points[0].Bucket != want {
		t.Fatalf("bucket = %s, want %s", points[0].Bucket, want)
	}
}

func TestByChannelSortedDeterministic(t *testing.T) {
	day := testNow.AddDate(0, 0, -1)
	store := &memStore{records: []domain.MetricRecord{
		rec(1, domain.ProviderTikTokAds, day, 100, 10, 5, 1, 10),
		rec(1, domain.ProviderGoogleAds, day, 100, 10, 5, 1, 10),
		rec(1, domain.ProviderMetaAds, day, 100, 10, 5, 1, 10),
	}}
	agg := fixedAgg(store)

	byChannel, err := agg.ByChannel(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	channels := SortedChannels(byChannel)
	want := []domain.Provider{domain.ProviderGoogleAds, domain.ProviderMetaAds, domain.ProviderTikTokAds}
	if len(channels) != len(want) {
		t.Fatalf("channels = %v", channels)
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Fatalf("channels[%d] = %s, want %s", i, channels[i], want[i])
		}
	}
}
