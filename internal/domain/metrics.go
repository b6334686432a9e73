package domain

import "time"

// Provider enumerates the ad platforms metrics are ingested from. A provider
// doubles as the "channel" dimension in per-channel analytics.
type Provider string

const (
	ProviderGoogleAds Provider = "google_ads"
	ProviderMetaAds   Provider = "meta_ads"
	ProviderTikTokAds Provider = "tiktok_ads"
	ProviderGA4       Provider = "ga4"
)

// KnownProviders lists every recognized provider in a fixed order.
var KnownProviders = []Provider{ProviderGoogleAds, ProviderMetaAds, ProviderTikTokAds, ProviderGA4}

// MetricRecord is a single ingested metric row for one client, provider and
// (optionally) campaign at a point in time. Invariant: Impressions >= Clicks
// >= 0 and Cost >= 0; the ingestion path rejects rows that violate it.
type MetricRecord struct {
	ClientID    int64     `json:"client_id" db:"client_id"`
	CampaignID  *string   `json:"campaign_id" db:"campaign_id"`
	Provider    Provider  `json:"provider" db:"provider"`
	Timestamp   time.Time `json:"timestamp" db:"ts"`
	Impressions int64     `json:"impressions" db:"impressions"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Cost        float64   `json:"cost" db:"cost"`
	Conversions int64     `json:"conversions" db:"conversions"`
	Revenue     float64   `json:"revenue" db:"revenue"`
}

// Valid reports whether the record satisfies the storage invariants.
func (m MetricRecord) Valid() bool {
	return m.Clicks >= 0 && m.Impressions >= m.Clicks && m.Cost >= 0
}

// Totals holds the summed base metrics over some record set.
type Totals struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Add accumulates one record into the totals.
func (t *Totals) Add(m MetricRecord) {
	t.Impressions += m.Impressions
	t.Clicks += m.Clicks
	t.Cost += m.Cost
	t.Conversions += m.Conversions
	t.Revenue += m.Revenue
}

// AggregateResult is a point-in-time summary: totals plus derived ratios.
// All ratios are ratio-of-sums and return 0 when the denominator is 0.
// Computed on read, never persisted.
type AggregateResult struct {
	Totals
	CTR  float64 `json:"ctr"`  // clicks / impressions * 100
	CPM  float64 `json:"cpm"`  // cost * 1000 / impressions
	CPC  float64 `json:"cpc"`  // cost / clicks
	CPA  float64 `json:"cpa"`  // cost / conversions
	ROAS float64 `json:"roas"` // revenue / cost
}

// Interval selects the trend bucket granularity.
type Interval string

const (
	IntervalDaily  Interval = "daily"
	IntervalHourly Interval = "hourly"
)

// TrendPoint is one time bucket of a trend series. Bucket is "2006-01-02" for
// daily and "2006-01-02T15:00" (UTC) for hourly intervals.
type TrendPoint struct {
	Bucket string `json:"bucket"`
	Totals
}
