package analytics

import (
	"context"
	"strings"
	"testing"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// ctrRec builds a record with an exact CTR in the trailing 7-day window.
func ctrRec(provider domain.Provider, impressions, clicks int64, cost float64, conv int64) domain.MetricRecord {
	return rec(1, provider, testNow.AddDate(0, 0, -2), impressions, clicks, cost, conv, 0)
}

func TestRecommendLowCTR(t *testing.T) {
	// 0.5% CTR on google, 5% CTR on meta: exactly one improve-CTR
	// recommendation, naming google.
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 10000, 50, 10, 5),
		ctrRec(domain.ProviderMetaAds, 1000, 50, 10, 5),
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	var ctr []domain.Recommendation
	for _, r := range recs {
		if r.Action == "review_ad_copy" {
			ctr = append(ctr, r)
		}
	}
	if len(ctr) != 1 {
		t.Fatalf("improve-CTR recommendations = %d, want 1 (%+v)", len(ctr), recs)
	}
	if ctr[0].Channel != string(domain.ProviderGoogleAds) {
		t.Fatalf("channel = %s, want google_ads", ctr[0].Channel)
	}
	if ctr[0].Priority != domain.PriorityMedium {
		t.Fatalf("priority = %s, want medium", ctr[0].Priority)
	}
	if !strings.Contains(ctr[0].Message, string(domain.ProviderGoogleAds)) {
		t.Fatalf("message %q does not name the channel", ctr[0].Message)
	}
}

func TestRecommendCTRIsRatioOfSums(t *testing.T) {
	// Asymmetric volume split on one channel: 1/10000 and 90/1000.
	// Ratio-of-sums CTR is 91/11000 = 0.83% (fires); average-of-ratios would
	// be (0.01%+9%)/2 = 4.5% (would not fire).
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 10000, 1, 1, 1),
		ctrRec(domain.ProviderGoogleAds, 1000, 90, 1, 1),
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	var fired bool
	for _, r := range recs {
		if r.Action == "review_ad_copy" {
			fired = true
		}
	}
	if !fired {
		t.Fatal("ratio-of-sums CTR of 0.83% must trigger the low-CTR rule")
	}
}

func TestRecommendHighCPA(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 1000, 100, 550, 5), // CPA 110
		ctrRec(domain.ProviderMetaAds, 1000, 100, 90, 5),    // CPA 18
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	var cpa []domain.Recommendation
	for _, r := range recs {
		if r.Action == "optimize_bidding" {
			cpa = append(cpa, r)
		}
	}
	if len(cpa) != 1 {
		t.Fatalf("CPA recommendations = %d, want 1", len(cpa))
	}
	if cpa[0].Priority != domain.PriorityHigh || cpa[0].Channel != string(domain.ProviderGoogleAds) {
		t.Fatalf("unexpected CPA recommendation: %+v", cpa[0])
	}
}

func TestRecommendCPAGuardsZeroConversions(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 1000, 100, 5000, 0),
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		if r.Action == "optimize_bidding" {
			t.Fatalf("CPA rule fired with zero conversions: %+v", r)
		}
	}
}

func TestRecommendBudgetConcentration(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 1000, 100, 800, 5),
		ctrRec(domain.ProviderMetaAds, 1000, 100, 200, 5),
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	var found *domain.Recommendation
	for i := range recs {
		if recs[i].Action == "diversify_budget" {
			found = &recs[i]
		}
	}
	if found == nil {
		t.Fatalf("no diversify recommendation in %+v", recs)
	}
	if found.Value != 80 {
		t.Fatalf("concentration = %v, want 80", found.Value)
	}
	if found.Channel != string(domain.ProviderGoogleAds) {
		t.Fatalf("top channel = %s, want google_ads", found.Channel)
	}
}

func TestRecommendNoConcentrationSingleChannel(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		ctrRec(domain.ProviderGoogleAds, 1000, 100, 800, 5),
	}}
	eng := NewRecommendationEngine(fixedAgg(store))

	recs, err := eng.Recommend(context.Background(), Filter{Scope: tenant.Client(1)})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		if r.Action == "diversify_budget" {
			t.Fatal("concentration rule must need at least two channels")
		}
	}
}
