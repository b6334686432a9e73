package analytics

import (
	"context"
	"strings"
	"testing"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// periodRec places a record n days before testNow with the given clicks,
// cost and conversions.
func periodRec(daysAgo int, provider domain.Provider, clicks int64, cost float64, conv int64) domain.MetricRecord {
	return rec(1, provider, testNow.AddDate(0, 0, -daysAgo), clicks*20, clicks, cost, conv, 0)
}

func findInsight(insights []domain.Insight, metric string, typ domain.InsightType) *domain.Insight {
	for i := range insights {
		if insights[i].Metric == metric && insights[i].Type == typ {
			return &insights[i]
		}
	}
	return nil
}

func TestGenerateClicksUp(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		periodRec(5, domain.ProviderGoogleAds, 200, 100, 10),
		periodRec(45, domain.ProviderGoogleAds, 100, 100, 10),
	}}
	gen := NewInsightGenerator(fixedAgg(store))

	insights, err := gen.Generate(context.Background(), Filter{Scope: tenant.Client(1)}, 30)
	if err != nil {
		t.Fatal(err)
	}
	in := findInsight(insights, "clicks", domain.InsightPositive)
	if in == nil {
		t.Fatalf("no positive clicks insight in %+v", insights)
	}
	if in.Change != 100 {
		t.Fatalf("change = %v, want 100", in.Change)
	}
}

func TestGenerateClicksDownWarning(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		periodRec(5, domain.ProviderGoogleAds, 50, 100, 10),
		periodRec(45, domain.ProviderGoogleAds, 100, 100, 10),
	}}
	gen := NewInsightGenerator(fixedAgg(store))

	insights, err := gen.Generate(context.Background(), Filter{Scope: tenant.Client(1)}, 30)
	if err != nil {
		t.Fatal(err)
	}
	if findInsight(insights, "clicks", domain.InsightWarning) == nil {
		t.Fatalf("no clicks warning in %+v", insights)
	}
}

func TestGeneratePreviousZeroIsZeroChange(t *testing.T) {
	// No previous-period data at all: every change must be 0, so neither the
	// positive nor the warning click rule may fire.
	store := &memStore{records: []domain.MetricRecord{
		periodRec(5, domain.ProviderGoogleAds, 500, 100, 10),
	}}
	gen := NewInsightGenerator(fixedAgg(store))

	insights, err := gen.Generate(context.Background(), Filter{Scope: tenant.Client(1)}, 30)
	if err != nil {
		t.Fatal(err)
	}
	if findInsight(insights, "clicks", domain.InsightPositive) != nil || findInsight(insights, "clicks", domain.InsightWarning) != nil {
		t.Fatalf("click rules fired on zero previous period: %+v", insights)
	}
}

func TestGenerateCostOutpacingTraffic(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		periodRec(5, domain.ProviderGoogleAds, 100, 300, 10),
		periodRec(45, domain.ProviderGoogleAds, 100, 100, 10),
	}}
	gen := NewInsightGenerator(fixedAgg(store))

	insights, err := gen.Generate(context.Background(), Filter{Scope: tenant.Client(1)}, 30)
	if err != nil {
		t.Fatal(err)
	}
	if findInsight(insights, "cost", domain.InsightWarning) == nil {
		t.Fatalf("cost outpacing rule did not fire: %+v", insights)
	}
}

func TestGenerateBestChannel(t *testing.T) {
	store := &memStore{records: []domain.MetricRecord{
		periodRec(5, domain.ProviderGoogleAds, 100, 100, 3),
		periodRec(5, domain.ProviderMetaAds, 100, 100, 30),
	}}
	gen := NewInsightGenerator(fixedAgg(store))

	insights, err := gen.Generate(context.Background(), Filter{Scope: tenant.Client(1)}, 30)
	if err != nil {
		t.Fatal(err)
	}
	in := findInsight(insights, "channel", domain.InsightInfo)
	if in == nil {
		t.Fatalf("no best-channel insight in %+v", insights)
	}
	if want := string(domain.ProviderMetaAds); !strings.Contains(in.Message, want) {
		t.Fatalf("message %q does not name channel %s", in.Message, want)
	}
}
