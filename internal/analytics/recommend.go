package analytics

import (
	"context"
	"fmt"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// Per-channel KPI thresholds for the recommendation rules.
const (
	RecommendWindowDays      = 7
	LowCTRPercent            = 1.0
	HighCPAThreshold         = 100.0
	BudgetConcentrationLimit = 70.0
)

// RecommendationEngine evaluates per-channel KPI thresholds and budget
// concentration over the trailing 7 days. Output is purely advisory text;
// no automatic action is ever taken.
type RecommendationEngine struct {
	agg *Aggregator
}

// NewRecommendationEngine creates an engine on top of the shared aggregator.
func NewRecommendationEngine(agg *Aggregator) *RecommendationEngine {
	return &RecommendationEngine{agg: agg}
}

// Recommend groups the trailing 7 days of metrics by channel and applies the
// fixed rule set. Channels are visited in sorted order, so output is
// deterministic for identical stored data. CTR and CPA are ratios of summed
// totals, never averages of per-record ratios.
func (e *RecommendationEngine) Recommend(ctx context.Context, f Filter) ([]domain.Recommendation, error) {
	if !f.hasRange() {
		f.To = e.agg.now()
		f.From = f.To.AddDate(0, 0, -RecommendWindowDays)
	}

	byChannel, err := e.agg.ByChannel(ctx, f)
	if err != nil {
		return nil, err
	}

	recs := []domain.Recommendation{}
	channels := SortedChannels(byChannel)

	for _, ch := range channels {
		agg := Derive(byChannel[ch])
		if agg.Impressions > 0 && agg.CTR < LowCTRPercent {
			recs = append(recs, domain.Recommendation{
				Type:     "optimization",
				Priority: domain.PriorityMedium,
				Title:    "Improve CTR",
				Message:  fmt.Sprintf("CTR for channel %s is %.2f%%, below %.1f%%; review ad copy or targeting", ch, agg.CTR, LowCTRPercent),
				Action:   "review_ad_copy",
				Channel:  string(ch),
				Value:    agg.CTR,
			})
		}
		if agg.Conversions > 0 && agg.CPA > HighCPAThreshold {
			recs = append(recs, domain.Recommendation{
				Type:     "cost",
				Priority: domain.PriorityHigh,
				Title:    "CPA too high",
				Message:  fmt.Sprintf("CPA for channel %s is %.2f, above %.0f; review the bidding strategy", ch, agg.CPA, HighCPAThreshold),
				Action:   "optimize_bidding",
				Channel:  string(ch),
				Value:    agg.CPA,
			})
		}
	}

	// Budget concentration: only meaningful across at least two channels.
	if len(channels) > 1 {
		var totalCost float64
		var top domain.Provider
		var topCost float64
		for _, ch := range channels {
			cost := byChannel[ch].Cost
			totalCost += cost
			if cost > topCost {
				top, topCost = ch, cost
			}
		}
		if totalCost > 0 {
			pct := topCost / totalCost * 100
			if pct > BudgetConcentrationLimit {
				recs = append(recs, domain.Recommendation{
					Type:     "strategy",
					Priority: domain.PriorityMedium,
					Title:    "Diversify budget",
					Message:  fmt.Sprintf("%.1f%% of the last %d days' spend is on channel %s; consider spreading budget", pct, RecommendWindowDays, top),
					Action:   "diversify_budget",
					Channel:  string(top),
					Value:    pct,
				})
			}
		}
	}

	return recs, nil
}
