package analytics

import (
	"context"
	"fmt"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// DefaultInsightPeriodDays is the comparison period when the caller does not
// override it.
const DefaultInsightPeriodDays = 30

// InsightGenerator compares the current period against the immediately
// preceding equal-length period and emits qualitative change notices from a
// fixed, ordered rule set. Multiple rules may fire on one call.
type InsightGenerator struct {
	agg *Aggregator
}

// NewInsightGenerator creates a generator on top of the shared aggregator.
func NewInsightGenerator(agg *Aggregator) *InsightGenerator {
	return &InsightGenerator{agg: agg}
}

// Generate evaluates the rule set over [now-periodDays, now] versus the
// preceding period of the same length. periodDays <= 0 means
// DefaultInsightPeriodDays. A previous-period value of 0 yields a 0% change,
// never a division error.
func (g *InsightGenerator) Generate(ctx context.Context, f Filter, periodDays int) ([]domain.Insight, error) {
	if periodDays <= 0 {
		periodDays = DefaultInsightPeriodDays
	}
	now := g.agg.now()

	current := f
	current.From = now.AddDate(0, 0, -periodDays)
	current.To = now

	previous := f
	previous.From = now.AddDate(0, 0, -2*periodDays)
	previous.To = current.From

	cur, err := g.agg.Summarize(ctx, current)
	if err != nil {
		return nil, err
	}
	prev, err := g.agg.Summarize(ctx, previous)
	if err != nil {
		return nil, err
	}

	clicksChange := pctChange(float64(cur.Clicks), float64(prev.Clicks))
	convChange := pctChange(float64(cur.Conversions), float64(prev.Conversions))
	costChange := pctChange(cur.Cost, prev.Cost)

	insights := []domain.Insight{}

	switch {
	case clicksChange > 10:
		insights = append(insights, domain.Insight{
			Type:    domain.InsightPositive,
			Title:   "Clicks trending up",
			Message: fmt.Sprintf("Clicks are up %.1f%% versus the previous period", clicksChange),
			Metric:  "clicks",
			Change:  clicksChange,
		})
	case clicksChange < -10:
		insights = append(insights, domain.Insight{
			Type:    domain.InsightWarning,
			Title:   "Clicks trending down",
			Message: fmt.Sprintf("Clicks are down %.1f%% versus the previous period", abs(clicksChange)),
			Metric:  "clicks",
			Change:  clicksChange,
		})
	}

	if convChange > 10 {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightPositive,
			Title:   "Conversions trending up",
			Message: fmt.Sprintf("Conversions are up %.1f%% versus the previous period", convChange),
			Metric:  "conversions",
			Change:  convChange,
		})
	}

	if costChange > 20 && clicksChange < 10 {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightWarning,
			Title:   "Cost outpacing traffic",
			Message: fmt.Sprintf("Spend grew %.1f%% while clicks grew only %.1f%%", costChange, clicksChange),
			Metric:  "cost",
			Change:  costChange,
		})
	}

	// Best performing channel by conversions in the current period.
	byChannel, err := g.agg.ByChannel(ctx, current)
	if err != nil {
		return nil, err
	}
	if best, ok := bestChannelByConversions(byChannel); ok {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightInfo,
			Title:   "Best performing channel",
			Message: fmt.Sprintf("Channel %s has the highest conversions this period", best),
			Metric:  "channel",
			Change:  0,
		})
	}

	return insights, nil
}

// pctChange returns the percent change from previous to current, defined as
// 0 when previous is 0.
func pctChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// bestChannelByConversions picks the channel with the most conversions,
// breaking ties lexicographically so output is deterministic.
func bestChannelByConversions(byChannel map[domain.Provider]domain.Totals) (domain.Provider, bool) {
	var best domain.Provider
	var bestConv int64 = -1
	for _, ch := range SortedChannels(byChannel) {
		if c := byChannel[ch].Conversions; c > bestConv {
			best, bestConv = ch, c
		}
	}
	return best, bestConv > 0
}
