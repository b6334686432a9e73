package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// DefaultAnomalyThreshold is the deviation percentage beyond which a day is
// flagged, when the caller does not override it.
const DefaultAnomalyThreshold = 20.0

// AnomalyWindowDays is the rolling window the detector compares against.
const AnomalyWindowDays = 7

// DetectResult carries the flagged anomalies plus the insufficient-data tag.
// InsufficientData is a legitimate "nothing to report" outcome, distinct from
// a store failure, so callers can tell the two apart.
type DetectResult struct {
	Anomalies        []domain.Anomaly `json:"anomalies"`
	InsufficientData bool             `json:"insufficient_data"`
	Threshold        float64          `json:"threshold"`
}

// AnomalyDetector flags days whose clicks, cost or conversions deviate from
// the rolling 7-day mean beyond a threshold.
type AnomalyDetector struct {
	agg *Aggregator
}

// NewAnomalyDetector creates a detector on top of the shared aggregator.
func NewAnomalyDetector(agg *Aggregator) *AnomalyDetector {
	return &AnomalyDetector{agg: agg}
}

// Detect computes daily buckets over the trailing 7-day window and flags
// deviations beyond thresholdPercent (<=0 means DefaultAnomalyThreshold).
//
// Clicks and cost are flagged in both directions; conversions only on drops
// (a spike in conversions is not actionable). The most recent day is never
// flagged since it is usually still accumulating. A metric whose window mean
// is 0 is skipped entirely. Fewer than 2 daily buckets yields an empty result
// tagged InsufficientData, not an error.
func (d *AnomalyDetector) Detect(ctx context.Context, f Filter, thresholdPercent float64) (DetectResult, error) {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultAnomalyThreshold
	}
	if !f.hasRange() {
		f.To = d.agg.now()
		f.From = f.To.AddDate(0, 0, -AnomalyWindowDays)
	}

	points, err := d.agg.Trend(ctx, f, domain.IntervalDaily)
	if err != nil {
		return DetectResult{}, err
	}
	result := DetectResult{Anomalies: []domain.Anomaly{}, Threshold: thresholdPercent}
	if len(points) < 2 {
		result.InsufficientData = true
		return result, nil
	}

	// Unweighted mean across every bucket in the window, including the most
	// recent one.
	var sumClicks, sumCost, sumConv float64
	for _, p := range points {
		sumClicks += float64(p.Clicks)
		sumCost += p.Cost
		sumConv += float64(p.Conversions)
	}
	n := float64(len(points))
	avgClicks, avgCost, avgConv := sumClicks/n, sumCost/n, sumConv/n

	// Newest first, skipping the most recent day.
	ordered := make([]domain.TrendPoint, len(points))
	copy(ordered, points)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Bucket > ordered[j].Bucket })

	for i, p := range ordered {
		if i == 0 {
			continue
		}
		if avgClicks > 0 {
			d.flag(&result, p.Bucket, "clicks", float64(p.Clicks), avgClicks, thresholdPercent, false)
		}
		if avgCost > 0 {
			d.flag(&result, p.Bucket, "cost", p.Cost, avgCost, thresholdPercent, false)
		}
		if avgConv > 0 {
			d.flag(&result, p.Bucket, "conversions", float64(p.Conversions), avgConv, thresholdPercent, true)
		}
	}
	return result, nil
}

// flag appends an anomaly when value deviates from avg strictly beyond the
// threshold; a deviation of exactly the threshold is not an anomaly.
// dropsOnly restricts flagging to negative deviations.
func (d *AnomalyDetector) flag(res *DetectResult, date, metric string, value, avg, threshold float64, dropsOnly bool) {
	deviation := (value - avg) / avg * 100
	if dropsOnly {
		if deviation >= -threshold {
			return
		}
	} else if deviation >= -threshold && deviation <= threshold {
		return
	}

	kind := "high"
	direction := "above"
	if deviation < 0 {
		kind = "low"
		direction = "below"
	}
	res.Anomalies = append(res.Anomalies, domain.Anomaly{
		Date:      date,
		Type:      kind,
		Metric:    metric,
		Value:     value,
		Average:   avg,
		Deviation: deviation,
		Message:   fmt.Sprintf("%s %.1f%% %s the %d-day average", metric, abs(deviation), direction, AnomalyWindowDays),
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
