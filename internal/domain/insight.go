package domain

// Anomaly flags a day whose metric value deviates from the rolling window
// mean beyond the configured threshold. Ephemeral, computed per request.
type Anomaly struct {
	Date      string  `json:"date"`
	Type      string  `json:"type"` // "high" or "low"
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Average   float64 `json:"average"`
	Deviation float64 `json:"deviation"` // percent vs window mean
	Message   string  `json:"message"`
}

// InsightType classifies a qualitative change notice.
type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightWarning  InsightType = "warning"
	InsightInfo     InsightType = "info"
)

// Insight is a qualitative period-over-period change notice. Ephemeral,
// computed per request.
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Metric  string      `json:"metric"`
	Change  float64     `json:"change"` // percent vs previous period
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is prioritized advisory text. Purely informational; the
// engine never acts on it. Ephemeral, computed per request.
type Recommendation struct {
	Type     string   `json:"type"` // "optimization", "cost", "strategy"
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
	Channel  string   `json:"channel,omitempty"`
	Value    float64  `json:"value,omitempty"`
}
