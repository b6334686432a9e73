package domain

import "time"

// AlertDimension is the granularity an alert rule is evaluated against.
type AlertDimension string

const (
	DimensionGlobal   AlertDimension = "global"
	DimensionChannel  AlertDimension = "channel"
	DimensionCampaign AlertDimension = "campaign"
)

// ValidDimension reports whether d is a recognized alert dimension.
func ValidDimension(d AlertDimension) bool {
	return d == DimensionGlobal || d == DimensionChannel || d == DimensionCampaign
}

// AlertStatus enumerates the manual lifecycle states of an alert rule.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// ValidAlertStatus reports whether s is a recognized alert status.
func ValidAlertStatus(s AlertStatus) bool {
	return s == AlertActive || s == AlertResolved
}

// ConditionOperator enumerates the comparison operators a rule condition
// supports.
type ConditionOperator string

const (
	OpGT  ConditionOperator = "gt"
	OpLT  ConditionOperator = "lt"
	OpGTE ConditionOperator = "gte"
	OpLTE ConditionOperator = "lte"
	OpEQ  ConditionOperator = "eq"
)

// ValidOperator reports whether op is a recognized condition operator.
func ValidOperator(op ConditionOperator) bool {
	switch op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ:
		return true
	}
	return false
}

// ConditionMetrics lists the metric names a rule condition may reference.
var ConditionMetrics = []string{"impressions", "clicks", "cost", "conversions", "revenue", "ctr", "cpa", "roas"}

// ValidConditionMetric reports whether name is an allowed condition metric.
func ValidConditionMetric(name string) bool {
	for _, m := range ConditionMetrics {
		if m == name {
			return true
		}
	}
	return false
}

// AlertCondition is the typed rule condition. It replaces the original
// loosely-typed JSON blob and is validated at creation time.
type AlertCondition struct {
	Metric    string            `json:"metric"`
	Operator  ConditionOperator `json:"operator"`
	Threshold float64           `json:"threshold"`
}

// Holds reports whether value satisfies the condition.
func (c AlertCondition) Holds(value float64) bool {
	switch c.Operator {
	case OpGT:
		return value > c.Threshold
	case OpLT:
		return value < c.Threshold
	case OpGTE:
		return value >= c.Threshold
	case OpLTE:
		return value <= c.Threshold
	case OpEQ:
		return value == c.Threshold
	}
	return false
}

// AlertRule is a persisted, tenant-scoped alert definition.
//
// ClientID is always bound server-side from the creating principal, never
// caller-supplied. TriggeredAt is a one-way latch: set by the periodic
// evaluator when the condition first holds, cleared only by a manual status
// update back to active.
type AlertRule struct {
	ID          string         `json:"id" db:"id"`
	ClientID    int64          `json:"client_id" db:"client_id"`
	RuleName    string         `json:"rule_name" db:"rule_name"`
	Dimension   AlertDimension `json:"dimension" db:"dimension"`
	Condition   AlertCondition `json:"condition"`
	Status      AlertStatus    `json:"status" db:"status"`
	TriggeredAt *time.Time     `json:"triggered_at" db:"triggered_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
