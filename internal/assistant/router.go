package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// Lookback windows per intent, in days.
const (
	revenueWindowDays = 30
	clicksWindowDays  = 7
	ctrWindowDays     = 7
	roasWindowDays    = 30
)

// FallbackMessage is returned verbatim when no intent matches.
const FallbackMessage = "I can answer questions about revenue, clicks, CTR and ROAS. Try one of the suggestions below."

// Suggestions is the static list offered alongside the fallback message.
var Suggestions = []string{
	"How much revenue did we generate this month?",
	"How many clicks did we get this week?",
	"What is our CTR right now?",
	"What is our return on ad spend?",
}

// Answer is the formatted response to one question.
type Answer struct {
	Matched     bool               `json:"matched"`
	Query       string             `json:"query"`
	AnswerText  string             `json:"answer_text"`
	Data        map[string]float64 `json:"data,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// Router resolves questions against the aggregator under the caller's tenant
// scope.
type Router struct {
	agg     *analytics.Aggregator
	intents []intent
	now     func() time.Time
}

type intent struct {
	name  string
	match func(q string) bool
	run   func(ctx context.Context, r *Router, scope tenant.Scope) (string, map[string]float64, error)
}

func anyOf(keywords ...string) func(string) bool {
	return func(q string) bool {
		for _, k := range keywords {
			if strings.Contains(q, k) {
				return true
			}
		}
		return false
	}
}

// NewRouter creates a Router with the fixed intent table.
func NewRouter(agg *analytics.Aggregator) *Router {
	return &Router{
		agg: agg,
		now: time.Now,
		intents: []intent{
			{name: "revenue", match: anyOf("revenue", "sales"), run: answerRevenue},
			{name: "clicks", match: anyOf("click"), run: answerClicks},
			// Any query containing "click" is claimed by the clicks intent
			// above, so "ctr" is the only keyword that can reach this one.
			{name: "ctr", match: anyOf("ctr"), run: answerCTR},
			{name: "roas", match: anyOf("roi", "roas", "return on ad spend"), run: answerROAS},
		},
	}
}

// Answer routes the question to the first matching intent. The principal's
// scope constrains every underlying query; an unmatched question gets the
// fallback message and the static suggestions.
func (r *Router) Answer(ctx context.Context, p domain.Principal, query string) (Answer, error) {
	scope, err := tenant.ForMetrics(p, nil)
	if err != nil {
		return Answer{}, err
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, in := range r.intents {
		if !in.match(normalized) {
			continue
		}
		text, data, err := in.run(ctx, r, scope)
		if err != nil {
			return Answer{}, fmt.Errorf("answer %s: %w", in.name, err)
		}
		return Answer{Matched: true, Query: query, AnswerText: text, Data: data}, nil
	}

	return Answer{
		Matched:     false,
		Query:       query,
		AnswerText:  FallbackMessage,
		Suggestions: Suggestions,
	}, nil
}

func (r *Router) window(days int, scope tenant.Scope) analytics.Filter {
	now := r.now().UTC()
	return analytics.Filter{Scope: scope, From: now.AddDate(0, 0, -days), To: now}
}

func answerRevenue(ctx context.Context, r *Router, scope tenant.Scope) (string, map[string]float64, error) {
	res, err := r.agg.Summarize(ctx, r.window(revenueWindowDays, scope))
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("Over the last %d days you generated %.2f in revenue from %d conversions.",
		revenueWindowDays, res.Revenue, res.Conversions)
	return text, map[string]float64{
		"revenue":     res.Revenue,
		"conversions": float64(res.Conversions),
	}, nil
}

func answerClicks(ctx context.Context, r *Router, scope tenant.Scope) (string, map[string]float64, error) {
	res, err := r.agg.Summarize(ctx, r.window(clicksWindowDays, scope))
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("You received %d clicks from %d impressions over the last %d days.",
		res.Clicks, res.Impressions, clicksWindowDays)
	return text, map[string]float64{
		"clicks":      float64(res.Clicks),
		"impressions": float64(res.Impressions),
	}, nil
}

func answerCTR(ctx context.Context, r *Router, scope tenant.Scope) (string, map[string]float64, error) {
	res, err := r.agg.Summarize(ctx, r.window(ctrWindowDays, scope))
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("Your click-through rate over the last %d days is %.2f%%.",
		ctrWindowDays, res.CTR)
	return text, map[string]float64{"ctr": res.CTR}, nil
}

func answerROAS(ctx context.Context, r *Router, scope tenant.Scope) (string, map[string]float64, error) {
	res, err := r.agg.Summarize(ctx, r.window(roasWindowDays, scope))
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("Over the last %d days you spent %.2f and earned %.2f, a return on ad spend of %.2f.",
		roasWindowDays, res.Cost, res.Revenue, res.ROAS)
	return text, map[string]float64{
		"cost":    res.Cost,
		"revenue": res.Revenue,
		"roas":    res.ROAS,
	}, nil
}
