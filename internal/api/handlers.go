package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/assistant"
	"github.com/hoylabs/hoy-analytics/internal/auth"
	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/ingest"
	"github.com/hoylabs/hoy-analytics/internal/pkg/httputil"
	"github.com/hoylabs/hoy-analytics/internal/report"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	db          *sql.DB
	agg         *analytics.Aggregator
	anomalies   *analytics.AnomalyDetector
	insights    *analytics.InsightGenerator
	recommender *analytics.RecommendationEngine
	assistant   *assistant.Router
	alerts      *alert.Service
	reporter    *report.Reporter
	archiver    *report.Archiver // optional
	syncer      *ingest.Syncer   // optional
	now         func() time.Time
}

// NewHandlers wires the handler set. The archiver and syncer are optional;
// their endpoints return 503 when unconfigured.
func NewHandlers(db *sql.DB, store analytics.MetricStore, alerts *alert.Service) *Handlers {
	agg := analytics.NewAggregator(store)
	return &Handlers{
		db:          db,
		agg:         agg,
		anomalies:   analytics.NewAnomalyDetector(agg),
		insights:    analytics.NewInsightGenerator(agg),
		recommender: analytics.NewRecommendationEngine(agg),
		assistant:   assistant.NewRouter(agg),
		alerts:      alerts,
		reporter:    report.NewReporter(store),
		now:         time.Now,
	}
}

// SetArchiver enables the S3 report archive endpoint.
func (h *Handlers) SetArchiver(a *report.Archiver) { h.archiver = a }

// SetSyncer enables the manual metric sync endpoint.
func (h *Handlers) SetSyncer(s *ingest.Syncer) { h.syncer = s }

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *alert.ValidationError
	switch {
	case errors.As(err, &ve):
		httputil.BadRequest(w, ve.Error())
	case errors.Is(err, alert.ErrNotFound):
		httputil.NotFound(w, "alert rule not found")
	case errors.Is(err, alert.ErrPermissionDenied),
		errors.Is(err, tenant.ErrCrossTenantDenied),
		errors.Is(err, tenant.ErrUnknownRole):
		httputil.Forbidden(w, "forbidden")
	case errors.Is(err, analytics.ErrStoreUnavailable):
		httputil.Unavailable(w, "metric store unavailable")
	default:
		httputil.InternalError(w, err)
	}
}

// principal pulls the authenticated caller off the context. The auth
// middleware guarantees it is present on /api routes.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "missing principal")
	}
	return p, ok
}

// parseFilter builds the metric filter from query parameters under the
// caller's tenant scope. client_id targets another tenant and is only
// honored for privileged roles.
func parseFilter(r *http.Request, p domain.Principal) (analytics.Filter, error) {
	var target *int64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return analytics.Filter{}, &alert.ValidationError{Field: "client_id", Reason: "must be an integer"}
		}
		target = &id
	}
	scope, err := tenant.ForMetrics(p, target)
	if err != nil {
		return analytics.Filter{}, err
	}

	f := analytics.Filter{
		Scope:      scope,
		Provider:   domain.Provider(r.URL.Query().Get("provider")),
		CampaignID: r.URL.Query().Get("campaign_id"),
	}
	if f.From, err = parseDay(r.URL.Query().Get("from"), false); err != nil {
		return analytics.Filter{}, err
	}
	if f.To, err = parseDay(r.URL.Query().Get("to"), true); err != nil {
		return analytics.Filter{}, err
	}
	return f, nil
}

// parseDay accepts a date or an RFC 3339 timestamp. A bare "to" date covers
// the whole day.
func parseDay(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &alert.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD or RFC 3339"}
	}
	return t, nil
}

// HealthCheck reports service and database status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	httputil.JSON(w, code, status)
}

// GetSummary returns totals and derived ratios for the filtered window.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.agg.Summarize(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// GetTrend returns the bucketed time series for the filtered window.
func (h *Handlers) GetTrend(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	interval := domain.Interval(r.URL.Query().Get("interval"))
	if interval == "" {
		interval = domain.IntervalDaily
	}
	if interval != domain.IntervalDaily && interval != domain.IntervalHourly {
		writeError(w, &alert.ValidationError{Field: "interval", Reason: "must be daily or hourly"})
		return
	}
	points, err := h.agg.Trend(r.Context(), f, interval)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"interval": interval, "points": points})
}

// GetChannels returns per-channel aggregates in deterministic order.
func (h *Handlers) GetChannels(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	byChannel, err := h.agg.ByChannel(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	type channelEntry struct {
		Channel domain.Provider `json:"channel"`
		domain.AggregateResult
	}
	out := make([]channelEntry, 0, len(byChannel))
	for _, ch := range analytics.SortedChannels(byChannel) {
		out = append(out, channelEntry{Channel: ch, AggregateResult: analytics.Derive(byChannel[ch])})
	}
	httputil.OK(w, map[string]interface{}{"channels": out})
}

// GetAnomalies runs anomaly detection over the trailing week.
func (h *Handlers) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 {
			writeError(w, &alert.ValidationError{Field: "threshold", Reason: "must be a non-negative number"})
			return
		}
	}
	res, err := h.anomalies.Detect(r.Context(), f, threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// GetInsights returns period-over-period change notices.
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	periodDays := 0
	if raw := r.URL.Query().Get("period_days"); raw != "" {
		periodDays, err = strconv.Atoi(raw)
		if err != nil || periodDays < 0 {
			writeError(w, &alert.ValidationError{Field: "period_days", Reason: "must be a non-negative integer"})
			return
		}
	}
	insights, err := h.insights.Generate(r.Context(), f, periodDays)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"insights": insights})
}

// GetRecommendations returns the prioritized advisory list.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	recs, err := h.recommender.Recommend(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"recommendations": recs})
}

// AskAssistant answers a natural-language metric question.
func (h *Handlers) AskAssistant(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if body.Query == "" {
		writeError(w, &alert.ValidationError{Field: "query", Reason: "must not be empty"})
		return
	}
	ans, err := h.assistant.Answer(r.Context(), p, body.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, ans)
}

// CreateAlert creates a new alert rule owned by the caller's tenant.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		RuleName  string                `json:"rule_name"`
		Dimension string                `json:"dimension"`
		Condition domain.AlertCondition `json:"condition"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	rule, err := h.alerts.Create(r.Context(), p, alert.CreateInput{
		RuleName:  body.RuleName,
		Dimension: domain.AlertDimension(body.Dimension),
		Condition: body.Condition,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, rule)
}

// ListAlerts returns the rules visible to the caller, newest first.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	rules, err := h.alerts.List(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.AlertRule{}
	}
	httputil.OK(w, map[string]interface{}{"rules": rules})
}

// UpdateAlertStatus moves a rule between active and resolved.
func (h *Handlers) UpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.alerts.UpdateStatus(r.Context(), p, id, domain.AlertStatus(body.Status)); err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"id": id, "status": body.Status})
}

// GetDetailedReport returns the per-day, per-channel, per-campaign breakdown.
func (h *Handlers) GetDetailedReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.reporter.Detailed(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, rep)
}

// ExportReportCSV streams the detailed report as a CSV download.
func (h *Handlers) ExportReportCSV(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.reporter.Detailed(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := report.ToCSV(rep)
	if err != nil {
		writeError(w, err)
		return
	}
	filename := report.Filename(h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ArchiveReport uploads the current CSV export to S3.
func (h *Handlers) ArchiveReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if h.archiver == nil {
		httputil.Unavailable(w, "report archive is not configured")
		return
	}
	f, err := parseFilter(r, p)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.reporter.Detailed(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := report.ToCSV(rep)
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := h.archiver.Archive(r.Context(), p.ClientID, h.now(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"key": key})
}

// TriggerSync runs a metric sync for the caller's tenant. Viewers may not
// trigger ingestion.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role == domain.RoleViewer {
		httputil.Forbidden(w, "forbidden")
		return
	}
	if h.syncer == nil {
		httputil.Unavailable(w, "metric sync is not configured")
		return
	}
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	from, err := parseDay(body.From, false)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDay(body.To, true)
	if err != nil {
		writeError(w, err)
		return
	}
	if to.IsZero() {
		to = h.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -1)
	}
	rep, err := h.syncer.SyncAll(r.Context(), p.ClientID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, rep)
}
