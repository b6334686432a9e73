package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/pkg/httpretry"
)

// Connector fetches metric rows for one provider.
type Connector interface {
	Provider() domain.Provider
	Fetch(ctx context.Context, clientID int64, from, to time.Time) ([]domain.MetricRecord, error)
}

// APIConnector is a generic HTTP connector for provider reporting APIs that
// expose a daily metrics endpoint. All four supported providers share the
// same wire shape behind provider-specific base URLs.
type APIConnector struct {
	provider   domain.Provider
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewConnector creates a connector for the given provider.
func NewConnector(provider domain.Provider, baseURL, apiKey string, timeout time.Duration) *APIConnector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIConnector{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   apiKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// NewGoogleAds creates the Google Ads reporting connector.
func NewGoogleAds(baseURL, apiKey string, timeout time.Duration) *APIConnector {
	return NewConnector(domain.ProviderGoogleAds, baseURL, apiKey, timeout)
}

// NewMetaAds creates the Meta Ads insights connector.
func NewMetaAds(baseURL, apiKey string, timeout time.Duration) *APIConnector {
	return NewConnector(domain.ProviderMetaAds, baseURL, apiKey, timeout)
}

// NewTikTokAds creates the TikTok Ads reporting connector.
func NewTikTokAds(baseURL, apiKey string, timeout time.Duration) *APIConnector {
	return NewConnector(domain.ProviderTikTokAds, baseURL, apiKey, timeout)
}

// NewGA4 creates the Google Analytics 4 data connector.
func NewGA4(baseURL, apiKey string, timeout time.Duration) *APIConnector {
	return NewConnector(domain.ProviderGA4, baseURL, apiKey, timeout)
}

// Provider reports which provider this connector serves.
func (c *APIConnector) Provider() domain.Provider { return c.provider }

// metricsPayload is the provider response envelope.
type metricsPayload struct {
	Rows []metricsRow `json:"rows"`
}

type metricsRow struct {
	CampaignID  string  `json:"campaign_id"`
	Date        string  `json:"date"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Fetch pulls daily rows for the tenant over [from, to].
func (c *APIConnector) Fetch(ctx context.Context, clientID int64, from, to time.Time) ([]domain.MetricRecord, error) {
	params := url.Values{}
	params.Set("client_id", fmt.Sprintf("%d", clientID))
	params.Set("from", from.UTC().Format("2006-01-02"))
	params.Set("to", to.UTC().Format("2006-01-02"))

	body, err := c.doRequest(ctx, "/metrics/daily", params)
	if err != nil {
		return nil, fmt.Errorf("fetching %s metrics: %w", c.provider, err)
	}

	var payload metricsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing %s metrics: %w", c.provider, err)
	}

	out := make([]domain.MetricRecord, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		ts, err := time.ParseInLocation("2006-01-02", row.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing %s row date %q: %w", c.provider, row.Date, err)
		}
		rec := domain.MetricRecord{
			ClientID:    clientID,
			Provider:    c.provider,
			Timestamp:   ts,
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			Cost:        row.Cost,
			Conversions: row.Conversions,
			Revenue:     row.Revenue,
		}
		if row.CampaignID != "" {
			id := row.CampaignID
			rec.CampaignID = &id
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *APIConnector) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
