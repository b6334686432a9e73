package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

func TestConnectorFetch(t *testing.T) {
	var gotPath, gotAuth, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.URL.Query().Get("client_id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[
			{"campaign_id":"cmp-1","date":"2026-08-18","impressions":1000,"clicks":50,"cost":25.5,"conversions":4,"revenue":320},
			{"date":"2026-08-18","impressions":500,"clicks":10,"cost":5,"conversions":1,"revenue":80}
		]}`))
	}))
	defer srv.Close()

	conn := NewGoogleAds(srv.URL, "test-key", 5*time.Second)
	from := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)

	recs, err := conn.Fetch(context.Background(), 3, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/metrics/daily" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotClientID != "3" {
		t.Errorf("client_id param = %q", gotClientID)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Provider != domain.ProviderGoogleAds || recs[0].ClientID != 3 {
		t.Fatalf("record = %+v", recs[0])
	}
	if recs[0].CampaignID == nil || *recs[0].CampaignID != "cmp-1" {
		t.Fatalf("campaign id = %v", recs[0].CampaignID)
	}
	if recs[1].CampaignID != nil {
		t.Fatal("missing campaign_id must map to nil")
	}
	want := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	if !recs[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", recs[0].Timestamp, want)
	}
}

func TestConnectorFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid developer token"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	conn := NewMetaAds(srv.URL, "bad-key", 5*time.Second)
	_, err := conn.Fetch(context.Background(), 3, time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestConnectorFetchBadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[{"date":"18/08/2026","impressions":1,"clicks":0}]}`))
	}))
	defer srv.Close()

	conn := NewGA4(srv.URL, "key", 5*time.Second)
	_, err := conn.Fetch(context.Background(), 3, time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Fatal("expected error on unparseable row date")
	}
}
