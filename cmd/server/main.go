package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/hoylabs/hoy-analytics/internal/api"
	"github.com/hoylabs/hoy-analytics/internal/auth"
	"github.com/hoylabs/hoy-analytics/internal/config"
	"github.com/hoylabs/hoy-analytics/internal/ingest"
	"github.com/hoylabs/hoy-analytics/internal/report"
	"github.com/hoylabs/hoy-analytics/internal/repository/postgres"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func buildConnectors(cfg *config.Config) []ingest.Connector {
	var connectors []ingest.Connector
	if cfg.GoogleAds.Enabled {
		connectors = append(connectors, ingest.NewGoogleAds(cfg.GoogleAds.BaseURL, cfg.GoogleAds.APIKey, cfg.GoogleAds.Timeout()))
	}
	if cfg.MetaAds.Enabled {
		connectors = append(connectors, ingest.NewMetaAds(cfg.MetaAds.BaseURL, cfg.MetaAds.APIKey, cfg.MetaAds.Timeout()))
	}
	if cfg.TikTokAds.Enabled {
		connectors = append(connectors, ingest.NewTikTokAds(cfg.TikTokAds.BaseURL, cfg.TikTokAds.APIKey, cfg.TikTokAds.Timeout()))
	}
	if cfg.GA4.Enabled {
		connectors = append(connectors, ingest.NewGA4(cfg.GA4.BaseURL, cfg.GA4.APIKey, cfg.GA4.Timeout()))
	}
	return connectors
}

func main() {
	log.Println("Starting HOY Analytics API server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Printf("WARNING: database unreachable at startup: %v", err)
	} else {
		log.Println("Connected to database")
	}
	cancelPing()

	metricsRepo := postgres.NewMetricsRepo(db)
	alertSvc := alert.NewService(postgres.NewAlertRepo(db))

	handlers := api.NewHandlers(db, metricsRepo, alertSvc)

	if connectors := buildConnectors(cfg); len(connectors) > 0 {
		handlers.SetSyncer(ingest.NewSyncer(metricsRepo, connectors...))
		log.Printf("Metric sync enabled with %d provider(s)", len(connectors))
	}

	if cfg.Reports.Enabled && cfg.Reports.S3Bucket != "" {
		archiver, err := report.NewArchiver(context.Background(), cfg.Reports.S3Bucket, cfg.Reports.AWSRegion)
		if err != nil {
			log.Printf("WARNING: report archive disabled: %v", err)
		} else {
			handlers.SetArchiver(archiver)
			log.Printf("Report archive enabled (bucket %s)", cfg.Reports.S3Bucket)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret (or JWT_SECRET) is required")
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	server := api.NewServer(cfg.Server, handlers, verifier)

	addr := fmt.Sprintf("%s:%d", host, port)
	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
