package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/hoylabs/hoy-analytics/internal/analytics"
	"github.com/hoylabs/hoy-analytics/internal/config"
	"github.com/hoylabs/hoy-analytics/internal/ingest"
	"github.com/hoylabs/hoy-analytics/internal/repository/postgres"
	"github.com/hoylabs/hoy-analytics/internal/service/alert"
	"github.com/hoylabs/hoy-analytics/internal/worker"
)

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
	log.Println("Starting HOY Analytics evaluator worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		log.Printf("Redis locking enabled (%s)", cfg.Redis.Addr)
	} else {
		log.Println("Redis not configured, using PostgreSQL advisory locks")
	}

	metricsRepo := postgres.NewMetricsRepo(db)
	alertSvc := alert.NewService(postgres.NewAlertRepo(db))
	agg := analytics.NewAggregator(metricsRepo)

	evaluator := worker.NewAlertEvaluator(alertSvc, agg, db)
	evaluator.SetPollInterval(cfg.Evaluator.Interval())
	if redisClient != nil {
		evaluator.SetRedisClient(redisClient)
	}
	if err := evaluator.Start(); err != nil {
		log.Fatalf("Failed to start evaluator: %v", err)
	}

	var syncer *worker.MetricSyncer
	if connectors := buildConnectors(cfg); len(connectors) > 0 {
		syncer = worker.NewMetricSyncer(ingest.NewSyncer(metricsRepo, connectors...), metricsRepo, db)
		syncer.SetPollInterval(cfg.Ingest.Interval())
		syncer.SetLookbackDays(cfg.Ingest.LookbackDays)
		if redisClient != nil {
			syncer.SetRedisClient(redisClient)
		}
		if err := syncer.Start(); err != nil {
			log.Fatalf("Failed to start metric syncer: %v", err)
		}
	} else {
		log.Println("No providers enabled, metric sync disabled")
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Println("Shutting down...")
	evaluator.Stop()
	if syncer != nil {
		syncer.Stop()
	}
	log.Println("Worker stopped")
}
