package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	GoogleAds ProviderConfig  `yaml:"google_ads"`
	MetaAds   ProviderConfig  `yaml:"meta_ads"`
	TikTokAds ProviderConfig  `yaml:"tiktok_ads"`
	GA4       ProviderConfig  `yaml:"ga4"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Reports   ReportsConfig   `yaml:"reports"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis connection settings. Redis is optional; workers
// fall back to Postgres advisory locks when Addr is empty.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds JWT verification configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// ProviderConfig holds one ad platform's reporting API settings
type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IngestConfig holds metric sync settings
type IngestConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	LookbackDays    int `yaml:"lookback_days"`
}

// Interval returns the sync interval as a duration
func (c IngestConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// EvaluatorConfig holds alert evaluation settings
type EvaluatorConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the evaluation interval as a duration
func (c EvaluatorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ReportsConfig holds CSV export archive settings
type ReportsConfig struct {
	S3Bucket  string `yaml:"s3_bucket"`
	AWSRegion string `yaml:"aws_region"`
	Enabled   bool   `yaml:"enabled"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	for _, p := range []*ProviderConfig{&cfg.GoogleAds, &cfg.MetaAds, &cfg.TikTokAds, &cfg.GA4} {
		if p.TimeoutSeconds == 0 {
			p.TimeoutSeconds = 30
		}
	}
	if cfg.Ingest.IntervalMinutes == 0 {
		cfg.Ingest.IntervalMinutes = 60
	}
	if cfg.Ingest.LookbackDays == 0 {
		cfg.Ingest.LookbackDays = 3
	}
	if cfg.Evaluator.IntervalMinutes == 0 {
		cfg.Evaluator.IntervalMinutes = 5
	}
	if cfg.Reports.AWSRegion == "" {
		cfg.Reports.AWSRegion = "ap-southeast-1"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}
	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		cfg.Auth.Issuer = issuer
	}
	if apiKey := os.Getenv("GOOGLE_ADS_API_KEY"); apiKey != "" {
		cfg.GoogleAds.APIKey = apiKey
	}
	if apiKey := os.Getenv("META_ADS_API_KEY"); apiKey != "" {
		cfg.MetaAds.APIKey = apiKey
	}
	if apiKey := os.Getenv("TIKTOK_ADS_API_KEY"); apiKey != "" {
		cfg.TikTokAds.APIKey = apiKey
	}
	if apiKey := os.Getenv("GA4_API_KEY"); apiKey != "" {
		cfg.GA4.APIKey = apiKey
	}
	if bucket := os.Getenv("REPORTS_S3_BUCKET"); bucket != "" {
		cfg.Reports.S3Bucket = bucket
		cfg.Reports.Enabled = true
	}
	if region := os.Getenv("REPORTS_S3_REGION"); region != "" {
		cfg.Reports.AWSRegion = region
	}

	return cfg, nil
}
