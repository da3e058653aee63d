package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/database"
	aws_pkg "github.com/NicolasDuarte04/Briki-Web-App-sub006/pkg/aws"
)

// Config holds all configuration for the plan service.
type Config struct {
	Env      string
	Port     string
	Postgres database.PostgresConfig
	RedisURL string
	AWS      aws_pkg.Settings

	PlansTable     string
	ArchiveBucket  string
	ArchivePrefix  string
	PlansTopicARN  string
	StorageDir     string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	AllowedOrigins string
	JWTSecret      string

	// Upload rate limit per client IP
	UploadRatePerMinute int
	UploadBurst         int

	MetricsEnabled     bool
	MetricsNamespace   string
	CloudWatchLogs     bool
	CloudWatchLogGroup string
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8095"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		RedisURL:            getEnv("REDIS_URL", "redis://redis:6379"),
		AWS:                 aws_pkg.SettingsFromEnv(),
		PlansTable:          getEnv("DDB_TABLE_PLANS", "Plans"),
		ArchiveBucket:       os.Getenv("AWS_S3_BUCKET"),
		ArchivePrefix:       getEnv("AWS_S3_PREFIX", "plan-uploads/"),
		PlansTopicARN:       os.Getenv("PLANS_SNS_TOPIC_ARN"),
		StorageDir:          getEnv("PLAN_UPLOAD_STORAGE_DIR", "./data/plan_uploads"),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 2*time.Minute),
		CacheTTL:            getDuration("PLAN_CACHE_TTL", 10*time.Minute),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		UploadRatePerMinute: getInt("UPLOAD_RATE_PER_MINUTE", 20),
		UploadBurst:         getInt("UPLOAD_RATE_BURST", 5),
		MetricsEnabled:      os.Getenv("CLOUDWATCH_METRICS_ENABLED") == "true",
		MetricsNamespace:    getEnv("CLOUDWATCH_NAMESPACE", "Briki"),
		CloudWatchLogs:      os.Getenv("CLOUDWATCH_LOGS_ENABLED") == "true",
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/briki/services"),
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWS); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			var db aws_pkg.DatabaseSecret
			if err := sm.GetJSON(ctx, getEnv("DB_SECRET_NAME", "briki/DB_CREDENTIALS"), &db); err == nil {
				overrideString(&cfg.Postgres.User, db.User)
				overrideString(&cfg.Postgres.Password, db.Password)
				overrideString(&cfg.Postgres.DBName, db.DBName)
				overrideString(&cfg.Postgres.Host, db.Host)
				overrideString(&cfg.Postgres.Port, db.Port)
			}
			if v, err := sm.GetSecret(ctx, getEnv("JWT_SECRET_NAME", "briki/JWT_SECRET")); err == nil {
				overrideString(&cfg.JWTSecret, v)
			}
		}
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" || cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}
