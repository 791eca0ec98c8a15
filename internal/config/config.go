package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string // mysql | postgres | sqlite
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Feed struct {
		DefaultPageSize int
		MaxPageSize     int
	}

	// Reconcile drives the background counter repair loop.
	Reconcile struct {
		Interval  time.Duration // <= 0 disables
		BatchSize int
	}
}

// New builds the configuration from the process environment.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "social_graph")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "social")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		case "sqlite":
			cfg.DB.DSN = cfg.DB.Name + ".db"
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// admin HTTP (health + metrics)
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "9090")

	// Feed paging
	cfg.Feed.DefaultPageSize = getEnvInt("FEED_DEFAULT_PAGE_SIZE", 20)
	cfg.Feed.MaxPageSize = getEnvInt("FEED_MAX_PAGE_SIZE", 100)

	// Counter reconciliation
	cfg.Reconcile.Interval = getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute)
	cfg.Reconcile.BatchSize = getEnvInt("RECONCILE_BATCH_SIZE", 500)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
