package app

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/config"
)

// AppContext holds shared dependencies (config, DB, Redis, logger, validator).
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Validate   *validator.Validate
}

// New creates a new AppContext. A nil config falls back to config.New().
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	if cfg == nil {
		cfg = config.New()
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}
