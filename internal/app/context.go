package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/cache"
	"github.com/unimeet/match-core/internal/config"
	"github.com/unimeet/match-core/internal/matching"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config

	// Reciprocity is the parsed MATCH_RECIPROCITY policy.
	Reciprocity matching.Reciprocity
	// Now is the clock behind age computations; tests pin it.
	Now func() time.Time
}

// New creates a new AppContext. An unknown reciprocity policy is an error.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) (*AppContext, error) {
	policy, err := matching.ParseReciprocity(cfg.Matching.Reciprocity)
	if err != nil {
		return nil, err
	}
	return &AppContext{
		DB:          db,
		RedisCache:  rdb,
		Logger:      logger,
		Config:      cfg,
		Reciprocity: policy,
		Now:         time.Now,
	}, nil
}
