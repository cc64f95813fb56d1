package main

import (
	"github.com/jmoiron/sqlx"

	"github.com/db8labs/db8-agent/internal/cache"
	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/config"
	"github.com/db8labs/db8-agent/internal/db"
	"github.com/db8labs/db8-agent/internal/listing"
	"github.com/db8labs/db8-agent/internal/llm"
	"github.com/db8labs/db8-agent/internal/logging"
	"github.com/db8labs/db8-agent/internal/social"
	"github.com/db8labs/db8-agent/internal/store"
)

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// openDB connects to the configured database and applies pending migrations.
func openDB(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// newCaptionCache returns nil when no Redis address is configured.
func newCaptionCache(cfg *config.Config) *cache.CaptionCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
}

// newListingService wires the caption pipeline around props. cc may be nil.
func newListingService(cfg *config.Config, props store.PropertyStoreIface, cc *cache.CaptionCache) (*listing.Service, error) {
	provider, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}
	builder, err := caption.NewBuilder(cfg.LLM.Prompt)
	if err != nil {
		return nil, err
	}

	opts := listing.Options{
		Builder:      builder,
		Concurrency:  cfg.Regenerate.Concurrency,
		RPS:          cfg.Regenerate.RPS,
		Model:        cfg.LLM.Model,
		SystemPrompt: cfg.LLM.SystemPrompt,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
	}
	if cc != nil {
		opts.Cache = cc
	}
	if cfg.Social.Enabled {
		opts.Social = social.New(cfg.Social.BaseURL, cfg.Social.AccountID, cfg.Social.AccessToken)
	}
	return listing.New(props, caption.NewGenerator(provider), opts), nil
}
