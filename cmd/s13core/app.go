package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/auth"
	"github.com/bilgisen/s13core/internal/cache"
	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/feed"
	"github.com/bilgisen/s13core/internal/messaging"
	"github.com/bilgisen/s13core/internal/setting"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/bilgisen/s13core/internal/storage"
)

// app is the wired set of services behind every command.
type app struct {
	db        *sql.DB
	cache     cache.Cache
	articles  *article.Repository
	assets    *asset.Service
	settings  *setting.Repository
	socmed    *socmed.Repository
	messages  *messaging.Repository
	users     *auth.Service
	collector *feed.Collector
}

// open connects the database, applying pending migrations, the cache and
// the media backend.
func open(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	backend, err := storage.New(ctx, cfg)
	if err != nil {
		c.Close()
		db.Close()
		return nil, err
	}

	a := &app{
		db:       db,
		cache:    c,
		articles: article.NewRepository(db),
		settings: setting.NewRepository(db),
		socmed:   socmed.NewRepository(db),
		messages: messaging.NewRepository(db),
		users:    auth.NewService(db),
	}
	a.assets = asset.NewService(asset.NewRepository(db), backend, cfg.MaxFileSize)
	a.collector = feed.NewCollector(a.socmed, a.articles, a.assets, c, feed.Options{
		Timeout:          cfg.FeedTimeout,
		Retries:          cfg.FeedRetries,
		ProcessorTimeout: cfg.ProcessorTimeout,
		MarkerTTL:        cfg.CacheTTL,
	})
	return a, nil
}

func (a *app) Close() error {
	return errors.Join(a.cache.Close(), a.db.Close())
}
