package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilgisen/s13core/internal/cache"
	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/web"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server on PORT and serve until interrupted.

The database schema is brought up to date first, and a default setting is
created when none exists.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	cfg := c.cfg
	log := logger.Get()
	log.Info().Str("version", config.Version).Str("env", cfg.Env).Msg("Starting S13Core...")

	a, err := open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("Closing database and cache...")
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing resources")
		}
	}()

	if _, err := a.settings.EnsureDefault(cmd.Context()); err != nil {
		return err
	}

	h := web.NewHandlers(web.Deps{
		Config:    cfg,
		Sessions:  web.NewSessionStore(cfg, cache.NewSessionStorage(a.cache)),
		Articles:  a.articles,
		Assets:    a.assets,
		Settings:  a.settings,
		Socmed:    a.socmed,
		Collector: a.collector,
		Messages:  a.messages,
		Users:     a.users,
		Views:     web.NewViews(nil),
	})
	server := web.NewApp(cfg, h)

	// Start server in a goroutine
	failed := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := server.Listen(":" + cfg.Port); err != nil {
			failed <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-failed:
		log.Error().Err(err).Msg("Server error")
		return err
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
	return nil
}
