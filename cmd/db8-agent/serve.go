package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/db8labs/db8-agent/internal/api"
	"github.com/db8labs/db8-agent/internal/auth"
	"github.com/db8labs/db8-agent/internal/build"
	"github.com/db8labs/db8-agent/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			userStore := store.NewUserStore(database)
			propertyStore := store.NewPropertyStore(database)

			captionCache := newCaptionCache(cfg)
			defer func() { _ = captionCache.Close() }()

			listings, err := newListingService(cfg, propertyStore, captionCache)
			if err != nil {
				return err
			}
			if cfg.LLM.Provider == "" {
				log.Warn().Msg("no LLM provider configured, listings will be stored without generated captions")
			}

			deps := api.Deps{
				DB:                database,
				Users:             userStore,
				Properties:        propertyStore,
				Listings:          listings,
				Account:           auth.NewMiddleware(userStore, cfg.AdminEmail, cfg.DefaultCredits),
				RateLimitRequests: cfg.RateLimit.Requests,
				RateLimitWindow:   cfg.RateLimit.Window,
			}
			if captionCache != nil {
				deps.Cache = api.PingFunc(captionCache.Ping)
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           api.NewRouter(deps),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", cfg.HTTP.Addr).
					Str("version", build.Version).
					Str("llm_provider", cfg.LLM.Provider).
					Bool("cache", captionCache != nil).
					Bool("social", cfg.Social.Enabled).
					Msg("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
