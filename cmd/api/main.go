package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"songd/internal/domain"
	"songd/internal/http/handlers"
	"songd/internal/http/httpapi"
	"songd/internal/infra"
	"songd/internal/infra/geoip"
	"songd/internal/middleware"
	"songd/internal/pipeline"
	"songd/internal/providers/lyrics"
	"songd/internal/providers/music"
	"songd/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	limits := domain.Limits{
		MaxConcurrent: cfg.MaxConcurrent,
		DailyLimit:    cfg.DailyLimit,
		DailyWindow:   cfg.DailyWindow,
	}

	var jobs domain.JobStore
	var ledger domain.QuotaLedger
	if cfg.RedisAddr != "" {
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer func() {
			_ = client.Close()
		}()
		jobs = store.NewRedisJobStore(client, cfg.JobTTL)
		ledger = store.NewRedisLedger(client, limits)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis store")
	} else {
		jobs = store.NewMemoryJobStore(cfg.JobTTL)
		ledger = store.NewMemoryLedger(limits)
		logger.Info().Msg("using in-memory store")
	}

	lyricsClient, err := lyrics.NewClient(lyrics.Options{
		BaseURL:    cfg.LyricsAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.LyricsTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure lyrics client")
	}
	musicClient, err := music.NewClient(music.Options{
		BaseURL:    cfg.MusicAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.MusicTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure music client")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	stats := pipeline.NewStats()
	dispatcher := pipeline.NewDispatcher(jobs, ledger, lyricsClient, musicClient, stats, logger)
	app := handlers.NewApp(jobs, ledger, dispatcher, stats, logger)

	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
