// Command server runs the horoscope HTTP API.
//
// @title       Horoscope API
// @version     1.0
// @description Daily horoscope generation, caching and history.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-horoscope-backend/internal/cache"
	"github.com/tbourn/go-horoscope-backend/internal/config"
	httpapi "github.com/tbourn/go-horoscope-backend/internal/http"
	"github.com/tbourn/go-horoscope-backend/internal/llm"
	"github.com/tbourn/go-horoscope-backend/internal/maintenance"
	"github.com/tbourn/go-horoscope-backend/internal/observability"
	"github.com/tbourn/go-horoscope-backend/internal/repo"
	"github.com/tbourn/go-horoscope-backend/internal/services"
	"github.com/tbourn/go-horoscope-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.DSN)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	client := llm.NewClient(llm.ClientConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		HTTPTimeout: cfg.LLM.Timeout + 5*time.Second,
	})
	gen := llm.NewGenerator(client, cfg.Horoscope.Language, cfg.LLM.Timeout, cfg.Horoscope.Location)

	history := services.NewHistoryService(db, gen)
	horoscope := services.NewHoroscopeService(gen, cache.NewHoroscopeCache(), history)

	if cfg.Maintenance.Enabled {
		sched := maintenance.NewScheduler(horoscope, history,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithLocation(cfg.Horoscope.Location),
			maintenance.WithRetentionDays(cfg.Horoscope.RetentionDays),
		)
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Services{Horoscope: horoscope, History: history}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DB.Driver).
			Str("model", cfg.LLM.Model).
			Str("timezone", cfg.Horoscope.Timezone).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
