package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bowling/internal/alley"
	"github.com/robalobadob/bowling/internal/config"
	"github.com/robalobadob/bowling/internal/httpserver"
	"github.com/robalobadob/bowling/internal/store"
	"github.com/robalobadob/bowling/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
	}

	a := alley.New(st, alley.Options{Lanes: cfg.Lanes})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpserver.New(a, cfg).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Int("lanes", cfg.Lanes).Msg("starting bowling server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := st.Close(); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("flush traces")
	}
}

func setupLogging(c config.Log) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func openStore(c config.Store) (store.Store, error) {
	if c.Driver == "sqlite" {
		return openSQLiteStore(c.Path)
	}
	return store.NewMemoryStore(), nil
}
