package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaminalder/codex-three-mens-morris/internal/ai"
	"github.com/jaminalder/codex-three-mens-morris/internal/app"
	"github.com/jaminalder/codex-three-mens-morris/internal/config"
	"github.com/jaminalder/codex-three-mens-morris/internal/web"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Parse("morris", os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Logger = cfg.Logger(os.Stderr)

	searcher := ai.New(ai.WithLogger(log.With().Str("component", "ai").Logger()))
	svc := app.NewService(searcher,
		app.WithAIDelay(cfg.AIDelay()),
		app.WithMaxPlies(cfg.MaxPlies),
		app.WithLogger(log.With().Str("component", "app").Logger()),
	)
	handler := web.NewServer(svc, web.WithLogger(log.With().Str("component", "web").Logger()))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Error().Err(closeErr).Msg("forced close failed")
		}
	}
	log.Info().Msg("stopped")
}
