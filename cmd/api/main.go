package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tg-poem-bot/internal/adapters/api"
	"tg-poem-bot/internal/adapters/repo"
	"tg-poem-bot/internal/infra/config"
	"tg-poem-bot/internal/infra/db"
	httpinfra "tg-poem-bot/internal/infra/http"
	"tg-poem-bot/internal/infra/log"
	"tg-poem-bot/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	poemRepo := repo.NewPoems(pool)
	channelRepo := repo.NewChannels(pool)

	srv := httpinfra.NewServer(logger)
	api.NewHandler(poemRepo, channelRepo, cfg.API.Token, logger.With().Str("component", "api").Logger()).Mount(srv.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		logger.Info().Msg("api: старт")
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
