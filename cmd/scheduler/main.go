package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"tg-poem-bot/internal/adapters/bot"
	"tg-poem-bot/internal/adapters/repo"
	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/cache"
	"tg-poem-bot/internal/infra/config"
	"tg-poem-bot/internal/infra/db"
	"tg-poem-bot/internal/infra/log"
	"tg-poem-bot/internal/infra/metrics"
	"tg-poem-bot/internal/usecase/broadcast"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	poemRepo := repo.NewPoems(pool)
	channelRepo := repo.NewChannels(pool)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось создать бота")
	}
	sender := bot.NewSender(botAPI, cfg.Telegram.SendRPS, logger)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("scheduler: неизвестный часовой пояс")
	}

	// предохранитель нужен только при тике чаще раза в час
	var guard domain.Cache
	if cfg.RedisAddr != "" && cfg.Broadcast.Interval < time.Hour {
		guard = cache.NewRedis(cache.NewClient(cfg.RedisAddr))
	}

	svc := broadcast.NewService(poemRepo, channelRepo, sender, guard, loc, logger.With().Str("component", "broadcast").Logger())

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	logger.Info().Dur("interval", cfg.Broadcast.Interval).Msg("scheduler: старт рассылки")
	svc.Run(ctx, cfg.Broadcast.Interval)
	logger.Info().Msg("scheduler: остановка")
}
