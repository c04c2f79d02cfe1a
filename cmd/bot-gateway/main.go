package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tg-poem-bot/internal/adapters/bot"
	"tg-poem-bot/internal/adapters/repo"
	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/cache"
	"tg-poem-bot/internal/infra/config"
	"tg-poem-bot/internal/infra/db"
	httpinfra "tg-poem-bot/internal/infra/http"
	"tg-poem-bot/internal/infra/log"
	"tg-poem-bot/internal/infra/metrics"
	"tg-poem-bot/internal/infra/queue"
	"tg-poem-bot/internal/usecase/moderation"
	"tg-poem-bot/internal/usecase/ratelimit"
	"tg-poem-bot/internal/usecase/submission"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()
	poemRepo := repo.NewPoems(pool)
	channelRepo := repo.NewChannels(pool)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	sender := bot.NewSender(botAPI, cfg.Telegram.SendRPS, logger)

	limiter := ratelimit.NewDefault()
	go limiter.RunSweeper(ctx, time.Minute)

	dialog := submission.NewService(submission.NewStore(), poemRepo, limiter, logger.With().Str("component", "dialog").Logger())
	moderationUC := moderation.NewService(poemRepo, sender, dialog, cfg.Telegram.ModerationChatID, logger.With().Str("component", "moderation").Logger())

	notifyQueue := buildNotifyQueue(cfg, logger)
	go bot.RunNotifyWorker(ctx, notifyQueue, sender, logger)

	h := bot.NewHandler(sender, logger, dialog, moderationUC, channelRepo, poemRepo, notifyQueue, cfg.Telegram.ModerationChatID)

	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("некорректный адрес вебхука")
		}
		// my_chat_member не входит в набор по умолчанию
		wh.AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Fatal().Err(err).Msg("не удалось зарегистрировать вебхук")
		}
	}

	srv := httpinfra.NewServer(logger)
	srv.Router.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		logger.Info().Msg("бот-гейтвей запущен")
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бота")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildNotifyQueue(cfg config.AppConfig, logger zerolog.Logger) domain.NotifyQueue {
	switch cfg.Queues.Driver {
	case "amqp":
		q, err := queue.NewAMQPNotifyQueue(cfg.AMQPURL, cfg.Queues.Notify)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
		}
		return q
	default:
		return queue.NewRedisNotifyQueue(cache.NewClient(cfg.RedisAddr), cfg.Queues.Notify)
	}
}
