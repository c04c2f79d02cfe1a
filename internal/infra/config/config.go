package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Tehran"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token            string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL       string `envconfig:"TG_WEBHOOK_URL"`
		ModerationChatID int64  `envconfig:"TG_MODERATION_CHAT_ID"`
		SendRPS          int    `envconfig:"TG_SEND_RPS" default:"25"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Queues struct {
		Driver string `envconfig:"QUEUE_DRIVER" default:"redis"`
		Notify string `envconfig:"NOTIFY_QUEUE_KEY" default:"notify_jobs"`
	} `envconfig:""`

	Broadcast struct {
		Interval time.Duration `envconfig:"BROADCAST_INTERVAL" default:"1h"`
	} `envconfig:""`

	API struct {
		Token string `envconfig:"API_TOKEN"`
	} `envconfig:""`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
