package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tg-poem-bot/internal/adapters/telegram"
	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/metrics"
)

// Sender отправляет сообщения через Bot API с общим ограничением частоты.
// Реализует domain.Sender и domain.AdminChecker.
type Sender struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewSender(api *tgbotapi.BotAPI, rps int, logger zerolog.Logger) *Sender {
	if rps <= 0 {
		rps = 25
	}
	return &Sender{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     logger.With().Str("component", "sender").Logger(),
	}
}

var (
	_ domain.Sender       = (*Sender)(nil)
	_ domain.AdminChecker = (*Sender)(nil)
)

// Send отправляет текст, при необходимости разрезая его на части.
// Клавиатура прикрепляется к последней части.
func (s *Sender) Send(ctx context.Context, chatID int64, text string, buttons [][]domain.Button) error {
	parts := telegram.SplitMessage(text)
	if len(parts) == 0 {
		return nil
	}
	for i, part := range parts {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ожидание лимита отправки: %w", err)
		}
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && len(buttons) > 0 {
			msg.ReplyMarkup = inlineKeyboard(buttons)
		}
		start := time.Now()
		_, err := s.api.Send(msg)
		metrics.ObserveNetworkRequest("telegram", "send_message", "bot_api", start, err)
		if err != nil {
			return fmt.Errorf("отправка сообщения в чат %d: %w", chatID, err)
		}
	}
	return nil
}

// IsAdministrator проверяет, является ли пользователь администратором чата.
func (s *Sender) IsAdministrator(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("ожидание лимита отправки: %w", err)
	}
	start := time.Now()
	admins, err := s.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	metrics.ObserveNetworkRequest("telegram", "get_chat_administrators", "bot_api", start, err)
	if err != nil {
		return false, fmt.Errorf("список администраторов чата %d: %w", chatID, err)
	}
	for _, member := range admins {
		if member.User != nil && member.User.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// AnswerCallback закрывает «часики» на кнопке.
func (s *Sender) AnswerCallback(callbackID string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		s.log.Warn().Err(err).Msg("не удалось ответить на callback")
	}
}

func inlineKeyboard(buttons [][]domain.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		line := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			line = append(line, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, line)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
