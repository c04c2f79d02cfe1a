package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
)

// popErrorDelay сдерживает цикл при недоступной очереди.
var popErrorDelay = time.Second

// RunNotifyWorker доставляет уведомления из очереди до отмены контекста.
// Ошибка отправки не останавливает воркер: задача логируется и теряется,
// повторная доставка уведомлений не требуется.
func RunNotifyWorker(ctx context.Context, queue domain.NotifyQueue, sender domain.Sender, log zerolog.Logger) {
	log = log.With().Str("component", "notify_worker").Logger()
	for {
		job, err := queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("не удалось прочитать задачу из очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(popErrorDelay):
			}
			continue
		}
		if err := sender.Send(ctx, job.ChatID, job.Text, job.Buttons); err != nil {
			log.Error().Err(err).Str("job", job.ID).Int64("chat", job.ChatID).Msg("не удалось доставить уведомление")
		}
	}
}
