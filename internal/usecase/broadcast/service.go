// Package broadcast рассылает одобренные стихотворения по каналам
// в пределах их временных окон.
package broadcast

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/metrics"
)

// InWindow сообщает, попадает ли час в полуоткрытое окно [start, end).
// Окно может переходить через полночь; конец 24 означает полночь.
func InWindow(hour, start, end int) bool {
	if end == 24 {
		end = 0
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Service — планировщик рассылки. Работает независимо от диалогового
// движка: читает репозитории и отправляет через Sender напрямую.
type Service struct {
	poems    domain.PoemRepo
	channels domain.ChannelRepo
	sender   domain.Sender
	cache    domain.Cache // nil отключает почасовой предохранитель
	loc      *time.Location
	log      zerolog.Logger

	now  func() time.Time
	rand func(n int) int
}

// NewService создаёт планировщик. Часовой пояс определяет границы окон.
func NewService(poems domain.PoemRepo, channels domain.ChannelRepo, sender domain.Sender, cache domain.Cache, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		poems:    poems,
		channels: channels,
		sender:   sender,
		cache:    cache,
		loc:      loc,
		log:      log,
		now:      time.Now,
		rand:     rand.Intn,
	}
}

// Run запускает цикл рассылки с указанным периодом до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick обходит все каналы один раз. Сбой одного канала не прерывает
// обработку остальных.
func (s *Service) Tick(ctx context.Context) {
	now := s.now().In(s.loc)
	channels, err := s.channels.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("broadcast: ошибка выборки каналов")
		return
	}
	for _, ch := range channels {
		if !InWindow(now.Hour(), ch.StartHour, ch.EndHour) {
			continue
		}
		if err := s.dispatch(ctx, ch, now); err != nil {
			metrics.BroadcastSendErrors.Inc()
			s.log.Error().Err(err).Int64("channel", ch.TGChannelID).Msg("broadcast: канал пропущен")
		}
	}
}

func (s *Service) dispatch(ctx context.Context, ch domain.Channel, now time.Time) error {
	if s.cache == nil {
		return s.sendOne(ctx, ch)
	}
	// не чаще одного стихотворения на канал в час, даже при частом тике
	key := fmt.Sprintf("broadcast:%d:%s", ch.TGChannelID, now.Format("2006010215"))
	return s.cache.Once(key, 2*time.Hour, func() error {
		return s.sendOne(ctx, ch)
	})
}

func (s *Service) sendOne(ctx context.Context, ch domain.Channel) error {
	approved := true
	filter := domain.PoemFilter{Approved: &approved, NotSentTo: ch.TGChannelID}
	if !ch.AllCategories && len(ch.Categories) > 0 {
		filter.Categories = ch.Categories
	}

	count, err := s.poems.Count(ctx, filter)
	if err != nil {
		return fmt.Errorf("подсчёт кандидатов: %w", err)
	}
	if count == 0 {
		return nil
	}

	// равновероятный выбор без загрузки всей выборки в память
	poem, err := s.poems.GetByOffset(ctx, filter, s.rand(count))
	if err != nil {
		return fmt.Errorf("выбор стихотворения: %w", err)
	}

	// отметка до отправки: конкурирующее удаление или параллельный тик
	// снимают запись с рассылки, повторная отметка невозможна
	marked, err := s.poems.MarkSent(ctx, poem.ID, ch.TGChannelID)
	if err != nil {
		return fmt.Errorf("отметка отправки: %w", err)
	}
	if !marked {
		return nil
	}

	text := fmt.Sprintf("%s\n\n- %s", poem.Text, poem.PoetLabel())
	if err := s.sender.Send(ctx, ch.TGChannelID, text, nil); err != nil {
		return fmt.Errorf("отправка в канал: %w", err)
	}
	metrics.BroadcastSentTotal.Inc()
	return nil
}
