// Package moderation реализует действия администраторов над очередью
// неодобренных стихотворений.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/usecase/submission"
)

// ErrUnauthorized возвращается, когда актор не администратор зоны модерации.
var ErrUnauthorized = errors.New("актор не является администратором")

// PageSize — размер страницы очереди модерации.
const PageSize = 5

// PendingPage — страница неодобренных стихотворений с признаками
// наличия соседних страниц.
type PendingPage struct {
	Poems    []domain.Poem
	Page     int
	HasPrev  bool
	HasNext  bool
	Category string
	Poet     string
}

// Service выполняет операции модерации.
type Service struct {
	poems          domain.PoemRepo
	admins         domain.AdminChecker
	dialog         *submission.Service
	moderationChat int64
	log            zerolog.Logger
}

// NewService создаёт сервис модерации.
func NewService(poems domain.PoemRepo, admins domain.AdminChecker, dialog *submission.Service, moderationChat int64, log zerolog.Logger) *Service {
	return &Service{poems: poems, admins: admins, dialog: dialog, moderationChat: moderationChat, log: log}
}

func (s *Service) authorize(ctx context.Context, actorID int64) error {
	ok, err := s.admins.IsAdministrator(ctx, s.moderationChat, actorID)
	if err != nil {
		return fmt.Errorf("проверка прав: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Approve одобряет стихотворение. Повторное одобрение не меняет запись,
// но уведомление автору уходит снова — поведение исходной системы.
func (s *Service) Approve(ctx context.Context, actorID, poemID int64) (domain.Poem, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return domain.Poem{}, err
	}
	approved := true
	poem, err := s.poems.Update(ctx, poemID, domain.PoemPatch{Approved: &approved})
	if err != nil {
		return domain.Poem{}, err
	}
	s.log.Info().Int64("poem", poemID).Int64("admin", actorID).Msg("стихотворение одобрено")
	return poem, nil
}

// Delete удаляет стихотворение и возвращает его для уведомления автора.
func (s *Service) Delete(ctx context.Context, actorID, poemID int64) (domain.Poem, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return domain.Poem{}, err
	}
	poem, err := s.poems.GetByID(ctx, poemID)
	if err != nil {
		return domain.Poem{}, err
	}
	if err := s.poems.Delete(ctx, poemID); err != nil {
		return domain.Poem{}, err
	}
	s.log.Info().Int64("poem", poemID).Int64("admin", actorID).Msg("стихотворение удалено")
	return poem, nil
}

// BeginEdit открывает диалог редактирования поля для сессии администратора.
func (s *Service) BeginEdit(ctx context.Context, actorID, poemID int64, field submission.Field) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}
	return s.dialog.BeginEdit(ctx, actorID, poemID, field)
}

// ListPending возвращает страницу неодобренных стихотворений, новые
// впереди. Кнопка "дальше" уместна только при полной странице.
func (s *Service) ListPending(ctx context.Context, actorID int64, page int, category, poet string) (PendingPage, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return PendingPage{}, err
	}
	if page < 0 {
		page = 0
	}
	unapproved := false
	filter := domain.PoemFilter{Approved: &unapproved, Category: category, Poet: poet}
	poems, err := s.poems.List(ctx, filter, PageSize, page*PageSize)
	if err != nil {
		return PendingPage{}, fmt.Errorf("выборка очереди: %w", err)
	}
	return PendingPage{
		Poems:    poems,
		Page:     page,
		HasPrev:  page > 0,
		HasNext:  len(poems) == PageSize,
		Category: category,
		Poet:     poet,
	}, nil
}
