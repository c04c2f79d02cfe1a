package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/poemtext"
	"tg-poem-bot/internal/usecase/ratelimit"
)

var (
	ErrNotInDialog  = errors.New("актор не находится в диалоге")
	ErrInvalidBody  = errors.New("текст не прошёл проверку")
	ErrInvalidLabel = errors.New("подпись не прошла проверку")
	ErrDuplicate    = errors.New("такое стихотворение уже сохранено")
	ErrBadStep      = errors.New("действие не соответствует шагу диалога")
	ErrBadCategory  = errors.New("неизвестная категория")
)

// BannedError сообщает об активном бане и остатке времени.
type BannedError struct {
	Remaining time.Duration
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("актор заблокирован ещё на %s", e.Remaining)
}

// Outcome — результат шага диалога.
type Outcome string

const (
	// OutcomeAskAuthor — текст принят, ждём имя поэта.
	OutcomeAskAuthor Outcome = "ask_author"
	// OutcomeAskCategory — имя принято, ждём выбор категории.
	OutcomeAskCategory Outcome = "ask_category"
	// OutcomeSaved — редактирование завершено, запись обновлена.
	OutcomeSaved Outcome = "saved"
)

// Result описывает результат обработки текста в диалоге.
type Result struct {
	Outcome Outcome
	Poem    domain.Poem
}

// Actor — отправитель сообщения.
type Actor struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Service реализует машину состояний диалога отправки стихотворения.
type Service struct {
	sessions *Store
	poems    domain.PoemRepo
	limiter  *ratelimit.Limiter
	log      zerolog.Logger
}

// NewService создаёт сервис диалога.
func NewService(sessions *Store, poems domain.PoemRepo, limiter *ratelimit.Limiter, log zerolog.Logger) *Service {
	return &Service{sessions: sessions, poems: poems, limiter: limiter, log: log}
}

// Start начинает новый диалог отправки. Проверка бана выполняется здесь,
// до создания сессии; инкремент счётчика — только при финализации.
func (s *Service) Start(ctx context.Context, actorID int64) error {
	if banned, remaining := s.limiter.Banned(actorID); banned {
		return &BannedError{Remaining: remaining}
	}
	release := s.sessions.Acquire(actorID)
	defer release()
	s.sessions.Put(Session{ActorID: actorID, Step: StepBody})
	return nil
}

// InDialog сообщает, находится ли актор в диалоге.
func (s *Service) InDialog(actorID int64) bool {
	_, ok := s.sessions.Get(actorID)
	return ok
}

// Cancel прерывает диалог актора.
func (s *Service) Cancel(actorID int64) {
	release := s.sessions.Acquire(actorID)
	defer release()
	s.sessions.Delete(actorID)
}

// BeginEdit открывает диалог редактирования поля существующей записи для
// собственной сессии администратора. Редактирование категории сразу
// переводит диалог на шаг выбора.
func (s *Service) BeginEdit(ctx context.Context, adminID, poemID int64, field Field) error {
	if _, err := s.poems.GetByID(ctx, poemID); err != nil {
		return err
	}
	step := StepBody
	switch field {
	case FieldBody:
		step = StepBody
	case FieldAuthor:
		step = StepAuthor
	case FieldCategory:
		step = StepCategory
	default:
		return ErrBadStep
	}
	release := s.sessions.Acquire(adminID)
	defer release()
	s.sessions.Put(Session{
		ActorID:    adminID,
		Step:       step,
		Editing:    true,
		EditPoemID: poemID,
		EditField:  field,
	})
	return nil
}

// HandleText обрабатывает текстовое сообщение актора в диалоге. Ошибка
// валидации не меняет состояние: актор получает подсказку и повторяет шаг.
func (s *Service) HandleText(ctx context.Context, actor Actor, text string) (Result, error) {
	release := s.sessions.Acquire(actor.ID)
	defer release()

	sess, ok := s.sessions.Get(actor.ID)
	if !ok {
		return Result{}, ErrNotInDialog
	}

	switch sess.Step {
	case StepBody:
		return s.handleBody(ctx, sess, text)
	case StepAuthor:
		return s.handleAuthor(ctx, sess, text)
	case StepCategory:
		// категория выбирается кнопкой, свободный текст не принимается
		return Result{Outcome: OutcomeAskCategory}, nil
	default:
		return Result{}, ErrBadStep
	}
}

func (s *Service) handleBody(ctx context.Context, sess Session, text string) (Result, error) {
	if !poemtext.ValidBody(text) {
		return Result{}, ErrInvalidBody
	}
	bodies, err := s.poems.ListBodies(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("чтение корпуса: %w", err)
	}
	if sess.Editing && sess.EditField == FieldBody {
		// правка пунктуации или пробелов не должна спотыкаться о
		// собственный текст записи
		current, err := s.poems.GetByID(ctx, sess.EditPoemID)
		if err != nil {
			return Result{}, err
		}
		bodies = excludeBody(bodies, current.Text)
		if poemtext.IsDuplicate(text, bodies) {
			return Result{}, ErrDuplicate
		}
		poem, err := s.poems.Update(ctx, sess.EditPoemID, domain.PoemPatch{Text: &text})
		if err != nil {
			return Result{}, err
		}
		s.sessions.Delete(sess.ActorID)
		return Result{Outcome: OutcomeSaved, Poem: poem}, nil
	}
	if poemtext.IsDuplicate(text, bodies) {
		return Result{}, ErrDuplicate
	}
	sess.Text = text
	sess.Step = StepAuthor
	s.sessions.Put(sess)
	return Result{Outcome: OutcomeAskAuthor}, nil
}

func excludeBody(bodies []string, own string) []string {
	canon := poemtext.Canonicalize(own)
	kept := make([]string, 0, len(bodies))
	for _, b := range bodies {
		if poemtext.Canonicalize(b) != canon {
			kept = append(kept, b)
		}
	}
	return kept
}

func (s *Service) handleAuthor(ctx context.Context, sess Session, text string) (Result, error) {
	if !poemtext.ValidLabel(text) {
		return Result{}, ErrInvalidLabel
	}
	if sess.Editing && sess.EditField == FieldAuthor {
		poem, err := s.poems.Update(ctx, sess.EditPoemID, domain.PoemPatch{Poet: &text})
		if err != nil {
			return Result{}, err
		}
		s.sessions.Delete(sess.ActorID)
		return Result{Outcome: OutcomeSaved, Poem: poem}, nil
	}
	sess.Poet = text
	sess.Step = StepCategory
	s.sessions.Put(sess)
	return Result{Outcome: OutcomeAskCategory}, nil
}

// ChooseCategory завершает диалог выбором категории. Возвращает запись и
// признак того, что она создана заново (а не отредактирована). Создание и
// редактирование взаимно исключены: решает ссылка на запись в сессии.
func (s *Service) ChooseCategory(ctx context.Context, actor Actor, category string) (domain.Poem, bool, error) {
	if !domain.KnownCategory(category) {
		return domain.Poem{}, false, ErrBadCategory
	}
	release := s.sessions.Acquire(actor.ID)
	defer release()

	sess, ok := s.sessions.Get(actor.ID)
	if !ok {
		return domain.Poem{}, false, ErrNotInDialog
	}
	if sess.Step != StepCategory {
		return domain.Poem{}, false, ErrBadStep
	}

	if sess.Editing {
		poem, err := s.poems.Update(ctx, sess.EditPoemID, domain.PoemPatch{Category: &category})
		if err != nil {
			return domain.Poem{}, false, err
		}
		s.sessions.Delete(actor.ID)
		return poem, false, nil
	}

	poem, err := s.poems.Create(ctx, domain.Poem{
		TGUserID:  actor.ID,
		Username:  actor.Username,
		FirstName: actor.FirstName,
		LastName:  actor.LastName,
		Text:      sess.Text,
		Poet:      sess.Poet,
		Category:  category,
	})
	if err != nil {
		return domain.Poem{}, false, fmt.Errorf("сохранение стихотворения: %w", err)
	}
	s.sessions.Delete(actor.ID)
	if allowed, until := s.limiter.RecordCompletion(actor.ID); !allowed {
		s.log.Info().Int64("actor", actor.ID).Time("until", until).Msg("актор превысил лимит отправок")
	}
	return poem, true, nil
}
