package domain

import (
	"context"
	"time"
)

// PoemRepo управляет записями стихотворений.
type PoemRepo interface {
	Create(ctx context.Context, poem Poem) (Poem, error)
	GetByID(ctx context.Context, id int64) (Poem, error)
	List(ctx context.Context, filter PoemFilter, limit, offset int) ([]Poem, error)
	Count(ctx context.Context, filter PoemFilter) (int, error)
	// GetByOffset возвращает одну запись по смещению в выборке,
	// отсортированной по id. Используется для случайного выбора.
	GetByOffset(ctx context.Context, filter PoemFilter, offset int) (Poem, error)
	Update(ctx context.Context, id int64, patch PoemPatch) (Poem, error)
	Delete(ctx context.Context, id int64) error
	// MarkSent атомарно добавляет канал в sent_to. Возвращает false,
	// если запись исчезла или канал уже был отмечен.
	MarkSent(ctx context.Context, poemID, tgChannelID int64) (bool, error)
	// StripChannel убирает канал из sent_to всех записей.
	StripChannel(ctx context.Context, tgChannelID int64) error
	ListBodies(ctx context.Context) ([]string, error)
}

// ChannelRepo управляет каналами рассылки.
type ChannelRepo interface {
	Upsert(ctx context.Context, channel Channel) (Channel, error)
	GetByTGID(ctx context.Context, tgChannelID int64) (Channel, error)
	List(ctx context.Context) ([]Channel, error)
	Delete(ctx context.Context, tgChannelID int64) error
	SetWindow(ctx context.Context, tgChannelID int64, startHour, endHour int) error
	AddCategory(ctx context.Context, tgChannelID int64, category string) error
	SetAllCategories(ctx context.Context, tgChannelID int64, all bool) error
}

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, buttons [][]Button) error
}

// AdminChecker проверяет права администратора в чате модерации.
type AdminChecker interface {
	IsAdministrator(ctx context.Context, chatID, userID int64) (bool, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
