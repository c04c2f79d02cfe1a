// Package ratelimit ограничивает частоту завершённых отправок и выдаёт
// временный бан при превышении порога.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow — скользящее окно подсчёта завершений.
	DefaultWindow = time.Minute
	// DefaultLimit — количество завершений в окне, ведущее к бану.
	DefaultLimit = 3
	// DefaultBan — длительность бана.
	DefaultBan = 5 * time.Minute
)

// Limiter хранит отметки завершений и активные баны по каждому актору.
// Баны снимаются лениво при следующей проверке.
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	banFor   time.Duration
	attempts map[int64][]time.Time
	bans     map[int64]time.Time
	now      func() time.Time
}

// New создаёт лимитер с указанными параметрами.
func New(window time.Duration, limit int, banFor time.Duration) *Limiter {
	return &Limiter{
		window:   window,
		limit:    limit,
		banFor:   banFor,
		attempts: make(map[int64][]time.Time),
		bans:     make(map[int64]time.Time),
		now:      time.Now,
	}
}

// NewDefault создаёт лимитер со стандартными параметрами.
func NewDefault() *Limiter {
	return New(DefaultWindow, DefaultLimit, DefaultBan)
}

// Banned сообщает, забанен ли актор, и сколько осталось до снятия бана.
func (l *Limiter) Banned(actorID int64) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.bans[actorID]
	if !ok {
		return false, 0
	}
	now := l.now()
	if !now.Before(until) {
		delete(l.bans, actorID)
		return false, 0
	}
	return true, until.Sub(now)
}

// RecordCompletion фиксирует завершение диалога. Возвращает false и момент
// окончания бана, если порог достигнут. Вызывается после финализации,
// а не при старте диалога: начатый до бана диалог может быть завершён.
func (l *Limiter) RecordCompletion(actorID int64) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.bans[actorID]; ok {
		if now.Before(until) {
			return false, until
		}
		delete(l.bans, actorID)
	}
	cutoff := now.Add(-l.window)
	kept := l.attempts[actorID][:0]
	for _, ts := range l.attempts[actorID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	if len(kept) >= l.limit {
		until := now.Add(l.banFor)
		l.bans[actorID] = until
		delete(l.attempts, actorID)
		return false, until
	}
	l.attempts[actorID] = kept
	return true, time.Time{}
}

// Sweep удаляет истёкшие баны и устаревшие отметки, ограничивая рост карт.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, until := range l.bans {
		if !now.Before(until) {
			delete(l.bans, id)
		}
	}
	cutoff := now.Add(-l.window)
	for id, list := range l.attempts {
		kept := list[:0]
		for _, ts := range list {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(l.attempts, id)
			continue
		}
		l.attempts[id] = kept
	}
}

// RunSweeper периодически вызывает Sweep до отмены контекста.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
