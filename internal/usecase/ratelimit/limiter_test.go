package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	current := start
	l := NewDefault()
	l.now = func() time.Time { return current }
	return l, &current
}

func TestThirdCompletionTriggersBan(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(start)

	const actor = int64(7)
	if ok, _ := l.RecordCompletion(actor); !ok {
		t.Fatalf("первое завершение не должно блокироваться")
	}
	*clock = start.Add(10 * time.Second)
	if ok, _ := l.RecordCompletion(actor); !ok {
		t.Fatalf("второе завершение не должно блокироваться")
	}
	*clock = start.Add(20 * time.Second)
	ok, until := l.RecordCompletion(actor)
	if ok {
		t.Fatalf("третье завершение за минуту должно вести к бану")
	}
	if expected := clock.Add(DefaultBan); !until.Equal(expected) {
		t.Fatalf("бан до %v, ожидали %v", until, expected)
	}

	*clock = clock.Add(time.Second)
	if banned, remaining := l.Banned(actor); !banned || remaining <= 0 {
		t.Fatalf("через секунду бан должен действовать, banned=%v remaining=%v", banned, remaining)
	}
	if ok, _ := l.RecordCompletion(actor); ok {
		t.Fatalf("завершение во время бана должно отклоняться")
	}
}

func TestBanLiftsLazilyAndResetsCount(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(start)

	const actor = int64(7)
	l.RecordCompletion(actor)
	l.RecordCompletion(actor)
	l.RecordCompletion(actor) // бан

	*clock = start.Add(DefaultBan + time.Second)
	if banned, _ := l.Banned(actor); banned {
		t.Fatalf("бан должен сняться после истечения срока")
	}
	if ok, _ := l.RecordCompletion(actor); !ok {
		t.Fatalf("после снятия бана счётчик должен начинаться заново")
	}
}

func TestOldEntriesFallOutOfWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(start)

	const actor = int64(1)
	l.RecordCompletion(actor)
	*clock = start.Add(DefaultWindow + time.Second)
	if ok, _ := l.RecordCompletion(actor); !ok {
		t.Fatalf("старая отметка должна выпасть из окна")
	}
	*clock = start.Add(DefaultWindow + 2*time.Second)
	if ok, _ := l.RecordCompletion(actor); !ok {
		t.Fatalf("в окне только две отметки, бан преждевременен")
	}
	*clock = start.Add(DefaultWindow + 3*time.Second)
	if ok, _ := l.RecordCompletion(actor); ok {
		t.Fatalf("третье завершение в пределах окна должно вести к бану")
	}
}

func TestSweepDropsExpiredState(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(start)

	l.RecordCompletion(1)
	l.RecordCompletion(2)
	l.RecordCompletion(2)
	l.RecordCompletion(2) // бан для 2

	*clock = start.Add(DefaultBan + DefaultWindow + time.Second)
	l.Sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.attempts) != 0 {
		t.Fatalf("ожидали пустую карту отметок, получили %d", len(l.attempts))
	}
	if len(l.bans) != 0 {
		t.Fatalf("ожидали пустую карту банов, получили %d", len(l.bans))
	}
}
