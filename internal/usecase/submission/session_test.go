package submission

import (
	"sync"
	"testing"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get(1); ok {
		t.Fatal("пустое хранилище вернуло сессию")
	}

	store.Put(Session{ActorID: 1, Step: StepBody})
	store.Put(Session{ActorID: 2, Step: StepAuthor, Text: "متن"})

	sess, ok := store.Get(1)
	if !ok || sess.Step != StepBody {
		t.Fatalf("неожиданная сессия: %+v", sess)
	}

	store.Delete(1)
	if _, ok := store.Get(1); ok {
		t.Fatal("сессия осталась после удаления")
	}
	if _, ok := store.Get(2); !ok {
		t.Fatal("удаление затронуло чужую сессию")
	}
}

func TestStoreAcquireSerializes(t *testing.T) {
	store := NewStore()
	const workers = 8

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Acquire(42)
			defer unlock()
			sess, _ := store.Get(42)
			sess.ActorID = 42
			sess.Text += "و"
			store.Put(sess)
		}()
	}
	wg.Wait()

	sess, ok := store.Get(42)
	if !ok {
		t.Fatal("сессия не сохранилась")
	}
	if len([]rune(sess.Text)) != workers {
		t.Fatalf("ожидали %d записей под блокировкой, получили %d", workers, len([]rune(sess.Text)))
	}
}
