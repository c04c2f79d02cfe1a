package broadcast

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
)

func TestInWindow(t *testing.T) {
	cases := []struct {
		hour, start, end int
		want             bool
	}{
		{10, 9, 18, true},
		{9, 9, 18, true},
		{18, 9, 18, false},
		{20, 9, 18, false},
		{2, 22, 6, true},
		{23, 22, 6, true},
		{12, 22, 6, false},
		{6, 22, 6, false},
		{18, 18, 24, true},
		{23, 18, 24, true},
		{0, 18, 24, false},
		{17, 17, 24, true},
	}
	for _, tc := range cases {
		if got := InWindow(tc.hour, tc.start, tc.end); got != tc.want {
			t.Errorf("InWindow(%d, %d, %d) = %v, ожидали %v", tc.hour, tc.start, tc.end, got, tc.want)
		}
	}
}

type fakePoemRepo struct {
	poems    map[int64]domain.Poem
	loseMark bool
}

func (f *fakePoemRepo) matches(poem domain.Poem, filter domain.PoemFilter) bool {
	if filter.Approved != nil && poem.Approved != *filter.Approved {
		return false
	}
	if filter.NotSentTo != 0 && poem.WasSentTo(filter.NotSentTo) {
		return false
	}
	if len(filter.Categories) > 0 {
		found := false
		for _, category := range filter.Categories {
			if poem.Category == category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakePoemRepo) candidates(filter domain.PoemFilter) []domain.Poem {
	var out []domain.Poem
	for _, poem := range f.poems {
		if f.matches(poem, filter) {
			out = append(out, poem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePoemRepo) Create(_ context.Context, poem domain.Poem) (domain.Poem, error) {
	f.poems[poem.ID] = poem
	return poem, nil
}

func (f *fakePoemRepo) GetByID(_ context.Context, id int64) (domain.Poem, error) {
	poem, ok := f.poems[id]
	if !ok {
		return domain.Poem{}, domain.ErrPoemNotFound
	}
	return poem, nil
}

func (f *fakePoemRepo) List(_ context.Context, filter domain.PoemFilter, limit, offset int) ([]domain.Poem, error) {
	all := f.candidates(filter)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakePoemRepo) Count(_ context.Context, filter domain.PoemFilter) (int, error) {
	return len(f.candidates(filter)), nil
}

func (f *fakePoemRepo) GetByOffset(_ context.Context, filter domain.PoemFilter, offset int) (domain.Poem, error) {
	all := f.candidates(filter)
	if offset < 0 || offset >= len(all) {
		return domain.Poem{}, domain.ErrPoemNotFound
	}
	return all[offset], nil
}

func (f *fakePoemRepo) Update(_ context.Context, id int64, _ domain.PoemPatch) (domain.Poem, error) {
	return f.poems[id], nil
}

func (f *fakePoemRepo) Delete(_ context.Context, id int64) error {
	delete(f.poems, id)
	return nil
}

func (f *fakePoemRepo) MarkSent(_ context.Context, poemID, tgChannelID int64) (bool, error) {
	if f.loseMark {
		return false, nil
	}
	poem, ok := f.poems[poemID]
	if !ok || !poem.Approved || poem.WasSentTo(tgChannelID) {
		return false, nil
	}
	poem.SentTo = append(poem.SentTo, tgChannelID)
	f.poems[poemID] = poem
	return true, nil
}

func (f *fakePoemRepo) StripChannel(_ context.Context, tgChannelID int64) error {
	for id, poem := range f.poems {
		var kept []int64
		for _, ch := range poem.SentTo {
			if ch != tgChannelID {
				kept = append(kept, ch)
			}
		}
		poem.SentTo = kept
		f.poems[id] = poem
	}
	return nil
}

func (f *fakePoemRepo) ListBodies(context.Context) ([]string, error) { return nil, nil }

type fakeChannelRepo struct {
	channels []domain.Channel
}

func (f *fakeChannelRepo) Upsert(_ context.Context, ch domain.Channel) (domain.Channel, error) {
	return ch, nil
}

func (f *fakeChannelRepo) GetByTGID(context.Context, int64) (domain.Channel, error) {
	return domain.Channel{}, domain.ErrChannelNotFound
}

func (f *fakeChannelRepo) List(context.Context) ([]domain.Channel, error) {
	return f.channels, nil
}

func (f *fakeChannelRepo) Delete(context.Context, int64) error                 { return nil }
func (f *fakeChannelRepo) SetWindow(context.Context, int64, int, int) error    { return nil }
func (f *fakeChannelRepo) AddCategory(context.Context, int64, string) error    { return nil }
func (f *fakeChannelRepo) SetAllCategories(context.Context, int64, bool) error { return nil }

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent    []sentMessage
	failFor map[int64]bool
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string, _ [][]domain.Button) error {
	if f.failFor[chatID] {
		return fmt.Errorf("канал %d недоступен", chatID)
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 29, hour, 30, 0, 0, time.UTC)
	}
}

func newTestService(poems *fakePoemRepo, channels *fakeChannelRepo, sender *fakeSender, hour int) *Service {
	svc := NewService(poems, channels, sender, nil, time.UTC, zerolog.Nop())
	svc.now = at(hour)
	svc.rand = func(int) int { return 0 }
	return svc
}

func TestTickSendsUnsentPoemWithinWindow(t *testing.T) {
	channel := domain.Channel{TGChannelID: -100, StartHour: 18, EndHour: 24, AllCategories: true}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "متن اول", Poet: "سعدی", Approved: true, SentTo: []int64{-100}},
		2: {ID: 2, Text: "متن دوم", Poet: "حافظ", Approved: true},
		3: {ID: 3, Text: "متن سوم", Approved: false},
	}}
	sender := &fakeSender{}
	svc := newTestService(poems, &fakeChannelRepo{channels: []domain.Channel{channel}}, sender, 20)

	svc.Tick(context.Background())

	if len(sender.sent) != 1 {
		t.Fatalf("ожидали одну отправку, получили %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.chatID != -100 {
		t.Fatalf("отправка ушла не в тот канал: %d", got.chatID)
	}
	if got.text != "متن دوم\n\n- حافظ" {
		t.Fatalf("неожиданный текст: %q", got.text)
	}
	if !poems.poems[2].WasSentTo(-100) {
		t.Fatalf("отправленная запись должна быть отмечена")
	}

	// повторный тик: кандидатов не осталось
	svc.Tick(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("без кандидатов отправок быть не должно, получили %d", len(sender.sent))
	}
}

func TestTickSkipsChannelOutsideWindow(t *testing.T) {
	channel := domain.Channel{TGChannelID: -100, StartHour: 18, EndHour: 24, AllCategories: true}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "متن", Approved: true},
	}}
	sender := &fakeSender{}
	svc := newTestService(poems, &fakeChannelRepo{channels: []domain.Channel{channel}}, sender, 10)

	svc.Tick(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("вне окна отправок быть не должно, получили %d", len(sender.sent))
	}
}

func TestTickRespectsCategories(t *testing.T) {
	channel := domain.Channel{TGChannelID: -100, StartHour: 0, EndHour: 24, Categories: []string{"طنز"}}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "غزل", Category: "عاشقانه", Approved: true},
		2: {ID: 2, Text: "هجو", Category: "طنز", Approved: true},
	}}
	sender := &fakeSender{}
	svc := newTestService(poems, &fakeChannelRepo{channels: []domain.Channel{channel}}, sender, 12)

	svc.Tick(context.Background())

	if len(sender.sent) != 1 || sender.sent[0].text != "هجو\n\n- نامشخص" {
		t.Fatalf("ожидали отправку хаджва с подписью по умолчанию: %+v", sender.sent)
	}
}

func TestTickChannelFailureDoesNotStopOthers(t *testing.T) {
	channels := []domain.Channel{
		{TGChannelID: -1, StartHour: 0, EndHour: 24, AllCategories: true},
		{TGChannelID: -2, StartHour: 0, EndHour: 24, AllCategories: true},
	}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "متن", Poet: "سعدی", Approved: true},
	}}
	sender := &fakeSender{failFor: map[int64]bool{-1: true}}
	svc := newTestService(poems, &fakeChannelRepo{channels: channels}, sender, 12)

	svc.Tick(context.Background())

	if len(sender.sent) != 1 || sender.sent[0].chatID != -2 {
		t.Fatalf("сбой первого канала не должен мешать второму: %+v", sender.sent)
	}
}

type fakeCache struct{ seen map[string]bool }

func (f *fakeCache) Once(key string, _ time.Duration, fn func() error) error {
	if f.seen[key] {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	f.seen[key] = true
	return nil
}

func (f *fakeCache) Set(string, []byte, time.Duration) error { return nil }
func (f *fakeCache) Get(string) ([]byte, error)              { return nil, nil }

func TestCacheBoundsSendsToOnePerHour(t *testing.T) {
	channel := domain.Channel{TGChannelID: -100, StartHour: 0, EndHour: 24, AllCategories: true}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "متن اول", Approved: true},
		2: {ID: 2, Text: "متن دوم", Approved: true},
	}}
	sender := &fakeSender{}
	svc := NewService(poems, &fakeChannelRepo{channels: []domain.Channel{channel}}, sender, &fakeCache{seen: make(map[string]bool)}, time.UTC, zerolog.Nop())
	svc.rand = func(int) int { return 0 }

	svc.now = at(12)
	svc.Tick(context.Background())
	svc.Tick(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("в пределах часа допустима одна отправка, получили %d", len(sender.sent))
	}

	svc.now = at(13)
	svc.Tick(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("новый час открывает новую отправку, получили %d", len(sender.sent))
	}
}

func TestTickSkipsWhenMarkLost(t *testing.T) {
	channel := domain.Channel{TGChannelID: -100, StartHour: 0, EndHour: 24, AllCategories: true}
	poems := &fakePoemRepo{poems: map[int64]domain.Poem{
		1: {ID: 1, Text: "متن", Approved: true},
	}}
	// конкурирующий процесс успел отметить или удалить запись
	poems.loseMark = true
	sender := &fakeSender{}
	svc := newTestService(poems, &fakeChannelRepo{channels: []domain.Channel{channel}}, sender, 12)

	svc.Tick(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("без отметки отправки быть не должно: %+v", sender.sent)
	}
}
