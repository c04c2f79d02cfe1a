package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
)

type stubPoemRepo struct {
	poems []domain.Poem
}

func (s *stubPoemRepo) Create(_ context.Context, p domain.Poem) (domain.Poem, error) { return p, nil }

func (s *stubPoemRepo) GetByID(_ context.Context, id int64) (domain.Poem, error) {
	for _, p := range s.poems {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Poem{}, domain.ErrPoemNotFound
}

func (s *stubPoemRepo) List(_ context.Context, filter domain.PoemFilter, limit, offset int) ([]domain.Poem, error) {
	var out []domain.Poem
	for _, p := range s.poems {
		if filter.Approved != nil && p.Approved != *filter.Approved {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Poet != "" && p.Poet != filter.Poet {
			continue
		}
		out = append(out, p)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubPoemRepo) Count(context.Context, domain.PoemFilter) (int, error) { return 0, nil }
func (s *stubPoemRepo) GetByOffset(context.Context, domain.PoemFilter, int) (domain.Poem, error) {
	return domain.Poem{}, domain.ErrPoemNotFound
}
func (s *stubPoemRepo) Update(_ context.Context, _ int64, _ domain.PoemPatch) (domain.Poem, error) {
	return domain.Poem{}, domain.ErrPoemNotFound
}
func (s *stubPoemRepo) Delete(context.Context, int64) error                  { return nil }
func (s *stubPoemRepo) MarkSent(context.Context, int64, int64) (bool, error) { return false, nil }
func (s *stubPoemRepo) StripChannel(context.Context, int64) error            { return nil }
func (s *stubPoemRepo) ListBodies(context.Context) ([]string, error)         { return nil, nil }

type stubChannelRepo struct {
	channels []domain.Channel
}

func (s *stubChannelRepo) Upsert(_ context.Context, c domain.Channel) (domain.Channel, error) {
	return c, nil
}

func (s *stubChannelRepo) GetByTGID(_ context.Context, id int64) (domain.Channel, error) {
	for _, c := range s.channels {
		if c.TGChannelID == id {
			return c, nil
		}
	}
	return domain.Channel{}, domain.ErrChannelNotFound
}

func (s *stubChannelRepo) List(context.Context) ([]domain.Channel, error) { return s.channels, nil }
func (s *stubChannelRepo) Delete(context.Context, int64) error            { return nil }
func (s *stubChannelRepo) SetWindow(context.Context, int64, int, int) error {
	return nil
}
func (s *stubChannelRepo) AddCategory(context.Context, int64, string) error    { return nil }
func (s *stubChannelRepo) SetAllCategories(context.Context, int64, bool) error { return nil }

func newTestRouter(token string) chi.Router {
	poems := &stubPoemRepo{poems: []domain.Poem{
		{ID: 1, Text: "متن اول", Poet: "سعدی", Category: "عاشقانه", Approved: true},
		{ID: 2, Text: "متن دوم", Poet: "حافظ", Category: "طنز", Approved: true},
		{ID: 3, Text: "متن سوم", Category: "طنز"},
	}}
	channels := &stubChannelRepo{channels: []domain.Channel{
		{ID: 1, TGChannelID: -100, Title: "شعر روز", StartHour: 9, EndHour: 18},
	}}
	r := chi.NewRouter()
	NewHandler(poems, channels, token, zerolog.Nop()).Mount(r)
	return r
}

func do(t *testing.T, r chi.Router, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodePoems(t *testing.T, rec *httptest.ResponseRecorder) []poemResponse {
	t.Helper()
	var out []poemResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	return out
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter("secret")

	if rec := do(t, r, "/api/v1/poems", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("без токена ожидали 401, получили %d", rec.Code)
	}
	if rec := do(t, r, "/api/v1/poems", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("с чужим токеном ожидали 401, получили %d", rec.Code)
	}
	if rec := do(t, r, "/api/v1/poems", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("с токеном ожидали 200, получили %d", rec.Code)
	}
}

func TestListPoemsReturnsApprovedOnly(t *testing.T) {
	r := newTestRouter("")
	rec := do(t, r, "/api/v1/poems", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	poems := decodePoems(t, rec)
	if len(poems) != 2 {
		t.Fatalf("ожидали 2 одобренных, получили %d", len(poems))
	}
	for _, p := range poems {
		if !p.Approved {
			t.Fatalf("в выдаче неодобренная запись: %+v", p)
		}
	}
}

func TestListUnapproved(t *testing.T) {
	r := newTestRouter("")
	poems := decodePoems(t, do(t, r, "/api/v1/poems/unapproved", ""))
	if len(poems) != 1 || poems[0].ID != 3 {
		t.Fatalf("ожидали только неодобренную запись: %+v", poems)
	}
}

func TestListByCategory(t *testing.T) {
	r := newTestRouter("")
	poems := decodePoems(t, do(t, r, "/api/v1/poems/category/طنز", ""))
	if len(poems) != 1 || poems[0].ID != 2 {
		t.Fatalf("ожидали одобренную запись категории: %+v", poems)
	}
	if rec := do(t, r, "/api/v1/poems/category/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("неизвестная категория: ожидали 404, получили %d", rec.Code)
	}
	// известная категория без записей тоже даёт 404
	if rec := do(t, r, "/api/v1/poems/category/مذهبی", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("пустая категория: ожидали 404, получили %d", rec.Code)
	}
}

func TestGetPoem(t *testing.T) {
	r := newTestRouter("")
	rec := do(t, r, "/api/v1/poems/id/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var poem poemResponse
	if err := json.NewDecoder(rec.Body).Decode(&poem); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if poem.Poet != "سعدی" {
		t.Fatalf("неожиданная запись: %+v", poem)
	}
	if rec := do(t, r, "/api/v1/poems/id/404", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
	if rec := do(t, r, "/api/v1/poems/id/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", rec.Code)
	}
}

func TestChannels(t *testing.T) {
	r := newTestRouter("")
	rec := do(t, r, "/api/v1/channels", "")
	var channels []channelResponse
	if err := json.NewDecoder(rec.Body).Decode(&channels); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if len(channels) != 1 || channels[0].Title != "شعر روز" {
		t.Fatalf("неожиданный список каналов: %+v", channels)
	}
	if rec := do(t, r, "/api/v1/channels/-100", ""); rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if rec := do(t, r, "/api/v1/channels/-42", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
}
