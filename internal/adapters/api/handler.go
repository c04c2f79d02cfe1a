// Package api отдаёт читающий REST-интерфейс над стихотворениями и
// каналами. Записи создаются только через бота, поэтому методов записи нет.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler обслуживает REST-маршруты.
type Handler struct {
	poems    domain.PoemRepo
	channels domain.ChannelRepo
	token    string
	log      zerolog.Logger
}

// NewHandler создаёт обработчик. Пустой токен отключает авторизацию.
func NewHandler(poems domain.PoemRepo, channels domain.ChannelRepo, token string, log zerolog.Logger) *Handler {
	return &Handler{poems: poems, channels: channels, token: token, log: log}
}

// Mount вешает маршруты API на роутер.
func (h *Handler) Mount(r chi.Router) {
	r.Group(func(protected chi.Router) {
		protected.Use(h.auth)
		protected.Get("/api/v1/poems", h.listPoems)
		protected.Get("/api/v1/poems/unapproved", h.listUnapproved)
		protected.Get("/api/v1/poems/id/{id}", h.getPoem)
		protected.Get("/api/v1/poems/category/{category}", h.listByCategory)
		protected.Get("/api/v1/channels", h.listChannels)
		protected.Get("/api/v1/channels/{id}", h.getChannel)
	})
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != h.token {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type poemResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Poet      string    `json:"poet"`
	Category  string    `json:"category,omitempty"`
	Approved  bool      `json:"approved"`
	Published bool      `json:"published"`
	SentTo    []int64   `json:"sent_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type channelResponse struct {
	ID            int64     `json:"id"`
	TGChannelID   int64     `json:"tg_channel_id"`
	Title         string    `json:"title"`
	StartHour     int       `json:"start_hour"`
	EndHour       int       `json:"end_hour"`
	Categories    []string  `json:"categories,omitempty"`
	AllCategories bool      `json:"all_categories"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPoemResponse(p domain.Poem) poemResponse {
	return poemResponse{
		ID:        p.ID,
		Text:      p.Text,
		Poet:      p.Poet,
		Category:  p.Category,
		Approved:  p.Approved,
		Published: p.Published,
		SentTo:    p.SentTo,
		CreatedAt: p.CreatedAt,
	}
}

func toChannelResponse(c domain.Channel) channelResponse {
	return channelResponse{
		ID:            c.ID,
		TGChannelID:   c.TGChannelID,
		Title:         c.Title,
		StartHour:     c.StartHour,
		EndHour:       c.EndHour,
		Categories:    c.Categories,
		AllCategories: c.AllCategories,
		CreatedAt:     c.CreatedAt,
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v - 1
		}
	}
	return limit, page * limit
}

func (h *Handler) listWithFilter(w http.ResponseWriter, r *http.Request, filter domain.PoemFilter) {
	limit, offset := pagination(r)
	poems, err := h.poems.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("api: выборка стихотворений")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if len(poems) == 0 {
		writeError(w, http.StatusNotFound, "no poems found")
		return
	}
	out := make([]poemResponse, 0, len(poems))
	for _, p := range poems {
		out = append(out, toPoemResponse(p))
	}
	writeJSON(w, out)
}

func (h *Handler) listPoems(w http.ResponseWriter, r *http.Request) {
	approved := true
	filter := domain.PoemFilter{Approved: &approved, Poet: r.URL.Query().Get("poet")}
	h.listWithFilter(w, r, filter)
}

func (h *Handler) listUnapproved(w http.ResponseWriter, r *http.Request) {
	approved := false
	h.listWithFilter(w, r, domain.PoemFilter{Approved: &approved})
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !domain.KnownCategory(category) {
		writeError(w, http.StatusNotFound, "unknown category")
		return
	}
	approved := true
	h.listWithFilter(w, r, domain.PoemFilter{Approved: &approved, Category: category})
}

func (h *Handler) getPoem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	poem, err := h.poems.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPoemNotFound) {
			writeError(w, http.StatusNotFound, "poem not found")
			return
		}
		h.log.Error().Err(err).Int64("poem", id).Msg("api: чтение стихотворения")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, toPoemResponse(poem))
}

func (h *Handler) listChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("api: выборка каналов")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	out := make([]channelResponse, 0, len(channels))
	for _, c := range channels {
		out = append(out, toChannelResponse(c))
	}
	writeJSON(w, out)
}

func (h *Handler) getChannel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	channel, err := h.channels.GetByTGID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			writeError(w, http.StatusNotFound, "channel not found")
			return
		}
		h.log.Error().Err(err).Int64("channel", id).Msg("api: чтение канала")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, toChannelResponse(channel))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
