package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/metrics"
)

// Channels реализует domain.ChannelRepo.
type Channels struct {
	pool *pgxpool.Pool
}

var _ domain.ChannelRepo = (*Channels)(nil)

// NewChannels создаёт репозиторий каналов.
func NewChannels(pool *pgxpool.Pool) *Channels {
	return &Channels{pool: pool}
}

const channelColumns = `id, tg_channel_id, admin_tg_id, title, start_hour, end_hour, categories, all_categories, created_at`

func scanChannel(row pgx.Row) (domain.Channel, error) {
	var ch domain.Channel
	err := row.Scan(
		&ch.ID, &ch.TGChannelID, &ch.AdminTGID, &ch.Title,
		&ch.StartHour, &ch.EndHour, &ch.Categories, &ch.AllCategories, &ch.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Channel{}, domain.ErrChannelNotFound
	}
	return ch, err
}

// Upsert создаёт или обновляет запись по идентификатору канала Telegram.
func (c *Channels) Upsert(ctx context.Context, channel domain.Channel) (domain.Channel, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := c.pool.QueryRow(ctx, `
INSERT INTO channels (tg_channel_id, admin_tg_id, title, start_hour, end_hour)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tg_channel_id) DO UPDATE SET admin_tg_id = EXCLUDED.admin_tg_id, title = EXCLUDED.title
RETURNING `+channelColumns,
		channel.TGChannelID, channel.AdminTGID, channel.Title, channel.StartHour, channel.EndHour)
	upserted, err := scanChannel(row)
	metrics.ObserveNetworkRequest("postgres", "channels_upsert", "channels", start, err)
	return upserted, err
}

func (c *Channels) GetByTGID(ctx context.Context, tgChannelID int64) (domain.Channel, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	ch, err := scanChannel(c.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE tg_channel_id = $1`, tgChannelID))
	metrics.ObserveNetworkRequest("postgres", "channels_get", "channels", start, err)
	return ch, err
}

func (c *Channels) List(ctx context.Context) ([]domain.Channel, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := c.pool.Query(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "channels_list", "channels", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (c *Channels) Delete(ctx context.Context, tgChannelID int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := c.pool.Exec(ctx, `DELETE FROM channels WHERE tg_channel_id = $1`, tgChannelID)
	metrics.ObserveNetworkRequest("postgres", "channels_delete", "channels", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

// SetWindow задаёт временное окно канала.
func (c *Channels) SetWindow(ctx context.Context, tgChannelID int64, startHour, endHour int) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := c.pool.Exec(ctx, `UPDATE channels SET start_hour = $2, end_hour = $3 WHERE tg_channel_id = $1`, tgChannelID, startHour, endHour)
	metrics.ObserveNetworkRequest("postgres", "channels_set_window", "channels", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

// AddCategory добавляет категорию в набор канала. Повторное добавление —
// запись без изменений.
func (c *Channels) AddCategory(ctx context.Context, tgChannelID int64, category string) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := c.pool.Exec(ctx, `
UPDATE channels SET categories = array_append(categories, $2)
WHERE tg_channel_id = $1 AND NOT (categories @> ARRAY[$2]::text[])
`, tgChannelID, category)
	metrics.ObserveNetworkRequest("postgres", "channels_add_category", "channels", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// либо канал отсутствует, либо категория уже была
		if _, err := c.GetByTGID(ctx, tgChannelID); err != nil {
			return err
		}
	}
	return nil
}

// SetAllCategories включает или выключает рассылку всех категорий.
func (c *Channels) SetAllCategories(ctx context.Context, tgChannelID int64, all bool) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := c.pool.Exec(ctx, `UPDATE channels SET all_categories = $2 WHERE tg_channel_id = $1`, tgChannelID, all)
	metrics.ObserveNetworkRequest("postgres", "channels_set_all", "channels", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}
