package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/metrics"
	"tg-poem-bot/internal/poemtext"
)

// Poems реализует domain.PoemRepo.
type Poems struct {
	pool *pgxpool.Pool
}

var _ domain.PoemRepo = (*Poems)(nil)

// NewPoems создаёт репозиторий стихотворений.
func NewPoems(pool *pgxpool.Pool) *Poems {
	return &Poems{pool: pool}
}

const poemColumns = `id, tg_user_id, username, first_name, last_name, text, poet, category, approved, published, sent_to, created_at`

func scanPoem(row pgx.Row) (domain.Poem, error) {
	var poem domain.Poem
	err := row.Scan(
		&poem.ID, &poem.TGUserID, &poem.Username, &poem.FirstName, &poem.LastName,
		&poem.Text, &poem.Poet, &poem.Category, &poem.Approved, &poem.Published,
		&poem.SentTo, &poem.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Poem{}, domain.ErrPoemNotFound
	}
	return poem, err
}

// buildPoemFilter собирает WHERE-условие по фильтру. Нумерация
// плейсхолдеров продолжается после base.
func buildPoemFilter(f domain.PoemFilter, base int) (string, []any) {
	clauses := []string{"TRUE"}
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(cond, base+len(args)))
	}
	if f.Approved != nil {
		add("approved = $%d", *f.Approved)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if len(f.Categories) > 0 {
		add("category = ANY($%d)", f.Categories)
	}
	if f.Poet != "" {
		add("poet = $%d", f.Poet)
	}
	if f.NotSentTo != 0 {
		add("NOT (sent_to @> ARRAY[$%d]::bigint[])", f.NotSentTo)
	}
	return strings.Join(clauses, " AND "), args
}

func (p *Poems) Create(ctx context.Context, poem domain.Poem) (domain.Poem, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO poems (tg_user_id, username, first_name, last_name, text, canonical_text, poet, category, approved, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, false)
RETURNING `+poemColumns,
		poem.TGUserID, poem.Username, poem.FirstName, poem.LastName,
		poem.Text, poemtext.Canonicalize(poem.Text), poem.Poet, poem.Category)
	created, err := scanPoem(row)
	metrics.ObserveNetworkRequest("postgres", "poems_insert", "poems", start, err)
	return created, err
}

func (p *Poems) GetByID(ctx context.Context, id int64) (domain.Poem, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+poemColumns+` FROM poems WHERE id = $1`, id)
	poem, err := scanPoem(row)
	metrics.ObserveNetworkRequest("postgres", "poems_get", "poems", start, err)
	return poem, err
}

// List возвращает страницу по фильтру, новые записи впереди.
func (p *Poems) List(ctx context.Context, filter domain.PoemFilter, limit, offset int) ([]domain.Poem, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	where, args := buildPoemFilter(filter, 0)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM poems WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		poemColumns, where, len(args)-1, len(args))

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "poems_list", "poems", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poems []domain.Poem
	for rows.Next() {
		poem, err := scanPoem(rows)
		if err != nil {
			return nil, err
		}
		poems = append(poems, poem)
	}
	return poems, rows.Err()
}

func (p *Poems) Count(ctx context.Context, filter domain.PoemFilter) (int, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	where, args := buildPoemFilter(filter, 0)
	start := time.Now()
	var count int
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM poems WHERE `+where, args...).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "poems_count", "poems", start, err)
	return count, err
}

// GetByOffset возвращает запись по смещению в выборке, отсортированной
// по id. Вместе с Count даёт равновероятный выбор.
func (p *Poems) GetByOffset(ctx context.Context, filter domain.PoemFilter, offset int) (domain.Poem, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	where, args := buildPoemFilter(filter, 0)
	args = append(args, offset)
	query := fmt.Sprintf(`SELECT %s FROM poems WHERE %s ORDER BY id LIMIT 1 OFFSET $%d`, poemColumns, where, len(args))

	start := time.Now()
	poem, err := scanPoem(p.pool.QueryRow(ctx, query, args...))
	metrics.ObserveNetworkRequest("postgres", "poems_offset", "poems", start, err)
	return poem, err
}

// Update выполняет частичное обновление записи.
func (p *Poems) Update(ctx context.Context, id int64, patch domain.PoemPatch) (domain.Poem, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	sets := []string{}
	args := []any{id}
	set := func(column string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Text != nil {
		set("text", *patch.Text)
		set("canonical_text", poemtext.Canonicalize(*patch.Text))
	}
	if patch.Poet != nil {
		set("poet", *patch.Poet)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Approved != nil {
		set("approved", *patch.Approved)
	}
	if patch.Published != nil {
		set("published", *patch.Published)
	}
	if len(sets) == 0 {
		return p.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE poems SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), poemColumns)
	start := time.Now()
	poem, err := scanPoem(p.pool.QueryRow(ctx, query, args...))
	metrics.ObserveNetworkRequest("postgres", "poems_update", "poems", start, err)
	return poem, err
}

func (p *Poems) Delete(ctx context.Context, id int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM poems WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "poems_delete", "poems", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPoemNotFound
	}
	return nil
}

// MarkSent атомарно отмечает канал в sent_to. Условное обновление вместо
// чтения-записи: параллельное удаление или второй планировщик не приведут
// к повторной отметке.
func (p *Poems) MarkSent(ctx context.Context, poemID, tgChannelID int64) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE poems SET sent_to = array_append(sent_to, $2)
WHERE id = $1 AND approved AND NOT (sent_to @> ARRAY[$2]::bigint[])
`, poemID, tgChannelID)
	metrics.ObserveNetworkRequest("postgres", "poems_mark_sent", "poems", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// StripChannel убирает канал из sent_to всех записей.
func (p *Poems) StripChannel(ctx context.Context, tgChannelID int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE poems SET sent_to = array_remove(sent_to, $1) WHERE sent_to @> ARRAY[$1]::bigint[]`, tgChannelID)
	metrics.ObserveNetworkRequest("postgres", "poems_strip_channel", "poems", start, err)
	return err
}

// ListBodies возвращает тексты всех сохранённых стихотворений.
func (p *Poems) ListBodies(ctx context.Context) ([]string, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT text FROM poems`)
	metrics.ObserveNetworkRequest("postgres", "poems_bodies", "poems", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, rows.Err()
}
