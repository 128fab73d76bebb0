package paste

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/dustebin/integration/database/pg"
)

const pasteColumns = `id, content, is_compressed, language, title, description, ai_status,
	created_at, expires_at, password_hash, views, burn_after_read,
	has_image, image_key, image_url, image_mime_type, original_format,
	image_width, image_height, image_size`

// PGRepository stores pastes in PostgreSQL. Queries run inside the
// transaction carried by the context, if any. Get locks the row when called
// inside a transaction.
type PGRepository struct {
	db pg.DBTX
}

// NewPGRepository creates a repository on db (usually a *pgxpool.Pool).
func NewPGRepository(db pg.DBTX) *PGRepository {
	return &PGRepository{db: db}
}

// InTx runs fn in a transaction when db can begin one, and directly
// otherwise.
func (r *PGRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if b, ok := r.db.(pg.TxBeginner); ok {
		return pg.InTx(ctx, b, fn)
	}
	return fn(ctx)
}

func (r *PGRepository) Create(ctx context.Context, p *Paste) error {
	_, err := pg.Conn(ctx, r.db).Exec(ctx, `INSERT INTO pastes (`+pasteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.Content, p.IsCompressed, p.Language, p.Title, p.Description, string(p.AIStatus),
		p.CreatedAt, p.ExpiresAt, p.PasswordHash, p.Views, p.BurnAfterRead,
		p.HasImage, p.ImageKey, p.ImageURL, p.ImageMimeType, p.OriginalFormat,
		p.ImageWidth, p.ImageHeight, p.ImageSize,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert paste: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (*Paste, error) {
	query := `SELECT ` + pasteColumns + ` FROM pastes WHERE id = $1`
	if _, ok := pg.TxFromContext(ctx); ok {
		query += ` FOR UPDATE`
	}
	row := pg.Conn(ctx, r.db).QueryRow(ctx, query, id)

	var (
		p      Paste
		status string
	)
	err := row.Scan(
		&p.ID, &p.Content, &p.IsCompressed, &p.Language, &p.Title, &p.Description, &status,
		&p.CreatedAt, &p.ExpiresAt, &p.PasswordHash, &p.Views, &p.BurnAfterRead,
		&p.HasImage, &p.ImageKey, &p.ImageURL, &p.ImageMimeType, &p.OriginalFormat,
		&p.ImageWidth, &p.ImageHeight, &p.ImageSize,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select paste: %w", err)
	}
	p.AIStatus = AIStatus(status)
	return &p, nil
}

func (r *PGRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := pg.Conn(ctx, r.db).
		QueryRow(ctx, `UPDATE pastes SET views = views + 1 WHERE id = $1 RETURNING views`, id).
		Scan(&views)
	if pg.IsNotFoundError(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

func (r *PGRepository) UpdateMetadata(ctx context.Context, id string, m Metadata) error {
	tag, err := pg.Conn(ctx, r.db).Exec(ctx,
		`UPDATE pastes SET title = $2, description = $3, ai_status = $4 WHERE id = $1`,
		id, m.Title, m.Description, string(m.Status),
	)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := pg.Conn(ctx, r.db).Exec(ctx, `DELETE FROM pastes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paste: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, int64, error) {
	rows, err := pg.Conn(ctx, r.db).Query(ctx,
		`DELETE FROM pastes WHERE expires_at IS NOT NULL AND expires_at < $1 RETURNING image_key`, now)
	if err != nil {
		return nil, 0, fmt.Errorf("delete expired pastes: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, 0, fmt.Errorf("delete expired pastes: %w", err)
	}

	var images []string
	for _, k := range keys {
		if k != "" {
			images = append(images, k)
		}
	}
	return images, int64(len(keys)), nil
}
