package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
)

var _ repository.MediaRepository = (*PostgresMediaRepo)(nil)

type PostgresMediaRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMediaRepo(pool *pgxpool.Pool) *PostgresMediaRepo {
	return &PostgresMediaRepo{pool: pool}
}

const mediaColumns = `id, user_id, track_id, original_url, original_key, mask_url, mask_key, status, edited_url, processing_error, created_at, updated_at`

func (r *PostgresMediaRepo) Save(ctx context.Context, tx repository.Tx, m *model.MediaJob) error {
	const q = `
INSERT INTO media_jobs (
  id, user_id, track_id, original_url, original_key, mask_url, mask_key, status, edited_url, processing_error, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  original_url=$4, original_key=$5, mask_url=$6, mask_key=$7, status=$8, edited_url=$9, processing_error=$10, updated_at=$12;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, m.ID, m.UserID, m.TrackID, m.OriginalURL, nullable(m.OriginalKey), nullable(m.MaskURL),
		nullable(m.MaskKey), string(m.Status), nullable(m.EditedURL), nullable(m.ProcessingError), m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *PostgresMediaRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MediaJob, error) {
	q := `SELECT ` + mediaColumns + ` FROM media_jobs WHERE id=$1`
	return r.scanOne(ctx, tx, q, id)
}

func (r *PostgresMediaRepo) FindByTrackID(ctx context.Context, tx repository.Tx, trackID string) (*model.MediaJob, error) {
	q := `SELECT ` + mediaColumns + ` FROM media_jobs WHERE track_id=$1`
	return r.scanOne(ctx, tx, q, trackID)
}

func (r *PostgresMediaRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.MediaJob, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + mediaColumns + ` FROM media_jobs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MediaJob
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMediaRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.MediaJob, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanMedia(ex.QueryRow(ctx, q, args...))
}

func scanMedia(row pgx.Row) (*model.MediaJob, error) {
	var (
		m           model.MediaJob
		status      string
		originalKey *string
		maskURL     *string
		maskKey     *string
		editedURL   *string
		procErr     *string
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.TrackID, &m.OriginalURL, &originalKey, &maskURL, &maskKey, &status,
		&editedURL, &procErr, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	m.Status = model.MediaStatus(status)
	if originalKey != nil {
		m.OriginalKey = *originalKey
	}
	if maskURL != nil {
		m.MaskURL = *maskURL
	}
	if maskKey != nil {
		m.MaskKey = *maskKey
	}
	if editedURL != nil {
		m.EditedURL = *editedURL
	}
	if procErr != nil {
		m.ProcessingError = *procErr
	}
	return &m, nil
}
