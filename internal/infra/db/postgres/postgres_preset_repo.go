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

var _ repository.ModelPresetRepository = (*PostgresPresetRepo)(nil)

type PostgresPresetRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPresetRepo(pool *pgxpool.Pool) *PostgresPresetRepo {
	return &PostgresPresetRepo{pool: pool}
}

const presetColumns = `id, model_id, title, description, thumbnail, prompt, negative_prompt, width, height, samples, steps, guidance_scale, strength, scheduler, clip_skip, seed, safety_checker, enhance_prompt, is_active, created_at, updated_at`

func (r *PostgresPresetRepo) Save(ctx context.Context, tx repository.Tx, p *model.ModelPreset) error {
	const q = `
INSERT INTO model_presets (
  id, model_id, title, description, thumbnail, prompt, negative_prompt, width, height, samples, steps,
  guidance_scale, strength, scheduler, clip_skip, seed, safety_checker, enhance_prompt, is_active, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) ON CONFLICT (id) DO UPDATE SET
  model_id=$2, title=$3, description=$4, thumbnail=$5, prompt=$6, negative_prompt=$7, width=$8, height=$9,
  samples=$10, steps=$11, guidance_scale=$12, strength=$13, scheduler=$14, clip_skip=$15, seed=$16,
  safety_checker=$17, enhance_prompt=$18, is_active=$19, updated_at=$21;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.ModelID, p.Title, p.Description, p.Thumbnail, p.Prompt, p.NegativePrompt,
		p.Width, p.Height, p.Samples, p.Steps, p.GuidanceScale, p.Strength, p.Scheduler, p.ClipSkip, p.Seed,
		p.SafetyChecker, p.EnhancePrompt, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresPresetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ModelPreset, error) {
	q := `SELECT ` + presetColumns + ` FROM model_presets WHERE id=$1`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPreset(ex.QueryRow(ctx, q, id))
}

func (r *PostgresPresetRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ModelPreset, error) {
	q := `SELECT ` + presetColumns + ` FROM model_presets ORDER BY created_at;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ModelPreset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPresetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM model_presets WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	cmd, err := ex.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPreset(row pgx.Row) (*model.ModelPreset, error) {
	var p model.ModelPreset
	if err := row.Scan(&p.ID, &p.ModelID, &p.Title, &p.Description, &p.Thumbnail, &p.Prompt, &p.NegativePrompt,
		&p.Width, &p.Height, &p.Samples, &p.Steps, &p.GuidanceScale, &p.Strength, &p.Scheduler, &p.ClipSkip,
		&p.Seed, &p.SafetyChecker, &p.EnhancePrompt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
