package repository

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

type ModelPresetRepository interface {
	Save(ctx context.Context, tx Tx, p *model.ModelPreset) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ModelPreset, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.ModelPreset, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
