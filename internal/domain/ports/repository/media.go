package repository

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

type MediaRepository interface {
	Save(ctx context.Context, tx Tx, m *model.MediaJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MediaJob, error)
	FindByTrackID(ctx context.Context, tx Tx, trackID string) (*model.MediaJob, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.MediaJob, error)
}
