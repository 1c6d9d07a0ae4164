package repository

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// FindByEmail matches non-deleted users unless includeDeleted is set.
	FindByEmail(ctx context.Context, tx Tx, email string, includeDeleted bool) (*model.User, error)
	// CreditPoints atomically increments the balance and returns the new value.
	CreditPoints(ctx context.Context, tx Tx, id string, points int64) (int64, error)
}
