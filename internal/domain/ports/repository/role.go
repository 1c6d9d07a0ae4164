package repository

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

type RoleRepository interface {
	FindByName(ctx context.Context, tx Tx, name string) (*model.Role, error)
	// EnsureDefaults seeds the built-in roles when missing. Safe to call on
	// every boot.
	EnsureDefaults(ctx context.Context, tx Tx) error
}
