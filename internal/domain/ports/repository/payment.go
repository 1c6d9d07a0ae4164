package repository

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	// UpdateStatusIfPending moves the payment to status only when it is still
	// pending. Returns false when another writer already finished it; this is
	// the idempotency guard for replayed IPN callbacks.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus) (bool, error)
}
