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

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, plan_id, amount, currency, points_to_add, payment_id, order_id, status, payment_status, pay_address, pay_amount, pay_currency, invoice_url, points_added, new_balance, error, ipn_received_at, processed_at, created_at, updated_at`

func (r *PostgresPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, plan_id, amount, currency, points_to_add, payment_id, order_id, status, payment_status,
  pay_address, pay_amount, pay_currency, invoice_url, points_added, new_balance, error, ipn_received_at, processed_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) ON CONFLICT (id) DO UPDATE SET
  payment_id=$7, status=$9, payment_status=$10, pay_address=$11, pay_amount=$12, pay_currency=$13,
  invoice_url=$14, points_added=$15, new_balance=$16, error=$17, ipn_received_at=$18, processed_at=$19, updated_at=$21;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		p.ID, p.UserID, p.PlanID, p.Amount, p.Currency, p.PointsToAdd, nullable(p.PaymentID), p.OrderID,
		string(p.Status), nullable(p.PaymentStatus), nullable(p.PayAddress), p.PayAmount, nullable(p.PayCurrency),
		nullable(p.InvoiceURL), p.PointsAdded, p.NewBalance, nullable(p.Error), p.IPNReceivedAt, p.ProcessedAt,
		p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE`
	}
	return r.scanOne(ctx, tx, q, id)
}

func (r *PostgresPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE`
	}
	return r.scanOne(ctx, tx, q, orderID)
}

// UpdateStatusIfPending is the compare-and-set guard: the row moves out of
// pending at most once, no matter how many callbacks race.
func (r *PostgresPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	cmd, err := ex.Exec(ctx, q, id, string(status))
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *PostgresPaymentRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var (
		p             model.Payment
		status        string
		paymentID     *string
		paymentStatus *string
		payAddress    *string
		payCurrency   *string
		invoiceURL    *string
		errText       *string
	)
	row := ex.QueryRow(ctx, q, args...)
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.Amount, &p.Currency, &p.PointsToAdd, &paymentID, &p.OrderID,
		&status, &paymentStatus, &payAddress, &p.PayAmount, &payCurrency, &invoiceURL, &p.PointsAdded, &p.NewBalance,
		&errText, &p.IPNReceivedAt, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	if paymentID != nil {
		p.PaymentID = *paymentID
	}
	if paymentStatus != nil {
		p.PaymentStatus = *paymentStatus
	}
	if payAddress != nil {
		p.PayAddress = *payAddress
	}
	if payCurrency != nil {
		p.PayCurrency = *payCurrency
	}
	if invoiceURL != nil {
		p.InvoiceURL = *invoiceURL
	}
	if errText != nil {
		p.Error = *errText
	}
	return &p, nil
}
