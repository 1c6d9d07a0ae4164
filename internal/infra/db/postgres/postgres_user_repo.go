package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, role_id, points, is_active, is_deleted, deleted_at, otp_code, otp_expiry, created_at, updated_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, email, password_hash, role_id, points, is_active, is_deleted, deleted_at, otp_code, otp_expiry, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  email=$2, password_hash=$3, role_id=$4, points=$5, is_active=$6, is_deleted=$7, deleted_at=$8, otp_code=$9, otp_expiry=$10, updated_at=$12;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	var otpCode *string
	var otpExpiry interface{}
	if !u.OTP.IsZero() {
		otpCode = &u.OTP.Code
		otpExpiry = u.OTP.Expiry
	}
	_, err = ex.Exec(ctx, q, u.ID, u.Email, nullable(u.PasswordHash), nullable(u.RoleID), u.Points, u.IsActive, u.IsDeleted, u.DeletedAt, otpCode, otpExpiry, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(ctx, tx, q, id)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string, includeDeleted bool) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	if !includeDeleted {
		q += ` AND is_deleted=FALSE`
	}
	q += ` LIMIT 1`
	return r.scanOne(ctx, tx, q, strings.ToLower(email))
}

// CreditPoints is a single-statement atomic increment; the RETURNING clause
// gives the post-credit balance without a second read.
func (r *PostgresUserRepo) CreditPoints(ctx context.Context, tx repository.Tx, id string, points int64) (int64, error) {
	const q = `UPDATE users SET points = points + $2, updated_at = NOW() WHERE id=$1 RETURNING points;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := ex.QueryRow(ctx, q, id, points).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (r *PostgresUserRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var (
		u            model.User
		passwordHash *string
		roleID       *string
		otpCode      *string
		otpExpiry    *time.Time
	)
	row := ex.QueryRow(ctx, q, args...)
	if err := row.Scan(&u.ID, &u.Email, &passwordHash, &roleID, &u.Points, &u.IsActive, &u.IsDeleted, &u.DeletedAt, &otpCode, &otpExpiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if roleID != nil {
		u.RoleID = *roleID
	}
	if otpCode != nil && otpExpiry != nil {
		u.OTP = &model.OTPChallenge{Code: *otpCode, Expiry: *otpExpiry}
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
