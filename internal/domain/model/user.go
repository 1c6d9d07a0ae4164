package model

import (
	"strings"
	"time"

	"image-edit-saas/internal/domain"

	"github.com/google/uuid"
)

// OTPChallenge is the transient email-verification challenge attached to a
// user between signup and activation.
type OTPChallenge struct {
	Code   string
	Expiry time.Time
}

func (o *OTPChallenge) IsZero() bool { return o == nil || o.Code == "" }

func (o *OTPChallenge) Matches(code string, now time.Time) bool {
	return !o.IsZero() && o.Code == code && now.Before(o.Expiry)
}

// User is the identity anchor. The points balance only ever increases through
// a completed payment reconciliation; spend logic lives outside this service.
type User struct {
	ID           string
	Email        string
	PasswordHash string // empty until OTP verification sets it
	RoleID       string
	Points       int64
	IsActive     bool
	IsDeleted    bool
	DeletedAt    *time.Time
	OTP          *OTPChallenge
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates an inactive user pending OTP verification.
func NewUser(id, email, roleID string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		RoleID:    roleID,
		IsActive:  false,
		IsDeleted: false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// SoftDelete marks the account deleted and deactivates it. Records are never
// hard-deleted.
func (u *User) SoftDelete() {
	now := time.Now()
	u.IsDeleted = true
	u.DeletedAt = &now
	u.IsActive = false
	u.UpdatedAt = now
}

// Activate clears the OTP challenge and enables the account.
func (u *User) Activate(passwordHash string) {
	u.PasswordHash = passwordHash
	u.IsActive = true
	u.OTP = nil
	u.UpdatedAt = time.Now()
}
