package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/domain/ports/repository"
	"image-edit-saas/internal/infra/metrics"
)

// RateLimiter is the fixed-window throttle the user flows consume. Satisfied
// by the redis implementation.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type UserUseCase struct {
	users   repository.UserRepository
	roles   repository.RoleRepository
	mailer  adapter.Mailer
	limiter RateLimiter
	otpCfg  config.OTPConfig
	log     zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	roles repository.RoleRepository,
	mailer adapter.Mailer,
	limiter RateLimiter,
	otpCfg config.OTPConfig,
	log zerolog.Logger,
) *UserUseCase {
	return &UserUseCase{
		users:   users,
		roles:   roles,
		mailer:  mailer,
		limiter: limiter,
		otpCfg:  otpCfg,
		log:     log.With().Str("component", "user_uc").Logger(),
	}
}

// Signup creates (or refreshes) an inactive user and emails a fresh OTP.
// Deleted accounts are refused outright; active accounts cannot sign up again.
func (uc *UserUseCase) Signup(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.ErrInvalidArgument
	}

	allowed, err := uc.limiter.Allow(ctx, "rate_limit:otp:"+email, uc.otpCfg.SendLimit, uc.otpCfg.LimitWindow)
	if err != nil {
		return fmt.Errorf("otp rate limit: %w", err)
	}
	if !allowed {
		metrics.IncOTPEmail("rate_limited")
		return domain.ErrRateLimited
	}

	existing, err := uc.users.FindByEmail(ctx, nil, email, true)
	switch {
	case err == nil && existing.IsDeleted:
		return domain.ErrAccountDeleted
	case err == nil && existing.IsActive:
		return domain.ErrAlreadyExists
	case err == nil:
		// Pending signup exists: refresh the challenge.
		return uc.issueOTP(ctx, existing)
	case errors.Is(err, domain.ErrNotFound):
	default:
		return fmt.Errorf("lookup user: %w", err)
	}

	role, err := uc.roles.FindByName(ctx, nil, model.RoleUser)
	if err != nil {
		return fmt.Errorf("resolve default role: %w", err)
	}
	user, err := model.NewUser("", email, role.ID)
	if err != nil {
		return err
	}

	metrics.IncSignup()
	return uc.issueOTP(ctx, user)
}

func (uc *UserUseCase) issueOTP(ctx context.Context, user *model.User) error {
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	user.OTP = &model.OTPChallenge{Code: code, Expiry: time.Now().Add(uc.otpCfg.TTL)}
	user.UpdatedAt = time.Now()

	if err := uc.users.Save(ctx, nil, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	body := fmt.Sprintf(
		"<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
		code, int(uc.otpCfg.TTL.Minutes()),
	)
	if err := uc.mailer.Send(user.Email, "Your verification code", body); err != nil {
		metrics.IncOTPEmail("failed")
		uc.log.Error().Err(err).Str("user_id", user.ID).Msg("otp email failed")
		return fmt.Errorf("send otp email: %w", err)
	}

	metrics.IncOTPEmail("sent")
	uc.log.Info().Str("user_id", user.ID).Msg("otp issued")
	return nil
}

// VerifyOTP checks the challenge, sets the password and activates the account.
func (uc *UserUseCase) VerifyOTP(ctx context.Context, email, code, password string) (*model.User, error) {
	email = normalizeEmail(email)
	user, err := uc.users.FindByEmail(ctx, nil, email, false)
	if err != nil {
		return nil, err
	}
	if !user.OTP.Matches(code, time.Now()) {
		return nil, domain.ErrOTPInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.Activate(string(hash))

	if err := uc.users.Save(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	uc.log.Info().Str("user_id", user.ID).Msg("account activated")
	return user, nil
}

// Login authenticates an active account by email and password.
func (uc *UserUseCase) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	allowed, err := uc.limiter.Allow(ctx, "rate_limit:login:"+email, uc.otpCfg.LoginLimit, uc.otpCfg.LoginWindow)
	if err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	if !allowed {
		return nil, domain.ErrRateLimited
	}

	user, err := uc.users.FindByEmail(ctx, nil, email, false)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		metrics.IncLogin("inactive")
		return nil, domain.ErrAccountNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.IncLogin("bad_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	metrics.IncLogin("ok")
	return user, nil
}

// DeleteAccount soft-deletes the caller's account. The email stays reserved.
func (uc *UserUseCase) DeleteAccount(ctx context.Context, userID string) error {
	user, err := uc.users.FindByID(ctx, nil, userID)
	if err != nil {
		return err
	}
	if user.IsDeleted {
		return nil
	}
	user.SoftDelete()
	if err := uc.users.Save(ctx, nil, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	uc.log.Info().Str("user_id", userID).Msg("account soft-deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
