package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAccountDeleted     = errors.New("account has been deleted")
	ErrAccountNotVerified = errors.New("account email not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPInvalid         = errors.New("invalid or expired otp")
	ErrBadSignature       = errors.New("invalid ipn signature")
	ErrAmountMismatch     = errors.New("paid amount does not match expected amount")
	ErrRateLimited        = errors.New("too many requests")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
