// Package common defines shared constants and sentinel errors used across
// plantops layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Authorization errors.
	ErrPrincipalNotProvisioned = errors.New("principal not provisioned")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrRoleRequired            = errors.New("role required")

	// Task master / instance errors.
	ErrTemplateNotFound   = errors.New("task master not found")
	ErrTemplateValidation = errors.New("task master validation error")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrValidation         = errors.New("validation error")

	// Generation errors.
	ErrGenerationStep   = errors.New("generation step failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrLockNotAcquired  = errors.New("lock not acquired")
)
