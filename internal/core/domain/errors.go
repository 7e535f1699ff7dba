package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrStorage        = errors.New("storage error")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is not active")
	ErrTokenExpired       = errors.New("refresh token has expired")
	ErrTokenRevoked       = errors.New("refresh token has been revoked")
)

// Lending errors
var (
	ErrCopyUnavailable   = errors.New("copy is not available for issue")
	ErrAgeRestricted     = errors.New("reader is below the age limit of this book")
	ErrNoActiveLoan      = errors.New("no active loan")
	ErrInvalidTransition = errors.New("invalid copy status transition")
)

// Renewal errors
var (
	ErrRenewalLimitExceeded = errors.New("renewal limit exceeded")
	ErrStaleRequest         = errors.New("renew request is no longer pending")
)

// Event errors
var (
	ErrEventFull = errors.New("event is full")
)
