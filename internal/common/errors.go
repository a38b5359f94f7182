// Package common defines shared sentinel errors used across DropVault
// components. Callers should use errors.Is to match these values; the
// transport layer maps them to protocol status codes.
package common

import "errors"

var (
	// repository-level errors
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// service-level errors
	ErrorInvalidInput = errors.New("invalid input")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInternal     = errors.New("internal error")

	// backing-service unavailability; the only condition callers may
	// reasonably retry with backoff
	ErrorUnavailable = errors.New("service unavailable")

	// token lifecycle errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
