// Package common defines shared constants and sentinel errors used across
// the shopkeeper server and its tools. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Startup errors. A process that sees this must not serve traffic.
	ErrConfiguration = errors.New("configuration error")

	// Input-shape errors, raised before any cryptographic work.
	ErrValidation = errors.New("validation error")

	// Registration errors.
	ErrDuplicateEmail = errors.New("email already registered")

	// Auth errors (expired, malformed or badly signed token).
	ErrInvalidToken = errors.New("invalid token")
)
