// Package common defines shared constants and sentinel errors used across
// the Trackify server, HTTP API and CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal            = errors.New("internal error")
	ErrorUnauthorized        = errors.New("unauthorized")
	ErrorValidation          = errors.New("validation error")
	ErrorInsufficientBalance = errors.New("insufficient balance")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
