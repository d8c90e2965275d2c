// Package common defines shared constants and sentinel errors used across
// the server and client layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Error classes. Every error returned by a service belongs to exactly one
	// of these and transports map them to a status code.
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorNotFound     = errors.New("not found")
	ErrorConflict     = errors.New("already exists")
	ErrorInternal     = errors.New("internal error")

	// Credential errors.
	ErrMissingCredential  = fmt.Errorf("%w: missing credential", ErrorUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid user credentials", ErrorNotFound)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrorValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password too long", ErrorValidation)

	// Token verification sub-reasons.
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrTokenMalformed     = fmt.Errorf("%w: token malformed", ErrorUnauthorized)
	ErrTokenSignature     = fmt.Errorf("%w: token signature invalid", ErrorUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrorUnauthorized)
	ErrRefreshTokenReused = fmt.Errorf("%w: refresh token is expired or used", ErrorUnauthorized)
)
