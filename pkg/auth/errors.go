package auth

import "errors"

var (
	// ErrAuthUnavailable is returned by every operation when authentication is disabled
	ErrAuthUnavailable = errors.New("authentication is not available")

	// ErrNoCredential is returned when a redirect round-trip produced no signed-in user
	ErrNoCredential = errors.New("no credential available")
)
