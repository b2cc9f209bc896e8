package identity

import (
	"errors"
	"fmt"
)

// ProviderIDGoogle identifies credentials produced by the Google redirect flow
const ProviderIDGoogle = "google.com"

// ProviderIDPassword identifies credentials produced by email/password sign-in
const ProviderIDPassword = "password"

// User is an authenticated identity
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	IDToken       string `json:"-"`
	RefreshToken  string `json:"-"`
}

// Credential is the result of a sign-in. User is nil when the sign-in
// finished without an authenticated identity.
type Credential struct {
	User       *User
	ProviderID string
}

// Error codes reported by identity providers
const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeRedirectFailed    = "auth/redirect-failed"
	CodeRedirectCancelled = "auth/redirect-cancelled-by-user"
	CodeInvalidState      = "auth/invalid-state"
	CodeInvalidIDToken    = "auth/invalid-id-token"
	CodeInternalError     = "auth/internal-error"
)

// ProviderError is a failure reported by an identity provider
type ProviderError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the provider error code carried by err, or "" if err
// is not a *ProviderError
func ErrorCode(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// IsUserNotFound reports whether err means the identity does not exist
func IsUserNotFound(err error) bool {
	return ErrorCode(err) == CodeUserNotFound
}
