package auth

import (
	"context"

	"github.com/platinummonkey/signon/pkg/identity"
)

// Strategy is one way of signing the operator in
type Strategy interface {
	Kind() StrategyKind

	// BeginRedirectSignIn starts a sign-in that completes out of band
	BeginRedirectSignIn(ctx context.Context) error

	// RetrieveRedirectResult returns the credential produced by the last
	// sign-in, or nil when there is none
	RetrieveRedirectResult(ctx context.Context) (*identity.Credential, error)

	SignOut(ctx context.Context) error
}

// Disabled is used when authentication is turned off
type Disabled struct{}

func (Disabled) Kind() StrategyKind { return StrategyDisabled }

func (Disabled) BeginRedirectSignIn(ctx context.Context) error {
	return ErrAuthUnavailable
}

func (Disabled) RetrieveRedirectResult(ctx context.Context) (*identity.Credential, error) {
	return nil, ErrAuthUnavailable
}

func (Disabled) SignOut(ctx context.Context) error {
	return ErrAuthUnavailable
}
