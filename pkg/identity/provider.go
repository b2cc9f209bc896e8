package identity

import (
	"context"
	"sort"
)

// RedirectProvider signs users in by navigating to a provider-hosted page
// and reading the outcome once control comes back
type RedirectProvider interface {
	// SignInWithRedirect starts the redirect. It returns once navigation
	// has been handed off.
	SignInWithRedirect(ctx context.Context, provider *GoogleAuthProvider) error

	// GetRedirectResult returns the credential produced by the most recent
	// redirect round-trip, or nil when there is none
	GetRedirectResult(ctx context.Context) (*Credential, error)

	SignOut(ctx context.Context) error
}

// PasswordProvider signs users in with an email and password
type PasswordProvider interface {
	SignInWithEmailAndPassword(ctx context.Context, email, password string) (*Credential, error)
	CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*Credential, error)
	SignOut(ctx context.Context) error
}

// GoogleAuthProvider describes a Google account sign-in request
type GoogleAuthProvider struct {
	scopes map[string]struct{}
	params map[string]string
}

// NewGoogleAuthProvider returns a provider with no extra scopes or parameters
func NewGoogleAuthProvider() *GoogleAuthProvider {
	return &GoogleAuthProvider{
		scopes: make(map[string]struct{}),
		params: make(map[string]string),
	}
}

// AddScope requests an additional OAuth scope
func (p *GoogleAuthProvider) AddScope(scope string) *GoogleAuthProvider {
	p.scopes[scope] = struct{}{}
	return p
}

// SetCustomParameters replaces the extra authorization request parameters
func (p *GoogleAuthProvider) SetCustomParameters(params map[string]string) *GoogleAuthProvider {
	p.params = make(map[string]string, len(params))
	for k, v := range params {
		p.params[k] = v
	}
	return p
}

// Scopes returns the requested scopes in sorted order
func (p *GoogleAuthProvider) Scopes() []string {
	scopes := make([]string, 0, len(p.scopes))
	for s := range p.scopes {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// CustomParameters returns a copy of the extra authorization parameters
func (p *GoogleAuthProvider) CustomParameters() map[string]string {
	params := make(map[string]string, len(p.params))
	for k, v := range p.params {
		params[k] = v
	}
	return params
}
