package auth

import (
	"context"

	"github.com/platinummonkey/signon/pkg/identity"
)

// Live signs in through the production identity provider's redirect flow
type Live struct {
	provider identity.RedirectProvider
}

// NewLive creates the production strategy
func NewLive(provider identity.RedirectProvider) *Live {
	return &Live{provider: provider}
}

func (l *Live) Kind() StrategyKind { return StrategyLive }

// BeginRedirectSignIn sends the operator to the provider's account chooser.
// The sign-in finishes out of band, so once navigation has started this only
// returns when ctx is done, with ctx.Err(). Navigation failures are returned
// straight away.
func (l *Live) BeginRedirectSignIn(ctx context.Context) error {
	google := identity.NewGoogleAuthProvider().
		AddScope("email").
		SetCustomParameters(map[string]string{"prompt": "select_account"})

	if err := l.provider.SignInWithRedirect(ctx, google); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// RetrieveRedirectResult returns the credential from the most recent redirect
func (l *Live) RetrieveRedirectResult(ctx context.Context) (*identity.Credential, error) {
	return l.provider.GetRedirectResult(ctx)
}

func (l *Live) SignOut(ctx context.Context) error {
	return l.provider.SignOut(ctx)
}
