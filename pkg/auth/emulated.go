package auth

import (
	"context"
	"fmt"

	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/observability"
	"github.com/platinummonkey/signon/pkg/prompt"
)

// Emulated signs in against the local identity-provider emulator with an
// email typed by the operator
type Emulated struct {
	provider identity.PasswordProvider
	prompter prompt.Prompter
	logger   *observability.Logger
}

// NewEmulated creates the emulator strategy
func NewEmulated(provider identity.PasswordProvider, prompter prompt.Prompter, logger *observability.Logger) *Emulated {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Emulated{provider: provider, prompter: prompter, logger: logger}
}

func (e *Emulated) Kind() StrategyKind { return StrategyEmulated }

// BeginRedirectSignIn does nothing; the emulator has no redirect step
func (e *Emulated) BeginRedirectSignIn(ctx context.Context) error {
	return nil
}

// RetrieveRedirectResult prompts for an email and signs in with the derived
// password, creating the account first if the emulator does not know it
func (e *Emulated) RetrieveRedirectResult(ctx context.Context) (*identity.Credential, error) {
	email, err := e.prompter.PromptEmail(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}
	password := DerivePassword(email)

	cred, err := e.provider.SignInWithEmailAndPassword(ctx, email, password)
	if err == nil {
		return cred, nil
	}
	if !identity.IsUserNotFound(err) {
		return nil, err
	}

	e.logger.WithField("email", email).Info("Creating emulator account")
	if _, err := e.provider.CreateUserWithEmailAndPassword(ctx, email, password); err != nil {
		return nil, err
	}

	return e.provider.SignInWithEmailAndPassword(ctx, email, password)
}

func (e *Emulated) SignOut(ctx context.Context) error {
	return e.provider.SignOut(ctx)
}
