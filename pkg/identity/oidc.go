package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/platinummonkey/signon/pkg/observability"
)

// OIDCConfig holds OpenID Connect client configuration
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider implements RedirectProvider with the authorization code flow
// against an OpenID Connect issuer
type OIDCProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	store        RedirectStore
	navigator    Navigator
	httpClient   *http.Client
	logger       *observability.Logger

	mu      sync.RWMutex
	current *User
}

// NewOIDCProvider discovers the issuer and creates a redirect provider
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, store RedirectStore, navigator Navigator, opts ...Option) (*OIDCProvider, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("issuer_url is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client_id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect_url is required")
	}

	o := buildOptions(opts)

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, o.httpClient), cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID},
	}

	return newOIDCProvider(oauth2Config, verifier, store, navigator, o), nil
}

func newOIDCProvider(oauth2Config *oauth2.Config, verifier *oidc.IDTokenVerifier, store RedirectStore, navigator Navigator, o options) *OIDCProvider {
	return &OIDCProvider{
		oauth2Config: oauth2Config,
		verifier:     verifier,
		store:        store,
		navigator:    navigator,
		httpClient:   o.httpClient,
		logger:       o.logger,
	}
}

// SignInWithRedirect saves a pending redirect and navigates to the issuer's
// authorization endpoint
func (p *OIDCProvider) SignInWithRedirect(ctx context.Context, provider *GoogleAuthProvider) error {
	if provider == nil {
		provider = NewGoogleAuthProvider()
	}

	state, err := randomToken(32)
	if err != nil {
		return &ProviderError{Code: CodeRedirectFailed, Message: "failed to generate state", Err: err}
	}
	nonce, err := randomToken(16)
	if err != nil {
		return &ProviderError{Code: CodeRedirectFailed, Message: "failed to generate nonce", Err: err}
	}

	pending := PendingRedirect{
		State:     state,
		Verifier:  oauth2.GenerateVerifier(),
		Nonce:     nonce,
		CreatedAt: time.Now(),
	}
	if err := p.store.SavePending(ctx, pending); err != nil {
		return fmt.Errorf("failed to save pending redirect: %w", err)
	}

	authURL := p.authCodeURL(pending, provider)
	p.logger.WithField("state", state).Debug("Navigating to identity provider")

	if err := p.navigator.Navigate(ctx, authURL); err != nil {
		return &ProviderError{Code: CodeRedirectFailed, Message: err.Error(), Err: err}
	}
	return nil
}

func (p *OIDCProvider) authCodeURL(pending PendingRedirect, provider *GoogleAuthProvider) string {
	cfg := *p.oauth2Config
	cfg.Scopes = mergeScopes(p.oauth2Config.Scopes, provider.Scopes())

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(pending.Verifier),
		oidc.Nonce(pending.Nonce),
	}

	params := provider.CustomParameters()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, oauth2.SetAuthURLParam(k, params[k]))
	}

	return cfg.AuthCodeURL(pending.State, opts...)
}

// GetRedirectResult exchanges the code from the latest callback for a
// verified ID token
func (p *OIDCProvider) GetRedirectResult(ctx context.Context) (*Credential, error) {
	completed, err := p.store.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read redirect result: %w", err)
	}
	if completed == nil {
		return nil, nil
	}

	if completed.Error != "" {
		code := CodeRedirectFailed
		if completed.Error == "access_denied" {
			code = CodeRedirectCancelled
		}
		msg := completed.Error
		if completed.ErrorDescription != "" {
			msg = completed.Error + ": " + completed.ErrorDescription
		}
		return nil, &ProviderError{Code: code, Message: msg}
	}

	ctx = oidc.ClientContext(ctx, p.httpClient)

	token, err := p.oauth2Config.Exchange(ctx, completed.Code, oauth2.VerifierOption(completed.Pending.Verifier))
	if err != nil {
		return nil, &ProviderError{Code: CodeInvalidCredential, Message: "failed to exchange token", Err: err}
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, &ProviderError{Code: CodeInvalidIDToken, Message: "missing id_token in response"}
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, &ProviderError{Code: CodeInvalidIDToken, Message: "failed to verify ID token", Err: err}
	}
	if idToken.Nonce != completed.Pending.Nonce {
		return nil, &ProviderError{Code: CodeInvalidIDToken, Message: "nonce mismatch"}
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &ProviderError{Code: CodeInvalidIDToken, Message: "failed to parse claims", Err: err}
	}

	user := &User{
		UID:           idToken.Subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		EmailVerified: claims.EmailVerified,
		IDToken:       rawIDToken,
		RefreshToken:  token.RefreshToken,
	}

	p.mu.Lock()
	p.current = user
	p.mu.Unlock()

	p.logger.WithField("uid", user.UID).Debug("Redirect sign-in completed")

	return &Credential{User: user, ProviderID: ProviderIDGoogle}, nil
}

// SignOut forgets the current user and any redirect state
func (p *OIDCProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear redirect state: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil
func (p *OIDCProvider) CurrentUser() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func mergeScopes(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	scopes := make([]string, 0, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		scopes = append(scopes, s)
	}
	return scopes
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
