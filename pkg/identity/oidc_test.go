package identity

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientID = "test-client-id"

// fakeIssuer serves discovery and a token endpoint. ID tokens are unsigned;
// tests verify them with signature checks disabled.
type fakeIssuer struct {
	server *httptest.Server

	mu            sync.Mutex
	nonce         string
	codeChallenge string
	tokenCalls    int
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	f := &fakeIssuer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                f.server.URL,
			"authorization_endpoint":                f.server.URL + "/authorize",
			"token_endpoint":                        f.server.URL + "/token",
			"jwks_uri":                              f.server.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", f.handleToken)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIssuer) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != f.codeChallenge {
		writeTokenError(w, "invalid_grant")
		return
	}
	if r.PostForm.Get("code") != "good-code" {
		writeTokenError(w, "invalid_grant")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  "access",
		"token_type":    "Bearer",
		"refresh_token": "refresh",
		"expires_in":    3600,
		"id_token": unsignedJWT(map[string]interface{}{
			"iss":            f.server.URL,
			"aud":            testClientID,
			"sub":            "user-123",
			"email":          "a@b.com",
			"email_verified": true,
			"name":           "Ada",
			"nonce":          f.nonce,
			"iat":            time.Now().Unix(),
			"exp":            time.Now().Add(time.Hour).Unix(),
		}),
	})
}

func writeTokenError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func unsignedJWT(claims map[string]interface{}) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, _ := json.Marshal(claims)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

type recordingNavigator struct {
	urls []string
	err  error
}

func (n *recordingNavigator) Navigate(ctx context.Context, u string) error {
	n.urls = append(n.urls, u)
	return n.err
}

func setupOIDC(t *testing.T) (*OIDCProvider, *fakeIssuer, *MemoryRedirectStore, *recordingNavigator) {
	t.Helper()
	issuer := newFakeIssuer(t)

	oauth2Config := &oauth2.Config{
		ClientID:    testClientID,
		Endpoint:    oauth2.Endpoint{AuthURL: issuer.server.URL + "/authorize", TokenURL: issuer.server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		RedirectURL: "http://localhost:8085/auth/callback",
		Scopes:      []string{oidc.ScopeOpenID},
	}
	verifier := oidc.NewVerifier(issuer.server.URL, &oidc.StaticKeySet{}, &oidc.Config{
		ClientID:                   testClientID,
		InsecureSkipSignatureCheck: true,
	})

	store := NewMemoryRedirectStore(time.Minute)
	nav := &recordingNavigator{}
	provider := newOIDCProvider(oauth2Config, verifier, store, nav, buildOptions([]Option{WithHTTPClient(issuer.server.Client())}))
	return provider, issuer, store, nav
}

func googleSelectAccount() *GoogleAuthProvider {
	return NewGoogleAuthProvider().
		AddScope("email").
		SetCustomParameters(map[string]string{"prompt": "select_account"})
}

func startRedirect(t *testing.T, provider *OIDCProvider, issuer *fakeIssuer, nav *recordingNavigator) url.Values {
	t.Helper()
	require.NoError(t, provider.SignInWithRedirect(context.Background(), googleSelectAccount()))
	require.Len(t, nav.urls, 1)

	u, err := url.Parse(nav.urls[0])
	require.NoError(t, err)
	query := u.Query()

	issuer.mu.Lock()
	issuer.nonce = query.Get("nonce")
	issuer.codeChallenge = query.Get("code_challenge")
	issuer.mu.Unlock()
	return query
}

func TestOIDCProvider_SignInWithRedirect_AuthURL(t *testing.T) {
	provider, issuer, _, nav := setupOIDC(t)
	query := startRedirect(t, provider, issuer, nav)

	assert.True(t, strings.HasPrefix(nav.urls[0], issuer.server.URL+"/authorize?"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "openid email", query.Get("scope"))
	assert.Equal(t, "select_account", query.Get("prompt"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("state"))
	assert.NotEmpty(t, query.Get("nonce"))
}

func TestOIDCProvider_FullRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider, issuer, store, nav := setupOIDC(t)
	query := startRedirect(t, provider, issuer, nav)

	require.NoError(t, store.Complete(ctx, CallbackParams{State: query.Get("state"), Code: "good-code"}))

	cred, err := provider.GetRedirectResult(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	require.NotNil(t, cred.User)

	assert.Equal(t, ProviderIDGoogle, cred.ProviderID)
	assert.Equal(t, "user-123", cred.User.UID)
	assert.Equal(t, "a@b.com", cred.User.Email)
	assert.Equal(t, "Ada", cred.User.DisplayName)
	assert.True(t, cred.User.EmailVerified)
	assert.Equal(t, "refresh", cred.User.RefreshToken)
	assert.NotEmpty(t, cred.User.IDToken)
	assert.Equal(t, cred.User, provider.CurrentUser())

	again, err := provider.GetRedirectResult(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, provider.SignOut(ctx))
	assert.Nil(t, provider.CurrentUser())
}

func TestOIDCProvider_NoRedirectYet(t *testing.T) {
	provider, issuer, _, _ := setupOIDC(t)

	cred, err := provider.GetRedirectResult(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
	assert.Zero(t, issuer.tokenCalls)
}

func TestOIDCProvider_AbandonedRedirect(t *testing.T) {
	provider, issuer, _, nav := setupOIDC(t)
	startRedirect(t, provider, issuer, nav)

	cred, err := provider.GetRedirectResult(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestOIDCProvider_CallbackErrors(t *testing.T) {
	tests := []struct {
		name     string
		params   func(state string) CallbackParams
		wantCode string
	}{
		{
			name:     "user cancelled",
			params:   func(s string) CallbackParams { return CallbackParams{State: s, Error: "access_denied"} },
			wantCode: CodeRedirectCancelled,
		},
		{
			name:     "server error",
			params:   func(s string) CallbackParams { return CallbackParams{State: s, Error: "server_error", ErrorDescription: "boom"} },
			wantCode: CodeRedirectFailed,
		},
		{
			name:     "bad code",
			params:   func(s string) CallbackParams { return CallbackParams{State: s, Code: "bad-code"} },
			wantCode: CodeInvalidCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			provider, issuer, store, nav := setupOIDC(t)
			query := startRedirect(t, provider, issuer, nav)

			require.NoError(t, store.Complete(ctx, tt.params(query.Get("state"))))

			cred, err := provider.GetRedirectResult(ctx)
			assert.Nil(t, cred)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
			assert.Nil(t, provider.CurrentUser())
		})
	}
}

func TestOIDCProvider_NonceMismatch(t *testing.T) {
	ctx := context.Background()
	provider, issuer, store, nav := setupOIDC(t)
	query := startRedirect(t, provider, issuer, nav)

	issuer.mu.Lock()
	issuer.nonce = "someone-elses-nonce"
	issuer.mu.Unlock()

	require.NoError(t, store.Complete(ctx, CallbackParams{State: query.Get("state"), Code: "good-code"}))

	_, err := provider.GetRedirectResult(ctx)
	assert.Equal(t, CodeInvalidIDToken, ErrorCode(err))
}

func TestOIDCProvider_NavigationFailure(t *testing.T) {
	provider, _, _, nav := setupOIDC(t)
	nav.err = errors.New("no browser")

	err := provider.SignInWithRedirect(context.Background(), nil)
	assert.Equal(t, CodeRedirectFailed, ErrorCode(err))
	assert.ErrorIs(t, err, nav.err)
}

func TestNewOIDCProvider_Discovery(t *testing.T) {
	issuer := newFakeIssuer(t)
	nav := &recordingNavigator{}

	provider, err := NewOIDCProvider(context.Background(), OIDCConfig{
		IssuerURL:   issuer.server.URL,
		ClientID:    testClientID,
		RedirectURL: "http://localhost:8085/auth/callback",
	}, NewMemoryRedirectStore(time.Minute), nav, WithHTTPClient(issuer.server.Client()))
	require.NoError(t, err)

	assert.Equal(t, issuer.server.URL+"/authorize", provider.oauth2Config.Endpoint.AuthURL)
	assert.Equal(t, issuer.server.URL+"/token", provider.oauth2Config.Endpoint.TokenURL)
	assert.Equal(t, []string{oidc.ScopeOpenID}, provider.oauth2Config.Scopes)
}

func TestNewOIDCProvider_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OIDCConfig
		wantErr string
	}{
		{"missing issuer", OIDCConfig{ClientID: "c", RedirectURL: "http://x"}, "issuer_url is required"},
		{"missing client", OIDCConfig{IssuerURL: "http://x", RedirectURL: "http://x"}, "client_id is required"},
		{"missing redirect", OIDCConfig{IssuerURL: "http://x", ClientID: "c"}, "redirect_url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOIDCProvider(context.Background(), tt.cfg, nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeScopes(t *testing.T) {
	assert.Equal(t, []string{"openid", "email", "profile"}, mergeScopes([]string{"openid", "email"}, []string{"email", "profile"}))
}
