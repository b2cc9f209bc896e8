package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/session"
)

// fakeBackend records session calls
type fakeBackend struct {
	mu     sync.Mutex
	tokens []string
	ends   int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != session.SessionPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var body struct {
			IDToken string `json:"idToken"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.tokens = append(f.tokens, body.IDToken)
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		f.ends++
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeBackend) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func startBackend(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	backend := &fakeBackend{}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return backend, server.URL
}

// startEmulator serves the emulator's password endpoints for any account
func startEmulator(t *testing.T) string {
	t.Helper()
	var mu sync.Mutex
	accounts := map[string]bool{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		var req struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		writeErr := func(message string) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"error":{"code":400,"message":%q}}`, message)
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "accounts:signUp"):
			accounts[req.Email] = true
		case strings.HasSuffix(r.URL.Path, "accounts:signInWithPassword"):
			if !accounts[req.Email] {
				writeErr("EMAIL_NOT_FOUND")
				return
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"localId":"uid-%s","email":%q,"idToken":"emu-token-%s"}`, req.Email, req.Email, req.Email)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// loopbackRedirect completes its own redirect by calling the callback URL,
// the way a browser would after the identity provider's consent screen
type loopbackRedirect struct {
	store       identity.RedirectStore
	redirectURL string
	navigate    bool
}

func (l *loopbackRedirect) SignInWithRedirect(ctx context.Context, provider *identity.GoogleAuthProvider) error {
	if err := l.store.SavePending(ctx, identity.PendingRedirect{State: "state-1"}); err != nil {
		return err
	}
	if l.navigate {
		go func() {
			resp, err := http.Get(l.redirectURL + "?state=state-1&code=code-1")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	return nil
}

func (l *loopbackRedirect) GetRedirectResult(ctx context.Context) (*identity.Credential, error) {
	completed, err := l.store.Take(ctx)
	if err != nil || completed == nil {
		return nil, err
	}
	return &identity.Credential{
		User:       &identity.User{UID: "u1", IDToken: "live-token-" + completed.Code},
		ProviderID: identity.ProviderIDGoogle,
	}, nil
}

func (l *loopbackRedirect) SignOut(ctx context.Context) error {
	return l.store.Clear(ctx)
}

func freeRedirectURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr + "/auth/callback"
}

func liveConfig(t *testing.T, sessionURL string) config.Config {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.Provider.ClientID = "client"
	cfg.Auth.Provider.RedirectURL = freeRedirectURL(t)
	cfg.Session.URL = sessionURL
	return cfg
}

func emulatedConfig(sessionURL string) config.Config {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.EmulatorEnabled = true
	cfg.Auth.Provider.APIKey = "fake-api-key"
	cfg.Auth.Provider.ProjectID = "demo-project"
	cfg.Session.URL = sessionURL
	return cfg
}

type testEnv struct {
	*Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(cfg config.Config, stdin string) *testEnv {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Env: &Env{
			Config: cfg,
			Stdin:  strings.NewReader(stdin),
			Stdout: stdout,
			Stderr: stderr,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// withEmulator points the password provider at a fake emulator
func (e *testEnv) withEmulator(url string) *testEnv {
	e.Providers.Password = func(addr, apiKey string, opts ...identity.Option) identity.PasswordProvider {
		return identity.NewEmulatorProvider(url, apiKey, opts...)
	}
	return e
}

// withLoopback uses loopbackRedirect as the redirect provider
func (e *testEnv) withLoopback(navigate bool) *testEnv {
	e.Providers.Redirect = func(ctx context.Context, cfg identity.OIDCConfig, store identity.RedirectStore, nav identity.Navigator, opts ...identity.Option) (identity.RedirectProvider, error) {
		return &loopbackRedirect{store: store, redirectURL: cfg.RedirectURL, navigate: navigate}, nil
	}
	return e
}
