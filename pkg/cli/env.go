package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/signon/pkg/auth"
	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/observability"
	"github.com/platinummonkey/signon/pkg/prompt"
	"github.com/platinummonkey/signon/pkg/session"
)

// Env is everything a command needs from the process
type Env struct {
	Config config.Config

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger         *observability.Logger
	Metrics        *observability.Metrics
	Registry       *prometheus.Registry
	TracerProvider trace.TracerProvider

	// Providers builds the external collaborators. Zero fields fall back to
	// DefaultProviders.
	Providers Providers
}

// Providers construct the identity providers and session backend
type Providers struct {
	Redirect func(ctx context.Context, cfg identity.OIDCConfig, store identity.RedirectStore, nav identity.Navigator, opts ...identity.Option) (identity.RedirectProvider, error)
	Password func(addr, apiKey string, opts ...identity.Option) identity.PasswordProvider
	Sessions func(baseURL string, opts ...session.Option) (session.Backend, error)
}

// DefaultProviders talk to the real identity provider and backend
func DefaultProviders() Providers {
	return Providers{
		Redirect: func(ctx context.Context, cfg identity.OIDCConfig, store identity.RedirectStore, nav identity.Navigator, opts ...identity.Option) (identity.RedirectProvider, error) {
			return identity.NewOIDCProvider(ctx, cfg, store, nav, opts...)
		},
		Password: func(addr, apiKey string, opts ...identity.Option) identity.PasswordProvider {
			return identity.NewEmulatorProvider(addr, apiKey, opts...)
		},
		Sessions: func(baseURL string, opts ...session.Option) (session.Backend, error) {
			return session.NewHTTPBackend(baseURL, opts...)
		},
	}
}

// runtime is a facade plus the pieces the login command drives directly
type runtime struct {
	facade   *auth.Facade
	store    identity.RedirectStore
	callback *identity.CallbackHandler
	close    func()
}

// build wires a facade for the configured strategy
func (e *Env) build(ctx context.Context) (*runtime, error) {
	cfg := e.Config
	logger := e.logger()
	providers := e.providers()
	kind := auth.SelectStrategy(cfg.Auth.Enabled, cfg.Auth.EmulatorEnabled)

	rt := &runtime{close: func() {}}
	deps := auth.Dependencies{
		Logger:         logger,
		Metrics:        e.Metrics,
		TracerProvider: e.TracerProvider,
	}

	if kind != auth.StrategyDisabled {
		sessions, err := providers.Sessions(cfg.Session.URL,
			session.WithTimeout(cfg.Session.Timeout),
			session.WithMetrics(e.Metrics),
			session.WithLogger(logger.WithField("component", "session")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create session backend: %w", err)
		}
		deps.Sessions = sessions
	}

	idOpts := []identity.Option{identity.WithLogger(logger.WithField("component", "identity"))}

	switch kind {
	case auth.StrategyEmulated:
		deps.Password = providers.Password(cfg.Auth.EmulatorAddr(), cfg.Auth.Provider.APIKey, idOpts...)
		deps.Prompter = &prompt.ReaderPrompter{In: e.stdin(), Out: e.stderr()}

	case auth.StrategyLive:
		store, closeStore, err := newRedirectStore(ctx, cfg.RedirectStore)
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.close = closeStore

		p := cfg.Auth.Provider
		redirect, err := providers.Redirect(ctx, identity.OIDCConfig{
			IssuerURL:    p.IssuerURL,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
		}, store, identity.WriterNavigator{W: e.stderr()}, idOpts...)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("failed to create redirect provider: %w", err)
		}
		deps.Redirect = redirect

		callback, err := identity.NewCallbackHandler(store, p.RedirectURL, logger.WithField("component", "callback"))
		if err != nil {
			closeStore()
			return nil, err
		}
		rt.callback = callback
	}

	facade, err := auth.New(cfg.Auth, deps)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.facade = facade
	return rt, nil
}

func (e *Env) providers() Providers {
	p := e.Providers
	d := DefaultProviders()
	if p.Redirect == nil {
		p.Redirect = d.Redirect
	}
	if p.Password == nil {
		p.Password = d.Password
	}
	if p.Sessions == nil {
		p.Sessions = d.Sessions
	}
	return p
}

func (e *Env) logger() *observability.Logger {
	if e.Logger == nil {
		return observability.NopLogger()
	}
	return e.Logger
}

func (e *Env) stdin() io.Reader {
	if e.Stdin == nil {
		return os.Stdin
	}
	return e.Stdin
}

func (e *Env) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Env) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}
