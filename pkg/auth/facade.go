package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/observability"
	"github.com/platinummonkey/signon/pkg/prompt"
	"github.com/platinummonkey/signon/pkg/session"
)

const tracerName = "github.com/platinummonkey/signon/pkg/auth"

// Operation names used for spans and metrics
const (
	opHandleRedirectResult = "handle_redirect_result"
	opSignInWithRedirect   = "sign_in_with_redirect"
	opSignOut              = "sign_out"
)

// Dependencies are the collaborators a Facade is built from. Only the ones
// the selected strategy uses need to be set.
type Dependencies struct {
	// Redirect is required for the live strategy
	Redirect identity.RedirectProvider

	// Password and Prompter are required for the emulated strategy
	Password identity.PasswordProvider
	Prompter prompt.Prompter

	// Sessions is required whenever authentication is enabled
	Sessions session.Backend

	Logger         *observability.Logger
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider

	// Audit receives sign-in and sign-out events. Defaults to Logger.
	Audit *AuditLogger
}

// Facade is the single entry point for signing in and out. It owns one
// strategy, chosen at construction and never replaced.
type Facade struct {
	cfg      config.AuthConfig
	strategy Strategy
	sessions session.Backend
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
	audit    *AuditLogger
}

// New selects a strategy from cfg and builds the facade around it
func New(cfg config.AuthConfig, deps Dependencies) (*Facade, error) {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	kind := SelectStrategy(cfg.Enabled, cfg.EmulatorEnabled)

	var strategy Strategy
	switch kind {
	case StrategyEmulated:
		if deps.Password == nil || deps.Prompter == nil {
			return nil, fmt.Errorf("emulated strategy requires a password provider and a prompter")
		}
		strategy = NewEmulated(deps.Password, deps.Prompter, logger)
	case StrategyLive:
		if deps.Redirect == nil {
			return nil, fmt.Errorf("live strategy requires a redirect provider")
		}
		strategy = NewLive(deps.Redirect)
	default:
		strategy = Disabled{}
	}

	sessions := deps.Sessions
	if sessions == nil {
		if kind != StrategyDisabled {
			return nil, fmt.Errorf("%s strategy requires a session backend", kind)
		}
		sessions = unavailableBackend{}
	}

	audit := deps.Audit
	if audit == nil {
		audit = NewAuditLogger(logger)
	}

	logger.WithField("strategy", kind.String()).Info("Authentication strategy selected")

	return &Facade{
		cfg:      cfg,
		strategy: strategy,
		sessions: sessions,
		logger:   logger.WithField("strategy", kind.String()),
		metrics:  deps.Metrics,
		tracer:   tp.Tracer(tracerName),
		audit:    audit,
	}, nil
}

// HandleRedirectResult completes a sign-in: the credential from the last
// redirect is exchanged for a backend session. ErrNoCredential is returned,
// without contacting the backend, when no user signed in.
func (f *Facade) HandleRedirectResult(ctx context.Context) (err error) {
	event := &AuditEvent{Action: ActionSignInCompleted}
	ctx, finish := f.start(ctx, opHandleRedirectResult, "auth.HandleRedirectResult", event)
	defer func() { finish(err) }()

	cred, err := f.strategy.RetrieveRedirectResult(ctx)
	if err != nil {
		return err
	}
	if cred == nil || cred.User == nil {
		f.logger.Debug("Redirect result carried no user")
		return ErrNoCredential
	}

	event.UserID = cred.User.UID
	event.ProviderID = cred.ProviderID
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("auth.provider_id", cred.ProviderID))

	if err := f.sessions.BeginSession(ctx, cred.User.IDToken); err != nil {
		return err
	}

	f.logger.WithField("uid", cred.User.UID).Info("Session started")
	return nil
}

// SignInWithRedirect starts a sign-in with the active strategy. For the live
// strategy this only returns once ctx is done.
func (f *Facade) SignInWithRedirect(ctx context.Context) (err error) {
	ctx, finish := f.start(ctx, opSignInWithRedirect, "auth.SignInWithRedirect", &AuditEvent{Action: ActionSignInStarted})
	defer func() { finish(err) }()

	return f.strategy.BeginRedirectSignIn(ctx)
}

// SignOut signs out of the identity provider and ends the backend session at
// the same time. Both calls always run; the first failure is returned.
func (f *Facade) SignOut(ctx context.Context) (err error) {
	ctx, finish := f.start(ctx, opSignOut, "auth.SignOut", &AuditEvent{Action: ActionSignOut})
	defer func() { finish(err) }()

	var g errgroup.Group
	g.Go(func() error {
		if err := f.strategy.SignOut(ctx); err != nil {
			f.logger.WithError(err).Warn("Provider sign-out failed")
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := f.sessions.EndSession(ctx); err != nil {
			f.logger.WithError(err).Warn("Ending backend session failed")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	f.logger.Info("Signed out")
	return nil
}

// start opens a span for one operation and returns a func that records its
// outcome
func (f *Facade) start(ctx context.Context, operation, spanName string, event *AuditEvent) (context.Context, func(error)) {
	kind := f.strategy.Kind().String()
	ctx, span := f.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("auth.strategy", kind),
	))
	started := time.Now()

	return ctx, func(err error) {
		f.metrics.RecordAuthOperation(operation, kind, time.Since(started), err)

		event.Strategy = kind
		event.Status = auditStatus(err)
		if event.Status == StatusFailure {
			event.ErrorMessage = err.Error()
		}
		if auditErr := f.audit.LogAction(ctx, event); auditErr != nil {
			f.logger.WithError(auditErr).Warn("Failed to record audit event")
		}

		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case isCancelled(err):
			span.SetAttributes(attribute.Bool("auth.cancelled", true))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AuthEnabled reports whether authentication is turned on
func (f *Facade) AuthEnabled() bool { return f.cfg.Enabled }

// EmulatorEnabled reports whether the emulator strategy is active
func (f *Facade) EmulatorEnabled() bool { return f.cfg.Enabled && f.cfg.EmulatorEnabled }

// Strategy returns the kind of the active strategy
func (f *Facade) Strategy() StrategyKind { return f.strategy.Kind() }

// ProviderParams returns the identity-provider connection parameters
func (f *Facade) ProviderParams() config.ProviderParams { return f.cfg.Provider }

func (f *Facade) EmulatorHost() string { return config.EmulatorHost }

func (f *Facade) EmulatorPort() int { return config.EmulatorPort }

// EmulatorAddr returns host:port of the emulator
func (f *Facade) EmulatorAddr() string { return f.cfg.EmulatorAddr() }

// EmulatorURL returns the emulator's base URL
func (f *Facade) EmulatorURL() string { return "http://" + f.EmulatorAddr() }

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// unavailableBackend stands in for the session backend when auth is disabled
type unavailableBackend struct{}

func (unavailableBackend) BeginSession(ctx context.Context, idToken string) error {
	return ErrAuthUnavailable
}

func (unavailableBackend) EndSession(ctx context.Context) error {
	return ErrAuthUnavailable
}
