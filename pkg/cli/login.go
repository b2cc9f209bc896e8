package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/signon/pkg/auth"
	"github.com/platinummonkey/signon/pkg/observability"
)

const (
	defaultLoginTimeout     = 5 * time.Minute
	callbackShutdownTimeout = 5 * time.Second
)

func newLoginCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Sign in and start a backend session",
		Flags:       env.newFlagSet("login"),
	}
	cmd.Flags.Duration("timeout", defaultLoginTimeout, "How long to wait for the browser to return")
	cmd.Run = func(ctx context.Context, args []string) error {
		return runLogin(ctx, env, cmd, args)
	}
	return cmd
}

func runLogin(ctx context.Context, env *Env, cmd *Command, args []string) error {
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	timeout, err := time.ParseDuration(cmd.Flags.Lookup("timeout").Value.String())
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	rt, err := env.build(ctx)
	if err != nil {
		return err
	}

	if rt.callback != nil {
		server, err := startCallbackServer(env, rt.callback, newHealthChecker(env.Config, rt.store))
		if err != nil {
			rt.close()
			return err
		}
		defer stopLogin(ctx, server, rt.close, env.logger())

		if err := waitForRedirect(ctx, rt, timeout); err != nil {
			return err
		}
	} else {
		defer rt.close()
		if err := rt.facade.SignInWithRedirect(ctx); err != nil {
			return err
		}
	}

	if err := rt.facade.HandleRedirectResult(ctx); err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			return fmt.Errorf("sign-in did not complete: %w", err)
		}
		return err
	}

	fmt.Fprintln(env.stdout(), "Signed in.")
	return nil
}

// stopLogin drains the callback server, then closes the redirect store its
// handlers write to
func stopLogin(ctx context.Context, server *callbackServer, closeStore func(), logger *observability.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), callbackShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Callback server shutdown failed")
	}
	closeStore()
}

// waitForRedirect runs the redirect sign-in until the callback handler has
// recorded a result
func waitForRedirect(ctx context.Context, rt *runtime, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rt.callback.OnComplete(cancel)

	err := rt.facade.SignInWithRedirect(waitCtx)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("timed out after %s waiting for sign-in", timeout)
	default:
		return err
	}
}
