package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/signon/pkg/httputil"
	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/observability"
)

// callbackServer is the loopback HTTP server the identity provider redirects
// the browser back to
type callbackServer struct {
	server   *http.Server
	listener net.Listener
	logger   *observability.Logger
}

// listenAddr returns host:port to listen on for a redirect URL
func listenAddr(redirectURL string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("redirect URL %q has no host", redirectURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func startCallbackServer(env *Env, callback *identity.CallbackHandler, health *observability.HealthChecker) (*callbackServer, error) {
	addr, err := listenAddr(env.Config.Auth.Provider.RedirectURL)
	if err != nil {
		return nil, err
	}

	logger := env.logger().WithField("component", "callback_server")

	router := mux.NewRouter()
	router.Use(httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
	))
	callback.RegisterRoutes(router)
	if health != nil {
		router.Handle("/healthz", health).Methods(http.MethodGet)
	}
	if env.Registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(env.Registry)).Methods(http.MethodGet)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &callbackServer{
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   logger.WithField("addr", listener.Addr().String()),
	}

	go func() {
		defer observability.RecoverPanic(s.logger, "callback server")
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Callback server stopped")
		}
	}()

	s.logger.Debug("Callback server listening")
	return s, nil
}

func (s *callbackServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *callbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
