package identity

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/signon/pkg/observability"
)

// CallbackHandler receives the provider's redirect back to the application
// and records it in the redirect store
type CallbackHandler struct {
	store      RedirectStore
	path       string
	logger     *observability.Logger

	mu         sync.RWMutex
	onComplete func()
}

// NewCallbackHandler serves the path component of redirectURL
func NewCallbackHandler(store RedirectStore, redirectURL string, logger *observability.Logger) (*CallbackHandler, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &CallbackHandler{
		store:  store,
		path:   path,
		logger: logger,
	}, nil
}

// Path returns the route the handler is mounted on
func (h *CallbackHandler) Path() string {
	return h.path
}

// OnComplete registers fn to run after each recorded callback. It may be
// called while the handler is serving.
func (h *CallbackHandler) OnComplete(fn func()) {
	h.mu.Lock()
	h.onComplete = fn
	h.mu.Unlock()
}

// RegisterRoutes registers the callback route
func (h *CallbackHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(h.path, h.handleCallback).Methods("GET")
}

// handleCallback handles GET <redirect path>
func (h *CallbackHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := CallbackParams{
		State:            query.Get("state"),
		Code:             query.Get("code"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	if params.State == "" {
		http.Error(w, "missing state parameter", http.StatusBadRequest)
		return
	}
	if params.Code == "" && params.Error == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	err := h.store.Complete(r.Context(), params)
	if errors.Is(err, ErrUnknownState) {
		h.logger.Warn("Redirect callback with unknown state")
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to record redirect callback")
		http.Error(w, "failed to record sign-in", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if params.Error != "" {
		fmt.Fprintf(w, "Sign-in was not completed (%s). You can close this window.\n", params.Error)
	} else {
		fmt.Fprintln(w, "Sign-in complete. You can close this window.")
	}

	h.mu.RLock()
	onComplete := h.onComplete
	h.mu.RUnlock()
	if onComplete != nil {
		onComplete()
	}
}
