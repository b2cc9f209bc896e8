package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrUnknownState is returned when a callback carries a state that no
// pending redirect was saved under, or whose pending redirect expired
var ErrUnknownState = errors.New("unknown redirect state")

// PendingRedirect is what SignInWithRedirect remembers about a redirect in flight
type PendingRedirect struct {
	State     string    `json:"state"`
	Verifier  string    `json:"verifier"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
}

// CallbackParams are the query parameters the provider sends back
type CallbackParams struct {
	State            string
	Code             string
	Error            string
	ErrorDescription string
}

// CompletedRedirect pairs a pending redirect with the callback that answered it
type CompletedRedirect struct {
	Pending          PendingRedirect `json:"pending"`
	Code             string          `json:"code,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

// RedirectStore holds redirect state between navigating away and coming back.
// Only the most recent completed redirect is kept.
type RedirectStore interface {
	SavePending(ctx context.Context, pending PendingRedirect) error

	// Complete matches params.State against a pending redirect, consumes it
	// and records the outcome as the latest result
	Complete(ctx context.Context, params CallbackParams) error

	// Take returns and removes the latest result; nil when there is none
	Take(ctx context.Context) (*CompletedRedirect, error)

	// Clear drops all pending and completed redirects
	Clear(ctx context.Context) error
}

const (
	maxPendingRedirects = 64
	latestResultKey     = "latest"
)

// MemoryRedirectStore keeps redirect state in process with a TTL
type MemoryRedirectStore struct {
	mu      sync.Mutex
	pending *lru.LRU[string, PendingRedirect]
	results *lru.LRU[string, CompletedRedirect]
}

// NewMemoryRedirectStore creates a store whose entries expire after ttl
func NewMemoryRedirectStore(ttl time.Duration) *MemoryRedirectStore {
	return &MemoryRedirectStore{
		pending: lru.NewLRU[string, PendingRedirect](maxPendingRedirects, nil, ttl),
		results: lru.NewLRU[string, CompletedRedirect](1, nil, ttl),
	}
}

func (s *MemoryRedirectStore) SavePending(ctx context.Context, pending PendingRedirect) error {
	s.pending.Add(pending.State, pending)
	return nil
}

func (s *MemoryRedirectStore) Complete(ctx context.Context, params CallbackParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending.Get(params.State)
	if !ok {
		return ErrUnknownState
	}
	s.pending.Remove(params.State)

	s.results.Add(latestResultKey, completedFrom(pending, params))
	return nil
}

func (s *MemoryRedirectStore) Take(ctx context.Context) (*CompletedRedirect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results.Get(latestResultKey)
	if !ok {
		return nil, nil
	}
	s.results.Remove(latestResultKey)
	return &result, nil
}

func (s *MemoryRedirectStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.Purge()
	s.results.Purge()
	return nil
}

func completedFrom(pending PendingRedirect, params CallbackParams) CompletedRedirect {
	return CompletedRedirect{
		Pending:          pending,
		Code:             params.Code,
		Error:            params.Error,
		ErrorDescription: params.ErrorDescription,
	}
}
