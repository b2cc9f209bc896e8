package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	required bool
	fn       CheckFunc
}

// HealthChecker probes the services signon depends on
type HealthChecker struct {
	version string

	mu     sync.RWMutex
	checks []check
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status   string        `json:"status"`
	Required bool          `json:"required"`
	Message  string        `json:"message,omitempty"`
	Latency  time.Duration `json:"latency_ms,omitempty"`
}

// NewHealthChecker creates a checker with no dependencies
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version}
}

// AddCheck registers a dependency. A failing required dependency makes the
// whole status unhealthy; an optional one only degrades it.
func (h *HealthChecker) AddCheck(name string, required bool, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, required: required, fn: fn})
}

// Names returns the registered dependency names in order
func (h *HealthChecker) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, len(h.checks))
	for i, c := range h.checks {
		names[i] = c.name
	}
	return names
}

// Check runs every probe concurrently
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := append([]check(nil), h.checks...)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(checks)),
	}

	results := make([]DependencyStatus, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c check) {
			defer wg.Done()
			start := time.Now()
			err := c.fn(ctx)
			results[i] = DependencyStatus{Status: StatusHealthy, Required: c.required, Latency: time.Since(start)}
			if err != nil {
				results[i].Status = StatusUnhealthy
				results[i].Message = err.Error()
			}
		}(i, c)
	}
	wg.Wait()

	for i, c := range checks {
		dep := results[i]
		status.Dependencies[c.name] = dep
		if dep.Status != StatusUnhealthy {
			continue
		}
		if c.required {
			status.Status = StatusUnhealthy
		} else if status.Status != StatusUnhealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

// ServeHTTP reports health as JSON; 503 when unhealthy
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// SortedDependencies returns dependency names in alphabetical order
func (s HealthStatus) SortedDependencies() []string {
	names := make([]string, 0, len(s.Dependencies))
	for name := range s.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RedisCheck pings a redis client
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HTTPCheck treats any HTTP response from url below 500 as healthy
func HTTPCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}
