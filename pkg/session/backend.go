package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/signon/pkg/observability"
)

// SessionPath is the backend endpoint that creates and destroys sessions
const SessionPath = "/api/auth/session"

// maxErrorBody bounds how much of a failed response is kept in BackendError
const maxErrorBody = 4096

// Backend exchanges identity tokens for server-side sessions
type Backend interface {
	BeginSession(ctx context.Context, idToken string) error
	EndSession(ctx context.Context) error
}

// BackendError is returned when the backend answers with a non-2xx status
type BackendError struct {
	Method string
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("session backend %s returned status %d", e.Method, e.Status)
	}
	return fmt.Sprintf("session backend %s returned status %d: %s", e.Method, e.Status, e.Body)
}

// HTTPBackend talks to the session endpoint over HTTP. The session cookie the
// backend sets on BeginSession is sent back on EndSession.
type HTTPBackend struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *observability.Logger
}

// Option configures an HTTPBackend
type Option func(*HTTPBackend)

// WithHTTPClient sets the HTTP client. A client without a cookie jar is given one.
func WithHTTPClient(client *http.Client) Option {
	return func(b *HTTPBackend) {
		b.httpClient = client
	}
}

// WithTimeout bounds each backend request, including reading the response.
// Zero leaves the client's own timeout in place.
func WithTimeout(timeout time.Duration) Option {
	return func(b *HTTPBackend) {
		b.timeout = timeout
	}
}

// WithMetrics records request outcomes
func WithMetrics(metrics *observability.Metrics) Option {
	return func(b *HTTPBackend) {
		b.metrics = metrics
	}
}

// WithLogger sets the backend logger
func WithLogger(logger *observability.Logger) Option {
	return func(b *HTTPBackend) {
		b.logger = logger
	}
}

// NewHTTPBackend creates a backend client rooted at baseURL
func NewHTTPBackend(baseURL string, opts ...Option) (*HTTPBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("session backend URL is required")
	}

	b := &HTTPBackend{
		endpoint: strings.TrimSuffix(baseURL, "/") + SessionPath,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.httpClient == nil {
		b.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	client := *b.httpClient
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client.Jar = jar
	}
	if b.timeout > 0 {
		client.Timeout = b.timeout
	}
	b.httpClient = &client
	if b.logger == nil {
		b.logger = observability.NopLogger()
	}

	return b, nil
}

// BeginSession posts the identity token to the backend
func (b *HTTPBackend) BeginSession(ctx context.Context, idToken string) error {
	payload, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return fmt.Errorf("failed to marshal session request: %w", err)
	}
	return b.do(ctx, "begin", http.MethodPost, payload)
}

// EndSession asks the backend to destroy the current session
func (b *HTTPBackend) EndSession(ctx context.Context) error {
	return b.do(ctx, "end", http.MethodDelete, nil)
}

func (b *HTTPBackend) do(ctx context.Context, operation, method string, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.endpoint, body)
	if err != nil {
		b.metrics.RecordSessionRequest(operation, "error")
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := b.logger.WithFields(map[string]interface{}{
		"operation":  operation,
		"request_id": requestID,
	})

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.metrics.RecordSessionRequest(operation, "error")
		logger.WithError(err).Warn("Session backend request failed")
		return fmt.Errorf("session backend request failed: %w", err)
	}
	defer resp.Body.Close()

	b.metrics.RecordSessionRequest(operation, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WithField("status", resp.StatusCode).Warn("Session backend rejected request")
		return &BackendError{
			Method: method,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	logger.WithField("status", resp.StatusCode).Debug("Session backend request completed")
	return nil
}
