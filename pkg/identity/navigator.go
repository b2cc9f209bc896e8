package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/signon/pkg/observability"
)

// Navigator sends the operator's browser to a URL
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// WriterNavigator asks the operator to open the URL themselves
type WriterNavigator struct {
	W io.Writer
}

func (n WriterNavigator) Navigate(ctx context.Context, url string) error {
	_, err := fmt.Fprintf(n.W, "Open the following URL in your browser to sign in:\n\n  %s\n\n", url)
	return err
}

type options struct {
	httpClient *http.Client
	logger     *observability.Logger
}

// Option configures an identity provider
type Option func(*options)

// WithHTTPClient sets the client used to talk to the provider
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the provider logger
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if o.logger == nil {
		o.logger = observability.NopLogger()
	}
	return o
}
