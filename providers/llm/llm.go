package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/modelmux/modelmux/core/cost"
)

// Provider is the interface every backend adapter must satisfy. Adapters are
// constructed once per logical model client from a config.LLMConfig, hold no
// connection state between calls, and are selected through the registry.
type Provider interface {
	// CompleteText sends the conversation and returns the model's reply as
	// plain text. Any backend failure is returned unmodified after logging;
	// there is no retry and no fallback model.
	CompleteText(ctx context.Context, messages []Message, opts ...CallOption) (string, error)

	// CompleteTextStream sends the conversation with streaming enabled,
	// forwards each incremental fragment to the stream sink as it arrives,
	// and returns the concatenation of all fragments.
	CompleteTextStream(ctx context.Context, messages []Message, opts ...CallOption) (string, error)

	// WithCostManager attaches a cost manager for usage accounting and
	// returns the provider so calls can be chained. Accounting is a
	// best-effort side channel: a nil manager disables it and accounting
	// failures never fail a completed call.
	WithCostManager(manager *cost.Manager) Provider

	// WithHttpClient sets the HTTP client used for outbound requests and
	// returns the provider so calls can be chained. Useful for injecting
	// custom transports, proxies, or test doubles.
	WithHttpClient(httpClient *http.Client) Provider
}

// CallOptions carries per-call overrides. Zero values mean "use the
// configured default"; overrides are applied after config-derived values so
// they always win.
type CallOptions struct {
	// Timeout bounds this request. Zero falls back to the config timeout.
	Timeout time.Duration

	// MaxTokens overrides the resolved max-token value for this call.
	MaxTokens int

	// Temperature overrides the configured sampling temperature. A pointer
	// distinguishes "not set" from an explicit 0.
	Temperature *float64
}

// CallOption mutates CallOptions; see WithTimeout, WithMaxTokens,
// WithTemperature.
type CallOption func(*CallOptions)

// WithTimeout overrides the request timeout for a single call.
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *CallOptions) {
		o.Timeout = timeout
	}
}

// WithMaxTokens overrides the max-token value for a single call.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature overrides the sampling temperature for a single call.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &temperature
	}
}

// ApplyCallOptions folds a list of options into a CallOptions value.
func ApplyCallOptions(opts ...CallOption) CallOptions {
	var options CallOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
