package github

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/modelmux/modelmux/config"
	"github.com/modelmux/modelmux/core/cost"
	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/llm"
	"github.com/modelmux/modelmux/providers/observability"
)

// EnvCookies is the environment variable holding the assistant session
// cookie. It is read at call time, not construction, so a process can
// refresh the cookie without rebuilding the provider.
const EnvCookies = "BING_COOKIES"

var (
	// ErrNoMessages is returned when the message sequence is empty and no
	// prompt can be extracted.
	ErrNoMessages = errors.New("message sequence is empty")

	// ErrMissingCookie is returned when BING_COOKIES is unset.
	ErrMissingCookie = errors.New("BING_COOKIES is not set")
)

func init() {
	llm.Register(config.APITypeGitHub, func(cfg *config.LLMConfig) (llm.Provider, error) {
		return New(cfg)
	})
}

// GitHubProvider implements [llm.Provider] over the conversational search
// assistant. Each call opens its own scoped session and releases it on
// exit; no connection state survives between calls.
//
// The assistant takes a single prompt, not a conversation, so only the
// final message's content is forwarded. Prior turns are dropped.
type GitHubProvider struct {
	config      *config.LLMConfig
	client      *http.Client
	costManager *cost.Manager
	endpoint    string
}

// New builds the provider from its configuration. The config proxy, when
// set, is applied to the websocket dial through the HTTP client.
func New(cfg *config.LLMConfig) (*GitHubProvider, error) {
	httpClient, err := cfg.HTTPClient()
	if err != nil {
		return nil, err
	}
	return &GitHubProvider{
		config: cfg,
		client: httpClient,
	}, nil
}

// WithCostManager attaches a cost manager and returns the provider so calls
// can be chained. The assistant protocol reports no token usage, so the
// manager is never consulted on this backend; it is accepted for interface
// parity with the completion providers.
func (p *GitHubProvider) WithCostManager(manager *cost.Manager) llm.Provider {
	p.costManager = manager
	return p
}

// WithHttpClient replaces the HTTP client used for the websocket dial and
// returns the provider so calls can be chained.
func (p *GitHubProvider) WithHttpClient(httpClient *http.Client) llm.Provider {
	p.client = httpClient
	return p
}

// WithEndpoint overrides the assistant endpoint and returns *GitHubProvider
// so it stays chainable before the interface methods. Used for tests and
// self-hosted gateways.
func (p *GitHubProvider) WithEndpoint(endpoint string) *GitHubProvider {
	p.endpoint = endpoint
	return p
}

// CompleteText forwards the final message's content as the prompt and
// returns exactly the text the assistant reports.
func (p *GitHubProvider) CompleteText(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (string, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHub)),
			observability.String(observability.AttrAssistantEndpoint, p.assistantEndpoint()),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	prompt, err := lastMessageContent(messages)
	if err != nil {
		return "", err
	}

	if observer != nil {
		observer.Trace(ctx, "Assistant provider preparing request",
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHub)),
			observability.String(observability.AttrAssistantEndpoint, p.assistantEndpoint()),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
		)
	}

	client, err := p.newClient()
	if err != nil {
		return "", err
	}
	defer utils.CloseWithLog(client)

	callCtx, cancel := p.callContext(ctx, llm.ApplyCallOptions(opts...))
	defer cancel()

	timer := utils.NewTimer()
	text, sources, err := client.Ask(callCtx, prompt)
	llm.RecordRequestMetrics(ctx, string(config.APITypeGitHub), timer.Elapsed(), err)
	if err != nil {
		if observer != nil {
			observer.Error(ctx, "Assistant request failed", observability.Error(err))
		}
		return "", err
	}

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrAssistantSourcesCount, len(sources)))
	}
	return text, nil
}

// CompleteTextStream forwards the final message's content as the prompt,
// sends each incremental fragment to the stream sink, and returns the
// concatenation of every fragment.
func (p *GitHubProvider) CompleteTextStream(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (string, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHub)),
			observability.String(observability.AttrAssistantEndpoint, p.assistantEndpoint()),
			observability.Bool(observability.AttrLLMStream, true),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	prompt, err := lastMessageContent(messages)
	if err != nil {
		return "", err
	}

	if observer != nil {
		observer.Trace(ctx, "Assistant provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHub)),
			observability.String(observability.AttrAssistantEndpoint, p.assistantEndpoint()),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
		)
	}

	client, err := p.newClient()
	if err != nil {
		return "", err
	}
	defer utils.CloseWithLog(client)

	callCtx, cancel := p.callContext(ctx, llm.ApplyCallOptions(opts...))
	defer cancel()

	timer := utils.NewTimer()
	var response strings.Builder
	first := true
	for fragment, streamErr := range client.AskStream(callCtx, prompt) {
		if streamErr != nil {
			llm.RecordRequestMetrics(ctx, string(config.APITypeGitHub), timer.Elapsed(), streamErr)
			if observer != nil {
				observer.Error(ctx, "Assistant stream failed", observability.Error(streamErr))
			}
			return "", streamErr
		}
		if first && span != nil {
			span.AddEvent(observability.EventStreamFirstToken)
			first = false
		}
		llm.LogStream(fragment)
		response.WriteString(fragment)
	}

	llm.RecordRequestMetrics(ctx, string(config.APITypeGitHub), timer.Elapsed(), nil)
	return response.String(), nil
}

// newClient builds the per-call scoped session from the environment cookie.
func (p *GitHubProvider) newClient() (*AssistantClient, error) {
	cookies := os.Getenv(EnvCookies)
	if cookies == "" {
		return nil, ErrMissingCookie
	}

	opts := []ClientOption{WithHttpClient(p.client)}
	if p.endpoint != "" {
		opts = append(opts, WithEndpoint(p.endpoint))
	}
	return NewAssistantClient(cookies, opts...), nil
}

func (p *GitHubProvider) assistantEndpoint() string {
	if p.endpoint != "" {
		return p.endpoint
	}
	return defaultEndpoint
}

// callContext applies the per-call timeout, falling back to the config
// timeout.
func (p *GitHubProvider) callContext(ctx context.Context, options llm.CallOptions) (context.Context, context.CancelFunc) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = p.config.RequestTimeout()
	}
	return context.WithTimeout(ctx, timeout)
}

// lastMessageContent extracts the prompt: the content of the most recent
// message.
func lastMessageContent(messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	return messages[len(messages)-1].Content, nil
}
