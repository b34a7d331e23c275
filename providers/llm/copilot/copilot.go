package copilot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/modelmux/modelmux/config"
	"github.com/modelmux/modelmux/core/cost"
	"github.com/modelmux/modelmux/core/token"
	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/llm"
	"github.com/modelmux/modelmux/providers/observability"
)

const (
	defaultBaseURL          = "https://api.githubcopilot.com"
	chatCompletionsEndpoint = "/chat/completions"

	// EnvAPIKey is the fallback API key environment variable, consulted when
	// the configuration carries no key.
	EnvAPIKey = "GITHUB_COPILOT_API_KEY"
)

// The backend authorizes requests by editor integration; both headers are
// required on every call.
const (
	editorVersion = "vscode/1.85.0"
	integrationID = "vscode-chat"
)

var (
	// ErrUnsupportedModel is returned at construction time when the
	// configured model is not in the allow-list.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrMissingAPIKey is returned when neither the configuration nor the
	// environment supplies an API key.
	ErrMissingAPIKey = errors.New("API key is not set")
)

func init() {
	llm.Register(config.APITypeGitHubCopilot, func(cfg *config.LLMConfig) (llm.Provider, error) {
		return New(cfg)
	})
}

// CopilotProvider implements [llm.Provider] over the Copilot OpenAI-compatible
// chat-completions endpoint. The model identifier is resolved and validated at
// construction, so an unsupported model fails before any network call.
type CopilotProvider struct {
	config      *config.LLMConfig
	client      *http.Client
	costManager *cost.Manager
	apiKey      string
	baseURL     string

	// model is the resolved identifier, provider prefix included. It is sent
	// on the wire as-is and keys the max-token table.
	model string

	// pricingPlan keys cost accounting only; it never changes the model
	// actually invoked.
	pricingPlan string
}

// New builds the provider from its configuration: the model is resolved
// against the allow-list, the API key falls back to the environment, the
// base URL falls back to the public endpoint, and the pricing plan defaults
// to the resolved model.
func New(cfg *config.LLMConfig) (*CopilotProvider, error) {
	model, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	httpClient, err := cfg.HTTPClient()
	if err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	pricingPlan := cfg.PricingPlan
	if pricingPlan == "" {
		pricingPlan = model
	}

	return &CopilotProvider{
		config:      cfg,
		client:      httpClient,
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		pricingPlan: pricingPlan,
	}, nil
}

// WithCostManager attaches a cost manager and returns the provider so calls
// can be chained.
func (p *CopilotProvider) WithCostManager(manager *cost.Manager) llm.Provider {
	p.costManager = manager
	return p
}

// WithHttpClient sets a custom HTTP client and returns the provider so calls
// can be chained.
func (p *CopilotProvider) WithHttpClient(httpClient *http.Client) llm.Provider {
	p.client = httpClient
	return p
}

// WithAPIKey sets the API key, overriding the configured and environment
// values.
func (p *CopilotProvider) WithAPIKey(apiKey string) llm.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *CopilotProvider) WithBaseURL(baseURL string) llm.Provider {
	p.baseURL = baseURL
	return p
}

// CompleteText sends the conversation as one blocking completion request and
// returns the first choice's message content, empty when the backend returned
// no choices or a choice with no content. Usage reported by the backend is
// forwarded to the cost manager before text extraction.
func (p *CopilotProvider) CompleteText(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (string, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	options := llm.ApplyCallOptions(opts...)
	payload := p.buildPayload(messages, options)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHubCopilot)),
			observability.String(observability.AttrLLMModel, p.model),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.Float64(observability.AttrLLMTemperature, payload.Temperature),
			observability.Int(observability.AttrLLMMaxTokens, payload.MaxTokens),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "Copilot provider preparing request",
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHubCopilot)),
			observability.String(observability.AttrLLMModel, p.model),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
		)
	}

	if p.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	callCtx, cancel := p.callContext(ctx, options)
	defer cancel()

	timer := utils.NewTimer()
	_, resp, err := utils.DoPostSync[chatResponse](callCtx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, payload, p.editorHeaders()...)
	llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), err)
	if err != nil {
		if observer != nil {
			observer.Error(ctx, "Copilot request failed", observability.Error(err))
		}
		return "", err
	}

	p.updateCosts(ctx, resp.Usage)

	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMResponseID, resp.ID))
	}

	// A success response without choices yields an empty reply, not an
	// error; usage, when reported, was already recorded above.
	if len(resp.Choices) == 0 {
		return "", nil
	}

	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, resp.Choices[0].FinishReason))
	}

	return resp.Choices[0].Message.Content, nil
}

// buildPayload assembles the request body: resolved model, messages verbatim,
// the model's max-token ceiling (the configured limit when the model has no
// table entry), temperature, and the optional sampling parameters only when
// they differ from their neutral defaults. Per-call overrides are applied
// last and win over configured values.
func (p *CopilotProvider) buildPayload(messages []llm.Message, options llm.CallOptions) chatRequest {
	payload := chatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.config.Temperature,
		MaxTokens:   token.MaxTokens(p.model, p.config.MaxToken),
	}

	if p.config.TopP != config.DefaultTopP {
		payload.TopP = utils.Ptr(p.config.TopP)
	}
	if p.config.FrequencyPenalty != config.DefaultFrequencyPenalty {
		payload.FrequencyPenalty = utils.Ptr(p.config.FrequencyPenalty)
	}
	if p.config.PresencePenalty != config.DefaultPresencePenalty {
		payload.PresencePenalty = utils.Ptr(p.config.PresencePenalty)
	}
	if len(p.config.Stop) > 0 {
		payload.Stop = p.config.Stop
	}

	if options.MaxTokens > 0 {
		payload.MaxTokens = options.MaxTokens
	}
	if options.Temperature != nil {
		payload.Temperature = *options.Temperature
	}

	return payload
}

// updateCosts forwards usage to the cost manager. Accounting is a best-effort
// side channel: a missing manager, a disabled calc_usage flag, or unknown
// pricing logs at most a warning and never fails the call that produced the
// usage.
func (p *CopilotProvider) updateCosts(ctx context.Context, usage *llm.Usage) {
	if usage == nil || p.costManager == nil || !p.config.CalcUsageEnabled() {
		return
	}

	llm.RecordTokenMetrics(ctx, p.model, usage)

	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventTokensReceived,
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
		)
	}

	callCost, priced := p.costManager.UpdateCost(p.pricingPlan, usage.PromptTokens, usage.CompletionTokens)
	if !priced {
		if observer != nil {
			observer.Warn(ctx, "No pricing registered for pricing plan, cost not recorded",
				observability.String(observability.AttrLLMPricingPlan, p.pricingPlan),
				observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
				observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			)
		}
		return
	}

	if span != nil {
		span.SetAttributes(observability.Float64(observability.AttrCostCall, callCost))
	}
	if observer != nil {
		observer.Histogram(observability.MetricLLMCostCall).Record(ctx, callCost,
			observability.String(observability.AttrLLMModel, p.model),
		)
		costs := p.costManager.Costs()
		observer.Info(ctx, "Updated running cost",
			observability.Float64(observability.AttrCostCall, callCost),
			observability.Float64(observability.AttrCostTotal, costs.TotalCost),
			observability.Float64(observability.AttrCostBudget, costs.MaxBudget),
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
		)
	}
}

func (p *CopilotProvider) editorHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "Editor-Version", Value: editorVersion},
		{Key: "Copilot-Integration-Id", Value: integrationID},
	}
}

// callContext applies the per-call timeout, falling back to the config
// timeout.
func (p *CopilotProvider) callContext(ctx context.Context, options llm.CallOptions) (context.Context, context.CancelFunc) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = p.config.RequestTimeout()
	}
	return context.WithTimeout(ctx, timeout)
}

// normalizedPricingPlan is the pricing plan with the provider prefix
// stripped, the bare-name form local token estimation reports.
func (p *CopilotProvider) normalizedPricingPlan() string {
	return strings.TrimPrefix(p.pricingPlan, modelPrefix)
}
