package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "github", "github_copilot")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "github_copilot/gpt-4o")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTemperature is the sampling temperature used
	AttrLLMTemperature = "llm.temperature"

	// AttrLLMMaxTokens is the maximum tokens allowed
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMPricingPlan is the pricing plan used for usage accounting
	AttrLLMPricingPlan = "llm.pricing_plan"

	// AttrLLMStream indicates whether the request used streaming delivery
	AttrLLMStream = "llm.stream"
)

// --- Token Usage Attributes ---

const (
	// AttrLLMTokensPrompt is the number of prompt tokens
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCompletion is the number of completion tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensLocalEstimate indicates token counts were estimated locally
	// rather than reported by the provider
	AttrLLMTokensLocalEstimate = "llm.tokens.local_estimate" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Cost Attributes ---

const (
	// AttrCostCall is the cost of a single completed call in USD
	AttrCostCall = "cost.call"

	// AttrCostTotal is the running total cost in USD
	AttrCostTotal = "cost.total"

	// AttrCostBudget is the configured maximum budget in USD
	AttrCostBudget = "cost.budget"
)

// --- Search Assistant Attributes ---

const (
	// AttrAssistantEndpoint is the websocket endpoint of the search assistant
	AttrAssistantEndpoint = "assistant.endpoint"

	// AttrAssistantSourcesCount is the number of source attributions returned
	AttrAssistantSourcesCount = "assistant.sources_count"
)

// --- Request/Response Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrResponseContent is the response content from the model
	AttrResponseContent = "response.content"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrErrorType is the error type/class
	AttrErrorType = "error.type"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanLLMRequest is the span name for LLM API requests
	SpanLLMRequest = "llm.request"

	// SpanAssistantConversation is the span name for a search assistant conversation
	SpanAssistantConversation = "assistant.conversation"
)

// --- Event Names ---

const (
	// EventLLMRequestStart marks the start of an LLM request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the end of an LLM request
	EventLLMRequestEnd = "llm.request.end"

	// EventTokensReceived marks when tokens are received from the model
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// EventStreamFirstToken marks the arrival of the first streamed fragment
	EventStreamFirstToken = "llm.stream.first_token" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// EventAssistantHandshake marks completion of the websocket protocol handshake
	EventAssistantHandshake = "assistant.handshake"
)

// --- Metric Names ---

const (
	// MetricLLMRequestCount is the counter for LLM requests
	MetricLLMRequestCount = "modelmux.llm.request.count"

	// MetricLLMRequestDuration is the histogram for request duration
	MetricLLMRequestDuration = "modelmux.llm.request.duration"

	// MetricLLMTokensTotal is the counter for total tokens
	MetricLLMTokensTotal = "modelmux.llm.tokens.total"

	// MetricLLMTokensPrompt is the counter for prompt tokens
	MetricLLMTokensPrompt = "modelmux.llm.tokens.prompt"

	// MetricLLMTokensCompletion is the counter for completion tokens
	MetricLLMTokensCompletion = "modelmux.llm.tokens.completion"

	// MetricLLMCostCall is the histogram of per-call cost in USD
	MetricLLMCostCall = "modelmux.llm.cost.call"
)
