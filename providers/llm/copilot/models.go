package copilot

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/modelmux/modelmux/providers/llm"
)

const (
	// modelPrefix routes a model to the Copilot backend. Resolved identifiers
	// carry the prefix on the wire and in the max-token table.
	modelPrefix = "github_copilot/"

	// defaultModel is used when the configuration leaves the model empty.
	defaultModel = "gpt-4o"
)

// supportedModels is the allow-list of bare model names the backend serves.
var supportedModels = []string{"gpt-4o", "gpt-4.1", "gpt-5-mini", "gpt-5"}

// resolveModel normalizes a configured model identifier: empty defaults to
// defaultModel, a bare name is validated against the allow-list and prefixed,
// an already-prefixed name is stripped and validated the same way. An
// unsupported name is an error; the adapter never substitutes another model.
func resolveModel(model string) (string, error) {
	if model == "" {
		model = defaultModel
	}
	name := strings.TrimPrefix(model, modelPrefix)
	if !slices.Contains(supportedModels, name) {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedModel, name, strings.Join(supportedModels, ", "))
	}
	return modelPrefix + name, nil
}

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatRequest is the OpenAI-compatible chat-completions request body. The
// sampling parameters with pointer types are omitted when they match the
// backend's own defaults, so the request never overrides server-side
// behavior it does not mean to change.
type chatRequest struct {
	Model            string         `json:"model"`
	Messages         []llm.Message  `json:"messages"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	TopP             *float64       `json:"top_p,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
	StreamOptions    *streamOptions `json:"stream_options,omitempty"`
}

// streamOptions configures streaming behavior in the request.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *llm.Usage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

/*
	CHAT COMPLETIONS STREAMING API - RESPONSE TYPES
*/

// chatStreamChunk is a single SSE chunk. The usage block arrives only on the
// final chunk when stream_options.include_usage is set, typically alongside
// an empty choices list.
type chatStreamChunk struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []chatStreamChoice `json:"choices"`
	Usage   *llm.Usage         `json:"usage,omitempty"`
}

type chatStreamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// streamDelta carries the incremental content of one chunk. Content is a
// pointer to distinguish an absent field from an empty string.
type streamDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// unmarshalStreamChunk parses a raw SSE data payload into a chatStreamChunk.
func unmarshalStreamChunk(data string) (*chatStreamChunk, error) {
	var chunk chatStreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}
