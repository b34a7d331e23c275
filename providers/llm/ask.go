package llm

import (
	"context"

	"github.com/modelmux/modelmux/core/parse"
)

// Ask is the one-shot convenience surface: it wraps prompt as a single user
// message and returns the provider's reply text.
func Ask(ctx context.Context, provider Provider, prompt string, opts ...CallOption) (string, error) {
	return provider.CompleteText(ctx, []Message{UserMessage(prompt)}, opts...)
}

// AskWithSystem is Ask with a leading system message.
func AskWithSystem(ctx context.Context, provider Provider, system, prompt string, opts ...CallOption) (string, error) {
	messages := []Message{
		SystemMessage(system),
		UserMessage(prompt),
	}
	return provider.CompleteText(ctx, messages, opts...)
}

// AskStream is Ask over the streaming surface. Fragments reach the stream
// sink as they arrive; the assembled reply is returned.
func AskStream(ctx context.Context, provider Provider, prompt string, opts ...CallOption) (string, error) {
	return provider.CompleteTextStream(ctx, []Message{UserMessage(prompt)}, opts...)
}

// AskJSON asks for a reply and decodes it into T, tolerating code fences and
// mildly malformed JSON (see parse.JSONAs).
func AskJSON[T any](ctx context.Context, provider Provider, prompt string, opts ...CallOption) (T, error) {
	var zero T

	reply, err := Ask(ctx, provider, prompt, opts...)
	if err != nil {
		return zero, err
	}
	return parse.JSONAs[T](reply)
}
