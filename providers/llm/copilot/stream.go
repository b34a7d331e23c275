package copilot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/modelmux/modelmux/config"
	"github.com/modelmux/modelmux/core/token"
	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/llm"
	"github.com/modelmux/modelmux/providers/observability"
)

// CompleteTextStream sends the conversation with streaming enabled, forwards
// every non-empty content delta to the stream sink as it arrives, and returns
// the concatenation of all deltas. A usage block carried by a chunk wins over
// local computation; when no chunk supplied one, usage is estimated from the
// messages and the accumulated text after the stream is exhausted.
func (p *CopilotProvider) CompleteTextStream(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (string, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	options := llm.ApplyCallOptions(opts...)
	payload := p.buildPayload(messages, options)
	payload.Stream = true
	payload.StreamOptions = &streamOptions{IncludeUsage: true}

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(config.APITypeGitHubCopilot)),
			observability.String(observability.AttrLLMModel, p.model),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.Bool(observability.AttrLLMStream, true),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "Copilot provider preparing streaming request",
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
	httpResponse, err := utils.DoPostStream(callCtx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, payload, p.editorHeaders()...)
	if err != nil {
		llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), err)
		if observer != nil {
			observer.Error(ctx, "Copilot streaming request failed", observability.Error(err))
		}
		return "", err
	}
	defer utils.CloseWithLog(httpResponse.Body)

	scanner := utils.NewSSEScanner(httpResponse.Body)

	var response strings.Builder
	var usage *llm.Usage
	first := true

	for {
		if callCtx.Err() != nil {
			llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), callCtx.Err())
			return "", callCtx.Err()
		}

		event, sseErr := scanner.Next()
		if sseErr == io.EOF {
			break
		}
		if sseErr != nil {
			llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), sseErr)
			if observer != nil {
				observer.Error(ctx, "Copilot stream read failed", observability.Error(sseErr))
			}
			return "", sseErr
		}

		chunk, parseErr := unmarshalStreamChunk(event)
		if parseErr != nil {
			llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), parseErr)
			return "", fmt.Errorf("failed to parse streaming chunk: %w", parseErr)
		}

		if chunk.Usage != nil {
			usage = chunk.Usage
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content == nil || *choice.Delta.Content == "" {
				continue
			}
			if first {
				if span != nil {
					span.AddEvent(observability.EventStreamFirstToken,
						observability.Duration(observability.AttrDuration, timer.Elapsed()),
					)
				}
				first = false
			}
			llm.LogStream(*choice.Delta.Content)
			response.WriteString(*choice.Delta.Content)
		}
	}
	llm.LogStream("\n")
	llm.RecordRequestMetrics(ctx, p.model, timer.Elapsed(), nil)

	reply := response.String()
	if usage == nil {
		usage = p.localUsage(ctx, messages, reply)
	}
	p.updateCosts(ctx, usage)

	return reply, nil
}

// localUsage estimates usage from the sent messages and the accumulated reply
// when the backend supplied none. Estimation is best effort: a disabled
// calc_usage flag yields a zero record rather than an error, so accounting
// can never fail a call that already has its text.
func (p *CopilotProvider) localUsage(ctx context.Context, messages []llm.Message, reply string) *llm.Usage {
	if !p.config.CalcUsageEnabled() {
		return &llm.Usage{}
	}

	contents := make([]string, 0, len(messages))
	for _, message := range messages {
		contents = append(contents, message.Content)
	}

	usage := &llm.Usage{
		PromptTokens:     token.CountMessageTokens(contents),
		CompletionTokens: token.CountTextTokens(reply),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Debug(ctx, "Backend reported no usage, applying local estimate",
			observability.Bool(observability.AttrLLMTokensLocalEstimate, true),
			observability.String(observability.AttrLLMPricingPlan, p.normalizedPricingPlan()),
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
		)
	}
	return usage
}
