package llm

import (
	"context"
	"time"

	"github.com/modelmux/modelmux/providers/observability"
)

// Status values for the request counter's status attribute.
const (
	metricStatusSuccess = "success"
	metricStatusError   = "error"
)

// RecordRequestMetrics writes the per-request metrics for one completed
// adapter call: a duration histogram observation and a request counter keyed
// by outcome and model. Adapters call it once per backend round trip, on
// both success and error paths. No-op when the context carries no observer.
func RecordRequestMetrics(ctx context.Context, model string, elapsed time.Duration, err error) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return
	}

	status := metricStatusSuccess
	if err != nil {
		status = metricStatusError
	}

	observer.Histogram(observability.MetricLLMRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, model),
	)
	observer.Counter(observability.MetricLLMRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, status),
		observability.String(observability.AttrLLMModel, model),
	)
}

// RecordTokenMetrics writes the token counters for one call's usage, whether
// backend-reported or locally estimated. No-op when the context carries no
// observer or the usage is nil.
func RecordTokenMetrics(ctx context.Context, model string, usage *Usage) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil || usage == nil {
		return
	}

	modelAttr := observability.String(observability.AttrLLMModel, model)
	observer.Counter(observability.MetricLLMTokensTotal).Add(ctx, int64(usage.TotalTokens), modelAttr)
	observer.Counter(observability.MetricLLMTokensPrompt).Add(ctx, int64(usage.PromptTokens), modelAttr)
	observer.Counter(observability.MetricLLMTokensCompletion).Add(ctx, int64(usage.CompletionTokens), modelAttr)
}
