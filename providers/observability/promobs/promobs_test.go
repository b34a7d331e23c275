package promobs

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelmux/modelmux/providers/observability"
	"github.com/modelmux/modelmux/providers/observability/slogobs"
)

func newTestObserver(t *testing.T) *Observer {
	t.Helper()
	base := slogobs.New(slogobs.WithOutput(io.Discard))
	return New(base)
}

func TestSanitizeMetricName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"modelmux.llm.request.count", "modelmux_llm_request_count"},
		{"already_valid_name", "already_valid_name"},
		{"with:colon", "with:colon"},
		{"9leading-digit", "_leading_digit"},
		{"trailing9", "trailing9"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeMetricName(tt.input); got != tt.expected {
				t.Errorf("sanitizeMetricName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCounter_ExportedToRegistry(t *testing.T) {
	observer := newTestObserver(t)

	counter := observer.Counter(observability.MetricLLMRequestCount)
	counter.Add(context.Background(), 3)
	counter.Add(context.Background(), 2)

	body := scrape(t, observer)
	if !strings.Contains(body, "modelmux_llm_request_count 5") {
		t.Errorf("expected counter value 5 in exposition, got:\n%s", body)
	}
}

func TestCounter_SameInstanceForSameName(t *testing.T) {
	observer := newTestObserver(t)

	first := observer.Counter("modelmux.test.counter")
	second := observer.Counter("modelmux.test.counter")
	if first != second {
		t.Error("expected the same counter instance for repeated name")
	}
}

func TestHistogram_ExportedToRegistry(t *testing.T) {
	observer := newTestObserver(t)

	histogram := observer.Histogram(observability.MetricLLMRequestDuration)
	histogram.Record(context.Background(), 0.25)
	histogram.Record(context.Background(), 0.75)

	body := scrape(t, observer)
	if !strings.Contains(body, "modelmux_llm_request_duration_count 2") {
		t.Errorf("expected histogram count 2 in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "modelmux_llm_request_duration_sum 1") {
		t.Errorf("expected histogram sum 1 in exposition, got:\n%s", body)
	}
}

func TestWithRegistry_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	base := slogobs.New(slogobs.WithOutput(io.Discard))
	observer := New(base, WithRegistry(registry))

	observer.Counter("modelmux.custom.count").Add(context.Background(), 1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	found := false
	for _, family := range families {
		if family.GetName() == "modelmux_custom_count" {
			found = true
		}
	}
	if !found {
		t.Error("expected metric registered in the provided registry")
	}
}

func TestLogging_DelegatesWithoutPanic(t *testing.T) {
	observer := newTestObserver(t)
	ctx := context.Background()

	// The base provider absorbs all log levels; this must not panic.
	observer.Trace(ctx, "trace msg")
	observer.Debug(ctx, "debug msg")
	observer.Info(ctx, "info msg", observability.String("k", "v"))
	observer.Warn(ctx, "warn msg")
	observer.Error(ctx, "error msg", observability.Error(nil))

	_, span := observer.StartSpan(ctx, "test.span")
	span.AddEvent("event")
	span.End()
}

// scrape fetches the /metrics exposition from the observer's handler.
func scrape(t *testing.T, observer *Observer) string {
	t.Helper()

	server := httptest.NewServer(observer.Handler())
	defer server.Close()

	res, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(body)
}
