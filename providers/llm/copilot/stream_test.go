package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelmux/modelmux/config"
	"github.com/modelmux/modelmux/core/cost"
	"github.com/modelmux/modelmux/core/token"
	"github.com/modelmux/modelmux/providers/llm"
	"github.com/modelmux/modelmux/providers/observability"
)

// newStreamServer emits each event as an SSE data line followed by the
// [DONE] sentinel, and reports the decoded request body on requests.
func newStreamServer(t *testing.T, events []string, requests chan<- map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			var fields map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				t.Errorf("decode request body: %v", err)
				return
			}
			requests <- fields
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func contentChunk(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, content)
}

const roleChunk = `{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}`

const usageChunk = `{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`

func TestCompleteTextStream_ChunkUsageWins(t *testing.T) {
	srv := newStreamServer(t, []string{roleChunk, contentChunk("Hel"), contentChunk("lo"), usageChunk}, nil)
	defer srv.Close()

	manager := cost.NewManager(10)
	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })
	provider.WithCostManager(manager)

	reply, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}
	if reply != "Hello" {
		t.Errorf("reply = %q, want Hello", reply)
	}

	// The chunk-supplied usage must be recorded, not a local estimate.
	if manager.TotalPromptTokens() != 5 {
		t.Errorf("TotalPromptTokens = %d, want the chunk-supplied 5", manager.TotalPromptTokens())
	}
	if manager.TotalCompletionTokens() != 2 {
		t.Errorf("TotalCompletionTokens = %d, want the chunk-supplied 2", manager.TotalCompletionTokens())
	}

	want := 5*2.50/1e6 + 2*10.00/1e6
	if math.Abs(manager.TotalCost()-want) > 1e-12 {
		t.Errorf("TotalCost = %v, want %v", manager.TotalCost(), want)
	}
}

func TestCompleteTextStream_LocalUsageFallback(t *testing.T) {
	srv := newStreamServer(t, []string{contentChunk("Hel"), contentChunk("lo")}, nil)
	defer srv.Close()

	manager := cost.NewManager(10)
	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })
	provider.WithCostManager(manager)

	reply, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}
	if reply != "Hello" {
		t.Errorf("reply = %q, want Hello", reply)
	}

	wantPrompt := token.CountMessageTokens([]string{"hi"})
	wantCompletion := token.CountTextTokens("Hello")
	if manager.TotalPromptTokens() != wantPrompt {
		t.Errorf("TotalPromptTokens = %d, want the local estimate %d", manager.TotalPromptTokens(), wantPrompt)
	}
	if manager.TotalCompletionTokens() != wantCompletion {
		t.Errorf("TotalCompletionTokens = %d, want the local estimate %d", manager.TotalCompletionTokens(), wantCompletion)
	}
}

func TestCompleteTextStream_SinkReceivesFragments(t *testing.T) {
	srv := newStreamServer(t, []string{contentChunk("Hel"), contentChunk("lo")}, nil)
	defer srv.Close()

	var fragments []string
	llm.SetStreamSink(func(fragment string) { fragments = append(fragments, fragment) })
	defer llm.SetStreamSink(nil)

	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })

	if _, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")}); err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}

	if strings.Join(fragments, "") != "Hello\n" {
		t.Errorf("sink received %v, want fragments plus the closing newline", fragments)
	}
	if len(fragments) != 3 || fragments[0] != "Hel" || fragments[1] != "lo" || fragments[2] != "\n" {
		t.Errorf("fragments = %v, want [Hel lo \\n]", fragments)
	}
}

func TestCompleteTextStream_RequestEnablesUsageReporting(t *testing.T) {
	requests := make(chan map[string]interface{}, 1)
	srv := newStreamServer(t, []string{contentChunk("ok")}, requests)
	defer srv.Close()

	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })

	if _, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")}); err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}

	body := <-requests
	if body["stream"] != true {
		t.Errorf("stream = %v, want true", body["stream"])
	}
	streamOpts, ok := body["stream_options"].(map[string]interface{})
	if !ok || streamOpts["include_usage"] != true {
		t.Errorf("stream_options = %v, want include_usage true", body["stream_options"])
	}
}

func TestCompleteTextStream_EmptyDeltasSkipped(t *testing.T) {
	events := []string{
		roleChunk,
		contentChunk(""),
		contentChunk("answer"),
		`{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	}
	srv := newStreamServer(t, events, nil)
	defer srv.Close()

	var fragments []string
	llm.SetStreamSink(func(fragment string) { fragments = append(fragments, fragment) })
	defer llm.SetStreamSink(nil)

	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })

	reply, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}
	if reply != "answer" {
		t.Errorf("reply = %q, want answer", reply)
	}
	if len(fragments) != 2 || fragments[0] != "answer" {
		t.Errorf("fragments = %v, empty deltas must not reach the sink", fragments)
	}
}

func TestCompleteTextStream_CalcUsageDisabled(t *testing.T) {
	srv := newStreamServer(t, []string{contentChunk("Hello"), usageChunk}, nil)
	defer srv.Close()

	disabled := false
	manager := cost.NewManager(10)
	provider := newProvider(t, func(cfg *config.LLMConfig) {
		cfg.BaseURL = srv.URL
		cfg.CalcUsage = &disabled
	})
	provider.WithCostManager(manager)

	reply, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}
	if reply != "Hello" {
		t.Errorf("reply = %q", reply)
	}
	if manager.TotalPromptTokens() != 0 || manager.TotalCost() != 0 {
		t.Errorf("manager recorded usage with calc_usage disabled: %+v", manager.Costs())
	}
}

func TestCompleteTextStream_MalformedChunk(t *testing.T) {
	srv := newStreamServer(t, []string{"{not json"}, nil)
	defer srv.Close()

	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })

	_, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err == nil {
		t.Fatal("expected error for malformed chunk")
	}
	if !strings.Contains(err.Error(), "failed to parse streaming chunk") {
		t.Errorf("error = %v", err)
	}
}

func TestCompleteTextStream_UpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })

	_, err := provider.CompleteTextStream(context.Background(), []llm.Message{llm.UserMessage("hi")})
	if err == nil {
		t.Fatal("expected upstream error to propagate")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error = %v", err)
	}
}

func TestCompleteTextStream_RecordsMetrics(t *testing.T) {
	srv := newStreamServer(t, []string{roleChunk, contentChunk("Hel"), contentChunk("lo"), usageChunk}, nil)
	defer srv.Close()

	observer := newMetricsObserver(t)
	ctx := observability.ContextWithObserver(context.Background(), observer)

	manager := cost.NewManager(10)
	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.BaseURL = srv.URL })
	provider.WithCostManager(manager)

	if _, err := provider.CompleteTextStream(ctx, []llm.Message{llm.UserMessage("hi")}); err != nil {
		t.Fatalf("CompleteTextStream() error = %v", err)
	}

	body := scrapeMetrics(t, observer)
	for _, want := range []string{
		"modelmux_llm_request_count 1",
		"modelmux_llm_request_duration_count 1",
		"modelmux_llm_tokens_prompt 5",
		"modelmux_llm_tokens_completion 2",
		"modelmux_llm_tokens_total 7",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q, got:\n%s", want, body)
		}
	}
}

func TestLocalUsage_TotalIsSum(t *testing.T) {
	provider := newProvider(t, nil)

	messages := []llm.Message{llm.SystemMessage("be terse"), llm.UserMessage("hi")}
	usage := provider.localUsage(context.Background(), messages, "Hello")

	if usage.PromptTokens <= 0 || usage.CompletionTokens <= 0 {
		t.Errorf("usage = %+v, want positive estimates", usage)
	}
	if usage.TotalTokens != usage.PromptTokens+usage.CompletionTokens {
		t.Errorf("TotalTokens = %d, want prompt+completion = %d", usage.TotalTokens, usage.PromptTokens+usage.CompletionTokens)
	}
}

func TestLocalUsage_DisabledYieldsZeroRecord(t *testing.T) {
	disabled := false
	provider := newProvider(t, func(cfg *config.LLMConfig) { cfg.CalcUsage = &disabled })

	usage := provider.localUsage(context.Background(), []llm.Message{llm.UserMessage("hi")}, "Hello")
	if usage.PromptTokens != 0 || usage.CompletionTokens != 0 || usage.TotalTokens != 0 {
		t.Errorf("usage = %+v, want the zero record", usage)
	}
}
