// Package copilot implements the llm.Provider interface for the Copilot
// chat-completions backend.
//
// The configured model is resolved at construction: an empty model defaults
// to github_copilot/gpt-4o, a bare name is validated against the supported
// allow-list and prefixed, and an already-prefixed name is stripped and
// validated the same way. Construction fails for models outside the
// allow-list; the adapter never substitutes a different model.
//
// The main entry point is [New], which falls back to GITHUB_COPILOT_API_KEY
// from the environment when the configuration carries no key. Every request
// carries the two editor-integration headers the backend requires for
// authorization, and sampling parameters left at their neutral defaults are
// omitted from the payload.
//
// Streaming is available through [CopilotProvider.CompleteTextStream], which
// forwards SSE content deltas to the stream sink as they arrive. A usage
// block supplied by the stream wins over local token estimation; cost
// accounting is best effort and never fails a completed call.
package copilot
