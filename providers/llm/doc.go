// Package llm defines the backend-agnostic provider surface: the [Provider]
// interface every adapter satisfies, the [Message] and [Usage] types that
// flow through it, per-call overrides ([CallOption]), and the registry that
// maps a config api_type to an adapter constructor.
//
// Adapter packages register themselves in init, so selecting a backend is an
// import plus a config value:
//
//	import (
//	    _ "github.com/modelmux/modelmux/providers/llm/copilot"
//	    _ "github.com/modelmux/modelmux/providers/llm/github"
//	)
//
//	provider, err := llm.New(&cfg.LLM)
//	reply, err := provider.CompleteText(ctx, []llm.Message{llm.UserMessage("hi")})
//
// Streaming completions forward fragments to a process-wide sink
// ([SetStreamSink], stdout by default) before the full reply is assembled,
// so partial output is observable while the model is still generating.
package llm
