// Package github implements the llm.Provider adapter for the conversational
// search assistant, registered under api_type "github".
//
// The adapter is stateless between calls: each CompleteText or
// CompleteTextStream opens its own session authenticated by the BING_COOKIES
// environment variable and releases it on exit. Only the final message's
// content is forwarded as the prompt; the assistant keeps its own
// conversation state server-side.
//
// The wire protocol is the assistant's websocket chat hub: JSON records
// terminated by an ASCII record separator (0x1E), a version handshake, then
// one chat invocation per ask. Update records carry the cumulative partial
// answer, from which the client derives incremental fragments; the final
// record carries the completed answer with its result status and source
// attributions. Final answers that arrive only as adaptive-card HTML are
// converted to Markdown.
package github
