package token

// maxTokenLimits maps model identifiers to the largest max_tokens value the
// backend accepts for them. Entries use the identifier exactly as sent on the
// wire, including any provider prefix. Models without an entry fall back to
// the configured limit.
var maxTokenLimits = map[string]int{
	"github_copilot/gpt-4o":  128000,
	"github_copilot/gpt-4.1": 1047576,
	"github_copilot/gpt-5":   400000,
}

// MaxTokens returns the known token ceiling for model, or fallback when the
// model has no registered limit.
func MaxTokens(model string, fallback int) int {
	if limit, ok := maxTokenLimits[model]; ok {
		return limit
	}
	return fallback
}
