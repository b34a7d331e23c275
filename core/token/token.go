package token

// perMessageOverhead is the estimated token overhead for each message (role,
// structure delimiters, etc.).
const perMessageOverhead = 4

// replyPrimerTokens is the fixed overhead priming the assistant's reply in
// chat-completion style conversations.
const replyPrimerTokens = 3

// charsToTokens converts a character count to an estimated token count using
// the 1-token-per-4-characters heuristic.
func charsToTokens(chars int) int {
	return (chars + 3) / 4 // round up
}

// CountTextTokens estimates the token count of a single piece of text, such
// as a completion returned by a model. Used when a provider response carries
// no usage block.
func CountTextTokens(text string) int {
	if text == "" {
		return 0
	}
	return charsToTokens(len(text))
}

// CountMessageTokens estimates the total prompt tokens for a conversation.
// Each message contributes its content estimate plus a structural overhead,
// and the conversation pays a fixed primer for the assistant's reply.
func CountMessageTokens(contents []string) int {
	if len(contents) == 0 {
		return 0
	}

	tokens := 0
	for _, content := range contents {
		tokens += perMessageOverhead + charsToTokens(len(content))
	}
	return tokens + replyPrimerTokens
}
