package cleaner

import "unicode/utf8"

// EstimateTokens approximates the LLM token count of text as one token
// per four runes, the usual average for English prose. Non-empty text
// always counts as at least one token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if est := n / 4; est >= 1 {
		return est
	}
	return 1
}
