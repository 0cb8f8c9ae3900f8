package metrics

import (
	"strings"
	"unicode/utf8"
)

// RunesPerToken is the rough English-text ratio used for local token estimates.
const RunesPerToken = 4

// Features holds local text features derived from a question or reply.
// Tokens is an estimate only; the API reports real usage separately.
type Features struct {
	Bytes  int
	Runes  int
	Words  int
	Lines  int
	Tokens int
}

// CountFeatures computes byte, rune, word, line and estimated token counts for s.
func CountFeatures(s string) Features {
	r := utf8.RuneCountInString(s)
	return Features{
		Bytes:  len(s),
		Runes:  r,
		Words:  countWords(s),
		Lines:  countLines(s),
		Tokens: EstimateTokens(r),
	}
}

// EstimateTokens converts a rune count into tokens, rounding up so that any
// non-empty text costs at least one token.
func EstimateTokens(runes int) int {
	if runes <= 0 {
		return 0
	}
	return (runes + RunesPerToken - 1) / RunesPerToken
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
