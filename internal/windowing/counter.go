package windowing

import (
	"github.com/petasbytes/datachat/internal/metrics"
	"github.com/petasbytes/datachat/internal/provider"
)

// TokenCounter estimates input-token cost for text and messages.
type TokenCounter interface {
	CountText(s string) int
}

// messageOverhead approximates the per-message framing tokens (role, separators).
const messageOverhead = 4

// CountMessages returns the estimated cost of msgs including per-message overhead.
func CountMessages(c TokenCounter, msgs []provider.Message) int {
	total := 0
	for _, m := range msgs {
		total += c.CountText(m.Text) + messageOverhead
	}
	return total
}

// HeuristicCounter is the default deterministic estimator: one token per four
// runes, rounded up. It needs no network access or vocabulary files.
type HeuristicCounter struct{}

func (HeuristicCounter) CountText(s string) int {
	return metrics.CountFeatures(s).Tokens
}
