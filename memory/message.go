package memory

import (
	"time"

	"github.com/petasbytes/datachat/internal/provider"
)

// Message is one persisted chat turn. Time is optional and omitted when zero.
type Message struct {
	Role provider.Role `json:"role"`
	Text string        `json:"text"`
	Time time.Time     `json:"time,omitzero"`
}

// Counters accumulate per-session token accounting.
type Counters struct {
	InputTokens          int64 `json:"input_tokens"`
	OutputTokens         int64 `json:"output_tokens"`
	EstimatedTokensSaved int64 `json:"estimated_tokens_saved"`
	Summaries            int   `json:"summaries"`
}

// TotalTokens returns input plus output tokens reported by the API.
func (c Counters) TotalTokens() int64 { return c.InputTokens + c.OutputTokens }

// State is the full snapshot of a session, the unit of persistence.
//
// Messages[:Folded] have been folded into Summary.
type State struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Summary   string    `json:"summary,omitempty"`
	Folded    int       `json:"folded"`
	Counters  Counters  `json:"counters"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Empty reports whether s carries no conversation, summary or usage.
func (s State) Empty() bool {
	return len(s.Messages) == 0 && s.Summary == "" && s.Counters == (Counters{})
}

// Validate checks the structural invariants a loaded state must satisfy.
func (s State) Validate() error {
	if s.Folded < 0 || s.Folded > len(s.Messages) {
		return &InvalidStateError{Reason: "folded index out of range", Index: -1}
	}
	for i, m := range s.Messages {
		if !m.Role.Valid() {
			return &InvalidStateError{Reason: "unknown role", Index: i}
		}
	}
	return nil
}

func toProvider(msgs []Message) []provider.Message {
	out := make([]provider.Message, len(msgs))
	for i, m := range msgs {
		out[i] = provider.Message{Role: m.Role, Text: m.Text}
	}
	return out
}
