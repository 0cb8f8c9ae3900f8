package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/datachat/internal/provider"
)

// Summarizer compresses a batch of older messages, together with the previous
// summary, into a new cumulative summary.
type Summarizer interface {
	Summarize(ctx context.Context, previous string, msgs []Message) (string, provider.Usage, error)
}

const (
	// DefaultSummaryMaxTokens bounds the digest length.
	DefaultSummaryMaxTokens = 500
	// maxLineRunes clamps each message when rendering the summarization input.
	maxLineRunes = 200
)

const summarizeSystem = "You compress earlier parts of a business-analytics chat. " +
	"Keep figures, product names, findings and open questions. Omit pleasantries."

// LLMSummarizer asks the model for key-point bullets.
type LLMSummarizer struct {
	Generator provider.Generator
	MaxTokens int64
}

// NewLLMSummarizer returns a summarizer that caps digests at maxTokens
// (DefaultSummaryMaxTokens when <= 0).
func NewLLMSummarizer(g provider.Generator, maxTokens int64) *LLMSummarizer {
	if maxTokens <= 0 {
		maxTokens = DefaultSummaryMaxTokens
	}
	return &LLMSummarizer{Generator: g, MaxTokens: maxTokens}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, previous string, msgs []Message) (string, provider.Usage, error) {
	if len(msgs) == 0 {
		return previous, provider.Usage{}, nil
	}
	reply, err := s.Generator.Generate(ctx, provider.Request{
		System:    summarizeSystem,
		MaxTokens: s.MaxTokens,
		Messages:  []provider.Message{provider.User(summaryInstruction(previous, msgs, s.MaxTokens))},
	})
	if err != nil {
		return "", reply.Usage, err
	}
	text := strings.TrimSpace(reply.Text)
	if text == "" {
		return "", reply.Usage, errors.New("model returned an empty summary")
	}
	return text, reply.Usage, nil
}

func summaryInstruction(previous string, msgs []Message, maxTokens int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this conversation into concise key-point bullets (at most %d tokens). ", maxTokens)
	b.WriteString("Cover the earlier summary and the new messages; keep every finding.\n\n")
	if previous != "" {
		b.WriteString("Earlier summary:\n")
		b.WriteString(previous)
		b.WriteString("\n\n")
	}
	b.WriteString("New messages:\n")
	b.WriteString(RenderTranscript(msgs))
	return b.String()
}

// RenderTranscript renders msgs as "ROLE: text" lines, clamping long texts.
func RenderTranscript(msgs []Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = strings.ToUpper(string(m.Role)) + ": " + clampRunes(m.Text, maxLineRunes)
	}
	return strings.Join(lines, "\n")
}

func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
