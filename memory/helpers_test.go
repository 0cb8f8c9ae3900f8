package memory_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/memory"
)

// stubSummarizer returns "digest-N" and remembers what it was given.
type stubSummarizer struct {
	calls    int
	previous []string
	batches  [][]memory.Message
	err      error
	usage    provider.Usage
}

func (s *stubSummarizer) Summarize(_ context.Context, previous string, msgs []memory.Message) (string, provider.Usage, error) {
	s.calls++
	s.previous = append(s.previous, previous)
	s.batches = append(s.batches, msgs)
	if s.err != nil {
		return "", provider.Usage{}, s.err
	}
	return fmt.Sprintf("digest-%d", s.calls), s.usage, nil
}

var errTransport = &provider.TransportError{Provider: "anthropic", StatusCode: 529, Err: errors.New("overloaded")}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newManager(s memory.Summarizer, initial string) *memory.Manager {
	return memory.NewManager(memory.Config{
		RecentPairs:    4,
		Threshold:      12,
		InitialContext: initial,
		Logger:         quietLogger(),
		Now:            fixedClock(),
	}, s)
}

func question(i int) string { return fmt.Sprintf("question-%02d", i) }
func answer(i int) string   { return fmt.Sprintf("answer-%02d", i) }

// turn runs one successful exchange the way the chat loop does.
func turn(m *memory.Manager, i int) memory.Prompt {
	p := m.BuildPrompt(question(i))
	m.CommitTurn(p, question(i), answer(i), provider.Usage{InputTokens: 10, OutputTokens: 5})
	return p
}

func texts(msgs []provider.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func contains(msgs []provider.Message, text string) bool {
	for _, m := range msgs {
		if m.Text == text {
			return true
		}
	}
	return false
}
