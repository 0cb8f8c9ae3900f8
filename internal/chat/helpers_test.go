package chat_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/petasbytes/datachat/internal/chat"
	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/memory"
)

// scriptedGen answers each request with reply (or err) and records it.
type scriptedGen struct {
	reply    string
	err      error
	requests []provider.Request
}

func (g *scriptedGen) Generate(_ context.Context, req provider.Request) (provider.Reply, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return provider.Reply{}, g.err
	}
	return provider.Reply{Text: g.reply, Usage: provider.Usage{InputTokens: 100, OutputTokens: 20}}, nil
}

type memStore struct {
	saved   []memory.State
	saveErr error
}

func (s *memStore) Load(context.Context) (memory.State, error) {
	if len(s.saved) == 0 {
		return memory.State{}, nil
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *memStore) Save(_ context.Context, st memory.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, st)
	return nil
}

type failingSummarizer struct{ calls int }

func (f *failingSummarizer) Summarize(context.Context, string, []memory.Message) (string, provider.Usage, error) {
	f.calls++
	return "", provider.Usage{}, errors.New("rate limited")
}

type okSummarizer struct{}

func (okSummarizer) Summarize(_ context.Context, prev string, msgs []memory.Message) (string, provider.Usage, error) {
	return prev + "+digest", provider.Usage{InputTokens: 7, OutputTokens: 3}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	gen   *scriptedGen
	mem   *memory.Manager
	store *memStore
	out   *bytes.Buffer
	s     *chat.Session
}

func newFixture(t *testing.T, cfg memory.Config, sum memory.Summarizer, opts chat.Options) *fixture {
	t.Helper()
	cfg.Logger = quietLogger()
	f := &fixture{
		gen:   &scriptedGen{reply: "Bamboo forks sold best."},
		mem:   memory.NewManager(cfg, sum),
		store: &memStore{},
		out:   &bytes.Buffer{},
	}
	if opts.System == "" {
		opts.System = "You are a business analyst."
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 2000
	}
	f.s = chat.New(f.gen, f.mem, f.store, opts, f.out, quietLogger())
	return f
}
