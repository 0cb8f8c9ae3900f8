package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/internal/session"
	"github.com/petasbytes/datachat/internal/telemetry"
	"github.com/petasbytes/datachat/memory"
)

// Options configures a Session.
type Options struct {
	System        string // system instructions sent with every request
	MaxTokens     int64
	AutosaveEvery int    // save after every N answered questions; 0 disables
	Model         string // label for telemetry only
}

// Session is the chat loop. It owns the memory manager for its lifetime and is
// driven from a single goroutine.
type Session struct {
	gen   provider.Generator
	mem   *memory.Manager
	store session.Store
	opts  Options
	out   io.Writer
	log   *slog.Logger
	st    styles

	state State
	turns int
}

func New(gen provider.Generator, mem *memory.Manager, store session.Store, opts Options, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		gen:   gen,
		mem:   mem,
		store: store,
		opts:  opts,
		out:   out,
		log:   logger.With(slog.String("component", "chat")),
		st:    newStyles(out),
		state: Idle,
	}
}

// State reports where the loop currently is.
func (s *Session) State() State { return s.state }

// Banner prints the greeting and the command list.
func (s *Session) Banner(restored bool) {
	if restored {
		fmt.Fprintln(s.out, s.st.note.Render("Previous conversation loaded!"))
	}
	fmt.Fprintln(s.out, "Business Analytics Chatbot Ready!")
	fmt.Fprintln(s.out, "Ask questions about the product performance data.")
	fmt.Fprintln(s.out, s.st.label.Render("Commands: 'quit', 'clear', 'save', 'stats'"))
	fmt.Fprintln(s.out)
}

// Run reads lines from in until quit, EOF or ctx cancellation, then saves the
// session one last time.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	done := make(chan struct{})
	defer close(done)
	var scanErr error // written before inputCh closes
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr = scanner.Err()
	}()

outer:
	for {
		s.state = AwaitingInput
		fmt.Fprint(s.out, s.st.you.Render("You")+": ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			break outer
		case line, ok = <-inputCh:
			if !ok {
				fmt.Fprintln(s.out)
				if scanErr != nil {
					s.log.Warn("input read error", slog.Any("err", scanErr))
				}
				break outer
			}
		}
		if s.Handle(ctx, line) {
			return nil
		}
	}

	s.quit(context.WithoutCancel(ctx))
	return nil
}

// Handle processes one line of input. It reports whether the loop should stop.
func (s *Session) Handle(ctx context.Context, line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		s.quit(ctx)
		return true
	case "clear":
		s.mem.Clear()
		s.turns = 0
		s.say(s.st.note, "Conversation history cleared!")
	case "save":
		if err := s.Save(ctx); err != nil {
			s.say(s.st.warn, fmt.Sprintf("Warning: %v", err))
			return false
		}
		s.say(s.st.note, "Conversation saved!")
	case "stats":
		s.printStats()
	default:
		if err := s.Ask(ctx, input); err != nil {
			s.say(s.st.errorS, fmt.Sprintf("Error: %v", err))
		}
	}
	s.state = AwaitingInput
	return false
}

// Ask sends question to the model and records the turn on success. A failed
// request leaves the session untouched.
func (s *Session) Ask(ctx context.Context, question string) error {
	ctx = telemetry.WithTurnID(ctx, telemetry.NewTurnID())
	telemetry.EmitLocalFeatures(ctx, question)

	p := s.mem.BuildPrompt(question)
	telemetry.EmitTurn(ctx, telemetry.EventPromptBuilt, map[string]any{
		"messages":         len(p.Messages),
		"recent":           p.Recent,
		"includes_context": p.IncludesContext,
		"includes_summary": p.IncludesSummary,
		"sent_tokens":      p.SentTokens,
		"full_tokens":      p.FullTokens,
		"window_tokens":    p.Window.Total,
		"omitted_tokens":   p.Window.Omitted,
		"included_groups":  p.Window.IncludedGroups,
		"skipped_groups":   p.Window.SkippedGroups,
	})

	s.state = CallingModel
	start := time.Now()
	reply, err := s.gen.Generate(ctx, provider.Request{
		System:    s.opts.System,
		Messages:  p.Messages,
		MaxTokens: s.opts.MaxTokens,
	})
	fields := map[string]any{
		"model":       s.opts.Model,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = errorKind(err)
		telemetry.EmitTurn(ctx, telemetry.EventModelCall, fields)
		s.log.Debug("model call failed", slog.Any("err", err))
		return err
	}
	fields["input_tokens"] = reply.Usage.InputTokens
	fields["output_tokens"] = reply.Usage.OutputTokens
	telemetry.EmitTurn(ctx, telemetry.EventModelCall, fields)

	s.state = Responding
	s.mem.CommitTurn(p, question, reply.Text, reply.Usage)
	fmt.Fprintf(s.out, "\n%s: %s\n\n", s.st.bot.Render("Claude"), reply.Text)

	folded, err := s.mem.MaybeSummarize(ctx)
	if err != nil {
		fmt.Fprintln(s.out, s.st.warn.Render(fmt.Sprintf("Note: Could not summarize conversation: %v", errors.Unwrap(err))))
	}
	if folded || err != nil {
		st := s.mem.Stats()
		telemetry.EmitTurn(ctx, telemetry.EventSummarize, map[string]any{
			"ok":           err == nil,
			"folded_total": st.FoldedCount,
			"summaries":    st.Summaries,
		})
	}

	s.turns++
	if s.opts.AutosaveEvery > 0 && s.turns%s.opts.AutosaveEvery == 0 {
		if err := s.Save(ctx); err != nil {
			fmt.Fprintln(s.out, s.st.warn.Render(fmt.Sprintf("Warning: autosave failed: %v", err)))
		}
	}
	return nil
}

// Save writes the current session to the store.
func (s *Session) Save(ctx context.Context) error {
	st := s.mem.State()
	st.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, st); err != nil {
		s.log.Warn("save failed", slog.Any("err", err))
		return err
	}
	telemetry.EmitTurn(ctx, telemetry.EventSessionSaved, map[string]any{
		"session_id": st.ID,
		"messages":   len(st.Messages),
		"folded":     st.Folded,
	})
	return nil
}

func (s *Session) quit(ctx context.Context) {
	s.state = Exiting
	if err := s.Save(ctx); err != nil {
		fmt.Fprintln(s.out, s.st.warn.Render(fmt.Sprintf("Warning: %v", err)))
		return
	}
	fmt.Fprintln(s.out, s.st.note.Render("Conversation saved. Goodbye!"))
}

func (s *Session) printStats() {
	st := s.mem.Stats()
	fmt.Fprintf(s.out, "\n%s\n", s.st.label.Render("Stats:"))
	fmt.Fprintf(s.out, "  Total messages: %d (%d folded into summary)\n", st.MessageCount, st.FoldedCount)
	fmt.Fprintf(s.out, "  Summaries created: %d\n", st.Summaries)
	fmt.Fprintf(s.out, "  Estimated tokens in current context: ~%d\n", st.ContextTokens)
	fmt.Fprintf(s.out, "  Awaiting summary: %d older exchanges (~%d tokens)\n", st.PendingGroups, st.PendingTokens)
	fmt.Fprintf(s.out, "  Estimated tokens saved: ~%d\n", st.EstimatedTokensSaved)
	fmt.Fprintf(s.out, "  Tokens used: %d (in %d, out %d)\n\n", st.TotalTokensUsed, st.InputTokens, st.OutputTokens)
}

// say prints text in style as its own paragraph.
func (s *Session) say(style lipgloss.Style, text string) {
	fmt.Fprintf(s.out, "\n%s\n\n", style.Render(text))
}

// errorKind keeps raw provider messages out of telemetry.
func errorKind(err error) string {
	var te *provider.TransportError
	if errors.As(err, &te) {
		if te.StatusCode != 0 {
			return fmt.Sprintf("http_%d", te.StatusCode)
		}
		return "transport"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}
