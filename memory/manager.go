package memory

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/internal/windowing"
)

const (
	DefaultRecentPairs = 4
	DefaultThreshold   = 12

	summaryPrefix = "Previous conversation summary:\n"
	summaryAck    = "I remember our previous conversation."
)

// Config holds the windowing policy and the one-off initial context.
type Config struct {
	RecentPairs int // K: message pairs always sent verbatim
	Threshold   int // fold once more than this many unfolded messages exist

	// InitialContext is sent as the first user message of the first request
	// of the process, answered by InitialAck. Empty disables it.
	InitialContext string
	InitialAck     string

	Counter windowing.TokenCounter
	Logger  *slog.Logger
	Now     func() time.Time
}

func (c Config) withDefaults() Config {
	if c.RecentPairs <= 0 {
		c.RecentPairs = DefaultRecentPairs
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.InitialAck == "" {
		c.InitialAck = "Understood. I have the data loaded and I'm ready for your questions."
	}
	if c.Counter == nil {
		c.Counter = windowing.HeuristicCounter{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// Manager owns the session state. It is not safe for concurrent use; the chat
// loop is its only caller.
type Manager struct {
	cfg        Config
	summarizer Summarizer
	log        *slog.Logger

	state State
	// contextDelivered is process-local: a restarted process sends the
	// initial context again.
	contextDelivered bool
}

// NewManager returns a manager with an empty session. A nil summarizer
// disables folding.
func NewManager(cfg Config, s Summarizer) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:        cfg,
		summarizer: s,
		log:        cfg.Logger.With(slog.String("component", "memory")),
		state:      State{ID: uuid.NewString()},
	}
}

// Restore replaces the session with s after validating it.
func (m *Manager) Restore(s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Messages = slices.Clone(s.Messages)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.state = s
	return nil
}

// State returns a copy of the session for persistence.
func (m *Manager) State() State {
	s := m.state
	s.Messages = slices.Clone(m.state.Messages)
	return s
}

// Summary returns the current cumulative summary.
func (m *Manager) Summary() string { return m.state.Summary }

// Record appends a message to the conversation.
func (m *Manager) Record(role provider.Role, text string) {
	now := m.cfg.Now()
	m.state.Messages = append(m.state.Messages, Message{Role: role, Text: text, Time: now})
	m.state.UpdatedAt = now
}

// Prompt is the payload for one request plus its estimated cost.
type Prompt struct {
	Messages        []provider.Message
	IncludesContext bool
	IncludesSummary bool
	Recent          int // raw conversation messages included

	// Window describes the recent-window selection over unfolded messages.
	// Omitted and SkippedGroups cover older messages still awaiting a summary.
	Window windowing.Stats

	SentTokens int // estimate for Messages
	FullTokens int // estimate had the whole history and context been resent
}

// BuildPrompt assembles the request for question: initial context (first call
// of the process only), the summary, the last K pairs and the question.
// It does not mutate the manager.
func (m *Manager) BuildPrompt(question string) Prompt {
	p := m.context()
	full := make([]provider.Message, 0, len(m.state.Messages)+3)
	if m.cfg.InitialContext != "" {
		full = append(full, provider.User(m.cfg.InitialContext), provider.Assistant(m.cfg.InitialAck))
	}
	full = append(full, toProvider(m.state.Messages)...)
	if question != "" {
		p.Messages = append(p.Messages, provider.User(question))
		full = append(full, provider.User(question))
	}
	p.SentTokens = windowing.CountMessages(m.cfg.Counter, p.Messages)
	p.FullTokens = windowing.CountMessages(m.cfg.Counter, full)
	return p
}

func (m *Manager) context() Prompt {
	var p Prompt
	if m.cfg.InitialContext != "" && !m.contextDelivered {
		p.Messages = append(p.Messages, provider.User(m.cfg.InitialContext), provider.Assistant(m.cfg.InitialAck))
		p.IncludesContext = true
	}
	if m.state.Summary != "" {
		p.Messages = append(p.Messages, provider.User(summaryPrefix+m.state.Summary), provider.Assistant(summaryAck))
		p.IncludesSummary = true
	}
	recent, ws := windowing.SelectRecent(toProvider(m.active()), m.cfg.RecentPairs, m.cfg.Counter)
	p.Messages = append(p.Messages, recent...)
	p.Recent = len(recent)
	p.Window = ws
	return p
}

func (m *Manager) active() []Message {
	return m.state.Messages[m.state.Folded:]
}

// CommitTurn records a completed exchange built from p and accounts for its cost.
func (m *Manager) CommitTurn(p Prompt, question, reply string, usage provider.Usage) {
	m.Record(provider.RoleUser, question)
	m.Record(provider.RoleAssistant, reply)
	if p.IncludesContext {
		m.contextDelivered = true
	}
	m.AddUsage(usage)
	if saved := p.FullTokens - p.SentTokens; saved > 0 {
		m.state.Counters.EstimatedTokensSaved += int64(saved)
	}
}

// AddUsage adds API-reported usage to the session counters.
func (m *Manager) AddUsage(u provider.Usage) {
	m.state.Counters.InputTokens += u.InputTokens
	m.state.Counters.OutputTokens += u.OutputTokens
}

// MaybeSummarize folds every unfolded message older than the last K pairs into
// the summary once more than Threshold unfolded messages exist. It reports
// whether a fold happened. On failure the summary and fold index are left as
// they were and a *SummarizationError is returned; the next call retries.
func (m *Manager) MaybeSummarize(ctx context.Context) (bool, error) {
	if m.summarizer == nil {
		return false, nil
	}
	active := m.active()
	if len(active) <= m.cfg.Threshold {
		return false, nil
	}
	n := windowing.RecentStart(toProvider(active), m.cfg.RecentPairs)
	if n == 0 {
		return false, nil
	}

	text, usage, err := m.summarizer.Summarize(ctx, m.state.Summary, slices.Clone(active[:n]))
	m.AddUsage(usage)
	if err != nil {
		m.log.Warn("summarization failed; keeping previous summary",
			slog.Int("pending", n),
			slog.Any("err", err),
		)
		return false, &SummarizationError{Pending: n, Err: err}
	}

	m.state.Summary = text
	m.state.Folded += n
	m.state.Counters.Summaries++
	m.state.UpdatedAt = m.cfg.Now()
	m.log.Debug("folded messages into summary",
		slog.Int("folded", n),
		slog.Int("total_folded", m.state.Folded),
		slog.Int("summary_tokens", m.cfg.Counter.CountText(text)),
	)
	return true, nil
}

// Clear drops the conversation, summary and counters and starts a new session
// ID. The initial context is sent again with the next request, so after a clear
// it can go out a second time in the same process.
func (m *Manager) Clear() {
	m.state = State{ID: uuid.NewString(), UpdatedAt: m.cfg.Now()}
	m.contextDelivered = false
}

// Stats is a read-only view of the session.
type Stats struct {
	MessageCount         int // all retained messages, folded included
	FoldedCount          int
	ActiveCount          int
	SummaryPresent       bool
	Summaries            int
	ContextTokens        int // estimate of what the next request carries before the question
	PendingTokens        int // unfolded messages outside the recent window
	PendingGroups        int
	EstimatedTokensSaved int64
	InputTokens          int64
	OutputTokens         int64
	TotalTokensUsed      int64
}

func (m *Manager) Stats() Stats {
	c := m.state.Counters
	p := m.context()
	preamble := p.Messages[:len(p.Messages)-p.Recent]
	return Stats{
		MessageCount:         len(m.state.Messages),
		FoldedCount:          m.state.Folded,
		ActiveCount:          len(m.active()),
		SummaryPresent:       m.state.Summary != "",
		Summaries:            c.Summaries,
		ContextTokens:        windowing.CountMessages(m.cfg.Counter, preamble) + p.Window.Total,
		PendingTokens:        p.Window.Omitted,
		PendingGroups:        p.Window.SkippedGroups,
		EstimatedTokensSaved: c.EstimatedTokensSaved,
		InputTokens:          c.InputTokens,
		OutputTokens:         c.OutputTokens,
		TotalTokensUsed:      c.TotalTokens(),
	}
}
