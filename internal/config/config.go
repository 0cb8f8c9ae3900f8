// Package config assembles the process-wide settings once at startup so the
// rest of the program receives them explicitly instead of reading the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Providers and stores understood by Load.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Config is everything main needs to wire the chatbot.
type Config struct {
	Provider string
	APIKey   string
	Model    string

	MaxTokens        int64
	SummaryMaxTokens int64
	RequestTimeout   time.Duration
	MaxRetries       int

	PromptFile string
	DataFile   string

	Store       string
	SessionFile string
	SessionName string

	RecentPairs      int
	SummaryThreshold int
	AutosaveEvery    int
	Tokenizer        string

	LogLevel slog.Level
}

// Error is a fatal configuration problem.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissing marks a required value that is absent.
var ErrMissing = errors.New("required value is not set")

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &Error{Key: path, Err: err}
	}
	return nil
}

// Load reads the configuration through getenv (os.Getenv in production).
func Load(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}
	c := Config{
		Provider:         strings.ToLower(r.str("CHAT_PROVIDER", ProviderAnthropic)),
		Model:            r.str("CHAT_MODEL", ""),
		MaxTokens:        int64(r.integer("CHAT_MAX_TOKENS", 2000)),
		SummaryMaxTokens: int64(r.integer("CHAT_SUMMARY_MAX_TOKENS", 500)),
		RequestTimeout:   r.duration("CHAT_REQUEST_TIMEOUT", 60*time.Second),
		MaxRetries:       r.integer("CHAT_MAX_RETRIES", 1),
		PromptFile:       r.str("CHAT_PROMPT_FILE", "prompt.txt"),
		DataFile:         r.str("CHAT_DATA_FILE", "Business report.csv"),
		Store:            strings.ToLower(r.str("CHAT_STORE", StoreJSON)),
		SessionName:      r.str("CHAT_SESSION_NAME", "default"),
		RecentPairs:      r.integer("CHAT_RECENT_PAIRS", 4),
		SummaryThreshold: r.integer("CHAT_SUMMARY_THRESHOLD", 12),
		AutosaveEvery:    r.integer("CHAT_AUTOSAVE_EVERY", 0),
		Tokenizer:        strings.ToLower(r.str("CHAT_TOKENIZER", TokenizerHeuristic)),
		LogLevel:         r.level("CHAT_LOG_LEVEL", slog.LevelWarn),
	}
	if r.err != nil {
		return Config{}, r.err
	}

	switch c.Provider {
	case ProviderAnthropic:
		c.APIKey = getenv("ANTHROPIC_API_KEY")
		if c.APIKey == "" {
			return Config{}, &Error{Key: "ANTHROPIC_API_KEY", Err: ErrMissing}
		}
	case ProviderOpenAI:
		c.APIKey = getenv("OPENAI_API_KEY")
		if c.APIKey == "" {
			return Config{}, &Error{Key: "OPENAI_API_KEY", Err: ErrMissing}
		}
	default:
		return Config{}, &Error{Key: "CHAT_PROVIDER", Err: fmt.Errorf("unknown provider %q", c.Provider)}
	}

	switch c.Store {
	case StoreJSON:
		c.SessionFile = r.str("CHAT_SESSION_FILE", "conversation.json")
	case StoreSQLite:
		c.SessionFile = r.str("CHAT_SESSION_FILE", "conversation.db")
	default:
		return Config{}, &Error{Key: "CHAT_STORE", Err: fmt.Errorf("unknown store %q", c.Store)}
	}

	if c.Tokenizer != TokenizerHeuristic && c.Tokenizer != TokenizerTiktoken {
		return Config{}, &Error{Key: "CHAT_TOKENIZER", Err: fmt.Errorf("unknown tokenizer %q", c.Tokenizer)}
	}
	if c.RecentPairs < 1 {
		return Config{}, &Error{Key: "CHAT_RECENT_PAIRS", Err: errors.New("must be at least 1")}
	}
	if c.SummaryThreshold < 2*c.RecentPairs {
		return Config{}, &Error{Key: "CHAT_SUMMARY_THRESHOLD", Err: fmt.Errorf("must be at least twice CHAT_RECENT_PAIRS (%d)", 2*c.RecentPairs)}
	}
	if c.MaxTokens < 1 || c.SummaryMaxTokens < 1 {
		return Config{}, &Error{Key: "CHAT_MAX_TOKENS", Err: errors.New("token limits must be positive")}
	}
	if c.MaxRetries < 0 || c.AutosaveEvery < 0 {
		return Config{}, &Error{Err: errors.New("CHAT_MAX_RETRIES and CHAT_AUTOSAVE_EVERY must not be negative")}
	}
	return c, nil
}

// reader keeps the first parse error so Load can read every key in one pass.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = &Error{Key: key, Err: fmt.Errorf("invalid integer %q", v)}
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = &Error{Key: key, Err: fmt.Errorf("invalid duration %q", v)}
	}
	return d
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil && r.err == nil {
		r.err = &Error{Key: key, Err: fmt.Errorf("invalid log level %q", v)}
	}
	return l
}
