package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/petasbytes/datachat/internal/chat"
	"github.com/petasbytes/datachat/internal/config"
	"github.com/petasbytes/datachat/internal/dataset"
	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/internal/session"
	"github.com/petasbytes/datachat/internal/windowing"
	"github.com/petasbytes/datachat/memory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "datachat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	systemPrompt, err := config.LoadSystemPrompt(cfg.PromptFile)
	if err != nil {
		return err
	}
	data, err := dataset.Load(cfg.DataFile, dataset.Options{})
	if err != nil {
		return &config.Error{Key: "CHAT_DATA_FILE", Err: err}
	}
	if data.Truncated {
		logger.Warn("dataset truncated", slog.Int("rows", data.Rows), slog.Int("rendered", data.Rendered))
	}

	gen, model, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := memory.NewManager(memory.Config{
		RecentPairs:    cfg.RecentPairs,
		Threshold:      cfg.SummaryThreshold,
		InitialContext: data.Context(""),
		Counter:        newCounter(cfg, logger),
		Logger:         logger,
	}, memory.NewLLMSummarizer(gen, cfg.SummaryMaxTokens))

	restored := session.LoadOrEmpty(ctx, store, logger)
	if err := mem.Restore(restored); err != nil {
		logger.Warn("discarding persisted session", slog.Any("err", err))
	}

	s := chat.New(gen, mem, store, chat.Options{
		System:        systemPrompt,
		MaxTokens:     cfg.MaxTokens,
		AutosaveEvery: cfg.AutosaveEvery,
		Model:         model,
	}, os.Stdout, logger)
	s.Banner(!restored.Empty())
	return s.Run(ctx, os.Stdin)
}

func newGenerator(cfg config.Config) (provider.Generator, string, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = provider.DefaultOpenAIModel
		}
		llm, err := provider.NewOpenAI(cfg.APIKey, model,
			openai.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		if err != nil {
			return nil, "", &config.Error{Key: "CHAT_PROVIDER", Err: err}
		}
		return llm, model, nil
	default:
		client := provider.NewAnthropicClient(provider.ClientOptions{
			APIKey:         cfg.APIKey,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
		})
		a := provider.NewAnthropic(client, cfg.Model)
		return a, string(a.Model), nil
	}
}

func newStore(cfg config.Config) (session.Store, func(), error) {
	if cfg.Store == config.StoreSQLite {
		s, err := session.NewSQLiteStore(cfg.SessionFile, cfg.SessionName)
		if err != nil {
			return nil, nil, &config.Error{Key: "CHAT_SESSION_FILE", Err: err}
		}
		return s, func() { _ = s.Close() }, nil
	}
	return session.NewJSONStore(cfg.SessionFile), func() {}, nil
}

func newCounter(cfg config.Config, logger *slog.Logger) windowing.TokenCounter {
	if cfg.Tokenizer != config.TokenizerTiktoken {
		return windowing.HeuristicCounter{}
	}
	c, err := windowing.NewTiktokenCounter(windowing.DefaultEncoding)
	if err != nil {
		// The encoding is fetched on first use; offline machines fall back.
		logger.Warn("tiktoken unavailable; using heuristic counter", slog.Any("err", err))
		return windowing.HeuristicCounter{}
	}
	return c
}
