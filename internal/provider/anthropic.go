package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

// ClientOptions configures the Anthropic SDK client.
type ClientOptions struct {
	APIKey         string
	RequestTimeout time.Duration // per attempt; 0 keeps the SDK default
	MaxRetries     int           // SDK-level retries on transient failures
	Extra          []option.RequestOption
}

// NewAnthropicClient returns a client with an explicit key, timeout and retry policy.
func NewAnthropicClient(o ClientOptions) *anthropic.Client {
	opts := []option.RequestOption{option.WithMaxRetries(o.MaxRetries)}
	if o.APIKey != "" {
		opts = append(opts, option.WithAPIKey(o.APIKey))
	}
	if o.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.RequestTimeout))
	}
	opts = append(opts, o.Extra...)
	c := anthropic.NewClient(opts...)
	return &c
}

// Anthropic implements Generator on the Messages API.
type Anthropic struct {
	Client *anthropic.Client
	Model  anthropic.Model
}

// NewAnthropic returns a Generator for model; an empty model selects DefaultModel.
func NewAnthropic(client *anthropic.Client, model string) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	return &Anthropic{Client: client, Model: m}
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     a.Model,
		MaxTokens: req.MaxTokens,
		Messages:  toAnthropic(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		te := &TransportError{Provider: "anthropic", Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			te.StatusCode = apiErr.StatusCode
		}
		return Reply{}, te
	}

	// Join the visible text blocks; anything else (thinking etc.) is dropped.
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	return Reply{
		Text: strings.Join(parts, "\n"),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

func toAnthropic(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
