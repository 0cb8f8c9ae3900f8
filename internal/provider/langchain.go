package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// DefaultOpenAIModel is used when CHAT_PROVIDER=openai and no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// Langchain implements Generator on any langchaingo model.
type Langchain struct {
	LLM  llms.Model
	Name string // provider label used in errors
}

// NewOpenAI builds a langchaingo OpenAI model and wraps it as a Generator.
// Extra options are applied after the key and model.
func NewOpenAI(apiKey, model string, extra ...openai.Option) (*Langchain, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := append([]openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}, extra...)
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Langchain{LLM: llm, Name: "openai"}, nil
}

func (l *Langchain) Generate(ctx context.Context, req Request) (Reply, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		role := schema.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = schema.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Text))
	}

	var opts []llms.CallOption
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(req.MaxTokens)))
	}

	resp, err := l.LLM.GenerateContent(ctx, content, opts...)
	if err != nil {
		return Reply{}, &TransportError{Provider: l.label(), Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, &TransportError{Provider: l.label(), Err: errors.New("empty response")}
	}

	choice := resp.Choices[0]
	return Reply{
		Text: strings.TrimSpace(choice.Content),
		Usage: Usage{
			InputTokens:  infoInt(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: infoInt(choice.GenerationInfo, "CompletionTokens"),
		},
	}, nil
}

func (l *Langchain) label() string {
	if l.Name == "" {
		return "langchain"
	}
	return l.Name
}

// infoInt reads a numeric usage field from langchaingo's loosely typed generation info.
func infoInt(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
