// Package provider is the boundary to the hosted LLM.
//
// Every call, user-facing answer or internal summary, has the same shape:
// a system instruction plus an ordered list of role-tagged text messages.
// Generator hides the vendor SDK so callers and tests can swap it out.
package provider

import (
	"context"
	"fmt"
)

// Role tags a message as coming from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two supported roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single text turn sent to the model.
type Message struct {
	Role Role
	Text string
}

// User returns a user message.
func User(text string) Message { return Message{Role: RoleUser, Text: text} }

// Assistant returns an assistant message.
func Assistant(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// Request is one generation call.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int64
}

// Usage is the token accounting reported by the API for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 { return u.InputTokens + u.OutputTokens }

// Reply is the assistant's visible text plus usage.
type Reply struct {
	Text  string
	Usage Usage
}

// Generator produces a reply for a request. Implementations block until the
// API answers, the request times out, or ctx is cancelled.
type Generator interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Reply, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}

// TransportError reports a failed model call: network failure, timeout or a
// non-2xx API response. It is always recoverable from the chat loop's view.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
