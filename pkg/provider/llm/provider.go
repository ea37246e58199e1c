// Package llm defines the Provider interface for text-generation backends.
//
// A provider wraps a chat-completion API (OpenAI today, potentially others)
// behind a single blocking call. The conversation pipeline never streams:
// each turn sends one system/user instruction pair and consumes the full
// reply, so the interface is deliberately smaller than a general-purpose
// LLM client.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly.
package llm

import "context"

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit and feed the per-call cost estimate.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the instruction pair.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the reply.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// Request carries one generation call. SystemPrompt and UserPrompt are
// opaque to the provider; the caller decides what to ask.
type Request struct {
	// SystemPrompt is the high-priority instruction for the model.
	SystemPrompt string

	// UserPrompt is the turn-specific instruction.
	UserPrompt string

	// JSONResponse requests a JSON-object response format from the provider.
	// The provider does not parse the reply; structured-output validation is
	// the caller's concern.
	JSONResponse bool

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means provider default.
	MaxTokens int
}

// Response is the full, non-streamed reply.
type Response struct {
	// Content is the raw text of the reply (a JSON document when
	// Request.JSONResponse was set and the model complied).
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any text-generation backend.
type Provider interface {
	// Complete sends req to the model and waits for the full reply.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name identifies the backing provider (e.g., "openai") for audit records.
	Name() string

	// Model identifies the configured model (e.g., "gpt-4o-mini").
	Model() string
}
