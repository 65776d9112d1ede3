package nlp

import (
	"context"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-agnostic completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// JSONSchema, when set, asks the provider for structured output
	// matching the schema. The map must carry "properties" and
	// "required" keys so providers that emulate structured output
	// through tool calls can rebuild the schema.
	JSONSchema map[string]any

	// StrictMode requests strict schema adherence where the provider
	// supports it.
	StrictMode bool
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string
	Duration     time.Duration
}

// Provider executes completion requests against a language model.
type Provider interface {
	// Execute sends a request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name (e.g. "anthropic", "openai").
	Name() string

	// Model returns the model identifier in use.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 3,
		Timeout:    120 * time.Second,
	}
}
