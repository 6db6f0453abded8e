// Package oracle is the process's interface to the external analysis
// oracle: the reasoning service that performs claim extraction,
// verification, interaction classification, and report synthesis. The
// oracle is treated as an untrusted, failure-prone black box; every
// response is validated before it enters the core, and every failure
// degrades to the documented fallback instead of aborting.
package oracle

import "context"

// Provider is a text-completion backend for the oracle
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system prompt and a user prompt and returns the
	// raw completion text
	Complete(ctx context.Context, system, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClaimRef is the minimal claim view sent to the classification oracle
type ClaimRef struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Config holds oracle provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Model:     "",
		Timeout:   60,
		MaxTokens: 2000,
	}
}
