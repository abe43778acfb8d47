// Package llm is the provider gateway: it selects a provider configuration and
// sends prompts to one of the interchangeable text-generation providers.
package llm

import (
	"context"
	"strings"
)

// ProviderKind names a supported provider adapter.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOllama    ProviderKind = "ollama"
)

// IsValid reports whether k is a supported provider.
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return true
	}
	return false
}

// Config is a named provider configuration record.
type Config struct {
	ID          string       `json:"id"`
	Provider    ProviderKind `json:"provider"`
	Model       string       `json:"model"`
	APIKey      string       `json:"api_key"`
	APIEndpoint string       `json:"api_endpoint,omitempty"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	Enabled     bool         `json:"enabled"`
}

// HasCredentials reports whether the config carries an API key.
func (c Config) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Masked returns a copy with all but the last four characters of the key hidden.
func (c Config) Masked() Config {
	key := strings.TrimSpace(c.APIKey)
	switch {
	case key == "":
	case len(key) <= 4:
		c.APIKey = "****"
	default:
		c.APIKey = "****" + key[len(key)-4:]
	}
	return c
}

// Request is the provider-neutral prompt: a system instruction plus the user prompt.
type Request struct {
	System string
	Prompt string
}

// ProviderClient is implemented by each provider adapter. Implementations
// return *ProviderError for HTTP failures and the raw completion text otherwise.
type ProviderClient interface {
	Complete(ctx context.Context, cfg Config, req Request) (string, error)
}

// ProviderClientFunc adapts a function to ProviderClient.
type ProviderClientFunc func(ctx context.Context, cfg Config, req Request) (string, error)

// Complete calls f.
func (f ProviderClientFunc) Complete(ctx context.Context, cfg Config, req Request) (string, error) {
	return f(ctx, cfg, req)
}
