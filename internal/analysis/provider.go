package analysis

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by NewProvider when no credential is configured.
var ErrMissingAPIKey = errors.New("llm api key not configured")

// NewProvider builds the provider named by name ("gemini" or "openai").
func NewProvider(ctx context.Context, name, apiKey, baseURL string) (Provider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch name {
	case "", "gemini":
		return NewGeminiProvider(ctx, apiKey)
	case "openai":
		return NewOpenAIProvider(apiKey, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
