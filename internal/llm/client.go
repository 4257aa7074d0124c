package llm

import (
	"context"
	"fmt"

	"github.com/ranjithr99/SQL-AGENT/internal/config"
)

// Client is a stateless request/response interface to a language model. Each
// call is independent; no session state is shared between calls.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// New builds the configured provider client. Both providers are plain HTTP
// chat clients; the provider choice only changes the wire format.
func New(cfg config.AIConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
