package llm

import (
	"context"
	"fmt"

	"github.com/ledgerchat/ledgerchat/internal/config"
)

// Request is one completion exchange. MaxTokens of zero means the provider
// default.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Client produces a text completion for a prompt. Implementations are plain
// HTTP JSON clients; the rest of the system treats the model as an opaque
// text-in text-out capability.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the configured completion client.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.OllamaURL,
			Model:       cfg.OllamaModel,
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
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
