package ai

import (
	"context"
	"fmt"

	"vterm/internal/config"
	"vterm/internal/logging"
)

// New creates the client selected by cfg. It returns ErrDisabled for the
// "none" provider.
func New(ctx context.Context, cfg config.AIConfig) (Client, error) {
	retry := RetryConfig{
		MaxRetries: cfg.Retry.MaxRetries,
		RetryDelay: cfg.Retry.RetryDelay,
		MaxDelay:   DefaultRetryConfig().MaxDelay,
	}

	logging.Debug("creating ai client", "provider", cfg.Provider, "model", cfg.Model)

	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.OllamaHost,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			HTTPTimeout: cfg.Retry.HTTPTimeout,
			Retry:       retry,
		})
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Retry:       retry,
		})
	case "none", "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.Provider)
	}
}
