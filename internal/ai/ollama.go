package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"vterm/internal/logging"
)

// OllamaConfig holds configuration for Ollama API client.
type OllamaConfig struct {
	BaseURL     string        // Default: "http://localhost:11434"
	Model       string        // e.g., "llama3.2", "qwen2.5-coder"
	Temperature float32       // Temperature for generation
	MaxTokens   int32         // Max output tokens
	HTTPTimeout time.Duration // HTTP request timeout (default: 120s)
	Retry       RetryConfig
}

// OllamaClient completes chats against an Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// NewOllamaClient creates a new Ollama API client.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 8192
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 120 * time.Second
	}
	if config.Retry.MaxDelay == 0 {
		config.Retry.MaxDelay = DefaultRetryConfig().MaxDelay
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	// Warn if using unencrypted HTTP to a non-localhost host
	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	return &OllamaClient{
		client: api.NewClient(baseURL, &http.Client{Timeout: config.HTTPTimeout}),
		config: config,
	}, nil
}

func (c *OllamaClient) Provider() string { return "ollama" }
func (c *OllamaClient) Model() string    { return c.config.Model }

// Complete sends messages as one non-streaming chat request.
func (c *OllamaClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: toOllamaMessages(messages),
		Stream:   Ptr(false),
		Options: map[string]any{
			"num_predict": c.config.MaxTokens,
		},
	}
	if c.config.Temperature > 0 {
		req.Options["temperature"] = c.config.Temperature
	}

	text, err := withRetry(ctx, c.Provider(), c.config.Retry, func(ctx context.Context) (string, error) {
		var b strings.Builder
		err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			b.WriteString(resp.Message.Content)
			return nil
		})
		if err != nil {
			return "", convertOllamaError(err)
		}
		return b.String(), nil
	})
	if err != nil {
		return "", c.wrapOllamaError(err)
	}
	return text, nil
}

func toOllamaMessages(messages []Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func convertOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &APIError{Provider: "ollama", StatusCode: statusErr.StatusCode, Message: statusErr.ErrorMessage}
	}
	var statusPtr *api.StatusError
	if errors.As(err, &statusPtr) {
		return &APIError{Provider: "ollama", StatusCode: statusPtr.StatusCode, Message: statusPtr.ErrorMessage}
	}
	return err
}

// wrapOllamaError adds a hint for the failures users can fix themselves.
func (c *OllamaClient) wrapOllamaError(err error) error {
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("Ollama server is not running at %s (start it with: ollama serve): %w", c.config.BaseURL, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("model '%s' is not installed (pull it with: ollama pull %s): %w", c.config.Model, c.config.Model, err)
	}
	return err
}
