package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	Retry       RetryConfig
}

// GeminiClient wraps the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	config GeminiConfig
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key required (get one at https://aistudio.google.com/apikey and set GEMINI_API_KEY)")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 8192
	}
	if config.Retry.MaxDelay == 0 {
		config.Retry.MaxDelay = DefaultRetryConfig().MaxDelay
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }
func (c *GeminiClient) Model() string    { return c.config.Model }

// Complete merges system messages into the system instruction and sends the
// rest as contents.
func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	system, contents := toGeminiContents(messages)
	genConfig := &genai.GenerateContentConfig{
		Temperature:     Ptr(c.config.Temperature),
		MaxOutputTokens: c.config.MaxTokens,
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	return withRetry(ctx, c.Provider(), c.config.Retry, func(ctx context.Context) (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, genConfig)
		if err != nil {
			return "", convertGeminiError(err)
		}
		return resp.Text(), nil
	})
}

func toGeminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func convertGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiPtr *genai.APIError
	if errors.As(err, &apiPtr) {
		return &APIError{Provider: "gemini", StatusCode: apiPtr.Code, Message: apiPtr.Message}
	}
	return err
}
