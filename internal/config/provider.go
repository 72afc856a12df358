package config

import "strings"

// DetectProvider determines the provider from model name.
func DetectProvider(modelName string) string {
	lower := strings.ToLower(modelName)

	switch {
	case lower == "":
		return "ollama"
	case strings.HasPrefix(lower, "gemini") || strings.HasPrefix(lower, "models/"):
		return "gemini"
	default:
		return "ollama"
	}
}

// Normalize fills provider-dependent fields left empty.
func (c *Config) Normalize() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" || c.AI.Provider == "auto" {
		c.AI.Provider = DetectProvider(c.AI.Model)
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case "gemini":
			c.AI.Model = DefaultGeminiModel
		case "ollama":
			c.AI.Model = DefaultOllamaModel
		}
	}
	if c.Storage.StateKey == "" {
		c.Storage.StateKey = DefaultStateKey
	}
	if c.User == "" {
		c.User = DefaultUser
	}
}
