package config

import "time"

// Default configuration values.
const (
	DefaultUser        = "user"
	DefaultProjectID   = "default"
	DefaultProjectName = "workspace"
	DefaultStateKey    = "vterm_terminal_state"

	// Patch typing animation
	DefaultChunkSize  = 150
	DefaultChunkDelay = 16 * time.Millisecond

	// Model settings
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOllamaModel   = "qwen2.5-coder"
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultMaxTokens     = 8192
	DefaultHistoryWindow = 6

	// Retry settings
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultHTTPTimeout = 120 * time.Second
)
