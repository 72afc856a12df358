package config

import "time"

// Config represents the main application configuration.
type Config struct {
	User    string        `yaml:"user"`
	Project ProjectConfig `yaml:"project"`
	Storage StorageConfig `yaml:"storage"`
	Patch   PatchConfig   `yaml:"patch"`
	AI      AIConfig      `yaml:"ai"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	UI      UIConfig      `yaml:"ui"`

	// Runtime version information
	Version string `yaml:"-"`
}

// ProjectConfig selects the project whose files the shell mirrors.
type ProjectConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"` // memory, local, sftp
	Root    string `yaml:"root"`    // Directory of the local backend

	Ignore []string   `yaml:"ignore,omitempty"`
	Watch  bool       `yaml:"watch"` // Reload on external changes (local backend only)
	SFTP   SFTPConfig `yaml:"sftp"`
}

// SFTPConfig holds the remote project location.
type SFTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	KeyPath  string `yaml:"key_path,omitempty"`
	Password string `yaml:"password,omitempty"`
	Root     string `yaml:"root"`
}

// StorageConfig selects where the session snapshot is kept.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // memory, file, sqlite
	Path     string `yaml:"path"`
	StateKey string `yaml:"state_key"`
}

// PatchConfig controls patch application.
type PatchConfig struct {
	ChunkSize   int           `yaml:"chunk_size"`
	ChunkDelay  time.Duration `yaml:"chunk_delay"`
	AutoExecute bool          `yaml:"auto_execute"` // Apply every proposed patch without review
}

// AIConfig holds model settings.
type AIConfig struct {
	Provider      string      `yaml:"provider"` // ollama, gemini, none
	Model         string      `yaml:"model"`
	OllamaHost    string      `yaml:"ollama_host,omitempty"`
	GeminiAPIKey  string      `yaml:"gemini_api_key,omitempty"`
	Temperature   float32     `yaml:"temperature"`
	MaxTokens     int32       `yaml:"max_tokens"`
	HistoryWindow int         `yaml:"history_window"` // Messages of chat history sent as context
	Retry         RetryConfig `yaml:"retry"`
}

// RetryConfig holds retry settings for API calls.
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries"`  // Maximum number of retry attempts (default: 3)
	RetryDelay  time.Duration `yaml:"retry_delay"`  // Initial delay between retries (default: 1s)
	HTTPTimeout time.Duration `yaml:"http_timeout"` // HTTP request timeout (default: 120s)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // Logging level: debug, info, warn, error
	File  bool   `yaml:"file"`  // Write vterm.log next to the config file
}

// MetricsConfig holds the Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // Empty disables the listener
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
	MarkdownStyle  string `yaml:"markdown_style"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		User: DefaultUser,
		Project: ProjectConfig{
			ID:      DefaultProjectID,
			Name:    DefaultProjectName,
			Backend: "memory",
			Ignore:  []string{".git", "node_modules", "*.tmp"},
			SFTP: SFTPConfig{
				Port: 22,
			},
		},
		Storage: StorageConfig{
			Backend:  "file",
			StateKey: DefaultStateKey,
		},
		Patch: PatchConfig{
			ChunkSize:  DefaultChunkSize,
			ChunkDelay: DefaultChunkDelay,
		},
		AI: AIConfig{
			Provider:      "ollama",
			Model:         DefaultOllamaModel,
			OllamaHost:    DefaultOllamaHost,
			Temperature:   0.1,
			MaxTokens:     DefaultMaxTokens,
			HistoryWindow: DefaultHistoryWindow,
			Retry: RetryConfig{
				MaxRetries:  DefaultMaxRetries,
				RetryDelay:  DefaultRetryDelay,
				HTTPTimeout: DefaultHTTPTimeout,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			HighlightStyle: "monokai",
			MarkdownStyle:  "dark",
		},
	}
}
