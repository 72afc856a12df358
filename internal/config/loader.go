package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"vterm/internal/fileutil"
)

// Load loads configuration from path, or from the default location when path
// is empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			// The default config file is optional
			if explicit || !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "vterm", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "darwin" {
		appSupport := filepath.Join(homeDir, "Library", "Application Support", "vterm", "config.yaml")
		if _, err := os.Stat(appSupport); err == nil {
			return appSupport
		}
	}

	return filepath.Join(homeDir, ".config", "vterm", "config.yaml")
}

// GetConfigPath returns the path to the default config file.
func GetConfigPath() string {
	return getConfigPath()
}

// DataDir returns the directory holding state and logs, next to the config.
func DataDir() string {
	path := getConfigPath()
	if path == "" {
		return filepath.Join(os.TempDir(), "vterm")
	}
	return filepath.Dir(path)
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if user := os.Getenv("VTERM_USER"); user != "" {
		cfg.User = user
	}
	if project := os.Getenv("VTERM_PROJECT"); project != "" {
		cfg.Project.ID = project
		cfg.Project.Name = project
	}
	if provider := os.Getenv("VTERM_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("VTERM_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		cfg.AI.OllamaHost = host
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.AI.GeminiAPIKey = apiKey
	}
	if level := os.Getenv("VTERM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.User, "/ \t") || c.User == "" {
		return ErrInvalidUser
	}
	if c.Project.ID == "" || strings.Contains(c.Project.ID, "/") {
		return ErrInvalidProject
	}

	switch c.Project.Backend {
	case "memory":
	case "local":
		if c.Project.Root == "" {
			return ErrMissingProjectRoot
		}
	case "sftp":
		if c.Project.SFTP.Host == "" || c.Project.SFTP.User == "" {
			return ErrMissingSFTPHost
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Project.Backend)
	}

	switch c.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Backend)
	}

	switch c.AI.Provider {
	case "ollama", "none":
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return ErrMissingAuth
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.AI.Provider)
	}

	if c.Patch.ChunkSize < 0 || c.Patch.ChunkDelay < 0 {
		return ErrInvalidPatch
	}
	return nil
}

// Error types for configuration validation.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrInvalidUser        ConfigError = "invalid user: must be a single non-empty path segment"
	ErrInvalidProject     ConfigError = "invalid project id"
	ErrMissingProjectRoot ConfigError = "project.root is required for the local backend"
	ErrMissingSFTPHost    ConfigError = "project.sftp.host and project.sftp.user are required for the sftp backend"
	ErrUnknownBackend     ConfigError = "unknown project backend"
	ErrUnknownStorage     ConfigError = "unknown storage backend"
	ErrUnknownProvider    ConfigError = "unknown ai provider"
	ErrMissingAuth        ConfigError = "missing authentication: set GEMINI_API_KEY or ai.gemini_api_key"
	ErrInvalidPatch       ConfigError = "patch.chunk_size and patch.chunk_delay must not be negative"
)

// Save writes the configuration to path, or to the default location.
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	// 0700: the config may contain API keys
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileutil.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
