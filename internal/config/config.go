package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "NOTEDOWN_"

// Config is the application configuration. Section structs are
// snapshots: mutate a copy and reload, not the shared value.
type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	AI      AIConfig      `toml:"ai"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// EditorConfig holds editing behavior settings.
type EditorConfig struct {
	// MaxUndoEntries caps the undo history depth.
	MaxUndoEntries int `toml:"max_undo_entries"`

	// AutoFormat enables markdown-style input rules.
	AutoFormat bool `toml:"auto_format"`

	// SlashMenu enables the slash command menu.
	SlashMenu bool `toml:"slash_menu"`
}

// AIConfig holds generation settings. API keys come only from the
// environment, never from the config file.
type AIConfig struct {
	// Provider selects the backend ("openai", "anthropic", "mock").
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// MaxTokens bounds response length; 0 uses the provider default.
	MaxTokens int `toml:"max_tokens"`

	// Structured requests the JSON block payload from generations.
	Structured bool `toml:"structured"`

	// APIKey is populated from NOTEDOWN_OPENAI_KEY or
	// NOTEDOWN_ANTHROPIC_KEY depending on the provider.
	APIKey string `toml:"-"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Dir is the document store directory.
	Dir string `toml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Editor: EditorConfig{
			MaxUndoEntries: 1000,
			AutoFormat:     true,
			SlashMenu:      true,
		},
		AI: AIConfig{
			Provider:  "mock",
			MaxTokens: 2048,
		},
		Storage: StorageConfig{
			Dir: filepath.Join(home, ".notedown", "documents"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. A missing file is not an error; the defaults
// and environment still apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers NOTEDOWN_* environment variables over the config.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv(envPrefix + "STORAGE_DIR"); ok {
		c.Storage.Dir = v
	}
	if v, ok := os.LookupEnv(envPrefix + "AI_PROVIDER"); ok {
		c.AI.Provider = v
	}
	if v, ok := os.LookupEnv(envPrefix + "AI_MODEL"); ok {
		c.AI.Model = v
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_UNDO"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Editor.MaxUndoEntries = n
		}
	}
	switch c.AI.Provider {
	case "openai":
		c.AI.APIKey = os.Getenv(envPrefix + "OPENAI_KEY")
	case "anthropic":
		c.AI.APIKey = os.Getenv(envPrefix + "ANTHROPIC_KEY")
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Editor.MaxUndoEntries < 0 {
		return fmt.Errorf("%w: editor.max_undo_entries must not be negative", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.AI.Provider {
	case "openai", "anthropic", "mock", "":
	default:
		return fmt.Errorf("%w: unknown ai.provider %q", ErrInvalidConfig, c.AI.Provider)
	}
	return nil
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notedown", "config.toml")
	}
	return "config.toml"
}
