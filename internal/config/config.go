// Package config holds the widget configuration: persona, generation parameters,
// display strings and the credential store settings. It is read once at startup
// and treated as an immutable value afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// Config holds the configuration for the chat widget
type Config struct {
	Persona        Persona       `toml:"persona" mapstructure:"persona"`
	PersonaDirs    []string      `toml:"persona_dirs" mapstructure:"persona_dirs"`
	Generation     Generation    `toml:"generation" mapstructure:"generation"`
	BaseURL        string        `toml:"base_url" mapstructure:"base_url"`
	UI             UI            `toml:"ui" mapstructure:"ui"`
	Credential     Credential    `toml:"credential" mapstructure:"credential"`
	DispatchDelay  time.Duration `toml:"dispatch_delay" mapstructure:"dispatch_delay"`   // pause before the request is sent (0 = none)
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"` // 0 = no timeout
	Log            Log           `toml:"log" mapstructure:"log"`
}

// Persona describes the assistant's instructions
type Persona struct {
	Name         string `toml:"name" mapstructure:"name"` // persona file to load from PersonaDirs (optional)
	Instructions string `toml:"instructions" mapstructure:"instructions"`
}

// Generation holds the parameters sent verbatim with every request
type Generation struct {
	Model       string  `toml:"model" mapstructure:"model"`
	Temperature float64 `toml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `toml:"max_tokens" mapstructure:"max_tokens"`
}

// UI holds the display strings
type UI struct {
	Title          string `toml:"title" mapstructure:"title"`
	Subtitle       string `toml:"subtitle" mapstructure:"subtitle"`
	Placeholder    string `toml:"placeholder" mapstructure:"placeholder"`
	WelcomeMessage string `toml:"welcome_message" mapstructure:"welcome_message"`
}

// Credential selects where the API key is persisted
type Credential struct {
	Backend string `toml:"backend" mapstructure:"backend"` // "file", "sqlite" or "memory"
	Path    string `toml:"path" mapstructure:"path"`
}

// Log configures the structured logger
type Log struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(configDir string) *Config {
	return &Config{
		Persona: Persona{
			Instructions: "You are a friendly and helpful assistant. Answer clearly and concisely.",
		},
		PersonaDirs: []string{filepath.Join(configDir, "personas")},
		Generation: Generation{
			Model:       DefaultModel,
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		BaseURL: DefaultBaseURL,
		UI: UI{
			Title:          "AI Assistant",
			Subtitle:       "Powered by Gemini",
			Placeholder:    "Type your message...",
			WelcomeMessage: "Hello! How can I help you today?",
		},
		Credential: Credential{
			Backend: "file",
			Path:    filepath.Join(configDir, "credentials.json"),
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
	}
}

// SetDefaults registers every default value on v so that environment
// variables can override keys that are absent from the config file.
func SetDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("persona.name", cfg.Persona.Name)
	v.SetDefault("persona.instructions", cfg.Persona.Instructions)
	v.SetDefault("persona_dirs", cfg.PersonaDirs)
	v.SetDefault("generation.model", cfg.Generation.Model)
	v.SetDefault("generation.temperature", cfg.Generation.Temperature)
	v.SetDefault("generation.max_tokens", cfg.Generation.MaxTokens)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("ui.title", cfg.UI.Title)
	v.SetDefault("ui.subtitle", cfg.UI.Subtitle)
	v.SetDefault("ui.placeholder", cfg.UI.Placeholder)
	v.SetDefault("ui.welcome_message", cfg.UI.WelcomeMessage)
	v.SetDefault("credential.backend", cfg.Credential.Backend)
	v.SetDefault("credential.path", cfg.Credential.Path)
	v.SetDefault("dispatch_delay", cfg.DispatchDelay)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals, resolves and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	configFile := v.ConfigFileUsed()

	// Convert persona directories to absolute paths
	for i, dir := range config.PersonaDirs {
		absPath, err := ResolvePath(configFile, dir)
		if err != nil {
			return nil, fmt.Errorf("error resolving persona directory path '%s': %w", dir, err)
		}
		config.PersonaDirs[i] = absPath
	}

	if config.Credential.Path != "" {
		absPath, err := ResolvePath(configFile, config.Credential.Path)
		if err != nil {
			return nil, fmt.Errorf("error resolving credential path '%s': %w", config.Credential.Path, err)
		}
		config.Credential.Path = absPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first invalid field
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Generation.Model) == "" {
		return fmt.Errorf("generation.model is not configured")
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens must be positive (got %d)", c.Generation.MaxTokens)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2 (got %g)", c.Generation.Temperature)
	}
	switch c.Credential.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Credential.Path == "" {
			return fmt.Errorf("credential.path is required for the %s backend", c.Credential.Backend)
		}
	default:
		return fmt.Errorf("unsupported credential backend: %s", c.Credential.Backend)
	}
	if c.DispatchDelay < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("dispatch_delay and request_timeout cannot be negative")
	}
	return nil
}

// ResolvePath converts a relative path to an absolute one.
// Relative paths are anchored at the directory of configFile, or the
// working directory when no config file is in use.
func ResolvePath(configFile, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	if configFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		return filepath.Join(cwd, path), nil
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		configDir = filepath.Join(cwd, configDir)
	}

	return filepath.Join(configDir, path), nil
}
