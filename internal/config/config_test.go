package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, toml string) *viper.Viper {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	SetDefaults(v, NewDefaultConfig(dir))
	if toml != "" {
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Generation.Model)
	assert.Equal(t, 1024, cfg.Generation.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, "Hello! How can I help you today?", cfg.UI.WelcomeMessage)
	assert.Equal(t, "file", cfg.Credential.Backend)
	assert.Zero(t, cfg.DispatchDelay)
}

func TestLoadFrom_FileOverrides(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, `
base_url = "http://localhost:9999"
dispatch_delay = "500ms"
persona_dirs = ["personas"]

[persona]
instructions = "You are a pirate."

[generation]
model = "gemini-1.5-pro"
temperature = 0.2
max_tokens = 256

[ui]
welcome_message = "Ahoy!"

[credential]
backend = "sqlite"
path = "keys.db"
`))
	require.NoError(t, err)

	assert.Equal(t, "You are a pirate.", cfg.Persona.Instructions)
	assert.Equal(t, "gemini-1.5-pro", cfg.Generation.Model)
	assert.Equal(t, 256, cfg.Generation.MaxTokens)
	assert.Equal(t, "Ahoy!", cfg.UI.WelcomeMessage)
	assert.Equal(t, "AI Assistant", cfg.UI.Title)
	assert.Equal(t, 500*time.Millisecond, cfg.DispatchDelay)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)

	// relative paths are anchored at the config file directory
	assert.True(t, filepath.IsAbs(cfg.Credential.Path))
	assert.True(t, strings.HasSuffix(cfg.Credential.Path, "keys.db"))
	require.Len(t, cfg.PersonaDirs, 1)
	assert.True(t, filepath.IsAbs(cfg.PersonaDirs[0]))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty model", func(c *Config) { c.Generation.Model = " " }, "generation.model"},
		{"zero max tokens", func(c *Config) { c.Generation.MaxTokens = 0 }, "max_tokens"},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 2.5 }, "temperature"},
		{"unknown backend", func(c *Config) { c.Credential.Backend = "redis" }, "unsupported credential backend"},
		{"file backend without path", func(c *Config) { c.Credential.Path = "" }, "credential.path"},
		{"memory backend without path", func(c *Config) { c.Credential.Backend = "memory"; c.Credential.Path = "" }, ""},
		{"negative delay", func(c *Config) { c.DispatchDelay = -time.Second }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvePath(t *testing.T) {
	abs, err := ResolvePath("/etc/llmchat/config.toml", "/var/lib/keys.json")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/keys.json", abs)

	rel, err := ResolvePath("/etc/llmchat/config.toml", "personas")
	require.NoError(t, err)
	assert.Equal(t, "/etc/llmchat/personas", rel)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	noFile, err := ResolvePath("", "personas")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "personas"), noFile)
}
