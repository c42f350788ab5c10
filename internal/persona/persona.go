// Package persona loads assistant personas from TOML files.
//
// A persona file carries the instructions prepended to every user message and
// may override the generation parameters of the base configuration:
//
//	instructions = "You are a patient math tutor."
//	model = "gemini-1.5-pro"   # optional
//	temperature = 0.2          # optional
//	max_tokens = 512           # optional
package persona

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/llmchat/internal/config"
)

// Persona represents the structure of a TOML persona file
type Persona struct {
	Instructions string   `toml:"instructions"`
	Model        *string  `toml:"model,omitempty"`
	Temperature  *float64 `toml:"temperature,omitempty"`
	MaxTokens    *int     `toml:"max_tokens,omitempty"`
}

// Load decodes a persona file
func Load(filePath string) (*Persona, error) {
	var p Persona
	if _, err := toml.DecodeFile(filePath, &p); err != nil {
		return nil, fmt.Errorf("error decoding persona file: %w", err)
	}
	return &p, nil
}

// ApplyTo returns a copy of cfg with the persona's fields layered on top.
// Empty instructions keep the configured ones.
func (p *Persona) ApplyTo(cfg config.Config) config.Config {
	if p.Instructions != "" {
		cfg.Persona.Instructions = p.Instructions
	}
	if p.Model != nil {
		cfg.Generation.Model = *p.Model
	}
	if p.Temperature != nil {
		cfg.Generation.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		cfg.Generation.MaxTokens = *p.MaxTokens
	}
	return cfg
}
