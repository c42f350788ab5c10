package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/longkey1/llmchat/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, model, temperature, max_tokens, base_url, persona, persona_dirs, credential_backend, credential_path, dispatch_delay, request_timeout"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows the effective configuration loaded from the config file,
environment variables and the selected persona.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  llmchat config                 # Show all configuration
  llmchat config model           # Show only the model
  llmchat config credential_path # Show where the API key is stored`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			value, ok := configField(cfg, strings.ToLower(args[0]))
			if !ok {
				fmt.Fprintf(os.Stderr, "Available fields: %s\n", configFields)
				return fmt.Errorf("unknown field: %s", args[0])
			}
			fmt.Println(value)
			return nil
		}

		fmt.Printf("ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Printf("Model: %s\n", cfg.Generation.Model)
		fmt.Printf("Temperature: %g\n", cfg.Generation.Temperature)
		fmt.Printf("MaxTokens: %d\n", cfg.Generation.MaxTokens)
		fmt.Printf("BaseURL: %s\n", cfg.BaseURL)
		fmt.Printf("Persona: %s\n", cfg.Persona.Name)
		fmt.Printf("PersonaInstructions: %s\n", cfg.Persona.Instructions)
		fmt.Printf("PersonaDirectories: %s\n", strings.Join(cfg.PersonaDirs, ","))
		fmt.Printf("Title: %s\n", cfg.UI.Title)
		fmt.Printf("Subtitle: %s\n", cfg.UI.Subtitle)
		fmt.Printf("Placeholder: %s\n", cfg.UI.Placeholder)
		fmt.Printf("WelcomeMessage: %s\n", cfg.UI.WelcomeMessage)
		fmt.Printf("CredentialBackend: %s\n", cfg.Credential.Backend)
		fmt.Printf("CredentialPath: %s\n", cfg.Credential.Path)
		fmt.Printf("DispatchDelay: %s\n", cfg.DispatchDelay)
		fmt.Printf("RequestTimeout: %s\n", cfg.RequestTimeout)
		fmt.Printf("LogLevel: %s\n", cfg.Log.Level)
		return nil
	},
}

func configField(cfg *config.Config, field string) (string, bool) {
	switch field {
	case "configfile":
		return viper.ConfigFileUsed(), true
	case "model":
		return cfg.Generation.Model, true
	case "temperature":
		return fmt.Sprintf("%g", cfg.Generation.Temperature), true
	case "max_tokens", "maxtokens":
		return fmt.Sprintf("%d", cfg.Generation.MaxTokens), true
	case "base_url", "baseurl":
		return cfg.BaseURL, true
	case "persona":
		return cfg.Persona.Name, true
	case "persona_dirs", "personadirs":
		return strings.Join(cfg.PersonaDirs, ","), true
	case "credential_backend":
		return cfg.Credential.Backend, true
	case "credential_path":
		return cfg.Credential.Path, true
	case "dispatch_delay":
		return cfg.DispatchDelay.String(), true
	case "request_timeout":
		return cfg.RequestTimeout.String(), true
	default:
		return "", false
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
