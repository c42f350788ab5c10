/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/longkey1/llmchat/internal/config"
	"github.com/longkey1/llmchat/internal/persona"
	"github.com/spf13/cobra"
)

var withDir bool

// personaCmd represents the persona command
var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "List available persona files",
	Long: `List all persona files found in the configured persona directories.
Persona files are TOML documents with the following structure:

instructions = "You are a patient math tutor."
model = "gemini-1.5-pro"   # optional
temperature = 0.2          # optional
max_tokens = 512           # optional

Select one with 'persona.name' in the config file or LLMCHAT_PERSONA_NAME.
Names are relative paths without the .toml extension, e.g. "support/billing".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		entries, err := persona.List(cfg.PersonaDirs)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No persona files found.")
			fmt.Println("Create .toml files in the following directories:")
			for _, dir := range cfg.PersonaDirs {
				fmt.Printf("  - %s\n", dir)
			}
			return nil
		}

		fmt.Printf("Available personas (%d found):\n\n", len(entries))
		for _, e := range entries {
			marker := " "
			if e.Name == cfg.Persona.Name {
				marker = "*"
			}
			if withDir {
				fmt.Printf("%s %s (from %s)\n", marker, e.Name, e.Dir)
			} else {
				fmt.Printf("%s %s\n", marker, e.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(personaCmd)
	personaCmd.Flags().BoolVar(&withDir, "with-dir", false, "Show the directory each persona was found in")
}
