/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/longkey1/llmchat/internal/chat"
	"github.com/spf13/cobra"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models that can generate content",
	Long: `List the models available to your API key that support generateContent.
Fetches the latest model information directly from the API.

The current model (generation.model) is marked with '*'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWidget()
		if err != nil {
			return err
		}
		defer w.close()

		apiKey, ok, err := w.store.Get()
		if err != nil {
			return err
		}
		if !ok {
			return chat.ErrMissingCredential
		}

		models, err := w.client.ListModels(cmd.Context(), apiKey)
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}

		if len(models) == 0 {
			fmt.Println("No models found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "\tMODEL\tDESCRIPTION")
		for _, m := range models {
			marker := ""
			if m.ID == w.cfg.Generation.Model {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, m.ID, m.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
