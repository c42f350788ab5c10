/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/longkey1/llmchat/internal/credential"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// keyCmd represents the key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored API key",
	Long: `Manage the Gemini API key used to authenticate requests.

The key is kept in the configured credential store (credential.backend):
a JSON file, a SQLite database, or process memory.`,
}

// keySetCmd represents the key set command
var keySetCmd = &cobra.Command{
	Use:   "set [value]",
	Short: "Store the API key",
	Long: `Store the API key. If no value is given, it is read from the terminal
without echo, or from the first line of stdin when stdin is not a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWidget()
		if err != nil {
			return err
		}
		defer w.close()

		var value string
		if len(args) > 0 {
			value = args[0]
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stderr, "API key: ")
			value, err = readPassword()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading API key: %w", err)
			}
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				value = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading API key: %w", err)
			}
		}

		if err := w.conv.SetCredential(value); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "API key saved.")
		return nil
	},
}

// keyShowCmd represents the key show command
var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API key (masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		value, ok, err := store.Get()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No API key stored.")
			return nil
		}
		fmt.Println(credential.Mask(value))
		return nil
	},
}

// keyClearCmd represents the key clear command
var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "API key removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyClearCmd)
}
